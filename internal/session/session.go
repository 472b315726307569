// Package session implements the cookie-backed identity mechanism. It is
// one of the two ways a request can be authenticated; the other is the
// stateless bearer-token pair issued by internal/utils. Both normalize to
// the same claims shape before reaching business logic, and handlers only
// ever see the normalized form produced by the auth middleware.
package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const cookieName = "coursehub_session"

// Claims is the normalized identity stored in the session cookie. It
// mirrors the claims shape of the JWT tokens so the auth middleware can
// treat both mechanisms uniformly.
type Claims struct {
	UserID          uint64
	Email           string
	Name            string
	Image           string
	Role            string
	IsEmailVerified bool
}

// Store wraps a gorilla cookie store with typed accessors for Claims.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore builds a cookie store signed with secret. maxAge is the cookie
// lifetime in seconds. Secure is left to the deployment's TLS terminator;
// HttpOnly always holds so scripts cannot read the cookie.
func NewStore(secret string, maxAge int) *Store {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

// Get returns the claims held by the request's session cookie, or ok=false
// when no valid session exists. A tampered or undecodable cookie is treated
// the same as an absent one.
func (s *Store) Get(r *http.Request) (Claims, bool) {
	sess, err := s.cookies.Get(r, cookieName)
	if err != nil || sess.IsNew {
		return Claims{}, false
	}
	id, ok := sess.Values["user_id"].(uint64)
	if !ok || id == 0 {
		return Claims{}, false
	}
	c := Claims{UserID: id}
	c.Email, _ = sess.Values["email"].(string)
	c.Name, _ = sess.Values["name"].(string)
	c.Image, _ = sess.Values["image"].(string)
	c.Role, _ = sess.Values["role"].(string)
	c.IsEmailVerified, _ = sess.Values["verified"].(bool)
	return c, true
}

// Save writes claims into the session cookie on the response.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, c Claims) error {
	sess, _ := s.cookies.Get(r, cookieName)
	sess.Values["user_id"] = c.UserID
	sess.Values["email"] = c.Email
	sess.Values["name"] = c.Name
	sess.Values["image"] = c.Image
	sess.Values["role"] = c.Role
	sess.Values["verified"] = c.IsEmailVerified
	return sess.Save(r, w)
}

// Clear expires the session cookie. Safe to call when no session exists.
func (s *Store) Clear(r *http.Request, w http.ResponseWriter) error {
	sess, _ := s.cookies.Get(r, cookieName)
	sess.Options.MaxAge = -1
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(r, w)
}
