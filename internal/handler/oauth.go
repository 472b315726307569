package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/session"
	"github.com/coursehub/coursehub/internal/utils"
)

const oauthStateCookie = "oauth_state"

// OAuthHandler implements the session-based login flow: Google performs
// credential verification and code exchange, this handler provisions a
// local user on first login and writes the session cookie.
type OAuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions *session.Store
	Google   *session.GoogleOAuth
}

func NewOAuthHandler(cfg config.Config, users UserStore, sessions *session.Store, google *session.GoogleOAuth) *OAuthHandler {
	return &OAuthHandler{Cfg: cfg, Users: users, Sessions: sessions, Google: google}
}

// GoogleLogin redirects the browser to the provider's consent screen with a
// random state value pinned in a short-lived cookie.
func (h *OAuthHandler) GoogleLogin(c echo.Context) error {
	state, err := utils.RandomHex(16)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusTemporaryRedirect, h.Google.AuthURL(state))
}

// GoogleCallback completes the code exchange, provisions the user when this
// is their first login and establishes the session. OAuth emails arrive
// verified by the provider, so such accounts skip the verification step.
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || c.QueryParam("state") != stateCookie.Value {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid oauth state"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	profile, err := h.Google.Exchange(ctx, code)
	if err != nil {
		c.Logger().Errorf("oauth exchange failed: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider exchange failed"})
	}

	u, err := h.Users.GetByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		u = model.User{
			Email:           profile.Email,
			FirstName:       profile.FirstName,
			LastName:        profile.LastName,
			Role:            model.RoleStudent,
			IsEmailVerified: true,
			IsActive:        true,
		}
		if profile.Picture != "" {
			u.AvatarURL = &profile.Picture
		}
		if _, err := h.Users.Create(ctx, &u, "", 0); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
		}
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	image := ""
	if u.AvatarURL != nil {
		image = *u.AvatarURL
	}
	if err := h.Sessions.Save(c.Request(), c.Response(), session.Claims{
		UserID:          u.ID,
		Email:           u.Email,
		Name:            u.FullName(),
		Image:           image,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session save failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}
