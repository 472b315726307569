package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Profile is the subset of the Google userinfo response the application
// needs to provision or look up a user.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"given_name"`
	LastName  string `json:"family_name"`
	Picture   string `json:"picture"`
}

// GoogleOAuth performs the authorization-code exchange against Google and
// fetches the user's profile. Credential verification is fully delegated to
// the provider; the application only consumes the resulting profile.
type GoogleOAuth struct {
	cfg *oauth2.Config
}

// NewGoogleOAuth configures the Google endpoint with the app's client
// credentials and callback URL.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	return &GoogleOAuth{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}}
}

// AuthURL returns the provider login URL carrying the given state value.
func (g *GoogleOAuth) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

// Exchange trades the callback code for a token and fetches the profile.
// A profile without an email is rejected because email is the account key.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("oauth exchange: %w", err)
	}

	resp, err := g.cfg.Client(ctx, tok).Get(userinfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("userinfo fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return Profile{}, err
	}
	if p.Email == "" {
		return Profile{}, errors.New("userinfo response missing email")
	}
	return p, nil
}
