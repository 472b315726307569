package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/middleware"
	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/repository"
	"github.com/coursehub/coursehub/internal/session"
	"github.com/coursehub/coursehub/internal/utils"
)

const verifyTokenTTL = 48 * time.Hour

// AuthHandler bundles dependencies for the credential-based auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions *session.Store
}

func NewAuthHandler(cfg config.Config, users UserStore, sessions *session.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"` // STUDENT | INSTRUCTOR
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	ID              uint64 `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}
type authResp struct {
	User         userPart `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
	}
}

func (h *AuthHandler) issuePair(u model.User) (utils.TokenPair, error) {
	return utils.IssueTokenPair(h.Cfg.AccessSecret, h.Cfg.RefreshSecret,
		h.Cfg.RefreshTTLDays, u.ID, u.Email, u.Role)
}

// Register creates a user and returns tokens immediately. The account
// starts unverified; a verification token is generated and would be mailed
// out by a delivery worker outside this slice.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleInstructor {
		// ADMIN is never self-assignable.
		role = model.RoleStudent
	}

	verifyToken, err := utils.RandomHex(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	verifyExp := time.Now().UTC().Add(verifyTokenTTL)

	u := model.User{
		Email:              req.Email,
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		Role:               role,
		VerifyToken:        &verifyToken,
		VerifyTokenExpires: &verifyExp,
		IsActive:           true,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	pair, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	c.Logger().Infof("verification token issued for user %d", u.ID)

	return c.JSON(http.StatusCreated, authResp{
		User:         toUserPart(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Login verifies credentials and returns a fresh token pair. Failures are
// uniform 401s that never reveal whether the email or the password was
// wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	pair, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:         toUserPart(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh validates a refresh token, re-fetches the user and issues a new
// pair. There is no revocation list; a refresh token stays valid until
// natural expiry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	claims, err := utils.VerifyRefreshToken(h.Cfg.RefreshSecret, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Re-fetch so a deleted or deactivated account cannot keep renewing.
	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	pair, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:         toUserPart(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout clears the session cookie and always answers 200. Issued JWTs are
// not invalidated server-side; they age out on their own.
func (h *AuthHandler) Logout(c echo.Context) error {
	if h.Sessions != nil {
		_ = h.Sessions.Clear(c.Request(), c.Response())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// VerifyEmail consumes an email-verification token.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Users.VerifyEmailByToken(ctx, token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// SessionToken bridges the two identity mechanisms: a client holding a
// valid session cookie receives a JWT pair bound to the same subject, so it
// can call endpoints that only understand bearer tokens.
func (h *AuthHandler) SessionToken(c echo.Context) error {
	claims, ok := h.Sessions.Get(c.Request())
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	pair, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:         toUserPart(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me returns the normalized identity resolved by the auth middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":              u.ID,
		"email":           u.Email,
		"name":            u.Name,
		"role":            u.Role,
		"isEmailVerified": u.IsEmailVerified,
	})
}

type profileReq struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
	Bio       *string `json:"bio"`
}

// UpdateMe updates the caller's profile fields. Email and role are not
// editable through this endpoint.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, u.ID,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName),
		req.AvatarURL, req.Bio); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated"})
}

// DeactivateMe soft-deletes the caller's account and ends the session.
// Outstanding JWTs stop working on the next request because the middleware
// re-checks is_active.
func (h *AuthHandler) DeactivateMe(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Deactivate(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	if h.Sessions != nil {
		_ = h.Sessions.Clear(c.Request(), c.Response())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deactivated"})
}
