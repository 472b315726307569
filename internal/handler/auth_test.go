package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/middleware"
	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/session"
	"github.com/coursehub/coursehub/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		AccessSecret:   "access-secret",
		RefreshSecret:  "refresh-secret",
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
}

func newAuthHandler(users *fakeUserStore) *AuthHandler {
	return NewAuthHandler(testConfig(), users, session.NewStore("session-secret", 3600))
}

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func decodeAuthResp(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users)

	rec := postJSON(t, h.Register, "/v1/auth/register",
		`{"email":"Ada@Example.com","password":"s3cret","firstName":"Ada","lastName":"Lovelace"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeAuthResp(t, rec)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, model.RoleStudent, resp.User.Role)
	assert.False(t, resp.User.IsEmailVerified)

	access, err := utils.VerifyAccessToken("access-secret", resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, access.UserID)

	refresh, err := utils.VerifyRefreshToken("refresh-secret", resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, refresh.UserID)

	// The stored account starts unverified and holds a verification token.
	u, err := users.GetByID(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.False(t, u.IsEmailVerified)
	require.NotNil(t, u.VerifyToken)
}

func TestRegisterAdminRoleDowngraded(t *testing.T) {
	h := newAuthHandler(newFakeUserStore())

	rec := postJSON(t, h.Register, "/v1/auth/register",
		`{"email":"mal@example.com","password":"pw","role":"ADMIN"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.RoleStudent, decodeAuthResp(t, rec).User.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newAuthHandler(newFakeUserStore())

	body := `{"email":"dup@example.com","password":"pw"}`
	require.Equal(t, http.StatusCreated, postJSON(t, h.Register, "/v1/auth/register", body).Code)

	rec := postJSON(t, h.Register, "/v1/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already registered")
}

func TestLoginSuccessAndUniformFailure(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users)
	require.Equal(t, http.StatusCreated,
		postJSON(t, h.Register, "/v1/auth/register", `{"email":"u@example.com","password":"right"}`).Code)

	rec := postJSON(t, h.Login, "/v1/auth/login", `{"email":"u@example.com","password":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAuthResp(t, rec)
	assert.Equal(t, "u@example.com", resp.User.Email)

	// Both tokens round-trip to the same subject and role.
	access, err := utils.VerifyAccessToken("access-secret", resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, access.UserID)
	assert.Equal(t, model.RoleStudent, access.Role)
	refresh, err := utils.VerifyRefreshToken("refresh-secret", resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, refresh.UserID)

	wrongPass := postJSON(t, h.Login, "/v1/auth/login", `{"email":"u@example.com","password":"wrong"}`)
	unknownEmail := postJSON(t, h.Login, "/v1/auth/login", `{"email":"ghost@example.com","password":"right"}`)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	// Neither response may reveal which part of the credential was wrong.
	assert.Equal(t, wrongPass.Body.String(), unknownEmail.Body.String())
}

func TestLoginDeactivatedAccount(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users)

	rec := postJSON(t, h.Register, "/v1/auth/register", `{"email":"old@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	u, err := users.GetByID(context.Background(), decodeAuthResp(t, rec).User.ID)
	require.NoError(t, err)
	u.IsActive = false
	users.put(u)

	assert.Equal(t, http.StatusUnauthorized,
		postJSON(t, h.Login, "/v1/auth/login", `{"email":"old@example.com","password":"pw"}`).Code)
}

func TestRefreshRotatesPair(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users)

	reg := decodeAuthResp(t, postJSON(t, h.Register, "/v1/auth/register",
		`{"email":"r@example.com","password":"pw"}`))

	rec := postJSON(t, h.Refresh, "/v1/auth/refresh",
		`{"refreshToken":"`+reg.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeAuthResp(t, rec)
	access, err := utils.VerifyAccessToken("access-secret", resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, access.UserID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users)

	reg := decodeAuthResp(t, postJSON(t, h.Register, "/v1/auth/register",
		`{"email":"x@example.com","password":"pw"}`))

	// An access token must never pass as a refresh token.
	rec := postJSON(t, h.Refresh, "/v1/auth/refresh",
		`{"refreshToken":"`+reg.AccessToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshDeletedUser(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users)

	pair, err := utils.IssueTokenPair("access-secret", "refresh-secret", 7, 42, "gone@example.com", model.RoleStudent)
	require.NoError(t, err)

	rec := postJSON(t, h.Refresh, "/v1/auth/refresh",
		`{"refreshToken":"`+pair.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyEmail(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users)

	reg := decodeAuthResp(t, postJSON(t, h.Register, "/v1/auth/register",
		`{"email":"v@example.com","password":"pw"}`))
	u, err := users.GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	require.NotNil(t, u.VerifyToken)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/verify-email?token="+*u.VerifyToken, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.VerifyEmail(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err = users.GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.True(t, u.IsEmailVerified)

	// Tokens are single use.
	req = httptest.NewRequest(http.MethodGet, "/v1/auth/verify-email?token=stale", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.VerifyEmail(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	users := newFakeUserStore()
	users.put(model.User{ID: 4, Email: "p@example.com", Role: model.RoleStudent, IsActive: true})
	h := newAuthHandler(users)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/me",
		strings.NewReader(`{"firstName":"Grace","lastName":"Hopper","bio":"compilers"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("current_user", middleware.CurrentUser{ID: 4, Role: model.RoleStudent})
	require.NoError(t, h.UpdateMe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := users.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.FirstName)
	require.NotNil(t, u.Bio)
	assert.Equal(t, "compilers", *u.Bio)
}

func TestDeactivateMe(t *testing.T) {
	users := newFakeUserStore()
	users.put(model.User{ID: 4, Email: "p@example.com", Role: model.RoleStudent, IsActive: true})
	h := newAuthHandler(users)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("current_user", middleware.CurrentUser{ID: 4, Role: model.RoleStudent})
	require.NoError(t, h.DeactivateMe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := users.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}

func TestSessionTokenBridge(t *testing.T) {
	users := newFakeUserStore()
	users.put(model.User{
		ID: 7, Email: "s@example.com", Role: model.RoleStudent,
		IsEmailVerified: true, IsActive: true,
	})
	h := newAuthHandler(users)

	// Establish a session cookie, then trade it for a JWT pair.
	saveRec := httptest.NewRecorder()
	require.NoError(t, h.Sessions.Save(
		httptest.NewRequest(http.MethodGet, "/", nil), saveRec,
		session.Claims{UserID: 7, Email: "s@example.com", Role: model.RoleStudent, IsEmailVerified: true}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/session/token", nil)
	for _, ck := range saveRec.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h.SessionToken(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeAuthResp(t, rec)
	access, err := utils.VerifyAccessToken("access-secret", resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), access.UserID)

	// No cookie, no tokens.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/auth/session/token", nil)
	require.NoError(t, h.SessionToken(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
