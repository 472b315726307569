package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	store := NewStore("test-secret", 3600)
	claims := Claims{
		UserID:          7,
		Email:           "a@b.c",
		Name:            "Ada Lovelace",
		Role:            "INSTRUCTOR",
		IsEmailVerified: true,
	}

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(httptest.NewRequest(http.MethodPost, "/", nil), rec, claims))
	require.NotEmpty(t, rec.Result().Cookies())

	got, ok := store.Get(newRequestWithCookies(rec))
	require.True(t, ok)
	assert.Equal(t, claims, got)
}

func TestSessionAbsent(t *testing.T) {
	store := NewStore("test-secret", 3600)
	_, ok := store.Get(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestSessionTamperedCookieRejected(t *testing.T) {
	store := NewStore("test-secret", 3600)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(httptest.NewRequest(http.MethodPost, "/", nil), rec, Claims{UserID: 7}))

	// A cookie signed under a different secret must read as no session.
	other := NewStore("other-secret", 3600)
	_, ok := other.Get(newRequestWithCookies(rec))
	assert.False(t, ok)
}

func TestSessionClear(t *testing.T) {
	store := NewStore("test-secret", 3600)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(httptest.NewRequest(http.MethodPost, "/", nil), rec, Claims{UserID: 7}))

	clearRec := httptest.NewRecorder()
	require.NoError(t, store.Clear(newRequestWithCookies(rec), clearRec))

	var expired bool
	for _, c := range clearRec.Result().Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired, "clearing must expire the cookie")
}
