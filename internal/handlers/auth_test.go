package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Username:    "Maya_99",
		Password:    "correct horse",
		DisplayName: "Maya",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reg AuthResponse
	decodeBody(t, w, &reg)
	require.NotNil(t, reg.User)
	assert.Equal(t, "maya_99", reg.User.Username)
	assert.Equal(t, "Maya", reg.User.DisplayName)
	assert.NotEmpty(t, reg.Token)

	// The issued token opens protected routes.
	w = ts.do(t, http.MethodGet, "/api/v1/profile/me", reg.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Login with the same credentials.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "MAYA_99",
		Password: "correct horse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login AuthResponse
	decodeBody(t, w, &login)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotEmpty(t, login.Token)
}

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		req      RegisterRequest
		wantCode int
	}{
		{"username too short", RegisterRequest{Username: "ab", Password: "longenough"}, http.StatusBadRequest},
		{"username bad chars", RegisterRequest{Username: "maya!", Password: "longenough"}, http.StatusBadRequest},
		{"password too short", RegisterRequest{Username: "maya_99", Password: "short"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", tt.req)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)

	req := RegisterRequest{Username: "maya_99", Password: "longenough"}
	w := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Username: "maya_99", Password: "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "maya_99", Password: "not the password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown usernames look the same as wrong passwords.
	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "nobody_here", Password: "not the password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/feed", "/api/v1/profile/me", "/api/v1/friends"} {
		w := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
