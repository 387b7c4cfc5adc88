// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/respond"
	"github.com/taibuivan/roster/internal/users/auth"
)

// newRouter mounts the auth routes behind the gate, as the server does.
func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	router.Use(f.gate.Middleware)
	router.Mount("/auth", auth.NewHandler(f.service).Routes())
	return router
}

// call issues one request and returns the recorder.
func call(router http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func loginCookies(t *testing.T, router http.Handler) (access, refresh *http.Cookie) {
	t.Helper()

	rec := call(router, http.MethodPost, "/auth/register", `{"loginName":"alice","rawPassword":"pass1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(router, http.MethodPost, "/auth/login", `{"loginName":"alice","rawPassword":"pass1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, constants.AccessTokenCookieName)
	require.Contains(t, cookies, constants.RefreshTokenCookieName)
	return cookies[constants.AccessTokenCookieName], cookies[constants.RefreshTokenCookieName]
}

/*
TestHandler_Register covers the enrollment endpoint.
*/
func TestHandler_Register(t *testing.T) {
	router := newRouter(newFixture(t))

	rec := call(router, http.MethodPost, "/auth/register", `{"loginName":"alice","rawPassword":"pass1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body respond.MessageEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "User registered successfully", body.Message)
	assert.Empty(t, rec.Result().Cookies(), "registration does not sign the caller in")

	rec = call(router, http.MethodPost, "/auth/register", `{"loginName":"alice","rawPassword":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec))

	rec = call(router, http.MethodPost, "/auth/register", `{"loginName":"","rawPassword":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = call(router, http.MethodPost, "/auth/register", `{"loginName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

/*
TestHandler_Login verifies tokens travel only in cookies.
*/
func TestHandler_Login(t *testing.T) {
	router := newRouter(newFixture(t))
	access, refresh := loginCookies(t, router)

	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, refresh.SameSite)
	assert.Equal(t, "/", refresh.Path)

	rec := call(router, http.MethodPost, "/auth/login", `{"loginName":"alice","rawPassword":"pass1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := cookiesByName(rec)
	assert.NotContains(t, rec.Body.String(), cookies[constants.AccessTokenCookieName].Value)
	assert.NotContains(t, rec.Body.String(), cookies[constants.RefreshTokenCookieName].Value)

	rec = call(router, http.MethodPost, "/auth/login", `{"loginName":"alice","rawPassword":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
	assert.Empty(t, rec.Result().Cookies())
}

/*
TestHandler_Me checks the protected endpoint with and without a session.
*/
func TestHandler_Me(t *testing.T) {
	router := newRouter(newFixture(t))
	access, _ := loginCookies(t, router)

	rec := call(router, http.MethodGet, "/auth/me", "", access)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			LoginName string `json:"loginName"`
			Role      string `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.Data.LoginName)
	assert.Equal(t, "USER", body.Data.Role)

	rec = call(router, http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

/*
TestHandler_Refresh rotates once, then replays the old cookie.
*/
func TestHandler_Refresh(t *testing.T) {
	router := newRouter(newFixture(t))
	_, refresh := loginCookies(t, router)

	rec := call(router, http.MethodPost, "/auth/refresh", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := cookiesByName(rec)
	require.Contains(t, cookies, constants.RefreshTokenCookieName)
	assert.NotEqual(t, refresh.Value, cookies[constants.RefreshTokenCookieName].Value)

	rec = call(router, http.MethodPost, "/auth/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", errorCode(t, rec))
	cleared := cookiesByName(rec)
	require.Contains(t, cleared, constants.RefreshTokenCookieName)
	assert.Negative(t, cleared[constants.RefreshTokenCookieName].MaxAge)
}

/*
TestHandler_Logout covers the live, stale and missing cookie paths.
*/
func TestHandler_Logout(t *testing.T) {
	router := newRouter(newFixture(t))
	_, refresh := loginCookies(t, router)

	rec := call(router, http.MethodPost, "/auth/logout", "", refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	cleared := cookiesByName(rec)
	require.Contains(t, cleared, constants.AccessTokenCookieName)
	assert.Negative(t, cleared[constants.AccessTokenCookieName].MaxAge)

	rec = call(router, http.MethodPost, "/auth/logout", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", errorCode(t, rec))

	rec = call(router, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
