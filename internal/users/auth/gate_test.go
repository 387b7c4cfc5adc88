// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/platform/respond"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/users/auth"
)

/*
TestGate_Decide walks every state of the gate with a fresh principal.
*/
func TestGate_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("no_tokens_is_anonymous", func(t *testing.T) {
		f := newFixture(t)
		decision := f.gate.Decide(ctx, "", "")
		assert.Equal(t, auth.Proceed, decision.Outcome)
		assert.Nil(t, decision.Identity)
		assert.Equal(t, "anonymous", decision.Label())
	})

	t.Run("refresh_without_access_is_anonymous", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")

		decision := f.gate.Decide(ctx, "", pair.RefreshToken)
		assert.Equal(t, auth.Proceed, decision.Outcome)
		assert.Nil(t, decision.Identity)
		assert.Empty(t, decision.RenewedAccessToken)
	})

	t.Run("valid_access_authenticates", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")

		decision := f.gate.Decide(ctx, pair.AccessToken, "")
		require.Equal(t, auth.Proceed, decision.Outcome)
		require.NotNil(t, decision.Identity)
		assert.Equal(t, "alice", decision.Identity.LoginName)
		assert.Equal(t, sec.RoleUser, decision.Identity.Role)
		assert.Equal(t, "authenticated", decision.Label())
	})

	t.Run("malformed_access_without_refresh_is_anonymous", func(t *testing.T) {
		f := newFixture(t)
		decision := f.gate.Decide(ctx, "not.a.jwt", "")
		assert.Equal(t, auth.Proceed, decision.Outcome)
		assert.Nil(t, decision.Identity)
		assert.ErrorIs(t, decision.Reason, sec.ErrTokenMalformed)
	})

	t.Run("expired_access_without_refresh_is_anonymous", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")
		f.clock.Advance(16 * time.Minute)

		decision := f.gate.Decide(ctx, pair.AccessToken, "")
		assert.Equal(t, auth.Proceed, decision.Outcome)
		assert.Nil(t, decision.Identity)
		assert.ErrorIs(t, decision.Reason, sec.ErrTokenExpired)
	})

	t.Run("expired_access_with_held_refresh_renews", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")
		f.clock.Advance(16 * time.Minute)

		decision := f.gate.Decide(ctx, pair.AccessToken, pair.RefreshToken)
		require.Equal(t, auth.Proceed, decision.Outcome)
		require.NotNil(t, decision.Identity)
		assert.Equal(t, "alice", decision.Identity.LoginName)
		assert.Equal(t, "renewed", decision.Label())

		claims, err := f.codec.Verify(decision.RenewedAccessToken, sec.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, string(sec.RoleUser), claims.Role)
		assert.True(t, claims.IssuedAt.Time.Equal(f.clock.Now().Truncate(time.Second)))

		principal, err := f.store.FindByLoginName(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, principal.HoldsRefreshToken(pair.RefreshToken), "renewal must not rotate the refresh token")
	})

	t.Run("garbage_refresh_rejects", func(t *testing.T) {
		f := newFixture(t)
		decision := f.gate.Decide(ctx, "not.a.jwt", "also-not-a-jwt")
		assert.Equal(t, auth.Reject, decision.Outcome)
		assert.Nil(t, decision.Identity)
		assert.ErrorIs(t, decision.Reason, sec.ErrTokenMalformed)
		assert.Equal(t, "rejected", decision.Label())
	})

	t.Run("expired_refresh_rejects", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")
		f.clock.Advance(8 * 24 * time.Hour)

		decision := f.gate.Decide(ctx, pair.AccessToken, pair.RefreshToken)
		assert.Equal(t, auth.Reject, decision.Outcome)
		assert.ErrorIs(t, decision.Reason, sec.ErrTokenExpired)
	})

	t.Run("rotated_refresh_rejects", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")
		_, err := f.service.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		f.clock.Advance(16 * time.Minute)

		decision := f.gate.Decide(ctx, pair.AccessToken, pair.RefreshToken)
		assert.Equal(t, auth.Reject, decision.Outcome)
		assert.Nil(t, decision.Identity)
	})

	t.Run("logged_out_refresh_rejects", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")
		require.NoError(t, f.service.Logout(ctx, pair.RefreshToken))

		decision := f.gate.Decide(ctx, "expired-or-garbage", pair.RefreshToken)
		assert.Equal(t, auth.Reject, decision.Outcome)
	})

	t.Run("ghost_principal_rejects", func(t *testing.T) {
		f := newFixture(t)
		ghost, err := f.codec.Issue("ghost", string(sec.RoleAdmin), sec.KindRefresh)
		require.NoError(t, err)

		decision := f.gate.Decide(ctx, "garbage", ghost)
		assert.Equal(t, auth.Reject, decision.Outcome)
		assert.ErrorIs(t, decision.Reason, auth.ErrPrincipalNotFound)
	})

	t.Run("store_failure_rejects", func(t *testing.T) {
		f := newFixture(t)
		refreshToken, err := f.codec.Issue("alice", string(sec.RoleUser), sec.KindRefresh)
		require.NoError(t, err)

		gate := auth.NewGate(f.codec, failingStore{})
		decision := gate.Decide(ctx, "garbage", refreshToken)
		assert.Equal(t, auth.Reject, decision.Outcome)
		assert.ErrorIs(t, decision.Reason, errBackendDown)
	})
}

/*
TestGate_TokenKind checks that a refresh token is no access token in strict
mode and is accepted as one otherwise.
*/
func TestGate_TokenKind(t *testing.T) {
	ctx := context.Background()

	strict := newFixtureWithKind(t, true)
	pair := strict.registerAndLogin(t, "alice", "pass1234")
	decision := strict.gate.Decide(ctx, pair.RefreshToken, "")
	assert.Equal(t, auth.Proceed, decision.Outcome)
	assert.Nil(t, decision.Identity)
	assert.ErrorIs(t, decision.Reason, sec.ErrTokenMalformed)

	lenient := newFixtureWithKind(t, false)
	pair = lenient.registerAndLogin(t, "alice", "pass1234")
	decision = lenient.gate.Decide(ctx, pair.RefreshToken, "")
	require.NotNil(t, decision.Identity)
	assert.Equal(t, "alice", decision.Identity.LoginName)
}

// serveThroughGate runs one request through the gate and returns the
// recorder plus the identity the downstream handler observed.
func serveThroughGate(t *testing.T, gate *auth.Gate, accessToken, refreshToken string) (*httptest.ResponseRecorder, *sec.Identity, bool) {
	t.Helper()

	var (
		seen    *sec.Identity
		reached bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		seen = ctxutil.GetIdentity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: accessToken})
	}
	if refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: refreshToken})
	}

	rec := httptest.NewRecorder()
	gate.Middleware(next).ServeHTTP(rec, req)
	return rec, seen, reached
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

/*
TestGate_Middleware verifies the transport side effects of each outcome.
*/
func TestGate_Middleware(t *testing.T) {
	t.Run("reject_clears_cookies_and_stops", func(t *testing.T) {
		f := newFixture(t)

		rec, seen, reached := serveThroughGate(t, f.gate, "garbage", "garbage")
		assert.False(t, reached)
		assert.Nil(t, seen)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body respond.ErrorEnvelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "AUTHENTICATION_FAILED", body.Code)

		cookies := cookiesByName(rec)
		require.Contains(t, cookies, constants.AccessTokenCookieName)
		require.Contains(t, cookies, constants.RefreshTokenCookieName)
		assert.Negative(t, cookies[constants.AccessTokenCookieName].MaxAge)
		assert.Negative(t, cookies[constants.RefreshTokenCookieName].MaxAge)
	})

	t.Run("renewal_sets_access_cookie_and_identity", func(t *testing.T) {
		f := newFixture(t)
		pair := f.registerAndLogin(t, "alice", "pass1234")
		f.clock.Advance(16 * time.Minute)

		rec, seen, reached := serveThroughGate(t, f.gate, pair.AccessToken, pair.RefreshToken)
		require.True(t, reached)
		require.NotNil(t, seen)
		assert.Equal(t, "alice", seen.LoginName)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		cookies := cookiesByName(rec)
		require.Contains(t, cookies, constants.AccessTokenCookieName)
		assert.NotContains(t, cookies, constants.RefreshTokenCookieName)

		renewed := cookies[constants.AccessTokenCookieName]
		assert.NotEqual(t, pair.AccessToken, renewed.Value)
		assert.True(t, renewed.HttpOnly)
		assert.True(t, renewed.Secure)
		assert.Equal(t, http.SameSiteStrictMode, renewed.SameSite)
		assert.Equal(t, int(constants.AccessTokenCookieMaxAge/time.Second), renewed.MaxAge)
	})

	t.Run("anonymous_passes_through_untouched", func(t *testing.T) {
		f := newFixture(t)

		rec, seen, reached := serveThroughGate(t, f.gate, "", "")
		assert.True(t, reached)
		assert.Nil(t, seen)
		assert.Empty(t, rec.Result().Cookies())
	})
}
