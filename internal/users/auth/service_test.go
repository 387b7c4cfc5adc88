// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/platform/apperr"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/users/auth"
)

/*
TestService_Scenario walks the full session lifecycle:
register, login, rotate, replay the old token, logout, replay again.
*/
func TestService_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, auth.RegisterInput{LoginName: "alice", RawPassword: "pass1234"})
	require.NoError(t, err)

	first, err := f.service.Login(ctx, "alice", "pass1234")
	require.NoError(t, err)

	second, err := f.service.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.service.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	require.NoError(t, f.service.Logout(ctx, second.RefreshToken))

	_, err = f.service.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

/*
TestService_LoginThenVerify ensures the access token carries the principal's
login name and role.
*/
func TestService_LoginThenVerify(t *testing.T) {
	f := newFixture(t)

	pair := f.registerAndLogin(t, "bob", "hunter22")

	claims, err := f.codec.Verify(pair.AccessToken, sec.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, string(sec.RoleUser), claims.Role)

	refreshClaims, err := f.codec.Verify(pair.RefreshToken, sec.KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "bob", refreshClaims.Subject)
}

/*
TestService_LoginUniformFailure checks that an unknown login name and a wrong
password are indistinguishable to the caller.
*/
func TestService_LoginUniformFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerAndLogin(t, "carol", "correct-horse")

	_, unknownErr := f.service.Login(ctx, "mallory", "correct-horse")
	_, wrongErr := f.service.Login(ctx, "carol", "battery-staple")

	require.ErrorIs(t, unknownErr, auth.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, auth.ErrInvalidCredentials)

	unknown, wrong := apperr.As(unknownErr), apperr.As(wrongErr)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, unknown.Message, wrong.Message)
	assert.Equal(t, unknown.HTTPStatus, wrong.HTTPStatus)
}

/*
TestService_Register covers defaults, normalization and rejection paths.
*/
func TestService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	principal, err := f.service.Register(ctx, auth.RegisterInput{LoginName: "  jos\u00e9 ", RawPassword: "pass1234"})
	require.NoError(t, err)
	assert.Equal(t, "jos\u00e9", principal.LoginName)
	assert.Equal(t, "jos\u00e9", principal.DisplayName, "display name defaults to the login name")
	assert.Equal(t, sec.RoleUser, principal.Role)
	assert.NotEmpty(t, principal.ID)
	assert.NotEqual(t, "pass1234", principal.PasswordHash)
	assert.Nil(t, principal.RefreshTokenHash, "registration issues no token")
	assert.True(t, f.clock.Now().Equal(principal.CreatedAt))

	tests := []struct {
		name    string
		input   auth.RegisterInput
		wantErr error
		code    string
	}{
		{"duplicate_exact", auth.RegisterInput{LoginName: "jos\u00e9", RawPassword: "x"}, auth.ErrDuplicateLoginName, "CONFLICT"},
		{"duplicate_decomposed", auth.RegisterInput{LoginName: "jose\u0301", RawPassword: "x"}, auth.ErrDuplicateLoginName, "CONFLICT"},
		{"empty_login_name", auth.RegisterInput{LoginName: "  ", RawPassword: "x"}, nil, "VALIDATION_ERROR"},
		{"inner_whitespace", auth.RegisterInput{LoginName: "a b", RawPassword: "x"}, nil, "VALIDATION_ERROR"},
		{"empty_password", auth.RegisterInput{LoginName: "zed"}, nil, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Register(ctx, tt.input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.code, apperr.As(err).Code)
		})
	}
}

/*
TestService_LogoutTwice verifies the second logout with the same token fails.
*/
func TestService_LogoutTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair := f.registerAndLogin(t, "dave", "pass1234")

	require.NoError(t, f.service.Logout(ctx, pair.RefreshToken))
	assert.ErrorIs(t, f.service.Logout(ctx, pair.RefreshToken), auth.ErrInvalidRefreshToken)
	assert.ErrorIs(t, f.service.Logout(ctx, ""), auth.ErrInvalidRefreshToken)
}

/*
TestService_LoginReplacesRefreshToken checks that a second login invalidates
the refresh token of the first.
*/
func TestService_LoginReplacesRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.registerAndLogin(t, "erin", "pass1234")

	second, err := f.service.Login(ctx, "erin", "pass1234")
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	_, err = f.service.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

/*
TestService_RefreshExpired rejects a stored refresh token past its own expiry.
*/
func TestService_RefreshExpired(t *testing.T) {
	f := newFixture(t)
	pair := f.registerAndLogin(t, "frank", "pass1234")

	f.clock.Advance(7*24*time.Hour + time.Minute)

	_, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

/*
TestService_CreatedAtStable ensures login and refresh never move createdAt.
*/
func TestService_CreatedAtStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registeredAt := f.clock.Now()

	pair := f.registerAndLogin(t, "grace", "pass1234")
	f.clock.Advance(time.Hour)
	_, err := f.service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	principal, err := f.store.FindByLoginName(ctx, "grace")
	require.NoError(t, err)
	assert.True(t, registeredAt.Equal(principal.CreatedAt))
}

/*
TestService_StoreFailure surfaces backend errors as internal, not as auth failures.
*/
func TestService_StoreFailure(t *testing.T) {
	f := newFixture(t)
	service := auth.NewService(failingStore{}, f.codec, sec.NewBcryptHasher(4))
	ctx := context.Background()

	_, err := service.Login(ctx, "alice", "pass1234")
	assert.ErrorIs(t, err, errBackendDown)
	assert.False(t, errors.Is(err, auth.ErrInvalidCredentials))

	_, err = service.Refresh(ctx, "some-token")
	assert.ErrorIs(t, err, errBackendDown)

	_, err = service.Register(ctx, auth.RegisterInput{LoginName: "alice", RawPassword: "pass1234"})
	assert.ErrorIs(t, err, errBackendDown)
}

/*
TestService_ConcurrentRefresh races two refreshes of the same token. At least
one wins, the loser fails cleanly or also succeeds, and the store ends up
holding exactly one of the issued tokens.
*/
func TestService_ConcurrentRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair := f.registerAndLogin(t, "heidi", "pass1234")

	const racers = 2
	results := make([]*auth.TokenPair, racers)
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	var issued []string
	for i := 0; i < racers; i++ {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], auth.ErrInvalidRefreshToken)
			continue
		}
		issued = append(issued, results[i].RefreshToken)
	}
	require.NotEmpty(t, issued)

	principal, err := f.store.FindByLoginName(ctx, "heidi")
	require.NoError(t, err)

	held := 0
	for _, token := range issued {
		if principal.HoldsRefreshToken(token) {
			held++
		}
	}
	assert.Equal(t, 1, held)
}
