// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/users/auth"
)

const testSecret = "roster-test-secret-0123456789abcdef"

// clock is a manually advanced time source shared by codec and service.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires the auth core over an in-memory store.
type fixture struct {
	clock   *clock
	codec   *sec.TokenCodec
	store   *auth.MemoryCredentialStore
	service *auth.Service
	gate    *auth.Gate
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithKind(t, true)
}

func newFixtureWithKind(t *testing.T, strictKind bool) *fixture {
	t.Helper()

	c := newClock()
	codec, err := sec.NewTokenCodec(sec.CodecConfig{
		Secret:     []byte(testSecret),
		Issuer:     constants.AuthIssuer,
		AccessTTL:  constants.AccessTokenTTL,
		RefreshTTL: constants.RefreshTokenTTL,
		StrictKind: strictKind,
		Now:        c.Now,
	})
	require.NoError(t, err)

	store := auth.NewMemoryCredentialStore()
	hasher := sec.NewBcryptHasher(bcrypt.MinCost)

	return &fixture{
		clock:   c,
		codec:   codec,
		store:   store,
		service: auth.NewService(store, codec, hasher, auth.WithClock(c.Now)),
		gate:    auth.NewGate(codec, store),
	}
}

// registerAndLogin enrolls a principal and returns its first token pair.
func (f *fixture) registerAndLogin(t *testing.T, loginName, password string) *auth.TokenPair {
	t.Helper()

	ctx := context.Background()
	_, err := f.service.Register(ctx, auth.RegisterInput{LoginName: loginName, RawPassword: password})
	require.NoError(t, err)

	pair, err := f.service.Login(ctx, loginName, password)
	require.NoError(t, err)
	return pair
}

// failingStore fails every call, standing in for an unreachable backend.
type failingStore struct{}

var errBackendDown = errors.New("backend down")

func (failingStore) FindByLoginName(context.Context, string) (*auth.Principal, error) {
	return nil, errBackendDown
}

func (failingStore) FindByRefreshToken(context.Context, string) (*auth.Principal, error) {
	return nil, errBackendDown
}

func (failingStore) ExistsByLoginName(context.Context, string) (bool, error) {
	return false, errBackendDown
}

func (failingStore) Save(context.Context, *auth.Principal) error {
	return errBackendDown
}
