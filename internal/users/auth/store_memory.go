// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/pkg/pointer"
)

// MemoryCredentialStore keeps principals in process memory.
//
// It backs STORE_DRIVER=memory and the service and gate tests. Records are
// copied on the way in and out, so callers never alias stored state.
type MemoryCredentialStore struct {
	mu        sync.RWMutex
	byLogin   map[string]*Principal
	byRefresh map[string]string // refresh token digest -> login name
}

// NewMemoryCredentialStore returns an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		byLogin:   make(map[string]*Principal),
		byRefresh: make(map[string]string),
	}
}

// FindByLoginName implements [CredentialStore].
func (store *MemoryCredentialStore) FindByLoginName(_ context.Context, loginName string) (*Principal, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	principal, ok := store.byLogin[loginName]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return principal.clone(), nil
}

// FindByRefreshToken implements [CredentialStore].
func (store *MemoryCredentialStore) FindByRefreshToken(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrPrincipalNotFound
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	loginName, ok := store.byRefresh[sec.HashToken(token)]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return store.byLogin[loginName].clone(), nil
}

// ExistsByLoginName implements [CredentialStore].
func (store *MemoryCredentialStore) ExistsByLoginName(_ context.Context, loginName string) (bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	_, ok := store.byLogin[loginName]
	return ok, nil
}

// Save implements [CredentialStore].
func (store *MemoryCredentialStore) Save(_ context.Context, principal *Principal) error {
	if principal == nil || principal.LoginName == "" {
		return errors.New("memory_store_save: principal with login name is required")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if existing, ok := store.byLogin[principal.LoginName]; ok {
		if existing.ID != principal.ID {
			return ErrDuplicateLoginName
		}
		principal.CreatedAt = existing.CreatedAt
		if digest := pointer.Val(existing.RefreshTokenHash); digest != "" {
			delete(store.byRefresh, digest)
		}
	} else if principal.CreatedAt.IsZero() {
		principal.CreatedAt = time.Now().UTC()
	}

	store.byLogin[principal.LoginName] = principal.clone()
	if digest := pointer.Val(principal.RefreshTokenHash); digest != "" {
		store.byRefresh[digest] = principal.LoginName
	}

	return nil
}

// UpdateDisplayName changes only the display name of a stored principal.
func (store *MemoryCredentialStore) UpdateDisplayName(_ context.Context, loginName, displayName string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	record, ok := store.byLogin[loginName]
	if !ok {
		return ErrPrincipalNotFound
	}
	record.DisplayName = displayName
	return nil
}

// Ping always succeeds; the store lives in process memory.
func (store *MemoryCredentialStore) Ping(context.Context) error {
	return nil
}
