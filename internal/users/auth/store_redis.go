// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/roster/internal/platform/constants"
	redisclient "github.com/taibuivan/roster/internal/platform/redis"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/pkg/pointer"
)

// maxSaveAttempts bounds optimistic-lock retries when concurrent writers touch
// the same principal. The last writer wins, matching the refresh race contract.
const maxSaveAttempts = 5

// # Redis Credential Store

// RedisCredentialStore implements [CredentialStore] on Redis.
//
// # Key Layout
//
//   - auth:principal:<loginName> → principal JSON (no expiry)
//   - auth:refresh:<sha256(token)> → loginName (expires with the refresh token)
type RedisCredentialStore struct {
	client     *redis.Client
	refreshTTL time.Duration
}

// NewRedisCredentialStore creates a store; refreshTTL bounds the index entries.
func NewRedisCredentialStore(client *redis.Client, refreshTTL time.Duration) *RedisCredentialStore {
	return &RedisCredentialStore{client: client, refreshTTL: refreshTTL}
}

// redisPrincipal is the persisted document. It carries the fields the API
// representation hides.
type redisPrincipal struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"displayName"`
	LoginName        string    `json:"loginName"`
	PasswordHash     string    `json:"passwordHash"`
	Role             string    `json:"role"`
	RefreshTokenHash *string   `json:"refreshTokenHash,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

/*
FindByLoginName reads the principal document.

Parameters:
  - ctx: context.Context
  - loginName: string

Returns:
  - *Principal: Decoded entity
  - error: ErrPrincipalNotFound or Redis failures
*/
func (store *RedisCredentialStore) FindByLoginName(ctx context.Context, loginName string) (*Principal, error) {
	return store.load(ctx, store.client, loginName)
}

/*
FindByRefreshToken resolves the refresh index and re-checks the document.

Description: The index entry and the document are written in one MULTI, but
the document is the source of truth; a principal whose stored digest no
longer equals the presented token's digest is not a match.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - *Principal: Decoded entity
  - error: ErrPrincipalNotFound or Redis failures
*/
func (store *RedisCredentialStore) FindByRefreshToken(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrPrincipalNotFound
	}

	loginName, err := store.client.Get(ctx, refreshKey(sec.HashToken(token))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("redis_principal_find_by_refresh_token: %w", err)
	}

	principal, err := store.load(ctx, store.client, loginName)
	if err != nil {
		return nil, err
	}

	if !principal.HoldsRefreshToken(token) {
		return nil, ErrPrincipalNotFound
	}

	return principal, nil
}

/*
ExistsByLoginName checks for the principal document.

Parameters:
  - ctx: context.Context
  - loginName: string

Returns:
  - bool: true when the key exists
  - error: Redis failures
*/
func (store *RedisCredentialStore) ExistsByLoginName(ctx context.Context, loginName string) (bool, error) {
	count, err := store.client.Exists(ctx, principalKey(loginName)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_principal_exists: %w", err)
	}
	return count > 0, nil
}

/*
Save writes the document and swaps the refresh index atomically.

Description: The principal key is WATCHed; the document, the removal of the
previous index entry and the new index entry go out in one MULTI/EXEC.

Parameters:
  - ctx: context.Context
  - principal: *Principal

Returns:
  - error: ErrDuplicateLoginName or Redis failures
*/
func (store *RedisCredentialStore) Save(ctx context.Context, principal *Principal) error {
	key := principalKey(principal.LoginName)

	var createdAt time.Time
	transaction := func(tx *redis.Tx) error {
		previousDigest := ""
		createdAt = principal.CreatedAt

		existing, err := store.load(ctx, tx, principal.LoginName)
		switch {
		case err == nil:
			if existing.ID != principal.ID {
				return ErrDuplicateLoginName
			}
			createdAt = existing.CreatedAt
			previousDigest = pointer.Val(existing.RefreshTokenHash)
		case errors.Is(err, ErrPrincipalNotFound):
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
		default:
			return err
		}

		payload, err := encodePrincipal(principal, createdAt)
		if err != nil {
			return err
		}

		nextDigest := pointer.Val(principal.RefreshTokenHash)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			if previousDigest != "" && previousDigest != nextDigest {
				pipe.Del(ctx, refreshKey(previousDigest))
			}
			if nextDigest != "" {
				pipe.Set(ctx, refreshKey(nextDigest), principal.LoginName, store.refreshTTL)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err := store.client.Watch(ctx, transaction, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrDuplicateLoginName) {
				return err
			}
			return fmt.Errorf("redis_principal_save: %w", err)
		}

		principal.CreatedAt = createdAt
		return nil
	}

	return fmt.Errorf("redis_principal_save: %w", redis.TxFailedErr)
}

/*
UpdateDisplayName rewrites only the display name of a stored principal.

Description: The document is re-read under WATCH so a concurrent refresh
rotation is never overwritten with a stale digest.

Parameters:
  - ctx: context.Context
  - loginName: string
  - displayName: string

Returns:
  - error: ErrPrincipalNotFound or Redis failures
*/
func (store *RedisCredentialStore) UpdateDisplayName(ctx context.Context, loginName, displayName string) error {
	key := principalKey(loginName)

	transaction := func(tx *redis.Tx) error {
		existing, err := store.load(ctx, tx, loginName)
		if err != nil {
			return err
		}
		existing.DisplayName = displayName

		payload, err := encodePrincipal(existing, existing.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err := store.client.Watch(ctx, transaction, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrPrincipalNotFound) {
				return err
			}
			return fmt.Errorf("redis_principal_update_display_name: %w", err)
		}
		return nil
	}

	return fmt.Errorf("redis_principal_update_display_name: %w", redis.TxFailedErr)
}

// Ping reports whether the Redis server is reachable.
func (store *RedisCredentialStore) Ping(ctx context.Context) error {
	return redisclient.Ping(ctx, store.client)
}

// stringGetter is satisfied by both the client and a WATCH transaction.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// load reads and decodes a principal document.
func (store *RedisCredentialStore) load(ctx context.Context, runner stringGetter, loginName string) (*Principal, error) {
	payload, err := runner.Get(ctx, principalKey(loginName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("redis_principal_get: %w", err)
	}

	var record redisPrincipal
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("redis_principal_decode: %w", err)
	}

	return &Principal{
		ID:               record.ID,
		DisplayName:      record.DisplayName,
		LoginName:        record.LoginName,
		PasswordHash:     record.PasswordHash,
		Role:             sec.UserRole(record.Role),
		RefreshTokenHash: record.RefreshTokenHash,
		CreatedAt:        record.CreatedAt,
	}, nil
}

// encodePrincipal serializes the persisted document with the given creation time.
func encodePrincipal(principal *Principal, createdAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(redisPrincipal{
		ID:               principal.ID,
		DisplayName:      principal.DisplayName,
		LoginName:        principal.LoginName,
		PasswordHash:     principal.PasswordHash,
		Role:             string(principal.Role),
		RefreshTokenHash: principal.RefreshTokenHash,
		CreatedAt:        createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("redis_principal_encode: %w", err)
	}
	return payload, nil
}

func principalKey(loginName string) string {
	return constants.RedisPrefixPrincipal + loginName
}

func refreshKey(digest string) string {
	return constants.RedisPrefixRefreshToken + digest
}
