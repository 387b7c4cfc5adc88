// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/roster/internal/platform/database/schema"
	"github.com/taibuivan/roster/internal/platform/dberr"
	"github.com/taibuivan/roster/internal/platform/postgres"
	"github.com/taibuivan/roster/internal/platform/sec"
)

// # Postgres Credential Store

// PostgresCredentialStore implements [CredentialStore] on the users.principal table.
//
// Queries are built once from [schema.UserPrincipal].
//
// # Error Mapping
//
// pgx.ErrNoRows becomes [ErrPrincipalNotFound] and unique violations become
// [ErrDuplicateLoginName]. Anything else surfaces as an internal error.
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCredentialStore creates a store over an existing pool.
func NewPostgresCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

var (
	principalTable   = schema.UserPrincipal
	principalColumns = strings.Join(principalTable.Columns(), ", ")

	queryFindByLoginName = fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		principalColumns, principalTable.Table, principalTable.LoginName)

	queryFindByRefreshToken = fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		principalColumns, principalTable.Table, principalTable.RefreshTokenHash)

	queryExistsByLoginName = fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		principalTable.Table, principalTable.LoginName)

	queryUpdateDisplayName = fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		principalTable.Table, principalTable.DisplayName, principalTable.LoginName)

	// The conflict branch only fires for the same ID.
	querySave = fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (%[3]s) DO UPDATE SET
			%[4]s = EXCLUDED.%[4]s,
			%[5]s = EXCLUDED.%[5]s,
			%[6]s = EXCLUDED.%[6]s,
			%[7]s = EXCLUDED.%[7]s
		WHERE %[1]s.%[8]s = EXCLUDED.%[8]s
		RETURNING %[9]s`,
		principalTable.Table, principalColumns, principalTable.LoginName,
		principalTable.DisplayName, principalTable.PasswordHash, principalTable.Role, principalTable.RefreshTokenHash,
		principalTable.ID, principalTable.CreatedAt,
	)
)

/*
FindByLoginName retrieves a principal by its unique login name.

Parameters:
  - ctx: context.Context
  - loginName: string

Returns:
  - *Principal: Hydrated entity
  - error: ErrPrincipalNotFound or database errors
*/
func (store *PostgresCredentialStore) FindByLoginName(ctx context.Context, loginName string) (*Principal, error) {
	principal, err := scanPrincipal(store.pool.QueryRow(ctx, queryFindByLoginName, loginName))
	if err != nil {
		return nil, store.mapError("postgres_principal_find_by_login_name", err)
	}
	return principal, nil
}

/*
FindByRefreshToken retrieves the principal currently holding token.

Description: The lookup is by digest equality on an indexed column, so a
rotated or cleared token matches nothing.

Parameters:
  - ctx: context.Context
  - token: string (raw refresh token as presented)

Returns:
  - *Principal: Hydrated entity
  - error: ErrPrincipalNotFound or database errors
*/
func (store *PostgresCredentialStore) FindByRefreshToken(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrPrincipalNotFound
	}

	principal, err := scanPrincipal(store.pool.QueryRow(ctx, queryFindByRefreshToken, sec.HashToken(token)))
	if err != nil {
		return nil, store.mapError("postgres_principal_find_by_refresh_token", err)
	}
	return principal, nil
}

/*
ExistsByLoginName reports whether the login name is taken.

Parameters:
  - ctx: context.Context
  - loginName: string

Returns:
  - bool: true when a row exists
  - error: Database errors
*/
func (store *PostgresCredentialStore) ExistsByLoginName(ctx context.Context, loginName string) (bool, error) {
	var exists bool
	if err := store.pool.QueryRow(ctx, queryExistsByLoginName, loginName).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_principal_exists: %w", err)
	}
	return exists, nil
}

/*
Save upserts the principal keyed by login name.

Description: The conflict branch only fires for the same ID, so a racing
registration cannot overwrite another principal's credentials; in that case
no row is returned and the call fails with ErrDuplicateLoginName. createdat
is never updated and is read back into principal.

Parameters:
  - ctx: context.Context
  - principal: *Principal

Returns:
  - error: ErrDuplicateLoginName or database errors
*/
func (store *PostgresCredentialStore) Save(ctx context.Context, principal *Principal) error {

	createdAt := principal.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := store.pool.QueryRow(ctx, querySave,
		principal.ID,
		principal.DisplayName,
		principal.LoginName,
		principal.PasswordHash,
		string(principal.Role),
		principal.RefreshTokenHash,
		createdAt,
	).Scan(&principal.CreatedAt)

	if err != nil {
		if dberr.IsNoRows(err) || dberr.IsUniqueViolation(err) {
			return ErrDuplicateLoginName.WithCause(err)
		}
		return fmt.Errorf("postgres_principal_save: %w", err)
	}

	return nil
}

// UpdateDisplayName changes only the display name column.
func (store *PostgresCredentialStore) UpdateDisplayName(ctx context.Context, loginName, displayName string) error {
	tag, err := store.pool.Exec(ctx, queryUpdateDisplayName, loginName, displayName)
	if err != nil {
		return fmt.Errorf("postgres_principal_update_display_name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

// Ping reports whether the pool can reach the database.
func (store *PostgresCredentialStore) Ping(ctx context.Context) error {
	return postgres.Ping(ctx, store.pool)
}

// mapError translates a row lookup failure into the auth taxonomy.
func (store *PostgresCredentialStore) mapError(action string, err error) error {
	return dberr.Wrap(fmt.Errorf("%s: %w", action, err), ErrPrincipalNotFound, ErrDuplicateLoginName)
}

// scanPrincipal hydrates a principal from a single row.
func scanPrincipal(row pgx.Row) (*Principal, error) {
	var (
		principal Principal
		role      string
	)

	err := row.Scan(
		&principal.ID,
		&principal.DisplayName,
		&principal.LoginName,
		&principal.PasswordHash,
		&role,
		&principal.RefreshTokenHash,
		&principal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	principal.Role = sec.UserRole(role)
	return &principal, nil
}
