// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "context"

// # Credential Data Access

// CredentialStore is the persistence contract for principals.
//
// Every implementation must be safe for concurrent use. Each call is
// individually atomic; no cross-call locking is provided or expected.
type CredentialStore interface {

	/*
		FindByLoginName returns the principal with the given login name.

		Parameters:
		  - ctx: context.Context
		  - loginName: string

		Returns:
		  - *Principal: A copy owned by the caller
		  - error: ErrPrincipalNotFound or storage failures
	*/
	FindByLoginName(ctx context.Context, loginName string) (*Principal, error)

	/*
		FindByRefreshToken returns the principal whose stored refresh token
		equals token exactly. A rotated or cleared value matches nothing.

		Parameters:
		  - ctx: context.Context
		  - token: string

		Returns:
		  - *Principal: A copy owned by the caller
		  - error: ErrPrincipalNotFound or storage failures
	*/
	FindByRefreshToken(ctx context.Context, token string) (*Principal, error)

	/*
		ExistsByLoginName reports whether a principal with the login name exists.

		Parameters:
		  - ctx: context.Context
		  - loginName: string

		Returns:
		  - bool: true when taken
		  - error: Storage failures
	*/
	ExistsByLoginName(ctx context.Context, loginName string) (bool, error)

	/*
		Save inserts the principal or updates the record with the same ID.

		Description: CreatedAt is written on insert only; on update the stored
		value is copied back into principal. Saving a new ID under a login name
		that another principal already holds fails with ErrDuplicateLoginName.

		Parameters:
		  - ctx: context.Context
		  - principal: *Principal

		Returns:
		  - error: ErrDuplicateLoginName or storage failures
	*/
	Save(ctx context.Context, principal *Principal) error
}
