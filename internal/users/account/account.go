// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles profile management for authenticated principals.

It lets a principal view and rename itself, end its session on every device,
and lets administrators look up any principal by login name.

# Architecture

  - Entities: Profile (DTO over [auth.Principal]).
  - Domain: This package depends on the auth package for the Principal entity
    and reuses its credential stores through the narrow [ProfileStore] contract.
  - Security: Password hashes and refresh-token digests never leave this package.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/users/auth"
)

// # Domain Entities

// Profile is the client-safe view of a principal.
type Profile struct {
	ID               string       `json:"id"`
	LoginName        string       `json:"loginName"`
	DisplayName      string       `json:"displayName"`
	Role             sec.UserRole `json:"role"`
	CreatedAt        time.Time    `json:"createdAt"`
	HasActiveSession bool         `json:"hasActiveSession"`
}

// profileOf maps a principal to its public view.
func profileOf(principal *auth.Principal) *Profile {
	return &Profile{
		ID:               principal.ID,
		LoginName:        principal.LoginName,
		DisplayName:      principal.DisplayName,
		Role:             principal.Role,
		CreatedAt:        principal.CreatedAt,
		HasActiveSession: principal.RefreshTokenHash != nil,
	}
}

// # Repository Contracts

// ProfileStore is the subset of a credential store that profile management needs.
//
// Every auth credential store driver satisfies it.
type ProfileStore interface {
	/*
		FindByLoginName retrieves a principal by login name.

		Parameters:
		  - ctx: context.Context
		  - loginName: string

		Returns:
		  - *auth.Principal: A copy owned by the caller
		  - error: auth.ErrPrincipalNotFound or storage failures
	*/
	FindByLoginName(ctx context.Context, loginName string) (*auth.Principal, error)

	/*
		Save upserts the principal.

		Parameters:
		  - ctx: context.Context
		  - principal: *auth.Principal

		Returns:
		  - error: Storage failures
	*/
	Save(ctx context.Context, principal *auth.Principal) error

	/*
		UpdateDisplayName changes only the display name, leaving the stored
		refresh token untouched.

		Parameters:
		  - ctx: context.Context
		  - loginName: string
		  - displayName: string

		Returns:
		  - error: auth.ErrPrincipalNotFound or storage failures
	*/
	UpdateDisplayName(ctx context.Context, loginName, displayName string) error
}
