// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the token-based authentication layer of Roster.

It owns the principal credential record and the session protocol built on it:
short-lived access tokens, long-lived refresh tokens rotated against a single
stored value per principal, and a request gate that silently renews an
expired access token while the refresh token is still the live one.

# Architecture

  - Principal: the credential record (hash, role, current refresh token).
  - CredentialStore: persistence contract with Postgres, Redis and memory drivers.
  - Service: register, login, refresh and logout use cases.
  - Gate: the per-request authentication decision and its HTTP binding.
  - Handler: the /auth endpoints.
*/
package auth

import (
	"crypto/subtle"
	"time"

	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/pkg/pointer"
)

// # Domain Entities

// Principal is a registered identity able to authenticate.
//
// LoginName is unique and immutable. RefreshTokenHash is the SHA-256 digest
// of the single live refresh token, or nil when the principal is logged out;
// stores never see the bearer value itself.
type Principal struct {
	ID               string       `json:"id"`
	DisplayName      string       `json:"displayName"`
	LoginName        string       `json:"loginName"`
	PasswordHash     string       `json:"-"`
	Role             sec.UserRole `json:"role"`
	RefreshTokenHash *string      `json:"-"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Identity projects the principal onto the request-scoped identity.
func (principal *Principal) Identity() *sec.Identity {
	return &sec.Identity{LoginName: principal.LoginName, Role: principal.Role}
}

// HoldsRefreshToken reports whether token is exactly the stored live value.
func (principal *Principal) HoldsRefreshToken(token string) bool {
	stored := pointer.Val(principal.RefreshTokenHash)
	if stored == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(sec.HashToken(token))) == 1
}

// SetRefreshToken records token as the single live refresh token.
// An empty token clears the slot.
func (principal *Principal) SetRefreshToken(token string) {
	if token == "" {
		principal.ClearRefreshToken()
		return
	}
	principal.RefreshTokenHash = pointer.To(sec.HashToken(token))
}

// ClearRefreshToken logs the principal out of every session.
func (principal *Principal) ClearRefreshToken() {
	principal.RefreshTokenHash = nil
}

// clone returns a deep copy so stores never share mutable state with callers.
func (principal *Principal) clone() *Principal {
	copied := *principal
	if principal.RefreshTokenHash != nil {
		copied.RefreshTokenHash = pointer.To(*principal.RefreshTokenHash)
	}
	return &copied
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// # Field Identifiers

// JSON field names used in request payloads and validation details.
const (
	FieldLoginName   = "loginName"
	FieldRawPassword = "rawPassword"
	FieldDisplayName = "displayName"
)
