// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"github.com/taibuivan/roster/internal/platform/apperr"
	"github.com/taibuivan/roster/internal/platform/sec"
)

// # Error Taxonomy

var (
	// ErrDuplicateLoginName is returned by Register (and by stores on a racing insert).
	ErrDuplicateLoginName = apperr.Conflict("Login name is already taken")

	// ErrInvalidCredentials is returned by Login for an unknown name or a wrong password alike.
	ErrInvalidCredentials = apperr.UnauthorizedCode("INVALID_CREDENTIALS", "Invalid login credentials")

	// ErrInvalidRefreshToken is returned by Refresh and Logout when no principal holds the token.
	ErrInvalidRefreshToken = apperr.UnauthorizedCode("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")

	// ErrPrincipalNotFound is returned by stores when a lookup matches nothing.
	ErrPrincipalNotFound = apperr.NotFound("Principal")

	// ErrAuthenticationFailed is the only error the gate ever shows a client.
	ErrAuthenticationFailed = apperr.UnauthorizedCode("AUTHENTICATION_FAILED", "Authentication failed")
)

// Token verification outcomes, re-exported for callers of the auth package.
var (
	ErrTokenExpired   = sec.ErrTokenExpired
	ErrTokenMalformed = sec.ErrTokenMalformed
)
