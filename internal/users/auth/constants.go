// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Input Constraints

const (
	// MaxLoginNameLength bounds login names in characters.
	MaxLoginNameLength = 64

	// MaxDisplayNameLength bounds display names in characters.
	MaxDisplayNameLength = 128

	// MaxPasswordBytes is the bcrypt input limit; longer input would be truncated silently.
	MaxPasswordBytes = 72
)

// # Metric Labels

const (
	operationRegister = "register"
	operationLogin    = "login"
	operationRefresh  = "refresh"
	operationLogout   = "logout"
)
