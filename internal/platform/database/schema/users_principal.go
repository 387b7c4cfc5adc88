// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the Postgres database.
//
// Stores build their SQL from these descriptors so a column rename is a
// one-line change here plus a migration.
package schema

// UserPrincipalTable represents the 'users.principal' table.
type UserPrincipalTable struct {
	Table            string
	ID               string
	DisplayName      string
	LoginName        string
	PasswordHash     string
	Role             string
	RefreshTokenHash string
	CreatedAt        string
}

// UserPrincipal is the schema definition for users.principal.
var UserPrincipal = UserPrincipalTable{
	Table:            "users.principal",
	ID:               "id",
	DisplayName:      "displayname",
	LoginName:        "loginname",
	PasswordHash:     "passwordhash",
	Role:             "role",
	RefreshTokenHash: "refreshtokenhash",
	CreatedAt:        "createdat",
}

// Columns lists every column in scan order.
func (t UserPrincipalTable) Columns() []string {
	return []string{t.ID, t.DisplayName, t.LoginName, t.PasswordHash, t.Role, t.RefreshTokenHash, t.CreatedAt}
}
