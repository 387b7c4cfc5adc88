// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/roster/internal/platform/apperr"
)

// IsUniqueViolation reports whether err is a Postgres unique_violation (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Wrap inspects a database error and maps it onto the application taxonomy.
//
// # Mapping
//   - no rows          → notFound
//   - unique_violation → conflict
//   - anything else    → 500 INTERNAL_ERROR (cause kept for logs)
func Wrap(err error, notFound, conflict *apperr.AppError) error {
	if err == nil {
		return nil
	}

	if IsNoRows(err) && notFound != nil {
		return notFound.WithCause(err)
	}

	if IsUniqueViolation(err) && conflict != nil {
		return conflict.WithCause(err)
	}

	return apperr.Internal(err)
}
