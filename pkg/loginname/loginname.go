// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package loginname canonicalizes user-supplied login names.
//
// # Usage
//
// Login names are the unique key of a principal and the subject of every
// token, so the same visual string must always map to the same bytes. Case is
// preserved: "Alice" and "alice" are different principals.
package loginname

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// # Transformation Pipeline
//
// 1. Removes control characters (tabs, newlines, NUL).
// 2. Normalizes to NFC (composes "e" + combining acute into "é").
// 3. Trims surrounding whitespace.
func Normalize(s string) string {
	t := transform.Chain(runes.Remove(runes.In(unicode.Cc)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.TrimSpace(result)
}
