// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cookie binds auth tokens to their HTTP transport slots.
//
// # Security
//
// Every token cookie is HttpOnly and Secure, scoped to path "/" and sent with
// SameSite=Strict so the browser never exposes it to scripts or cross-site
// requests.
package cookie

import (
	"net/http"
	"time"

	"github.com/taibuivan/roster/internal/platform/constants"
)

// SetAccess writes the access-token cookie.
func SetAccess(writer http.ResponseWriter, token string) {
	set(writer, constants.AccessTokenCookieName, token, constants.AccessTokenCookieMaxAge)
}

// SetRefresh writes the refresh-token cookie.
func SetRefresh(writer http.ResponseWriter, token string) {
	set(writer, constants.RefreshTokenCookieName, token, constants.RefreshTokenCookieMaxAge)
}

// SetPair writes both token cookies.
func SetPair(writer http.ResponseWriter, accessToken, refreshToken string) {
	SetAccess(writer, accessToken)
	SetRefresh(writer, refreshToken)
}

// ClearAll instructs the client to drop both token cookies.
func ClearAll(writer http.ResponseWriter) {
	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		http.SetCookie(writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     constants.AuthCookiePath,
			MaxAge:   -1,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// set writes a single token cookie with the shared security attributes.
func set(writer http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.AuthCookiePath,
		MaxAge:   int(maxAge / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
