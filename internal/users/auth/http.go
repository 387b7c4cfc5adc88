// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/cookie"
	"github.com/taibuivan/roster/internal/platform/middleware"
	requestutil "github.com/taibuivan/roster/internal/platform/request"
	"github.com/taibuivan/roster/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the /auth HTTP endpoints.
//
// # Scope
//
// Tokens never appear in response bodies; they travel only as the
// accessToken and refreshToken cookies.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register : Creates a principal.
//   - POST /login    : Sets both token cookies.
//   - POST /refresh  : Rotates the refresh token and sets both cookies.
//   - POST /logout   : Invalidates the refresh token and clears both cookies.
//   - GET  /me       : Returns the authenticated identity.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	router.With(middleware.RequireAuth).Get("/me", handler.me)

	return router
}

// # Request Payloads

type registerRequest struct {
	LoginName   string `json:"loginName"`
	RawPassword string `json:"rawPassword"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	LoginName   string `json:"loginName"`
	RawPassword string `json:"rawPassword"`
}

/*
Register handles the creation of a new principal.

POST /auth/register

Request:
  - Body: registerRequest (loginName, rawPassword, optional displayName)

Response:
  - 200: Confirmation message
  - 400: VALIDATION_ERROR
  - 409: CONFLICT: Login name already taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err := handler.authService.Register(request.Context(), RegisterInput{
		LoginName:   input.LoginName,
		RawPassword: input.RawPassword,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, http.StatusOK, "User registered successfully")
}

/*
Login authenticates a principal and binds the token pair to cookies.

POST /auth/login

Request:
  - Body: loginRequest (loginName, rawPassword)

Response:
  - 200: Generic success message, tokens in Set-Cookie only
  - 401: INVALID_CREDENTIALS
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(request.Context(), input.LoginName, input.RawPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	cookie.SetPair(writer, pair.AccessToken, pair.RefreshToken)
	respond.Message(writer, http.StatusOK, "Login successful")
}

/*
Refresh rotates the refresh token presented in the cookie.

POST /auth/refresh

Response:
  - 200: Both cookies replaced
  - 401: INVALID_REFRESH_TOKEN (both cookies cleared)
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)

	pair, err := handler.authService.Refresh(request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			cookie.ClearAll(writer)
		}
		respond.Error(writer, request, err)
		return
	}

	cookie.SetPair(writer, pair.AccessToken, pair.RefreshToken)
	respond.Message(writer, http.StatusOK, "Session refreshed")
}

/*
Logout terminates the session bound to the refresh-token cookie.

POST /auth/logout

Description: Both cookies are cleared on every path. Without a refresh
cookie there is nothing to invalidate and the call succeeds.

Response:
  - 200: Empty body
  - 401: INVALID_REFRESH_TOKEN (stale cookie)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)
	cookie.ClearAll(writer)

	if refreshToken != "" {
		if err := handler.authService.Logout(request.Context(), refreshToken); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	writer.WriteHeader(http.StatusOK)
}

/*
Me returns the identity attached by the request gate.

GET /auth/me

Response:
  - 200: {loginName, role}
  - 401: Authentication required
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}
