// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/roster/internal/platform/middleware"
	requestutil "github.com/taibuivan/roster/internal/platform/request"
	"github.com/taibuivan/roster/internal/platform/respond"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/pkg/loginname"
)

// # Definitions & Constructors

// Handler implements the /account HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with account routes.
//
// # Endpoints
//   - GET    /me               : Own profile.
//   - PATCH  /me               : Rename self.
//   - DELETE /me/sessions      : Revoke the stored refresh token.
//   - GET    /users/{loginName} : Any profile (ADMIN only).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(self chi.Router) {
		self.Use(middleware.RequireAuth)
		self.Get("/me", handler.getMe)
		self.Patch("/me", handler.updateMe)
		self.Delete("/me/sessions", handler.revokeSessions)
	})

	router.With(middleware.RequireRole(sec.RoleAdmin)).Get("/users/{loginName}", handler.getUserProfile)

	return router
}

// # User Profile Endpoints

/*
GET /account/me.

Description: Retrieves the profile of the authenticated principal.

Response:
  - 200: Profile
  - 401: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetProfile(request.Context(), identity.LoginName)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	DisplayName string `json:"displayName"`
}

/*
PATCH /account/me.

Request:
  - body: updateMeRequest

Response:
  - 200: Profile: The updated profile
  - 400: VALIDATION_ERROR
  - 401: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.UpdateDisplayName(request.Context(), identity.LoginName, input.DisplayName)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
DELETE /account/me/sessions.

Description: Signs the principal out of every device. The caller's own
cookies are left in place; its access token keeps working until it expires.

Response:
  - 204: No Content
  - 401: Authentication required
*/
func (handler *Handler) revokeSessions(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.RevokeSessions(request.Context(), identity.LoginName); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /account/users/{loginName}.

Response:
  - 200: Profile
  - 401: Authentication required
  - 403: Insufficient permissions
  - 404: Principal not found
*/
func (handler *Handler) getUserProfile(writer http.ResponseWriter, request *http.Request) {
	name := loginname.Normalize(chi.URLParam(request, "loginName"))

	profile, err := handler.accountService.GetProfile(request.Context(), name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
