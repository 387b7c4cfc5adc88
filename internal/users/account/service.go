// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/platform/metrics"
	"github.com/taibuivan/roster/internal/platform/validate"
	"github.com/taibuivan/roster/internal/users/auth"
)

// Operation labels for metrics.
const (
	operationProfileUpdate  = "profile_update"
	operationSessionsRevoke = "sessions_revoke"
)

// # Service Layer

// Service orchestrates profile reads and updates.
type Service struct {
	store ProfileStore
}

// NewService constructs a new [Service] with its store dependency.
func NewService(store ProfileStore) *Service {
	return &Service{store: store}
}

// # Profile Management

/*
GetProfile retrieves the profile of a principal.

Parameters:
  - ctx: context.Context
  - loginName: string

Returns:
  - *Profile: The client-safe view
  - error: auth.ErrPrincipalNotFound or storage failures
*/
func (service *Service) GetProfile(ctx context.Context, loginName string) (*Profile, error) {
	principal, err := service.store.FindByLoginName(ctx, loginName)
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_get_profile: %w", err)
	}
	return profileOf(principal), nil
}

/*
UpdateDisplayName renames a principal.

Description: An empty or whitespace-only name resets the display name to the
login name, matching the registration default.

Parameters:
  - ctx: context.Context
  - loginName: string
  - displayName: string

Returns:
  - *Profile: The updated profile
  - error: Validation, not found or storage failures
*/
func (service *Service) UpdateDisplayName(ctx context.Context, loginName, displayName string) (profile *Profile, err error) {
	defer func() { metrics.RecordOperation(operationProfileUpdate, err) }()

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = loginName
	}

	validator := &validate.Validator{}
	validator.MaxLen(auth.FieldDisplayName, displayName, auth.MaxDisplayNameLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.store.UpdateDisplayName(ctx, loginName, displayName); err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_update_display_name: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_display_name_updated", slog.String("login_name", loginName))

	return service.GetProfile(ctx, loginName)
}

// # Session Security

/*
RevokeSessions clears the stored refresh token of a principal.

Description: Every outstanding refresh token stops matching, so no device can
renew its access token. Access tokens already issued stay valid until their
own expiry.

Parameters:
  - ctx: context.Context
  - loginName: string

Returns:
  - error: not found or storage failures
*/
func (service *Service) RevokeSessions(ctx context.Context, loginName string) (err error) {
	defer func() { metrics.RecordOperation(operationSessionsRevoke, err) }()

	principal, err := service.store.FindByLoginName(ctx, loginName)
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			return err
		}
		return fmt.Errorf("account_service_revoke_lookup: %w", err)
	}

	principal.ClearRefreshToken()
	if err := service.store.Save(ctx, principal); err != nil {
		return fmt.Errorf("account_service_revoke_save: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_sessions_revoked", slog.String("login_name", loginName))
	return nil
}
