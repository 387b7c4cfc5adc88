// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/platform/metrics"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/platform/validate"
	"github.com/taibuivan/roster/pkg/loginname"
	"github.com/taibuivan/roster/pkg/uuid"
)

// # Contracts & Types

// TokenCodec issues and verifies signed tokens.
type TokenCodec interface {
	// Issue signs a token of the given kind for subject.
	Issue(subject, role string, kind sec.TokenKind) (string, error)

	// Verify checks signature and expiry; errors wrap sec.ErrTokenExpired or
	// sec.ErrTokenMalformed.
	Verify(token string, kind sec.TokenKind) (*sec.AuthClaims, error)

	// SubjectOf extracts the subject of a well-signed token, ignoring expiry.
	SubjectOf(token string) (string, error)
}

// PasswordHasher hashes and verifies raw passwords.
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Matches(raw, hash string) bool
}

// Service implements the authentication use cases.
//
// # Concurrency
//
// Service holds no mutable state of its own and is safe for concurrent use.
// Two concurrent refreshes of the same token both succeed; the store keeps
// the last write.
type Service struct {
	store  CredentialStore
	codec  TokenCodec
	hasher PasswordHasher
	now    func() time.Time

	// dummyHash is compared against when the login name is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash func() string
}

// ServiceOption customizes a [Service].
type ServiceOption func(*Service)

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) ServiceOption {
	return func(service *Service) { service.now = now }
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(store CredentialStore, codec TokenCodec, hasher PasswordHasher, options ...ServiceOption) *Service {
	service := &Service{
		store:  store,
		codec:  codec,
		hasher: hasher,
		now:    time.Now,
	}
	for _, option := range options {
		option(service)
	}

	service.dummyHash = sync.OnceValue(func() string {
		hash, err := hasher.Hash(uuid.New())
		if err != nil {
			return ""
		}
		return hash
	})

	return service
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new principal.
type RegisterInput struct {
	LoginName   string
	RawPassword string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new principal.

Description: The login name is NFC-normalized first. The role defaults to
USER and no token is issued.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *Principal: Created entity
  - err: ErrDuplicateLoginName, a validation error, or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (principal *Principal, err error) {
	defer func() { metrics.RecordOperation(operationRegister, err) }()

	name := loginname.Normalize(input.LoginName)

	validator := &validate.Validator{}
	validator.Required(FieldLoginName, name).
		MaxLen(FieldLoginName, name, MaxLoginNameLength).
		NoSpace(FieldLoginName, name).
		Required(FieldRawPassword, input.RawPassword).
		MaxBytes(FieldRawPassword, input.RawPassword, MaxPasswordBytes).
		MaxLen(FieldDisplayName, input.DisplayName, MaxDisplayNameLength)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	exists, err := service.store.ExistsByLoginName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_exists: %w", err)
	}
	if exists {
		return nil, ErrDuplicateLoginName
	}

	passwordHash, err := service.hasher.Hash(input.RawPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_hash: %w", err)
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = name
	}

	principal = &Principal{
		ID:           uuid.New(),
		DisplayName:  displayName,
		LoginName:    name,
		PasswordHash: passwordHash,
		Role:         sec.RoleUser,
		CreatedAt:    service.now().UTC(),
	}

	if err := service.store.Save(ctx, principal); err != nil {
		if errors.Is(err, ErrDuplicateLoginName) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_save: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_principal_registered",
		slog.String("login_name", principal.LoginName),
		slog.String("principal_id", principal.ID),
	)

	return principal, nil
}

// # Authentication Flow

/*
Login verifies credentials and issues a fresh token pair.

Description: An unknown login name and a wrong password fail with the same
error after the same amount of hashing work. The new refresh token replaces
whatever the principal held before.

Parameters:
  - ctx: context.Context
  - loginName: string
  - rawPassword: string

Returns:
  - *TokenPair: Access and refresh tokens for transport binding
  - err: ErrInvalidCredentials or internal failures
*/
func (service *Service) Login(ctx context.Context, loginName, rawPassword string) (pair *TokenPair, err error) {
	defer func() { metrics.RecordOperation(operationLogin, err) }()

	logger := ctxutil.GetLogger(ctx)
	name := loginname.Normalize(loginName)

	principal, err := service.store.FindByLoginName(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrPrincipalNotFound) {
			return nil, fmt.Errorf("auth_service_login_lookup: %w", err)
		}
		service.hasher.Matches(rawPassword, service.dummyHash())
		logger.WarnContext(ctx, "auth_login_failed", slog.String("reason", "unknown_login_name"))
		return nil, ErrInvalidCredentials
	}

	if !service.hasher.Matches(rawPassword, principal.PasswordHash) {
		logger.WarnContext(ctx, "auth_login_failed",
			slog.String("reason", "password_mismatch"),
			slog.String("login_name", name),
		)
		return nil, ErrInvalidCredentials
	}

	pair, err = service.rotate(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("auth_service_login: %w", err)
	}

	logger.InfoContext(ctx, "auth_login_succeeded", slog.String("login_name", principal.LoginName))
	return pair, nil
}

// # Session Management

/*
Refresh rotates the presented refresh token.

Description: The principal is found by stored-token equality first; the
token's signature and expiry are checked only after a holder is found. On
success the old token stops matching immediately, even though it remains
cryptographically valid until its own expiry.

Parameters:
  - ctx: context.Context
  - refreshToken: string

Returns:
  - *TokenPair: The rotated pair
  - err: ErrInvalidRefreshToken or internal failures
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { metrics.RecordOperation(operationRefresh, err) }()

	principal, err := service.holderOf(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if _, err := service.codec.Verify(refreshToken, sec.KindRefresh); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "auth_refresh_rejected",
			slog.String("login_name", principal.LoginName),
			slog.String("reason", err.Error()),
		)
		return nil, ErrInvalidRefreshToken.WithCause(err)
	}

	pair, err = service.rotate(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh: %w", err)
	}

	return pair, nil
}

/*
Logout clears the stored refresh token of its holder.

Description: A second logout with the same token fails with
ErrInvalidRefreshToken because nothing holds it anymore.

Parameters:
  - ctx: context.Context
  - refreshToken: string

Returns:
  - err: ErrInvalidRefreshToken or storage failures
*/
func (service *Service) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { metrics.RecordOperation(operationLogout, err) }()

	principal, err := service.holderOf(ctx, refreshToken)
	if err != nil {
		return err
	}

	principal.ClearRefreshToken()
	if err := service.store.Save(ctx, principal); err != nil {
		return fmt.Errorf("auth_service_logout_save: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_logout_succeeded", slog.String("login_name", principal.LoginName))
	return nil
}

// # Helpers

// holderOf returns the principal whose stored refresh token equals token.
func (service *Service) holderOf(ctx context.Context, refreshToken string) (*Principal, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	principal, err := service.store.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup: %w", err)
	}

	return principal, nil
}

// rotate issues a new pair and makes its refresh token the only live one.
func (service *Service) rotate(ctx context.Context, principal *Principal) (*TokenPair, error) {
	accessToken, err := service.codec.Issue(principal.LoginName, string(principal.Role), sec.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("issue_access_token: %w", err)
	}

	refreshToken, err := service.codec.Issue(principal.LoginName, string(principal.Role), sec.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue_refresh_token: %w", err)
	}

	principal.SetRefreshToken(refreshToken)
	if err := service.store.Save(ctx, principal); err != nil {
		return nil, fmt.Errorf("save_refresh_token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
