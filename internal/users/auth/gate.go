// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/cookie"
	"github.com/taibuivan/roster/internal/platform/ctxutil"
	"github.com/taibuivan/roster/internal/platform/metrics"
	"github.com/taibuivan/roster/internal/platform/middleware"
	requestutil "github.com/taibuivan/roster/internal/platform/request"
	"github.com/taibuivan/roster/internal/platform/respond"
	"github.com/taibuivan/roster/internal/platform/sec"
)

// errStaleRefreshToken reports a well-signed refresh token that its subject no longer holds.
var errStaleRefreshToken = errors.New("refresh token is not the stored value")

// # Decision

// Outcome is the verdict of the gate for one request.
type Outcome int

const (
	// Proceed dispatches the request, authenticated or anonymous.
	Proceed Outcome = iota
	// Reject short-circuits the request with an authentication failure.
	Reject
)

// Decision is the tagged result of [Gate.Decide].
//
// Identity is nil for anonymous requests. RenewedAccessToken is set only when
// an expired access token was silently replaced. Reason carries the internal
// cause for logs and is never shown to the client.
type Decision struct {
	Outcome            Outcome
	Identity           *sec.Identity
	RenewedAccessToken string
	Reason             error
}

// Label names the decision for metrics.
func (decision Decision) Label() string {
	switch {
	case decision.Outcome == Reject:
		return "rejected"
	case decision.RenewedAccessToken != "":
		return "renewed"
	case decision.Identity != nil:
		return "authenticated"
	default:
		return "anonymous"
	}
}

func reject(reason error) Decision {
	return Decision{Outcome: Reject, Reason: reason}
}

// # Gate

// Gate decides, once per request, who the caller is.
//
// It is stateless apart from its collaborators and safe for concurrent use.
type Gate struct {
	codec TokenCodec
	store CredentialStore
}

// NewGate constructs a [Gate].
func NewGate(codec TokenCodec, store CredentialStore) *Gate {
	return &Gate{codec: codec, store: store}
}

/*
Decide runs the authentication state machine over the two token slots.

# States

 1. No access token: proceed anonymous.
 2. Access token verifies: proceed with its identity.
 3. Access token invalid, no refresh token: proceed anonymous.
 4. Access token invalid, refresh token present: renew or reject.
    The refresh token must verify, its subject must resolve to a principal,
    and that principal must hold exactly this token. Then a new access token
    is issued and the request proceeds with the principal's identity. The
    refresh token itself is not rotated here.
 5. Any lookup or signing failure on the renewal path: reject.
*/
func (gate *Gate) Decide(ctx context.Context, accessToken, refreshToken string) Decision {
	if accessToken == "" {
		return Decision{Outcome: Proceed}
	}

	claims, err := gate.codec.Verify(accessToken, sec.KindAccess)
	if err == nil {
		return Decision{Outcome: Proceed, Identity: claims.Identity()}
	}

	if refreshToken == "" {
		return Decision{Outcome: Proceed, Reason: err}
	}

	return gate.renew(ctx, refreshToken)
}

// renew handles state 4.
func (gate *Gate) renew(ctx context.Context, refreshToken string) Decision {
	claims, err := gate.codec.Verify(refreshToken, sec.KindRefresh)
	if err != nil {
		return reject(fmt.Errorf("gate_refresh_verify: %w", err))
	}

	principal, err := gate.store.FindByLoginName(ctx, claims.Subject)
	if err != nil {
		return reject(fmt.Errorf("gate_principal_lookup: %w", err))
	}

	if !principal.HoldsRefreshToken(refreshToken) {
		return reject(errStaleRefreshToken)
	}

	accessToken, err := gate.codec.Issue(principal.LoginName, string(principal.Role), sec.KindAccess)
	if err != nil {
		return reject(fmt.Errorf("gate_issue_access_token: %w", err))
	}

	return Decision{
		Outcome:            Proceed,
		Identity:           principal.Identity(),
		RenewedAccessToken: accessToken,
	}
}

// # Transport Binding

// Middleware reads the token cookies, applies [Gate.Decide] and acts on it.
//
// # Flow
//  1. Reject: clear both cookies and answer 401 AUTHENTICATION_FAILED.
//  2. Renewed: set the replacement access-token cookie.
//  3. Identity: attach it to the request context for downstream handlers.
func (gate *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		logger := ctxutil.GetLogger(ctx)

		refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)
		decision := gate.Decide(ctx,
			requestutil.Cookie(request, constants.AccessTokenCookieName),
			refreshToken,
		)
		metrics.RecordGateDecision(decision.Label())

		// ── 1. Rejection ──────────────────────────────────────────────────
		if decision.Outcome == Reject {
			attrs := []any{slog.String("reason", decision.Reason.Error())}
			if subject, err := gate.codec.SubjectOf(refreshToken); err == nil {
				attrs = append(attrs, slog.String("claimed_login_name", subject))
			}
			logger.WarnContext(ctx, "auth_gate_rejected", attrs...)

			cookie.ClearAll(writer)
			respond.Error(writer, request, ErrAuthenticationFailed.WithCause(decision.Reason))
			return
		}

		// ── 2. Silent Renewal ─────────────────────────────────────────────
		if decision.RenewedAccessToken != "" {
			cookie.SetAccess(writer, decision.RenewedAccessToken)
			logger.InfoContext(ctx, "auth_gate_access_renewed",
				slog.String("login_name", decision.Identity.LoginName),
			)
		} else if decision.Reason != nil {
			logger.DebugContext(ctx, "auth_gate_anonymous", slog.String("reason", decision.Reason.Error()))
		}

		// ── 3. Context Injection ──────────────────────────────────────────
		if decision.Identity != nil {
			ctx = ctxutil.WithIdentity(ctx, decision.Identity)
			middleware.TrackIdentity(ctx, decision.Identity.LoginName)
		}

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}
