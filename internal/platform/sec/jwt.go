// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. It acts as an infrastructure service injected into the
// auth service and the request gate.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

var (
	// ErrTokenExpired reports a well-signed token whose expiry has passed.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenMalformed reports a token that cannot be trusted at all: bad
	// signature, unparsable payload, wrong issuer or wrong kind.
	ErrTokenMalformed = errors.New("sec: token malformed")
)

// AuthClaims represents the payload embedded inside every signed token.
//
// The subject is the principal's login name, so the gate can rebuild an
// identity without touching the store on the happy path.
type AuthClaims struct {
	jwt.RegisteredClaims

	Role string    `json:"role"`
	Kind TokenKind `json:"typ,omitempty"`
}

// Identity converts the claims into a request-scoped [Identity].
func (claims *AuthClaims) Identity() *Identity {
	return &Identity{LoginName: claims.Subject, Role: UserRole(claims.Role)}
}

// CodecConfig configures a [TokenCodec]. Zero values fall back to defaults.
type CodecConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// StrictKind rejects tokens presented for the other kind.
	StrictKind bool

	// Now and NewID are injectable for deterministic tests.
	Now   func() time.Time
	NewID func() string
}

// TokenCodec creates and verifies HS256-signed, time-bounded tokens.
//
// It is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	issuer     string
	ttl        map[TokenKind]time.Duration
	strictKind bool
	now        func() time.Time
	newID      func() string
}

// NewTokenCodec validates cfg and returns a ready codec.
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: token secret is empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token TTLs must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}

	return &TokenCodec{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl: map[TokenKind]time.Duration{
			KindAccess:  cfg.AccessTTL,
			KindRefresh: cfg.RefreshTTL,
		},
		strictKind: cfg.StrictKind,
		now:        cfg.Now,
		newID:      cfg.NewID,
	}, nil
}

// StrictKind reports whether cross-kind token use is rejected.
func (codec *TokenCodec) StrictKind() bool {
	return codec.strictKind
}

// Issue signs a new token for subject with issuedAt = now and
// expiresAt = now + ttl(kind).
func (codec *TokenCodec) Issue(subject, role string, kind TokenKind) (string, error) {
	ttl, ok := codec.ttl[kind]
	if !ok {
		return "", fmt.Errorf("auth: unknown token kind %q", kind)
	}

	currentTime := codec.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        codec.newID(),
			Subject:   subject,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(ttl)),
		},
		Role: role,
		Kind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks signature, issuer, expiry and (in strict mode) kind.
//
// The returned error wraps [ErrTokenExpired] for a well-signed token past its
// expiry and [ErrTokenMalformed] for everything else.
func (codec *TokenCodec) Verify(tokenString string, kind TokenKind) (*AuthClaims, error) {
	claims, err := codec.parse(tokenString,
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	if codec.strictKind && claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenMalformed, kind, claims.Kind)
	}

	return claims, nil
}

// SubjectOf returns the subject of a well-signed token, ignoring expiry.
func (codec *TokenCodec) SubjectOf(tokenString string) (string, error) {
	claims, err := codec.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
	return claims.Subject, nil
}

// RoleOf returns the role claim of a well-signed token, ignoring expiry.
func (codec *TokenCodec) RoleOf(tokenString string) (string, error) {
	claims, err := codec.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
	return claims.Role, nil
}

// parse verifies the HS256 signature and decodes the claims.
func (codec *TokenCodec) parse(tokenString string, options ...jwt.ParserOption) (*AuthClaims, error) {
	options = append(options, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if codec.issuer != "" {
		options = append(options, jwt.WithIssuer(codec.issuer))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return codec.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}

	return claims, nil
}
