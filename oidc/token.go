// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"fmt"
	"time"
)

// AccessToken is an oauth access_token.
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token.
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token.
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token.
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// IdToken is an oidc id_token.
type IdToken string

// RedactedIdToken is the redacted string or json for an oidc id_token.
const RedactedIdToken = "[REDACTED: id_token]"

// String will redact the token.
func (t IdToken) String() string {
	return RedactedIdToken
}

// MarshalJSON will redact the token.
func (t IdToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIdToken)
}

// RefreshToken is an oauth refresh_token.
type RefreshToken string

// RedactedRefreshToken is the redacted string or json for an oauth refresh_token.
const RedactedRefreshToken = "[REDACTED: refresh_token]"

// String will redact the token.
func (t RefreshToken) String() string {
	return RedactedRefreshToken
}

// MarshalJSON will redact the token.
func (t RefreshToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedRefreshToken)
}

// TokenSet is the set of tokens returned by a successful token endpoint
// request.  The token fields redact themselves when printed or marshaled;
// convert them to a string to get the raw value.
type TokenSet struct {
	AccessToken  AccessToken
	IdToken      IdToken
	RefreshToken RefreshToken
	TokenType    string

	// ExpiresIn is the access token lifetime in seconds as reported by the
	// provider, or zero when it wasn't reported.
	ExpiresIn int64

	// Expiry is the absolute access token expiration, or the zero time when
	// the provider didn't report a lifetime.
	Expiry time.Time
}

// Valid reports whether the set carries an access token that hasn't
// expired.
func (t *TokenSet) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.Expiry.IsZero() || now.Before(t.Expiry)
}

// Token endpoint error codes that don't come from the provider.
const (
	// ErrorInvalidTokenResponse is used when the token endpoint answered but
	// its response couldn't be understood.
	ErrorInvalidTokenResponse = "invalid_token_response"
)

// ExchangeResult is the outcome of a token endpoint request that reached the
// provider.  Exactly one of Tokens or Error is set.
type ExchangeResult struct {
	Tokens *TokenSet

	// Error is the provider's error code (for example "invalid_grant").
	Error string

	// ErrorDescription is the provider's optional human readable
	// description of the error.
	ErrorDescription string
}

// Err returns nil for a successful exchange and an error wrapping
// ErrTokenExchangeRejected otherwise.
func (r *ExchangeResult) Err() error {
	const op = "ExchangeResult.Err"
	switch {
	case r == nil:
		return fmt.Errorf("%s: result is nil: %w", op, ErrNilParameter)
	case r.Error == "" && r.Tokens != nil:
		return nil
	case r.ErrorDescription != "":
		return fmt.Errorf("%s: %s (%s): %w", op, r.Error, r.ErrorDescription, ErrTokenExchangeRejected)
	default:
		return fmt.Errorf("%s: %s: %w", op, r.Error, ErrTokenExchangeRejected)
	}
}

// RevocationResult is the outcome of a revocation request that reached the
// provider.  Error is empty when the provider accepted the request.
type RevocationResult struct {
	Error            string
	ErrorDescription string
}

// Err returns nil when the revocation was accepted and an error wrapping
// ErrRevocationFailed otherwise.
func (r *RevocationResult) Err() error {
	const op = "RevocationResult.Err"
	switch {
	case r == nil:
		return fmt.Errorf("%s: result is nil: %w", op, ErrNilParameter)
	case r.Error == "":
		return nil
	default:
		return fmt.Errorf("%s: %s: %w", op, r.Error, ErrRevocationFailed)
	}
}
