// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// DefaultLeeway defines the amount of leeway that's used by default when
// validating the time-based "exp", "nbf" and "iat" claims.
const DefaultLeeway = 150 * time.Second

// Validator validates JSON Web Tokens (JWT) by providing signature
// verification and claims set validation.  Validator can contain either a
// single or multiple KeySets and will attempt to verify the JWT by iterating
// through the configured KeySets.
type Validator struct {
	keySets []KeySet
}

// NewValidator returns a Validator that uses the given KeySets to verify JWT
// signatures.
func NewValidator(keySets ...KeySet) (*Validator, error) {
	const op = "jwt.NewValidator"
	if len(keySets) == 0 {
		return nil, fmt.Errorf("%s: at least one key set is required: %w", op, ErrInvalidParameter)
	}
	for _, ks := range keySets {
		if ks == nil {
			return nil, fmt.Errorf("%s: key set is nil: %w", op, ErrNilParameter)
		}
	}
	return &Validator{
		keySets: keySets,
	}, nil
}

// Expected defines the expected claims values to assert when validating a
// JWT.  For claims that involve validation of the JWT with respect to time,
// leeway fields are provided to account for potential clock skew.
type Expected struct {
	// Issuer is the expected "iss" claim value.  Skipped when empty.
	Issuer string

	// Subject is the expected "sub" claim value.  Skipped when empty.
	Subject string

	// Audiences must contain at least one of the "aud" claim values.
	// Skipped when empty.
	Audiences []string

	// SigningAlgorithms provides the list of expected JWS "alg" header
	// values.  Defaults to RS256.
	SigningAlgorithms []Alg

	// NotBeforeLeeway is the leeway for the "nbf" claim.  Zero means
	// DefaultLeeway, a negative value means no leeway.
	NotBeforeLeeway time.Duration

	// ExpirationLeeway is the leeway for the "exp" claim.  Zero means
	// DefaultLeeway, a negative value means no leeway.
	ExpirationLeeway time.Duration

	// ClockSkewLeeway is the leeway for the "iat" claim.  Zero means
	// DefaultLeeway, a negative value means no leeway.
	ClockSkewLeeway time.Duration

	// Now provides the current time used during claims validation.
	// Defaults to time.Now.
	Now func() time.Time
}

// Validate validates JWTs of the JWS compact serialization form.
//
// The given JWT is considered valid if:
//  1. Its signature is successfully verified.
//  2. Its claims set and header parameter values match what's given by Expected.
//  3. It's valid with respect to the current time.  The "exp" claim is
//     required.
//
// Supported options: WithNormalizedAudiences, WithRequiredClaim
func (v *Validator) Validate(ctx context.Context, token string, expected Expected, opt ...Option) (map[string]interface{}, error) {
	const op = "Validator.Validate"
	opts := getValidateOpts(opt...)
	if err := validateSigningAlgorithm(token, expected.SigningAlgorithms); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var allClaims map[string]interface{}
	var errs []error
	for _, ks := range v.keySets {
		c, err := ks.VerifySignature(ctx, token)
		if err == nil {
			allClaims = c
			break
		}
		errs = append(errs, err)
	}
	if allClaims == nil {
		return nil, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	c, err := registeredClaims(allClaims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	if expected.Now != nil {
		now = expected.Now()
	}
	if c.Expiry == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingExpiration)
	}
	if now.After(c.Expiry.Time().Add(leeway(expected.ExpirationLeeway))) {
		return nil, fmt.Errorf("%s: %w", op, ErrExpiredToken)
	}
	if c.NotBefore != nil && now.Add(leeway(expected.NotBeforeLeeway)).Before(c.NotBefore.Time()) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotYetValid)
	}
	if c.IssuedAt != nil && now.Add(leeway(expected.ClockSkewLeeway)).Before(c.IssuedAt.Time()) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenIssuedInFuture)
	}
	if expected.Issuer != "" && expected.Issuer != c.Issuer {
		return nil, fmt.Errorf("%s: %q: %w", op, c.Issuer, ErrInvalidIssuer)
	}
	if expected.Subject != "" && expected.Subject != c.Subject {
		return nil, fmt.Errorf("%s: %q: %w", op, c.Subject, ErrInvalidSubject)
	}
	audiences, audClaim := expected.Audiences, []string(c.Audience)
	if opts.withNormalizedAudiences {
		audiences, audClaim = normalizeList(audiences), normalizeList(audClaim)
	}
	if err := validateAudience(audiences, audClaim); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for name, want := range opts.withRequiredClaims {
		if got, _ := allClaims[name].(string); got != want {
			return nil, fmt.Errorf("%s: %q is %q: %w", op, name, got, ErrInvalidClaim)
		}
	}
	return allClaims, nil
}

func leeway(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultLeeway
	case d < 0:
		return 0
	default:
		return d
	}
}

// registeredClaims pulls the registered claims out of a verified claims set.
func registeredClaims(allClaims map[string]interface{}) (*jwt.Claims, error) {
	const op = "jwt.registeredClaims"
	b, err := json.Marshal(allClaims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	var c jwt.Claims
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	return &c, nil
}

// validateSigningAlgorithm checks that the JWS header "alg" is one of the
// expected algorithms.  RS256 is expected when none are given.
func validateSigningAlgorithm(token string, expectedAlgorithms []Alg) error {
	const op = "jwt.validateSigningAlgorithm"
	if len(expectedAlgorithms) == 0 {
		expectedAlgorithms = []Alg{RS256}
	}
	if err := SupportedSigningAlgorithm(expectedAlgorithms...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	algs := make([]jose.SignatureAlgorithm, 0, len(supportedAlgorithms))
	for _, a := range allAlgs() {
		algs = append(algs, jose.SignatureAlgorithm(a))
	}
	parsed, err := jwt.ParseSigned(token, algs)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	if len(parsed.Headers) != 1 {
		return fmt.Errorf("%s: expected a single signature: %w", op, ErrMalformedToken)
	}
	alg := Alg(parsed.Headers[0].Algorithm)
	for _, a := range expectedAlgorithms {
		if a == alg {
			return nil
		}
	}
	return fmt.Errorf("%s: %q not in %v: %w", op, alg, expectedAlgorithms, ErrUnexpectedAlg)
}

// validateAudience returns an error if audClaim does not contain any
// audiences given by expectedAudiences.  Nothing is checked when
// expectedAudiences is empty.
func validateAudience(expectedAudiences, audClaim []string) error {
	const op = "jwt.validateAudience"
	if len(expectedAudiences) == 0 {
		return nil
	}
	for _, v := range expectedAudiences {
		for _, a := range audClaim {
			if a == v {
				return nil
			}
		}
	}
	return fmt.Errorf("%s: %v: %w", op, audClaim, ErrInvalidAudience)
}

func normalizeList(l []string) []string {
	out := make([]string, 0, len(l))
	for _, s := range l {
		out = append(out, strings.TrimSuffix(s, "/"))
	}
	return out
}
