// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package clientassertion signs JWTs with a private key or client secret for
// use in OAuth client_assertion requests, A.K.A. private_key_jwt and
// client_secret_jwt (RFC 7523).  A *JWT can be handed to the oidc package's
// WithClientAssertion option so the token client authenticates with it.
package clientassertion

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/go-uuid"
)

const (
	// JWTTypeParam is the proper value for client_assertion_type.
	// https://www.rfc-editor.org/rfc/rfc7523.html#section-2.2
	JWTTypeParam = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// DefaultLifetime is how long a serialized assertion is valid.
	DefaultLifetime = 5 * time.Minute
)

// NewJWTWithHMAC creates a new JWT which will be signed with an HMAC
// client secret.  The audience is normally the provider's token endpoint.
//
// Supported Options: WithKeyID, WithHeaders, WithLifetime, WithNow
func NewJWTWithHMAC(clientID string, audience []string, alg HSAlgorithm, secret string, opts ...Option) (*JWT, error) {
	const op = "NewJWTWithHMAC"
	if err := alg.Validate(secret); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	j, err := newJWT(clientID, audience, jose.SignatureAlgorithm(alg), []byte(secret), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return j, nil
}

// NewJWTWithRSAKey creates a new JWT which will be signed with an RSA
// private key.
//
// Supported Options: WithKeyID, WithHeaders, WithLifetime, WithNow
func NewJWTWithRSAKey(clientID string, audience []string, alg RSAlgorithm, key *rsa.PrivateKey, opts ...Option) (*JWT, error) {
	const op = "NewJWTWithRSAKey"
	if err := alg.Validate(key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	j, err := newJWT(clientID, audience, jose.SignatureAlgorithm(alg), key, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return j, nil
}

// NewJWTWithECKey creates a new JWT which will be signed with an ECDSA
// private key.
//
// Supported Options: WithKeyID, WithHeaders, WithLifetime, WithNow
func NewJWTWithECKey(clientID string, audience []string, alg ESAlgorithm, key *ecdsa.PrivateKey, opts ...Option) (*JWT, error) {
	const op = "NewJWTWithECKey"
	if err := alg.Validate(key); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	j, err := newJWT(clientID, audience, jose.SignatureAlgorithm(alg), key, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return j, nil
}

func newJWT(clientID string, audience []string, alg jose.SignatureAlgorithm, key any, opts ...Option) (*JWT, error) {
	j := &JWT{
		clientID: clientID,
		audience: audience,
		alg:      alg,
		key:      key,
		headers:  make(map[string]string),
		lifetime: DefaultLifetime,
		genID:    uuid.GenerateUUID,
		now:      time.Now,
	}

	var errs []error
	if clientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if len(audience) == 0 {
		errs = append(errs, ErrMissingAudience)
	}
	for _, opt := range opts {
		if err := opt(j); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// make sure Serialize() works; we can't pre-validate everything, and the
	// assertion is useless if it can't be signed.
	if _, err := j.Serialize(); err != nil {
		return nil, err
	}
	return j, nil
}

// JWT is used to create a client assertion JWT, a special JWT used by an OAuth
// 2.0 or OIDC client to authenticate themselves to an authorization server
type JWT struct {
	// for JWT claims
	clientID string
	audience []string
	headers  map[string]string
	lifetime time.Duration

	// for signer
	alg jose.SignatureAlgorithm
	// key is a []byte secret or a private key
	key any

	// these are overwritten for testing
	genID func() (string, error)
	now   func() time.Time
}

// Serialize returns a freshly signed client assertion, with its own "jti"
// and time claims, which can be used by an OAuth 2.0 or OIDC client to
// authenticate themselves to an authorization server
func (j *JWT) Serialize() (string, error) {
	const op = "JWT.Serialize"
	signer, err := j.signer()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	id, err := j.genID()
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate token id: %w", op, err)
	}
	token, err := jwt.Signed(signer).Claims(j.claims(id)).Serialize()
	if err != nil {
		return "", fmt.Errorf("%s: failed to serialize token: %w", op, err)
	}
	return token, nil
}

func (j *JWT) signer() (jose.Signer, error) {
	const op = "signer"
	sOpts := &jose.SignerOptions{
		ExtraHeaders: make(map[jose.HeaderKey]interface{}, len(j.headers)),
	}
	for k, v := range j.headers {
		sOpts.ExtraHeaders[jose.HeaderKey(k)] = v
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: j.alg, Key: j.key}, sOpts.WithType("JWT"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrCreatingSigner, err)
	}
	return signer, nil
}

func (j *JWT) claims(id string) *jwt.Claims {
	now := j.now().UTC()
	return &jwt.Claims{
		Issuer:    j.clientID,
		Subject:   j.clientID,
		Audience:  j.audience,
		Expiry:    jwt.NewNumericDate(now.Add(j.lifetime)),
		NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Second)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        id,
	}
}
