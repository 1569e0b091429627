// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
)

var (
	ErrInvalidParameter           = errors.New("invalid parameter")
	ErrNilParameter               = errors.New("nil parameter")
	ErrInvalidCACert              = errors.New("invalid CA certificate")
	ErrInvalidIssuer              = errors.New("invalid issuer")
	ErrIdGeneratorFailed          = errors.New("id generation failed")
	ErrMalformedState             = errors.New("malformed state")
	ErrCsrfValidation             = errors.New("csrf validation failed")
	ErrTokenExchangeRejected      = errors.New("token exchange rejected")
	ErrTokenEndpointUnreachable   = errors.New("token endpoint unreachable")
	ErrRevocationFailed           = errors.New("token revocation failed")
	ErrUnsupportedChallengeMethod = errors.New("unsupported PKCE challenge method")
	ErrInvalidCodeVerifier        = errors.New("invalid PKCE code verifier")
	ErrDiscoveryFailed            = errors.New("provider discovery failed")
)
