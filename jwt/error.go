// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import "errors"

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNilParameter        = errors.New("nil parameter")
	ErrInvalidCACert       = errors.New("invalid CA certificate")
	ErrMalformedToken      = errors.New("malformed token")
	ErrUnsupportedAlg      = errors.New("unsupported signing algorithm")
	ErrUnexpectedAlg       = errors.New("unexpected signing algorithm")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrMissingExpiration   = errors.New("missing exp claim")
	ErrExpiredToken        = errors.New("token is expired")
	ErrTokenNotYetValid    = errors.New("token is not yet valid")
	ErrTokenIssuedInFuture = errors.New("token issued in the future")
	ErrInvalidIssuer       = errors.New("invalid issuer")
	ErrInvalidSubject      = errors.New("invalid subject")
	ErrInvalidAudience     = errors.New("invalid audience")
	ErrInvalidClaim        = errors.New("invalid claim")
)
