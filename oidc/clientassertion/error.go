// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import "errors"

var (
	// these may happen due to user error

	ErrMissingClientID = errors.New("missing client ID")
	ErrMissingAudience = errors.New("missing audience")
	ErrInvalidLifetime = errors.New("invalid assertion lifetime")

	// algorithm errors

	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrInvalidSecretLength  = errors.New("invalid secret length for algorithm")
	ErrNilPrivateKey        = errors.New("nil private key")
	ErrInvalidKeyCurve      = errors.New("invalid curve for algorithm")
	ErrCreatingSigner       = errors.New("error creating jwt signer")

	// ErrKidHeader is returned when WithHeaders is used to set "kid"; use
	// WithKeyID instead.
	ErrKidHeader = errors.New(`"kid" header not allowed in WithHeaders; use WithKeyID instead`)
)
