// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// WithLogger provides an optional logger.
//
// Valid for: New and NewTokenValidator
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		switch o := o.(type) {
		case *sessionOptions:
			o.withLogger = l
		case *validatorOptions:
			o.withLogger = l
		}
	}
}

// WithNow provides an optional function returning the current time.
//
// Valid for: New
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*sessionOptions); ok && now != nil {
			o.withNow = now
		}
	}
}

// WithSkipIdToken stops NewTokenValidator from verifying the id token entry.
// Useful when the provider signs id tokens with keys the relying party
// doesn't have.
//
// Valid for: NewTokenValidator
func WithSkipIdToken() Option {
	return func(o interface{}) {
		if o, ok := o.(*validatorOptions); ok {
			o.withSkipIdToken = true
		}
	}
}

// WithTokenUseClaim names a claim that marks what a token is for (Cognito
// uses "token_use").  NewTokenValidator then requires it to be "access" on
// the access token entry and "id" on the id token entry.
//
// Valid for: NewTokenValidator
func WithTokenUseClaim(claim string) Option {
	return func(o interface{}) {
		if o, ok := o.(*validatorOptions); ok {
			o.withTokenUseClaim = claim
		}
	}
}
