// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil {
			continue
		}
		o(opts)
	}
}

// WithClientSecret provides an optional client secret for: Config.
// A confidential client authenticates to the token and revocation endpoints
// with it.
func WithClientSecret(secret string) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withClientSecret = ClientSecret(secret)
		}
	}
}

// WithScopes provides an optional list of scopes for: Config.  When not
// provided, DefaultScopes are requested.
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withScopes = scopes
		}
	}
}

// WithProviderCA provides an optional PEM encoded CA cert used when
// connecting to the provider for: Config, Discover.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withProviderCA = cert
		}
	}
}

// WithTimeout provides an optional timeout for every request made to the
// provider for: Config, Discover.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withTimeout = d
		}
	}
}

// WithClientAssertion provides an optional signed client assertion used to
// authenticate to the token and revocation endpoints (private_key_jwt or
// client_secret_jwt) for: Config.
func WithClientAssertion(a ClientAssertion) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withClientAssertion = a
		}
	}
}

// WithLogger provides an optional logger for: Config.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if v, ok := o.(*configOptions); ok {
			v.withLogger = l
		}
	}
}

// WithCustomState provides optional caller supplied state that is carried
// through the provider round trip for: State.
func WithCustomState(s string) Option {
	return func(o interface{}) {
		if v, ok := o.(*stateOptions); ok {
			v.withCustomState = s
		}
	}
}

// WithNonce provides an optional nonce for: State.  A random nonce is
// generated when one isn't provided.
func WithNonce(n string) Option {
	return func(o interface{}) {
		if v, ok := o.(*stateOptions); ok {
			v.withNonce = n
		}
	}
}
