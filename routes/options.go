// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthroutes/jwt"
	"github.com/hashicorp/oauthroutes/session"
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

// WithBasePath provides an optional path the routes are served below.  The
// default is DefaultBasePath.
func WithBasePath(p string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withBasePath = p
		}
	}
}

// WithCustomState provides an optional opaque value carried in the state of
// every authorization request.
func WithCustomState(s string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withCustomState = s
		}
	}
}

// WithRedirectOnSignInComplete provides an optional target (absolute, or a
// path relative to the origin) for a completed sign in.  The default is the
// origin's root.
func WithRedirectOnSignInComplete(target string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withRedirectOnSignInComplete = target
		}
	}
}

// WithRedirectOnSignOutComplete provides an optional target (absolute, or a
// path relative to the origin) for a completed sign out.  The default is the
// origin's root.
func WithRedirectOnSignOutComplete(target string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withRedirectOnSignOutComplete = target
		}
	}
}

// WithRedirectOnError provides an optional target (absolute, or a path
// relative to the origin) for a failed flow.  The error code is added as the
// "error" query parameter.  The default is the sign in complete target.
func WithRedirectOnError(target string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withRedirectOnError = target
		}
	}
}

// WithKeyPrefix provides an optional prefix for the cookie names.  The
// default is session.DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withKeyPrefix = prefix
		}
	}
}

// WithCookieDomain provides an optional Domain attribute for every cookie
// written.
func WithCookieDomain(domain string) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withCookieDomain = domain
		}
	}
}

// WithValidator provides an optional JWT validator for the access and id
// tokens read from the session cookies.  Tokens which don't validate against
// expected are treated as absent.  The session options (WithSkipIdToken,
// WithTokenUseClaim) are passed to session.NewTokenValidator.
func WithValidator(v *jwt.Validator, expected jwt.Expected, opt ...session.Option) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withValidator = v
			o.withExpected = expected
			o.withValidatorOpts = opt
		}
	}
}

// WithLogger provides an optional logger.  The default is the config's
// logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withLogger = l
		}
	}
}

// WithNow provides an optional function returning the current time, used
// for cookie expiry.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && now != nil {
			o.withNow = now
		}
	}
}

// handlerOptions is the set of available options for a Handler
type handlerOptions struct {
	withBasePath                  string
	withCustomState               string
	withRedirectOnSignInComplete  string
	withRedirectOnSignOutComplete string
	withRedirectOnError           string
	withKeyPrefix                 string
	withCookieDomain              string
	withValidator                 *jwt.Validator
	withExpected                  jwt.Expected
	withValidatorOpts             []session.Option
	withLogger                    hclog.Logger
	withNow                       func() time.Time
}

// handlerDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func handlerDefaults() handlerOptions {
	return handlerOptions{
		withBasePath: DefaultBasePath,
		withNow:      time.Now,
	}
}

// getHandlerOpts gets the defaults and applies the opt overrides passed in.
func getHandlerOpts(opt ...Option) handlerOptions {
	opts := handlerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
