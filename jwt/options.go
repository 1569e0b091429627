// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

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

// validateOptions is the set of available options for Validator.Validate
type validateOptions struct {
	withNormalizedAudiences bool
	withRequiredClaims      map[string]string
}

func validateDefaults() validateOptions {
	return validateOptions{}
}

func getValidateOpts(opt ...Option) validateOptions {
	opts := validateDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithNormalizedAudiences removes a trailing slash from the expected
// audiences and the "aud" claim values before they're compared, for:
// Validator.Validate
func WithNormalizedAudiences() Option {
	return func(o interface{}) {
		if v, ok := o.(*validateOptions); ok {
			v.withNormalizedAudiences = true
		}
	}
}

// WithRequiredClaim requires the string claim name to equal value, for:
// Validator.Validate.  It can be given more than once.  Providers that mark
// tokens with a "token_use" claim can use it to keep an id token from being
// accepted where an access token is expected.
func WithRequiredClaim(name, value string) Option {
	return func(o interface{}) {
		if v, ok := o.(*validateOptions); ok {
			if v.withRequiredClaims == nil {
				v.withRequiredClaims = map[string]string{}
			}
			v.withRequiredClaims[name] = value
		}
	}
}
