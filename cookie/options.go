// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cookie

import "time"

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

// WithValidator provides an optional Validator used by Store.GetItem.
func WithValidator(v Validator) Option {
	return func(o interface{}) {
		if o, ok := o.(*storeOptions); ok {
			o.withValidator = v
		}
	}
}

// WithDomain provides an optional Domain attribute for written cookies.
func WithDomain(domain string) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *storeOptions:
			v.withDomain = domain
		case *adapterOptions:
			v.withDomain = domain
		}
	}
}

// WithNow provides an optional clock, which is handy for tests.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		switch v := o.(type) {
		case *storeOptions:
			v.withNow = now
		case *adapterOptions:
			v.withNow = now
		}
	}
}

// WithPath provides the path used when a RequestAdapter deletes a cookie.
// The default is "/".
func WithPath(path string) Option {
	return func(o interface{}) {
		if o, ok := o.(*adapterOptions); ok {
			o.withPath = path
		}
	}
}
