// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cookie

import "context"

// Validator decides whether a value read from a cookie can be trusted.  A
// value that fails validation is reported as absent by Store.GetItem, but the
// cookie is left in place.
type Validator interface {
	ValidateItem(ctx context.Context, key, value string) (bool, error)
}

// ValidatorFunc is an adapter to allow the use of an ordinary function as a
// Validator.
type ValidatorFunc func(ctx context.Context, key, value string) (bool, error)

// ValidateItem calls f(ctx, key, value).
func (f ValidatorFunc) ValidateItem(ctx context.Context, key, value string) (bool, error) {
	return f(ctx, key, value)
}
