// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cookie

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")
	ErrInvalidCookie    = errors.New("invalid cookie")
	ErrCookieTooLarge   = errors.New("cookie too large")

	// ErrNotImplemented is returned for key/value operations that cookies
	// cannot support, see Store.Clear.
	ErrNotImplemented = errors.New("not implemented")
)
