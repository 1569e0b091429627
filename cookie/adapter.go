// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cookie

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MaxCookieSize is the largest name=value pair (in bytes) a cookie may carry.
// Browsers are only required to store 4096 bytes per cookie.
const MaxCookieSize = 4096

// Cookie is a cookie as read from a request.
type Cookie struct {
	Name  string
	Value string
}

// SetOptions are the attributes written with a cookie.
type SetOptions struct {
	Domain   string
	Path     string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// Adapter is the primitive cookie interface provided by a host.  Delete must
// not fail when the cookie doesn't exist.
type Adapter interface {
	// Get returns the named cookie and true, or false when it's not present.
	Get(name string) (*Cookie, bool)

	// Set writes the named cookie with the given attributes.
	Set(name, value string, opts SetOptions) error

	// Delete expires the named cookie.
	Delete(name string) error
}

// CheckSize returns ErrCookieTooLarge when a cookie with the name and value
// would exceed MaxCookieSize.
func CheckSize(name, value string) error {
	const op = "cookie.CheckSize"
	if n := len(name) + len(value) + 1; n > MaxCookieSize {
		return fmt.Errorf("%s: %q is %d bytes (max %d): %w", op, name, n, MaxCookieSize, ErrCookieTooLarge)
	}
	return nil
}

// CheckName returns ErrInvalidCookie unless name is a valid cookie name: a
// non-empty RFC 7230 token.
func CheckName(name string) error {
	const op = "cookie.CheckName"
	if name == "" {
		return fmt.Errorf("%s: name is empty: %w", op, ErrInvalidCookie)
	}
	for i := 0; i < len(name); i++ {
		if !isTokenByte(name[i]) {
			return fmt.Errorf("%s: %q has invalid byte %q: %w", op, name, name[i], ErrInvalidCookie)
		}
	}
	return nil
}

func isTokenByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}
