// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"fmt"
	"time"
)

// Option configures the JWT
type Option func(*JWT) error

// WithKeyID sets the "kid" header that OIDC providers use to look up the
// public key to check the signed JWT
func WithKeyID(keyID string) Option {
	const op = "WithKeyID"
	return func(j *JWT) error {
		if keyID == "" {
			return fmt.Errorf("%s: empty key id", op)
		}
		j.headers["kid"] = keyID
		return nil
	}
}

// WithHeaders sets extra JWT headers.  "kid" must be set with WithKeyID.
func WithHeaders(h map[string]string) Option {
	const op = "WithHeaders"
	return func(j *JWT) error {
		for k, v := range h {
			if k == "kid" {
				return fmt.Errorf("%s: %w", op, ErrKidHeader)
			}
			j.headers[k] = v
		}
		return nil
	}
}

// WithLifetime sets how long each serialized assertion is valid.  The
// default is DefaultLifetime.
func WithLifetime(d time.Duration) Option {
	const op = "WithLifetime"
	return func(j *JWT) error {
		if d <= 0 {
			return fmt.Errorf("%s: %w: %s", op, ErrInvalidLifetime, d)
		}
		j.lifetime = d
		return nil
	}
}

// WithNow sets the clock used for the assertion's time claims.
func WithNow(now func() time.Time) Option {
	return func(j *JWT) error {
		if now != nil {
			j.now = now
		}
		return nil
	}
}
