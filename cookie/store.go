// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cookie

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultExpiry is how long a cookie written by Store.SetItem lives.
const DefaultExpiry = 365 * 24 * time.Hour

// DefaultSetOptions are the fixed attributes used by Store.SetItem.  The
// expiry is computed for every write.
var DefaultSetOptions = SetOptions{
	SameSite: http.SameSiteLaxMode,
	Secure:   true,
	Path:     "/",
}

// Store is a key/value store persisted as one cookie per key.
type Store struct {
	adapter   Adapter
	validator Validator
	policy    SetOptions
	now       func() time.Time
}

// NewStore creates a Store which uses the adapter for its cookie operations.
//
// Supported options: WithValidator, WithDomain, WithNow
func NewStore(adapter Adapter, opt ...Option) (*Store, error) {
	const op = "cookie.NewStore"
	if adapter == nil {
		return nil, fmt.Errorf("%s: adapter is nil: %w", op, ErrNilParameter)
	}
	opts := getStoreOpts(opt...)
	policy := DefaultSetOptions
	policy.Domain = opts.withDomain
	return &Store{
		adapter:   adapter,
		validator: opts.withValidator,
		policy:    policy,
		now:       opts.withNow,
	}, nil
}

// SetItem stores the value for key.  Any existing cookie for the key is
// deleted first so a cookie written with different attributes (a narrower
// path, for example) can't shadow the new one.
func (s *Store) SetItem(_ context.Context, key, value string) error {
	const op = "Store.SetItem"
	if key == "" {
		return fmt.Errorf("%s: missing key: %w", op, ErrInvalidParameter)
	}
	if err := s.adapter.Delete(key); err != nil {
		return err
	}
	opts := s.policy
	opts.Expires = s.now().Add(DefaultExpiry)
	return s.adapter.Set(key, value, opts)
}

// GetItem returns the value stored for key.  The bool is false when the
// cookie is absent, empty or rejected by the store's Validator.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	const op = "Store.GetItem"
	if key == "" {
		return "", false, fmt.Errorf("%s: missing key: %w", op, ErrInvalidParameter)
	}
	c, ok := s.adapter.Get(key)
	if !ok || c.Value == "" {
		return "", false, nil
	}
	if s.validator != nil {
		valid, err := s.validator.ValidateItem(ctx, key, c.Value)
		if err != nil {
			return "", false, fmt.Errorf("%s: unable to validate %q: %w", op, key, err)
		}
		if !valid {
			return "", false, nil
		}
	}
	return c.Value, true, nil
}

// RemoveItem deletes the cookie for key.  Removing a missing key is not an
// error.
func (s *Store) RemoveItem(_ context.Context, key string) error {
	const op = "Store.RemoveItem"
	if key == "" {
		return fmt.Errorf("%s: missing key: %w", op, ErrInvalidParameter)
	}
	return s.adapter.Delete(key)
}

// Clear always returns ErrNotImplemented: cookies can't be enumerated, so
// there is no way to remove every key the store ever wrote.
func (s *Store) Clear(_ context.Context) error {
	const op = "Store.Clear"
	return fmt.Errorf("%s: cookie storage cannot be cleared: %w", op, ErrNotImplemented)
}

// storeOptions is the set of available options for Store
type storeOptions struct {
	withValidator Validator
	withDomain    string
	withNow       func() time.Time
}

func storeDefaults() storeOptions {
	return storeOptions{
		withNow: time.Now,
	}
}

func getStoreOpts(opt ...Option) storeOptions {
	opts := storeDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
