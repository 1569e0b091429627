// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/oauthroutes/cookie"
	"github.com/hashicorp/oauthroutes/oidc"
)

// Store is the key/value storage a Session is kept in.  *cookie.Store
// implements it.
type Store interface {
	SetItem(ctx context.Context, key, value string) error
	GetItem(ctx context.Context, key string) (string, bool, error)
	RemoveItem(ctx context.Context, key string) error
}

// Refresher redeems refresh tokens.  *oidc.TokenClient implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oidc.ExchangeResult, error)
}

// Session reads and writes one user's token set.  It's bound to the Store
// of a single request and must not be shared across requests.
type Session struct {
	store  Store
	keys   Keys
	now    func() time.Time
	logger hclog.Logger
}

// New creates a Session kept in store under keys.
//
// Supported options: WithLogger, WithNow
func New(store Store, keys Keys, opt ...Option) (*Session, error) {
	const op = "session.New"
	switch {
	case store == nil:
		return nil, fmt.Errorf("%s: store is nil: %w", op, ErrNilParameter)
	case keys.AccessToken == "" || keys.IdToken == "" || keys.RefreshToken == "" || keys.TokenType == "" || keys.ExpiresAt == "":
		return nil, fmt.Errorf("%s: incomplete keys: %w", op, ErrInvalidParameter)
	}
	opts := getSessionOpts(opt...)
	return &Session{
		store:  store,
		keys:   keys,
		now:    opts.withNow,
		logger: opts.withLogger,
	}, nil
}

// Keys returns the session's entry names.
func (s *Session) Keys() Keys {
	return s.keys
}

type entry struct {
	key   string
	value string
}

func (s *Session) entries(ts *oidc.TokenSet) []entry {
	var expiresAt string
	if !ts.Expiry.IsZero() {
		expiresAt = strconv.FormatInt(ts.Expiry.Unix(), 10)
	}
	return []entry{
		{s.keys.AccessToken, string(ts.AccessToken)},
		{s.keys.IdToken, string(ts.IdToken)},
		{s.keys.RefreshToken, string(ts.RefreshToken)},
		{s.keys.TokenType, ts.TokenType},
		{s.keys.ExpiresAt, expiresAt},
	}
}

// Persist writes the token set.  Every entry is checked against the cookie
// size limit before anything is written; when a write fails the entries
// already written are removed.  Entries for tokens the set doesn't carry
// are removed so they can't outlive the set they came from.
func (s *Session) Persist(ctx context.Context, ts *oidc.TokenSet) error {
	const op = "Session.Persist"
	switch {
	case ts == nil:
		return fmt.Errorf("%s: token set is nil: %w", op, ErrNilParameter)
	case ts.AccessToken == "":
		return fmt.Errorf("%s: token set has no access token: %w", op, ErrInvalidParameter)
	}
	entries := s.entries(ts)
	for _, e := range entries {
		if err := cookie.CheckSize(e.key, e.value); err != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrPersistFailed, err)
		}
	}
	for i, e := range entries {
		var err error
		if e.value == "" {
			err = s.store.RemoveItem(ctx, e.key)
		} else {
			err = s.store.SetItem(ctx, e.key, e.value)
		}
		if err != nil {
			var result error
			result = multierror.Append(result, fmt.Errorf("%s: %w: %q: %w", op, ErrPersistFailed, e.key, err))
			for _, written := range entries[:i] {
				if rmErr := s.store.RemoveItem(ctx, written.key); rmErr != nil {
					result = multierror.Append(result, rmErr)
				}
			}
			return result
		}
	}
	s.logger.Debug("session persisted", "expires_at", ts.Expiry)
	return nil
}

// Load reads the token set.  Entries the store reports as absent (missing,
// empty or rejected by its validator) are left empty.  ErrNotFound is
// returned when neither an access token nor a refresh token is present.
func (s *Session) Load(ctx context.Context) (*oidc.TokenSet, error) {
	const op = "Session.Load"
	values := make(map[string]string, len(s.keys.All()))
	for _, k := range s.keys.All() {
		v, ok, err := s.store.GetItem(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			values[k] = v
		}
	}
	ts := &oidc.TokenSet{
		AccessToken:  oidc.AccessToken(values[s.keys.AccessToken]),
		IdToken:      oidc.IdToken(values[s.keys.IdToken]),
		RefreshToken: oidc.RefreshToken(values[s.keys.RefreshToken]),
		TokenType:    values[s.keys.TokenType],
	}
	if ts.AccessToken == "" && ts.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if raw := values[s.keys.ExpiresAt]; raw != "" {
		// an unreadable expiry is treated like a missing one
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ts.Expiry = time.Unix(secs, 0)
			if remaining := ts.Expiry.Sub(s.now()); remaining > 0 {
				ts.ExpiresIn = int64(remaining / time.Second)
			}
		}
	}
	return ts, nil
}

// Clear removes every entry.  Every removal is attempted; the failures are
// returned together.
func (s *Session) Clear(ctx context.Context) error {
	const op = "Session.Clear"
	var result error
	for _, k := range s.keys.All() {
		if err := s.store.RemoveItem(ctx, k); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %q: %w", op, k, err))
		}
	}
	return result
}

// Refresh redeems the stored refresh token and persists the resulting token
// set.  An id token or refresh token the provider doesn't return again is
// carried over from the stored set.  A provider rejection is returned as an
// error wrapping oidc.ErrTokenExchangeRejected; the stored session is left
// untouched.
func (s *Session) Refresh(ctx context.Context, r Refresher) (*oidc.TokenSet, error) {
	const op = "Session.Refresh"
	if r == nil {
		return nil, fmt.Errorf("%s: refresher is nil: %w", op, ErrNilParameter)
	}
	current, err := s.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	case current.RefreshToken == "":
		return nil, fmt.Errorf("%s: %w", op, ErrNoRefreshToken)
	}
	result, err := r.Refresh(ctx, string(current.RefreshToken))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := result.Err(); err != nil {
		s.logger.Debug("refresh rejected", "error", result.Error)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ts := *result.Tokens
	if ts.IdToken == "" {
		ts.IdToken = current.IdToken
	}
	if ts.RefreshToken == "" {
		ts.RefreshToken = current.RefreshToken
	}
	if err := s.Persist(ctx, &ts); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &ts, nil
}

// sessionOptions is the set of available options for a Session
type sessionOptions struct {
	withLogger hclog.Logger
	withNow    func() time.Time
}

func sessionDefaults() sessionOptions {
	return sessionOptions{
		withLogger: hclog.NewNullLogger(),
		withNow:    time.Now,
	}
}

func getSessionOpts(opt ...Option) sessionOptions {
	opts := sessionDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}
