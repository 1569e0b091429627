// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"testing"

	"github.com/hashicorp/oauthroutes/oidc"
	"github.com/stretchr/testify/require"
)

// testStore is an in-memory Store which can be made to fail.
type testStore struct {
	items     map[string]string
	setErrs   map[string]error
	removeErr error
	getErr    error
}

func newTestStore() *testStore {
	return &testStore{items: map[string]string{}, setErrs: map[string]error{}}
}

func (s *testStore) SetItem(_ context.Context, key, value string) error {
	if err := s.setErrs[key]; err != nil {
		return err
	}
	s.items[key] = value
	return nil
}

func (s *testStore) GetItem(_ context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.items[key]
	return v, ok && v != "", nil
}

func (s *testStore) RemoveItem(_ context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.items, key)
	return nil
}

// testRefresher returns a fixed result and records the token it was given.
type testRefresher struct {
	result *oidc.ExchangeResult
	err    error
	got    string
}

func (r *testRefresher) Refresh(_ context.Context, refreshToken string) (*oidc.ExchangeResult, error) {
	r.got = refreshToken
	return r.result, r.err
}

func testKeys(t *testing.T) Keys {
	t.Helper()
	k, err := NewKeys("test", "client")
	require.NoError(t, err)
	return k
}
