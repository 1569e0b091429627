// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"fmt"

	"github.com/hashicorp/oauthroutes/cookie"
)

// DefaultKeyPrefix is used by NewKeys when no prefix is given.
const DefaultKeyPrefix = "oauthroutes"

// Keys are the entry names of a session.
type Keys struct {
	AccessToken  string
	IdToken      string
	RefreshToken string
	TokenType    string
	ExpiresAt    string
}

// NewKeys returns the entry names for the client: <prefix>.<clientId>.<kind>.
// An empty prefix means DefaultKeyPrefix.  Every name must be a valid cookie
// name, so the prefix and client id are limited to token characters.
func NewKeys(prefix, clientId string) (Keys, error) {
	const op = "session.NewKeys"
	if clientId == "" {
		return Keys{}, fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	base := prefix + "." + clientId + "."
	k := Keys{
		AccessToken:  base + "accessToken",
		IdToken:      base + "idToken",
		RefreshToken: base + "refreshToken",
		TokenType:    base + "tokenType",
		ExpiresAt:    base + "expiresAt",
	}
	for _, name := range k.All() {
		if err := cookie.CheckName(name); err != nil {
			return Keys{}, fmt.Errorf("%s: prefix %q and client id %q can't be used in a key: %w: %w", op, prefix, clientId, ErrInvalidParameter, err)
		}
	}
	return k, nil
}

// All returns every entry name, in write order.
func (k Keys) All() []string {
	return []string{k.AccessToken, k.IdToken, k.RefreshToken, k.TokenType, k.ExpiresAt}
}
