// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"github.com/hashicorp/oauthroutes/sdk/id"
)

// NewId generates an ID with an optional prefix.
func NewId(optionalPrefix string) (string, error) {
	const op = "oidc.NewId"
	v, err := id.New(optionalPrefix)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	return v, nil
}

// NewNonce generates a 256-bit random nonce encoded as unpadded base64url,
// suitable for the nonce carried in an oauth state value.
func NewNonce() (string, error) {
	const op = "oidc.NewNonce"
	v, err := id.NewNonce()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate nonce: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	return v, nil
}
