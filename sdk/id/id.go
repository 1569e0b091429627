// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

const (
	// DefaultIdBytes is the number of random bytes used by New (128 bits).
	DefaultIdBytes = 16

	// NonceBytes is the number of random bytes used by NewNonce (256 bits).
	NonceBytes = 32
)

// New generates a random, URL safe ID with an optional prefix.
func New(optionalPrefix string) (string, error) {
	id, err := Random(DefaultIdBytes)
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	switch {
	case optionalPrefix != "":
		return fmt.Sprintf("%s_%s", optionalPrefix, id), nil
	default:
		return id, nil
	}
}

// NewNonce generates a random, URL safe value suitable for an oauth state
// nonce.
func NewNonce() (string, error) {
	n, err := Random(NonceBytes)
	if err != nil {
		return "", fmt.Errorf("unable to generate nonce: %w", err)
	}
	return n, nil
}

// Random returns size random bytes encoded as unpadded base64url.
func Random(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("invalid size %d: must be greater than zero", size)
	}
	b, err := uuid.GenerateRandomBytes(size)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
