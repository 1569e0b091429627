// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"fmt"

	"golang.org/x/oauth2"
)

// ChallengeMethod represents PKCE code challenge methods as defined by RFC
// 7636.
type ChallengeMethod string

const (
	// S256 is the SHA-256 code challenge method. Plain is intentionally not
	// supported.
	S256 ChallengeMethod = "S256"
)

const (
	minVerifierLen = 43
	maxVerifierLen = 128
)

// CodeVerifier is a PKCE code verifier and its derived challenge.
type CodeVerifier struct {
	verifier  string
	challenge string
	method    ChallengeMethod
}

// NewCodeVerifier generates a new random CodeVerifier using the S256
// challenge method.
func NewCodeVerifier() (*CodeVerifier, error) {
	return newCodeVerifier(oauth2.GenerateVerifier())
}

// ParseCodeVerifier rebuilds a CodeVerifier from a previously generated
// verifier value (for example one read back from a cookie).
func ParseCodeVerifier(verifier string) (*CodeVerifier, error) {
	return newCodeVerifier(verifier)
}

func newCodeVerifier(verifier string) (*CodeVerifier, error) {
	const op = "oidc.newCodeVerifier"
	if l := len(verifier); l < minVerifierLen || l > maxVerifierLen {
		return nil, fmt.Errorf("%s: verifier length %d not in [%d, %d]: %w", op, l, minVerifierLen, maxVerifierLen, ErrInvalidCodeVerifier)
	}
	for _, c := range []byte(verifier) {
		if !isUnreservedByte(c) {
			return nil, fmt.Errorf("%s: verifier contains invalid character %q: %w", op, c, ErrInvalidCodeVerifier)
		}
	}
	challenge, err := CreateCodeChallenge(S256, verifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &CodeVerifier{
		verifier:  verifier,
		challenge: challenge,
		method:    S256,
	}, nil
}

// Verifier returns the code verifier sent to the token endpoint.
func (v *CodeVerifier) Verifier() string { return v.verifier }

// Challenge returns the code challenge sent to the authorize endpoint.
func (v *CodeVerifier) Challenge() string { return v.challenge }

// Method returns the code challenge method.
func (v *CodeVerifier) Method() ChallengeMethod { return v.method }

// Copy returns a copy of the verifier.
func (v *CodeVerifier) Copy() *CodeVerifier {
	return &CodeVerifier{
		verifier:  v.verifier,
		challenge: v.challenge,
		method:    v.method,
	}
}

// CreateCodeChallenge derives the code challenge for a verifier.
func CreateCodeChallenge(method ChallengeMethod, verifier string) (string, error) {
	const op = "oidc.CreateCodeChallenge"
	switch method {
	case S256:
		return oauth2.S256ChallengeFromVerifier(verifier), nil
	default:
		return "", fmt.Errorf("%s: %q: %w", op, method, ErrUnsupportedChallengeMethod)
	}
}

// RFC 3986 section 2.3 unreserved characters.
func isUnreservedByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}
