// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// MaxEncodedStateSize bounds the size of an encoded state value that
// DecodeState will accept.
const MaxEncodedStateSize = 8 * 1024

// State is the value carried through the provider round trip in the oauth
// "state" parameter.  The Nonce is also kept by the relying party (in a
// short lived cookie) so the callback can prove it started the flow.
type State struct {
	// Nonce is a random value bound to the browser that started the flow.
	Nonce string `json:"nonce"`

	// RedirectURL is where the user should land once the flow completes.
	RedirectURL string `json:"redirect_url,omitempty"`

	// CustomState is opaque caller supplied data.
	CustomState string `json:"custom_state,omitempty"`
}

type stateOptions struct {
	withCustomState string
	withNonce       string
}

func stateDefaults() stateOptions {
	return stateOptions{}
}

func getStateOpts(opt ...Option) stateOptions {
	opts := stateDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// NewState creates a State with a freshly generated nonce.
//
// Supported options: WithCustomState, WithNonce
func NewState(redirectURL string, opt ...Option) (*State, error) {
	const op = "oidc.NewState"
	opts := getStateOpts(opt...)
	nonce := opts.withNonce
	if nonce == "" {
		var err error
		if nonce, err = NewNonce(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &State{
		Nonce:       nonce,
		RedirectURL: redirectURL,
		CustomState: opts.withCustomState,
	}, nil
}

// Encode serializes the state into an opaque, URL safe string.
func (s *State) Encode() (string, error) {
	const op = "State.Encode"
	if s == nil {
		return "", fmt.Errorf("%s: state is nil: %w", op, ErrNilParameter)
	}
	if s.Nonce == "" {
		return "", fmt.Errorf("%s: missing nonce: %w", op, ErrInvalidParameter)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("%s: unable to marshal state: %w", op, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeState parses a value produced by Encode.  Anything that isn't a
// well formed encoded state (including a state without a nonce) is an
// ErrMalformedState.
func DecodeState(encoded string) (*State, error) {
	const op = "oidc.DecodeState"
	switch {
	case encoded == "":
		return nil, fmt.Errorf("%s: missing state: %w", op, ErrMalformedState)
	case len(encoded) > MaxEncodedStateSize:
		return nil, fmt.Errorf("%s: state exceeds %d bytes: %w", op, MaxEncodedStateSize, ErrMalformedState)
	}
	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to decode state: %w: %w", op, ErrMalformedState, err)
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%s: unable to unmarshal state: %w: %w", op, ErrMalformedState, err)
	}
	if s.Nonce == "" {
		return nil, fmt.Errorf("%s: missing nonce: %w", op, ErrMalformedState)
	}
	return &s, nil
}

// ValidateNonce compares the state's nonce with the expected nonce that was
// stored when the flow started.  The comparison is constant time and an
// empty expected nonce never matches.
func (s *State) ValidateNonce(expected string) error {
	const op = "State.ValidateNonce"
	switch {
	case s == nil:
		return fmt.Errorf("%s: state is nil: %w", op, ErrNilParameter)
	case expected == "":
		return fmt.Errorf("%s: no nonce was issued for this flow: %w", op, ErrCsrfValidation)
	case subtle.ConstantTimeCompare([]byte(s.Nonce), []byte(expected)) != 1:
		return fmt.Errorf("%s: nonce mismatch: %w", op, ErrCsrfValidation)
	}
	return nil
}
