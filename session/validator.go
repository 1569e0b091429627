// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthroutes/cookie"
	"github.com/hashicorp/oauthroutes/jwt"
)

// NewTokenValidator returns a cookie.Validator which verifies the access and
// id token entries of keys with v and the expected claims.  A token that
// fails verification is reported as invalid, not as an error, so the store
// treats it as absent.  Every other key is accepted as is.
//
// Supported options: WithLogger, WithSkipIdToken, WithTokenUseClaim
func NewTokenValidator(v *jwt.Validator, keys Keys, expected jwt.Expected, opt ...Option) (cookie.Validator, error) {
	const op = "session.NewTokenValidator"
	switch {
	case v == nil:
		return nil, fmt.Errorf("%s: jwt validator is nil: %w", op, ErrNilParameter)
	case keys.AccessToken == "" || keys.IdToken == "":
		return nil, fmt.Errorf("%s: incomplete keys: %w", op, ErrInvalidParameter)
	}
	opts := getValidatorOpts(opt...)
	type entry struct {
		kind string
		opts []jwt.Option
	}
	jwtKeys := map[string]entry{keys.AccessToken: {kind: "access_token"}}
	if !opts.withSkipIdToken {
		jwtKeys[keys.IdToken] = entry{kind: "id_token"}
	}
	if opts.withTokenUseClaim != "" {
		for k, e := range jwtKeys {
			use := "access"
			if e.kind == "id_token" {
				use = "id"
			}
			e.opts = append(e.opts, jwt.WithRequiredClaim(opts.withTokenUseClaim, use))
			jwtKeys[k] = e
		}
	}
	logger := opts.withLogger
	return cookie.ValidatorFunc(func(ctx context.Context, key, value string) (bool, error) {
		e, ok := jwtKeys[key]
		if !ok {
			return true, nil
		}
		if _, err := v.Validate(ctx, value, expected, e.opts...); err != nil {
			logger.Debug("stored token rejected", "token", e.kind, "error", err)
			return false, nil
		}
		return true, nil
	}), nil
}

// validatorOptions is the set of available options for NewTokenValidator
type validatorOptions struct {
	withLogger        hclog.Logger
	withSkipIdToken   bool
	withTokenUseClaim string
}

func validatorDefaults() validatorOptions {
	return validatorOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getValidatorOpts(opt ...Option) validatorOptions {
	opts := validatorDefaults()
	ApplyOpts(&opts, opt...)
	if opts.withLogger == nil {
		opts.withLogger = hclog.NewNullLogger()
	}
	return opts
}
