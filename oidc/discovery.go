// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	sdkHttp "github.com/hashicorp/oauthroutes/sdk/http"
)

// discoveryClaims are the discovery document fields go-oidc doesn't expose
// directly.
type discoveryClaims struct {
	RevocationEndpoint string `json:"revocation_endpoint"`
	EndSessionEndpoint string `json:"end_session_endpoint"`
	JWKSURI            string `json:"jwks_uri"`
}

// Discover builds a Config for clientId from the issuer's OpenID discovery
// document.  The issuer in the document must match the issuer requested.
//
// Supported options: the same options as NewConfig.  WithProviderCA and
// WithTimeout also apply to the discovery request.
func Discover(ctx context.Context, issuer, clientId string, opt ...Option) (*Config, error) {
	const op = "oidc.Discover"
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	}
	opts := getConfigOpts(opt...)
	client, err := sdkHttp.NewClient(opts.withProviderCA, opts.withTimeout)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := oidc.NewProvider(sdkHttp.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDiscoveryFailed, err)
	}
	var claims discoveryClaims
	if err := p.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to read discovery document: %w: %w", op, ErrDiscoveryFailed, err)
	}
	ep := p.Endpoint()
	endpoints := Endpoints{
		AuthURL:       ep.AuthURL,
		TokenURL:      ep.TokenURL,
		RevocationURL: claims.RevocationEndpoint,
		LogoutURL:     claims.EndSessionEndpoint,
		JWKSURL:       claims.JWKSURI,
	}
	opts.withLogger.Debug("discovered provider endpoints", "issuer", issuer, "auth_url", endpoints.AuthURL, "token_url", endpoints.TokenURL)
	c, err := NewConfig(clientId, endpoints, opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
