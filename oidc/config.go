// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	sdkHttp "github.com/hashicorp/oauthroutes/sdk/http"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested when a Config doesn't specify any.
var DefaultScopes = []string{"openid", "email", "profile"}

// DefaultTimeout bounds every request made to the provider when a Config
// doesn't specify a timeout.
const DefaultTimeout = sdkHttp.DefaultTimeout

// ClientSecret is an oauth client secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// ClientAssertion produces a signed JWT used to authenticate the client to
// the provider (RFC 7523).  *clientassertion.JWT implements it.
type ClientAssertion interface {
	Serialize() (string, error)
}

// Endpoints are the provider endpoints used by the authorization code flow.
type Endpoints struct {
	// AuthURL is the authorize endpoint.  Required.
	AuthURL string

	// SignUpURL is an optional registration endpoint which accepts the same
	// parameters as AuthURL.  AuthURL is used for sign up when it's empty.
	SignUpURL string

	// TokenURL is the token endpoint.  Required.
	TokenURL string

	// RevocationURL is the optional RFC 7009 token revocation endpoint.
	RevocationURL string

	// LogoutURL is the optional provider logout endpoint.
	LogoutURL string

	// JWKSURL is the optional location of the provider's signing keys.
	JWKSURL string
}

// Config represents the relying party configuration for an authorization
// code flow against a single provider.
type Config struct {
	// ClientId is the relying party id
	ClientId string

	// ClientSecret is the optional relying party secret.  Public clients
	// leave it empty.
	ClientSecret ClientSecret

	// Scopes is the list of scopes requested of the provider.
	Scopes []string

	// Endpoints are the provider's endpoints.
	Endpoints Endpoints

	// ProviderCA is an optional CA cert to use when sending requests to the
	// provider.
	ProviderCA string

	// Timeout bounds every request made to the provider.
	Timeout time.Duration

	// ClientAssertion is an optional signed assertion used instead of a
	// client secret.
	ClientAssertion ClientAssertion

	// Logger is used by clients built from the config.
	Logger hclog.Logger
}

// configOptions is the set of available options for a Config
type configOptions struct {
	withClientSecret    ClientSecret
	withScopes          []string
	withProviderCA      string
	withTimeout         time.Duration
	withClientAssertion ClientAssertion
	withLogger          hclog.Logger
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{
		withScopes:  DefaultScopes,
		withTimeout: DefaultTimeout,
		withLogger:  hclog.NewNullLogger(),
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// NewConfig composes a new config for a provider.
//
// Supported options: WithClientSecret, WithScopes, WithProviderCA,
// WithTimeout, WithClientAssertion, WithLogger
func NewConfig(clientId string, endpoints Endpoints, opt ...Option) (*Config, error) {
	const op = "oidc.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		ClientId:        clientId,
		ClientSecret:    opts.withClientSecret,
		Scopes:          opts.withScopes,
		Endpoints:       endpoints,
		ProviderCA:      opts.withProviderCA,
		Timeout:         opts.withTimeout,
		ClientAssertion: opts.withClientAssertion,
		Logger:          opts.withLogger,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the provider configuration.  It doesn't verify the endpoints are
// reachable.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	switch {
	case c == nil:
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	case c.ClientId == "":
		return fmt.Errorf("%s: client id is empty: %w", op, ErrInvalidParameter)
	case c.Endpoints.AuthURL == "":
		return fmt.Errorf("%s: auth URL is empty: %w", op, ErrInvalidParameter)
	case c.Endpoints.TokenURL == "":
		return fmt.Errorf("%s: token URL is empty: %w", op, ErrInvalidParameter)
	case c.Timeout < 0:
		return fmt.Errorf("%s: timeout %s is negative: %w", op, c.Timeout, ErrInvalidParameter)
	case c.ClientSecret != "" && c.ClientAssertion != nil:
		return fmt.Errorf("%s: client secret and client assertion are mutually exclusive: %w", op, ErrInvalidParameter)
	}
	for name, u := range map[string]string{
		"auth":       c.Endpoints.AuthURL,
		"sign up":    c.Endpoints.SignUpURL,
		"token":      c.Endpoints.TokenURL,
		"revocation": c.Endpoints.RevocationURL,
		"logout":     c.Endpoints.LogoutURL,
		"jwks":       c.Endpoints.JWKSURL,
	} {
		if u == "" {
			continue
		}
		if err := validateEndpoint(u); err != nil {
			return fmt.Errorf("%s: %s URL: %w", op, name, err)
		}
	}
	return nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q is invalid: %w: %w", raw, ErrInvalidParameter, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%q scheme is not http or https: %w", raw, ErrInvalidParameter)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host: %w", raw, ErrInvalidParameter)
	}
	return nil
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured.  Requests made with it are bounded by the config's
// Timeout.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	client, err := sdkHttp.NewClient(c.ProviderCA, c.Timeout)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// AuthKind selects which provider page an authorization request opens.
type AuthKind int

const (
	// SignIn opens the provider's authorize (sign in) page.
	SignIn AuthKind = iota

	// SignUp opens the provider's registration page.
	SignUp
)

// AuthURL builds the URL the user agent is redirected to in order to start
// the authorization code flow.  When v is not nil a PKCE S256 challenge is
// included.
func (c *Config) AuthURL(kind AuthKind, state, redirectURI string, v *CodeVerifier) (string, error) {
	const op = "Config.AuthURL"
	switch {
	case state == "":
		return "", fmt.Errorf("%s: state is empty: %w", op, ErrInvalidParameter)
	case redirectURI == "":
		return "", fmt.Errorf("%s: redirect URI is empty: %w", op, ErrInvalidParameter)
	}
	oc := c.oauth2Config(redirectURI)
	switch kind {
	case SignIn:
	case SignUp:
		if c.Endpoints.SignUpURL != "" {
			oc.Endpoint.AuthURL = c.Endpoints.SignUpURL
		}
	default:
		return "", fmt.Errorf("%s: unknown auth kind %d: %w", op, kind, ErrInvalidParameter)
	}
	var opts []oauth2.AuthCodeOption
	if v != nil {
		if v.Method() != S256 {
			return "", fmt.Errorf("%s: %q: %w", op, v.Method(), ErrUnsupportedChallengeMethod)
		}
		opts = append(opts, oauth2.S256ChallengeOption(v.Verifier()))
	}
	return oc.AuthCodeURL(state, opts...), nil
}

func (c *Config) oauth2Config(redirectURI string) *oauth2.Config {
	oc := &oauth2.Config{
		ClientID:     c.ClientId,
		ClientSecret: string(c.ClientSecret),
		RedirectURL:  redirectURI,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.Endpoints.AuthURL,
			TokenURL:  c.Endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if c.ClientSecret != "" {
		oc.Endpoint.AuthStyle = oauth2.AuthStyleInHeader
	}
	return oc
}

func (c *Config) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}
