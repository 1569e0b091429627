// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthroutes/oidc/clientassertion"
	sdkHttp "github.com/hashicorp/oauthroutes/sdk/http"
	"golang.org/x/oauth2"
)

// maxResponseSize bounds how much of a provider response is read.
const maxResponseSize = 1 << 20

// TokenClient talks to the provider's token and revocation endpoints.
type TokenClient struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// NewTokenClient creates a TokenClient for the config.  Every request it
// makes is bounded by the config's Timeout.
func NewTokenClient(c *Config) (*TokenClient, error) {
	const op = "oidc.NewTokenClient"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.ClientAssertion != nil {
		client.Transport = &assertionTransport{
			base:      client.Transport,
			assertion: c.ClientAssertion,
			endpoints: []string{c.Endpoints.TokenURL, c.Endpoints.RevocationURL},
		}
	}
	client.Transport = &readTrackingTransport{base: client.Transport}
	return &TokenClient{
		config: c,
		client: client,
		logger: c.logger().Named("token-client"),
	}, nil
}

// Config returns the client's provider config.
func (tc *TokenClient) Config() *Config {
	return tc.config
}

// ExchangeCode redeems an authorization code at the token endpoint.  The
// redirectURI must be the one sent with the authorization request.  When the
// flow used PKCE, v must be the verifier whose challenge was sent.
//
// A provider answer (success or rejection) is returned as an ExchangeResult.
// Failing to reach the provider (including a timeout) is returned as an
// error wrapping ErrTokenEndpointUnreachable.
func (tc *TokenClient) ExchangeCode(ctx context.Context, code, redirectURI string, v *CodeVerifier) (*ExchangeResult, error) {
	const op = "TokenClient.ExchangeCode"
	switch {
	case code == "":
		return nil, fmt.Errorf("%s: code is empty: %w", op, ErrInvalidParameter)
	case redirectURI == "":
		return nil, fmt.Errorf("%s: redirect URI is empty: %w", op, ErrInvalidParameter)
	}
	ctx, cancel := tc.requestContext(ctx)
	defer cancel()

	var opts []oauth2.AuthCodeOption
	if v != nil {
		opts = append(opts, oauth2.VerifierOption(v.Verifier()))
	}
	tk, err := tc.config.oauth2Config(redirectURI).Exchange(ctx, code, opts...)
	if err != nil {
		return tc.failure(ctx, op, err)
	}
	return &ExchangeResult{Tokens: newTokenSet(tk)}, nil
}

// Refresh uses a refresh token to get a new token set.  Errors are reported
// the same way as ExchangeCode.  When the provider doesn't rotate refresh
// tokens, the returned set carries the refresh token that was used.
func (tc *TokenClient) Refresh(ctx context.Context, refreshToken string) (*ExchangeResult, error) {
	const op = "TokenClient.Refresh"
	if refreshToken == "" {
		return nil, fmt.Errorf("%s: refresh token is empty: %w", op, ErrInvalidParameter)
	}
	ctx, cancel := tc.requestContext(ctx)
	defer cancel()

	ts := tc.config.oauth2Config("").TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tk, err := ts.Token()
	if err != nil {
		return tc.failure(ctx, op, err)
	}
	return &ExchangeResult{Tokens: newTokenSet(tk)}, nil
}

// Revoke asks the provider to revoke a refresh token (RFC 7009).  A provider
// answer is returned as a RevocationResult, failing to reach the provider
// is an error wrapping ErrTokenEndpointUnreachable.
func (tc *TokenClient) Revoke(ctx context.Context, refreshToken string) (*RevocationResult, error) {
	const op = "TokenClient.Revoke"
	switch {
	case refreshToken == "":
		return nil, fmt.Errorf("%s: refresh token is empty: %w", op, ErrInvalidParameter)
	case tc.config.Endpoints.RevocationURL == "":
		return nil, fmt.Errorf("%s: no revocation endpoint configured: %w", op, ErrInvalidParameter)
	}
	ctx, cancel := tc.requestContext(ctx)
	defer cancel()

	form := url.Values{
		"token":           {refreshToken},
		"token_type_hint": {"refresh_token"},
	}
	if tc.config.ClientSecret == "" {
		form.Set("client_id", tc.config.ClientId)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.config.Endpoints.RevocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if tc.config.ClientSecret != "" {
		req.SetBasicAuth(url.QueryEscape(tc.config.ClientId), url.QueryEscape(string(tc.config.ClientSecret)))
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenEndpointUnreachable, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read response: %w: %w", op, ErrTokenEndpointUnreachable, err)
	}
	if resp.StatusCode == http.StatusOK {
		return &RevocationResult{}, nil
	}
	var e struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &e)
	if e.Error == "" {
		e.Error = httpStatusCode(resp.StatusCode)
	}
	tc.logger.Debug("revocation rejected", "status", resp.StatusCode, "error", e.Error)
	return &RevocationResult{Error: e.Error, ErrorDescription: e.ErrorDescription}, nil
}

func (tc *TokenClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := tc.config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	ctx = context.WithValue(ctx, readTrackerKey{}, &readTracker{})
	return sdkHttp.ClientContext(ctx, tc.client), cancel
}

// failure sorts a token endpoint error into a provider rejection (returned
// as an ExchangeResult) or a transport failure (returned as an error).
func (tc *TokenClient) failure(ctx context.Context, op string, err error) (*ExchangeResult, error) {
	var re *oauth2.RetrieveError
	switch {
	case errors.As(err, &re):
		code := re.ErrorCode
		if code == "" && re.Response != nil {
			code = httpStatusCode(re.Response.StatusCode)
		}
		if code == "" {
			code = ErrorInvalidTokenResponse
		}
		tc.logger.Debug("token request rejected", "op", op, "error", code)
		return &ExchangeResult{Error: code, ErrorDescription: re.ErrorDescription}, nil
	case unreachable(ctx, err):
		tc.logger.Debug("token endpoint unreachable", "op", op, "error", err)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenEndpointUnreachable, err)
	default:
		tc.logger.Debug("invalid token response", "op", op, "error", err)
		return &ExchangeResult{Error: ErrorInvalidTokenResponse, ErrorDescription: err.Error()}, nil
	}
}

func unreachable(ctx context.Context, err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	switch {
	case readFailed(ctx):
		// oauth2 doesn't wrap response body read errors
		return true
	case ctx.Err() != nil:
		return true
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return true
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return true
	}
	return false
}

func httpStatusCode(status int) string {
	return fmt.Sprintf("http_%d", status)
}

func newTokenSet(tk *oauth2.Token) *TokenSet {
	ts := &TokenSet{
		AccessToken:  AccessToken(tk.AccessToken),
		RefreshToken: RefreshToken(tk.RefreshToken),
		TokenType:    tk.Type(),
		ExpiresIn:    tk.ExpiresIn,
		Expiry:       tk.Expiry,
	}
	if id, ok := tk.Extra("id_token").(string); ok {
		ts.IdToken = IdToken(id)
	}
	return ts
}

// assertionTransport adds a freshly signed client assertion to form posts
// sent to the provider's token and revocation endpoints.
type assertionTransport struct {
	base      http.RoundTripper
	assertion ClientAssertion
	endpoints []string
}

func (t *assertionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	const op = "assertionTransport.RoundTrip"
	if req.Method != http.MethodPost || req.Body == nil || !t.matches(req.URL) {
		return t.base.RoundTrip(req)
	}
	b, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read request body: %w", op, err)
	}
	form, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: request body is not a form: %w", op, err)
	}
	a, err := t.assertion.Serialize()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to sign client assertion: %w", op, err)
	}
	form.Set("client_assertion_type", clientassertion.JWTTypeParam)
	form.Set("client_assertion", a)
	body := []byte(form.Encode())

	r := req.Clone(req.Context())
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	r.ContentLength = int64(len(body))
	return t.base.RoundTrip(r)
}

func (t *assertionTransport) matches(u *url.URL) bool {
	for _, e := range t.endpoints {
		if e == "" {
			continue
		}
		eu, err := url.Parse(e)
		if err != nil {
			continue
		}
		if eu.Scheme == u.Scheme && eu.Host == u.Host && eu.Path == u.Path {
			return true
		}
	}
	return false
}

type readTrackerKey struct{}

// readTracker records the first error seen while reading a response body
// for one token client call.
type readTracker struct {
	mu  sync.Mutex
	err error
}

func (t *readTracker) record(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

func (t *readTracker) failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err != nil
}

func readFailed(ctx context.Context) bool {
	t, ok := ctx.Value(readTrackerKey{}).(*readTracker)
	return ok && t.failed()
}

// readTrackingTransport reports response body read errors (a connection
// dropped mid response) to the readTracker in the request's context.
type readTrackingTransport struct {
	base http.RoundTripper
}

func (t *readTrackingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if tracker, ok := req.Context().Value(readTrackerKey{}).(*readTracker); ok && resp.Body != nil {
		resp.Body = &trackedBody{ReadCloser: resp.Body, tracker: tracker}
	}
	return resp, nil
}

type trackedBody struct {
	io.ReadCloser
	tracker *readTracker
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		b.tracker.record(err)
	}
	return n, err
}
