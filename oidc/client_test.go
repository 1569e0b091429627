// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedirectURI = "https://example.com/api/auth/sign-in-callback"

// testAuthorize follows the authorize step the way a browser would and
// returns the code and state the provider redirected back with.
func testAuthorize(t *testing.T, c *Config, authURL string) (code, state string) {
	t.Helper()
	require := require.New(t)
	client, err := c.HTTPClient()
	require.NoError(err)
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Get(authURL)
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(err)
	return loc.Query().Get("code"), loc.Query().Get("state")
}

// startTruncatingServer starts a token endpoint that promises a 500 byte
// body, writes a few bytes of it and drops the connection.
func startTruncatingServer(t *testing.T) *Config {
	t.Helper()
	require := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer can't be hijacked")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 500\r\n\r\n{\"access_to")
		_ = buf.Flush()
	}))
	t.Cleanup(srv.Close)
	c, err := NewConfig("test-client", Endpoints{
		AuthURL:  srv.URL + "/authorize",
		TokenURL: srv.URL + "/token",
	})
	require.NoError(err)
	return c
}

func TestTokenClient_ExchangeCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success-with-pkce", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		c := p.Config()
		tc, err := NewTokenClient(c)
		require.NoError(err)

		v, err := NewCodeVerifier()
		require.NoError(err)
		authURL, err := c.AuthURL(SignIn, "st", testRedirectURI, v)
		require.NoError(err)
		code, state := testAuthorize(t, c, authURL)
		assert.Equal("test-code", code)
		assert.Equal("st", state)

		got, err := tc.ExchangeCode(ctx, code, testRedirectURI, v)
		require.NoError(err)
		require.NoError(got.Err())
		assert.Empty(got.Error)
		assert.NotEmpty(got.Tokens.AccessToken)
		assert.NotEmpty(got.Tokens.IdToken)
		assert.NotEmpty(got.Tokens.RefreshToken)
		assert.Equal("Bearer", got.Tokens.TokenType)
		assert.Equal(int64(3600), got.Tokens.ExpiresIn)
		assert.WithinDuration(time.Now().Add(time.Hour), got.Tokens.Expiry, time.Minute)
		assert.Equal(v.Verifier(), p.LastCodeVerifier())
	})
	t.Run("pkce-mismatch", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		c := p.Config()
		tc, err := NewTokenClient(c)
		require.NoError(err)

		v, err := NewCodeVerifier()
		require.NoError(err)
		authURL, err := c.AuthURL(SignIn, "st", testRedirectURI, v)
		require.NoError(err)
		code, _ := testAuthorize(t, c, authURL)

		other, err := NewCodeVerifier()
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, code, testRedirectURI, other)
		require.NoError(err)
		assert.Nil(got.Tokens)
		assert.Equal("invalid_grant", got.Error)
		assert.ErrorIs(got.Err(), ErrTokenExchangeRejected)
	})
	t.Run("code-single-use", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.NoError(err)
		require.NotNil(got.Tokens)
		got, err = tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.NoError(err)
		assert.Equal("invalid_grant", got.Error)
	})
	t.Run("confidential-client", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		p.SetClientCreds("confidential", "s3cr3t")
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.NoError(err)
		assert.NotNil(got.Tokens)
	})
	t.Run("wrong-client-secret", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		p.SetClientCreds("confidential", "s3cr3t")
		c := p.Config()
		c.ClientSecret = "wrong"
		tc, err := NewTokenClient(c)
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.NoError(err)
		assert.Equal("invalid_client", got.Error)
	})
	t.Run("client-assertion", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		tc, err := NewTokenClient(p.Config(WithClientAssertion(&testAssertion{token: "signed.assertion.jwt"})))
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.NoError(err)
		assert.NotNil(got.Tokens)
		assert.Equal("signed.assertion.jwt", p.LastClientAssertion())
	})
	t.Run("client-assertion-error", func(t *testing.T) {
		require := require.New(t)
		p := StartTestProvider(t)
		tc, err := NewTokenClient(p.Config(WithClientAssertion(&testAssertion{err: ErrInvalidParameter})))
		require.NoError(err)
		_, err = tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.ErrorIs(err, ErrTokenEndpointUnreachable)
		require.Equal(0, p.TokenRequests())
	})
	t.Run("provider-error", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		p.SetTokenError("invalid_grant", "code expired")
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.NoError(err)
		assert.Nil(got.Tokens)
		assert.Equal("invalid_grant", got.Error)
		assert.Equal("code expired", got.ErrorDescription)
	})
	t.Run("malformed-response", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		p.SetMalformedTokenResponse(true)
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.NoError(err)
		assert.Nil(got.Tokens)
		assert.Equal(ErrorInvalidTokenResponse, got.Error)
	})
	t.Run("timeout", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		p.SetDelay(2 * time.Second)
		tc, err := NewTokenClient(p.Config(WithTimeout(50 * time.Millisecond)))
		require.NoError(err)
		start := time.Now()
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.ErrorIs(err, ErrTokenEndpointUnreachable)
		assert.Nil(got)
		assert.Less(time.Since(start), time.Second)
	})
	t.Run("unreachable", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		c := p.Config()
		p.Stop()
		tc, err := NewTokenClient(c)
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.ErrorIs(err, ErrTokenEndpointUnreachable)
		assert.Nil(got)
	})
	t.Run("truncated-response", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tc, err := NewTokenClient(startTruncatingServer(t))
		require.NoError(err)
		got, err := tc.ExchangeCode(ctx, "test-code", testRedirectURI, nil)
		require.ErrorIs(err, ErrTokenEndpointUnreachable)
		assert.Nil(got)
	})
	t.Run("invalid-parameters", func(t *testing.T) {
		require := require.New(t)
		p := StartTestProvider(t)
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		_, err = tc.ExchangeCode(ctx, "", testRedirectURI, nil)
		require.ErrorIs(err, ErrInvalidParameter)
		_, err = tc.ExchangeCode(ctx, "test-code", "", nil)
		require.ErrorIs(err, ErrInvalidParameter)
		require.Equal(0, p.TokenRequests())
	})
}

func TestNewTokenClient(t *testing.T) {
	t.Parallel()
	_, err := NewTokenClient(nil)
	require.ErrorIs(t, err, ErrNilParameter)
	_, err = NewTokenClient(&Config{})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestTokenClient_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		issued := p.IssueTokens()
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.Refresh(ctx, string(issued.RefreshToken))
		require.NoError(err)
		require.NoError(got.Err())
		assert.NotEmpty(got.Tokens.AccessToken)
		assert.NotEqual(issued.AccessToken, got.Tokens.AccessToken)
		assert.NotEmpty(got.Tokens.IdToken)
		assert.Equal(issued.RefreshToken, got.Tokens.RefreshToken)
	})
	t.Run("unknown-refresh-token", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.Refresh(ctx, "rt_unknown")
		require.NoError(err)
		assert.Equal("invalid_grant", got.Error)
	})
	t.Run("client-assertion", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		issued := p.IssueTokens()
		tc, err := NewTokenClient(p.Config(WithClientAssertion(&testAssertion{token: "refresh.assertion.jwt"})))
		require.NoError(err)
		got, err := tc.Refresh(ctx, string(issued.RefreshToken))
		require.NoError(err)
		assert.NotNil(got.Tokens)
		assert.Equal("refresh.assertion.jwt", p.LastClientAssertion())
	})
	t.Run("truncated-response", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tc, err := NewTokenClient(startTruncatingServer(t))
		require.NoError(err)
		got, err := tc.Refresh(ctx, "test-refresh-token")
		require.ErrorIs(err, ErrTokenEndpointUnreachable)
		assert.Nil(got)
	})
	t.Run("empty", func(t *testing.T) {
		p := StartTestProvider(t)
		tc, err := NewTokenClient(p.Config())
		require.NoError(t, err)
		_, err = tc.Refresh(ctx, "")
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestTokenClient_Revoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		issued := p.IssueTokens()
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.Revoke(ctx, string(issued.RefreshToken))
		require.NoError(err)
		require.NoError(got.Err())
		assert.Equal([]string{string(issued.RefreshToken)}, p.RevokedTokens())

		r, err := tc.Refresh(ctx, string(issued.RefreshToken))
		require.NoError(err)
		assert.Equal("invalid_grant", r.Error)
	})
	t.Run("confidential-client", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		p.SetClientCreds("confidential", "s3cr3t")
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.Revoke(ctx, "rt_1")
		require.NoError(err)
		assert.Empty(got.Error)
		assert.Equal([]string{"rt_1"}, p.RevokedTokens())
	})
	t.Run("provider-error", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		p := StartTestProvider(t)
		p.SetRevokeError("unsupported_token_type")
		tc, err := NewTokenClient(p.Config())
		require.NoError(err)
		got, err := tc.Revoke(ctx, "rt_1")
		require.NoError(err)
		assert.Equal("unsupported_token_type", got.Error)
		assert.ErrorIs(got.Err(), ErrRevocationFailed)
		assert.Empty(p.RevokedTokens())
	})
	t.Run("unreachable", func(t *testing.T) {
		require := require.New(t)
		p := StartTestProvider(t)
		c := p.Config()
		p.Stop()
		tc, err := NewTokenClient(c)
		require.NoError(err)
		_, err = tc.Revoke(ctx, "rt_1")
		require.ErrorIs(err, ErrTokenEndpointUnreachable)
	})
	t.Run("no-revocation-endpoint", func(t *testing.T) {
		require := require.New(t)
		p := StartTestProvider(t)
		c := p.Config()
		c.Endpoints.RevocationURL = ""
		tc, err := NewTokenClient(c)
		require.NoError(err)
		_, err = tc.Revoke(ctx, "rt_1")
		require.ErrorIs(err, ErrInvalidParameter)
	})
}
