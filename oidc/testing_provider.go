// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
)

// Test provider paths.
const (
	TestAuthPath      = "/oauth2/authorize"
	TestSignUpPath    = "/signup"
	TestTokenPath     = "/oauth2/token"
	TestRevokePath    = "/oauth2/revoke"
	TestLogoutPath    = "/logout"
	TestJWKSPath      = "/.well-known/jwks.json"
	TestDiscoveryPath = "/.well-known/openid-configuration"
)

// TestProvider is a local TLS server that plays the part of an oauth
// authorization server (authorize, sign up, token, revocation and logout
// endpoints) which makes writing tests of the authorization code flow much
// easier.  It's part of this package's public testing API.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string
	jwks       *jose.JSONWebKeySet

	mu                  sync.Mutex
	clientID            string
	clientSecret        string
	allowedRedirectURIs []string
	replySubject        string
	replyEmail          string
	tokenLifetime       time.Duration

	expectedAuthCode string
	codeUsed         bool
	codeChallenge    string
	authError        string

	tokenError        string
	tokenErrorDesc    string
	malformedToken    bool
	omitIDToken       bool
	omitRefreshToken  bool
	revokeError       string
	delay             time.Duration
	refreshTokens     map[string]bool
	revoked           []string
	lastCodeVerifier  string
	lastAssertion     string
	lastAuthPath      string
	lastAuthRequest   url.Values
	lastLogoutRequest url.Values
	tokenRequests     int

	ecdsaPublicKey  string
	ecdsaPrivateKey string

	t *testing.T
}

// StartTestProvider creates a disposable TestProvider which is stopped when
// the test completes.  It's configured with client id "test-client-id", no
// client secret, auth code "test-code" and allows the redirect URI
// "https://example.com/api/auth/sign-in-callback".
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		clientID:            "test-client-id",
		expectedAuthCode:    "test-code",
		allowedRedirectURIs: []string{"https://example.com/api/auth/sign-in-callback"},
		replySubject:        "alice",
		replyEmail:          "alice@example.com",
		tokenLifetime:       time.Hour,
		refreshTokens:       map[string]bool{},
		t:                   t,
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.jwks = testJWKS(t, p.ecdsaPublicKey)

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the current base URL for the test provider's running
// webserver.  It's also the provider's issuer.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// SigningKeys returns the test provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// Endpoints returns the provider's endpoints.
func (p *TestProvider) Endpoints() Endpoints {
	return Endpoints{
		AuthURL:       p.Addr() + TestAuthPath,
		SignUpURL:     p.Addr() + TestSignUpPath,
		TokenURL:      p.Addr() + TestTokenPath,
		RevocationURL: p.Addr() + TestRevokePath,
		LogoutURL:     p.Addr() + TestLogoutPath,
		JWKSURL:       p.Addr() + TestJWKSPath,
	}
}

// Config returns a Config for the provider's current client credentials.
// Options are applied after the provider's CA option.
func (p *TestProvider) Config(opt ...Option) *Config {
	p.t.Helper()
	p.mu.Lock()
	clientID, secret := p.clientID, p.clientSecret
	p.mu.Unlock()

	opts := []Option{WithProviderCA(p.CACert())}
	if secret != "" {
		opts = append(opts, WithClientSecret(secret))
	}
	c, err := NewConfig(clientID, p.Endpoints(), append(opts, opt...)...)
	require.NoError(p.t, err)
	return c
}

// SetClientCreds configures the client credentials the provider accepts.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// SetExpectedAuthCode configures the auth code to return from the authorize
// endpoint and the code accepted (once) by the token endpoint.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
	p.codeUsed = false
	p.codeChallenge = ""
}

// SetAllowedRedirectURIs configures the allowed redirect URIs.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetAuthError makes the authorize endpoint redirect back with the error
// code (for example "access_denied") instead of a code.  An empty code
// clears it.
func (p *TestProvider) SetAuthError(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authError = code
}

// SetTokenError makes the token endpoint reject every request with the
// error code and optional description.  An empty code clears it.
func (p *TestProvider) SetTokenError(code, desc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenError = code
	p.tokenErrorDesc = desc
}

// SetMalformedTokenResponse makes the token endpoint answer 200 with a body
// that isn't a token response.
func (p *TestProvider) SetMalformedTokenResponse(malformed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.malformedToken = malformed
}

// OmitIDTokens makes the token endpoint leave out the id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// OmitRefreshTokens makes the token endpoint leave out the refresh_token.
func (p *TestProvider) OmitRefreshTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitRefreshToken = true
}

// SetRevokeError makes the revocation endpoint reject every request with
// the error code.  An empty code clears it.
func (p *TestProvider) SetRevokeError(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revokeError = code
}

// SetDelay delays every token and revocation response.
func (p *TestProvider) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// SetTokenLifetime sets the lifetime of issued access and id tokens.
func (p *TestProvider) SetTokenLifetime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenLifetime = d
}

// SetReplyEmail sets the email claim of issued id tokens.
func (p *TestProvider) SetReplyEmail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyEmail = email
}

// RevokedTokens returns the tokens revoked so far.
func (p *TestProvider) RevokedTokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.revoked)
}

// LastCodeVerifier returns the PKCE code verifier sent with the last
// authorization_code grant.
func (p *TestProvider) LastCodeVerifier() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCodeVerifier
}

// LastClientAssertion returns the client assertion sent with the last token
// or revocation request.
func (p *TestProvider) LastClientAssertion() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAssertion
}

// LastAuthRequest returns the path and query of the last authorize (or sign
// up) request.
func (p *TestProvider) LastAuthRequest() (string, url.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAuthPath, p.lastAuthRequest
}

// LastLogoutRequest returns the query of the last logout request.
func (p *TestProvider) LastLogoutRequest() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastLogoutRequest
}

// TokenRequests returns the number of token endpoint requests served.
func (p *TestProvider) TokenRequests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenRequests
}

// IssueTokens issues a token set directly, without an authorization
// request.  The refresh token is accepted by the token endpoint.
func (p *TestProvider) IssueTokens() *TokenSet {
	p.t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.issue(true)
	return &TokenSet{
		AccessToken:  AccessToken(r.AccessToken),
		IdToken:      IdToken(r.IDToken),
		RefreshToken: RefreshToken(r.RefreshToken),
		TokenType:    r.TokenType,
		ExpiresIn:    r.ExpiresIn,
		Expiry:       time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
	}
}

type testTokenReply struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// issue signs a new token set.  p.mu must be held.
func (p *TestProvider) issue(withRefresh bool) testTokenReply {
	now := time.Now()
	claims := jwt.Claims{
		Subject:   p.replySubject,
		Issuer:    p.Addr(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		Expiry:    jwt.NewNumericDate(now.Add(p.tokenLifetime)),
		Audience:  jwt.Audience{p.clientID},
	}
	id, err := NewId("jti")
	require.NoError(p.t, err)
	claims.ID = id
	reply := testTokenReply{
		AccessToken: TestSignJWT(p.t, p.ecdsaPrivateKey, claims, map[string]interface{}{"token_use": "access", "client_id": p.clientID}),
		TokenType:   "Bearer",
		ExpiresIn:   int64(p.tokenLifetime / time.Second),
	}
	if !p.omitIDToken {
		reply.IDToken = TestSignJWT(p.t, p.ecdsaPrivateKey, claims, map[string]interface{}{"token_use": "id", "email": p.replyEmail})
	}
	if withRefresh && !p.omitRefreshToken {
		rt, err := NewId("rt")
		require.NoError(p.t, err)
		p.refreshTokens[rt] = true
		reply.RefreshToken = rt
	}
	return reply
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()
	redirect, err := url.Parse(qv.Get("redirect_uri"))
	if err != nil || qv.Get("redirect_uri") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	q := redirect.Query()
	q.Set("state", qv.Get("state"))
	q.Set("error", errorCode)
	if errorMessage != "" {
		q.Set("error_description", errorMessage)
	}
	redirect.RawQuery = q.Encode()
	http.Redirect(w, req, redirect.String(), http.StatusFound)
}

func (p *TestProvider) writeTokenErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(&body)
}

// wait delays the response to req by the configured delay, returning false
// when the client went away first.
func (p *TestProvider) wait(req *http.Request) bool {
	p.mu.Lock()
	d := p.delay
	p.mu.Unlock()
	if d == 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-req.Context().Done():
		return false
	}
}

// authenticateClient checks the client credentials of a token or revocation
// request.  p.mu must be held.
func (p *TestProvider) authenticateClient(req *http.Request) bool {
	id, secret, ok := req.BasicAuth()
	if ok {
		id, _ = url.QueryUnescape(id)
		secret, _ = url.QueryUnescape(secret)
	} else {
		id, secret = req.PostFormValue("client_id"), req.PostFormValue("client_secret")
	}
	if a := req.PostFormValue("client_assertion"); a != "" {
		p.lastAssertion = a
		return req.PostFormValue("client_assertion_type") == "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	}
	if id != p.clientID {
		return false
	}
	return p.clientSecret == "" || secret == p.clientSecret
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.t.Helper()

	switch req.URL.Path {
	case TestTokenPath, TestRevokePath:
		if !p.wait(req) {
			return
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch req.URL.Path {
	case TestDiscoveryPath:
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply := struct {
			Issuer             string   `json:"issuer"`
			AuthEndpoint       string   `json:"authorization_endpoint"`
			TokenEndpoint      string   `json:"token_endpoint"`
			RevocationEndpoint string   `json:"revocation_endpoint"`
			EndSessionEndpoint string   `json:"end_session_endpoint"`
			JWKSURI            string   `json:"jwks_uri"`
			SigningAlgs        []string `json:"id_token_signing_alg_values_supported"`
		}{
			Issuer:             p.Addr(),
			AuthEndpoint:       p.Addr() + TestAuthPath,
			TokenEndpoint:      p.Addr() + TestTokenPath,
			RevocationEndpoint: p.Addr() + TestRevokePath,
			EndSessionEndpoint: p.Addr() + TestLogoutPath,
			JWKSURI:            p.Addr() + TestJWKSPath,
			SigningAlgs:        []string{string(jose.ES256)},
		}
		_ = p.writeJSON(w, &reply)

	case TestJWKSPath:
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = p.writeJSON(w, p.jwks)

	case TestAuthPath, TestSignUpPath:
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		qv := req.URL.Query()
		p.lastAuthPath = req.URL.Path
		p.lastAuthRequest = qv

		redirectURI := qv.Get("redirect_uri")
		if !slices.Contains(p.allowedRedirectURIs, redirectURI) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch {
		case qv.Get("response_type") != "code":
			p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
			return
		case qv.Get("client_id") != p.clientID:
			p.writeAuthErrorResponse(w, req, "unauthorized_client", "")
			return
		case qv.Get("state") == "":
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing state parameter")
			return
		case qv.Get("code_challenge") != "" && qv.Get("code_challenge_method") != string(S256):
			p.writeAuthErrorResponse(w, req, "invalid_request", "unsupported code_challenge_method")
			return
		case p.authError != "":
			p.writeAuthErrorResponse(w, req, p.authError, "")
			return
		case p.expectedAuthCode == "":
			p.writeAuthErrorResponse(w, req, "access_denied", "")
			return
		}
		p.codeChallenge = qv.Get("code_challenge")
		p.codeUsed = false

		redirect, err := url.Parse(redirectURI)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		q := redirect.Query()
		q.Set("code", p.expectedAuthCode)
		q.Set("state", qv.Get("state"))
		redirect.RawQuery = q.Encode()
		http.Redirect(w, req, redirect.String(), http.StatusFound)

	case TestTokenPath:
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.tokenRequests++
		if !p.authenticateClient(req) {
			_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
			return
		}
		if p.tokenError != "" {
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, p.tokenError, p.tokenErrorDesc)
			return
		}
		if p.malformedToken {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token_type": 42`))
			return
		}
		switch req.PostFormValue("grant_type") {
		case "authorization_code":
			verifier := req.PostFormValue("code_verifier")
			p.lastCodeVerifier = verifier
			switch {
			case !slices.Contains(p.allowedRedirectURIs, req.PostFormValue("redirect_uri")):
				_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "redirect_uri is not allowed")
				return
			case p.expectedAuthCode == "" || req.PostFormValue("code") != p.expectedAuthCode:
				_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "unexpected auth code")
				return
			case p.codeUsed:
				_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "auth code already used")
				return
			case p.codeChallenge != "":
				if challenge, _ := CreateCodeChallenge(S256, verifier); challenge != p.codeChallenge {
					_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "PKCE verification failed")
					return
				}
			}
			p.codeUsed = true
			_ = p.writeJSON(w, p.issue(true))

		case "refresh_token":
			rt := req.PostFormValue("refresh_token")
			if !p.refreshTokens[rt] {
				_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_grant", "invalid refresh token")
				return
			}
			_ = p.writeJSON(w, p.issue(false))

		default:
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "unsupported_grant_type", "")
		}

	case TestRevokePath:
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !p.authenticateClient(req) {
			_ = p.writeTokenErrorResponse(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
			return
		}
		token := req.PostFormValue("token")
		switch {
		case token == "":
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, "invalid_request", "missing token")
			return
		case p.revokeError != "":
			_ = p.writeTokenErrorResponse(w, http.StatusBadRequest, p.revokeError, "")
			return
		}
		delete(p.refreshTokens, token)
		p.revoked = append(p.revoked, token)
		w.WriteHeader(http.StatusOK)

	case TestLogoutPath:
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		qv := req.URL.Query()
		p.lastLogoutRequest = qv
		if qv.Get("client_id") != p.clientID || qv.Get("logout_uri") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		http.Redirect(w, req, qv.Get("logout_uri"), http.StatusFound)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
