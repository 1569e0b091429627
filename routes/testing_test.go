// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"testing"

	"github.com/hashicorp/oauthroutes/oidc"
	"github.com/stretchr/testify/require"
)

const (
	testOrigin   = "https://example.com"
	testClientId = "test-client-id"
)

// convention selects how a test calls the Handler.
type convention int

const (
	handleConvention convention = iota
	serveConvention
)

func (c convention) String() string {
	if c == handleConvention {
		return "handle"
	}
	return "serve-http"
}

var conventions = []convention{handleConvention, serveConvention}

// serve sends req to h using the calling convention c.
func serve(t *testing.T, h *Handler, req *http.Request, c convention) *http.Response {
	t.Helper()
	switch c {
	case handleConvention:
		resp, err := h.Handle(req, RouteContext{Params: Resolved{SlugParam: path.Base(req.URL.Path)}})
		require.NoError(t, err)
		return resp
	default:
		mux := http.NewServeMux()
		mux.Handle("/api/auth/{slug}", h)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec.Result()
	}
}

func testHandler(t *testing.T, tp *oidc.TestProvider, c *oidc.Config, opt ...Option) *Handler {
	t.Helper()
	if c == nil {
		c = tp.Config()
	}
	h, err := NewHandler(c, testOrigin, opt...)
	require.NoError(t, err)
	return h
}

// testBrowser is a cookie jar standing in for a user agent.
type testBrowser struct {
	t   *testing.T
	jar *cookiejar.Jar
}

func newTestBrowser(t *testing.T) *testBrowser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testBrowser{t: t, jar: jar}
}

// request creates a request for rawURL carrying the browser's cookies.
func (b *testBrowser) request(method, rawURL string) *http.Request {
	b.t.Helper()
	req := httptest.NewRequest(method, rawURL, nil)
	for _, c := range b.jar.Cookies(req.URL) {
		req.AddCookie(c)
	}
	return req
}

// get sends a GET for rawURL to h and keeps the cookies of the response.
func (b *testBrowser) get(h *Handler, rawURL string, c convention) *http.Response {
	b.t.Helper()
	req := b.request(http.MethodGet, rawURL)
	resp := serve(b.t, h, req, c)
	b.jar.SetCookies(req.URL, resp.Cookies())
	return resp
}

// cookies returns the browser's cookies for the origin, by name.
func (b *testBrowser) cookies() map[string]string {
	b.t.Helper()
	u, err := url.Parse(testOrigin + "/")
	require.NoError(b.t, err)
	out := map[string]string{}
	for _, c := range b.jar.Cookies(u) {
		out[c.Name] = c.Value
	}
	return out
}

// sessionCookies returns the browser's session cookies, by name.
func (b *testBrowser) sessionCookies() map[string]string {
	out := map[string]string{}
	for name, v := range b.cookies() {
		if strings.HasSuffix(name, "Token") || strings.HasSuffix(name, ".tokenType") || strings.HasSuffix(name, ".expiresAt") {
			out[name] = v
		}
	}
	return out
}

// authorize follows the provider's authorize redirect and returns the
// callback URL it sends the user agent to.
func authorize(t *testing.T, tp *oidc.TestProvider, authURL string) string {
	t.Helper()
	require := require.New(t)
	client, err := tp.Config().HTTPClient()
	require.NoError(err)
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Get(authURL)
	require.NoError(err)
	defer resp.Body.Close()
	require.Equal(http.StatusFound, resp.StatusCode)
	return resp.Header.Get("Location")
}

// signIn runs a complete sign in for the browser and returns the callback
// response.
func (b *testBrowser) signIn(h *Handler, tp *oidc.TestProvider, c convention) *http.Response {
	b.t.Helper()
	resp := b.get(h, testOrigin+"/api/auth/sign-in", c)
	require.Equal(b.t, http.StatusFound, resp.StatusCode)
	callback := authorize(b.t, tp, resp.Header.Get("Location"))
	return b.get(h, callback, c)
}

// errorCode returns the "error" query parameter of a redirect.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return loc.Query().Get("error")
}
