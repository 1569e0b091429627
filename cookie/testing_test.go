// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cookie

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// testOp records one call made to a testAdapter.
type testOp struct {
	op    string
	name  string
	value string
	opts  SetOptions
}

// testAdapter is an in-memory Adapter which records the calls made to it.
type testAdapter struct {
	cookies   map[string]string
	ops       []testOp
	setErr    error
	deleteErr error
}

func newTestAdapter(cookies map[string]string) *testAdapter {
	if cookies == nil {
		cookies = map[string]string{}
	}
	return &testAdapter{cookies: cookies}
}

func (a *testAdapter) Get(name string) (*Cookie, bool) {
	a.ops = append(a.ops, testOp{op: "get", name: name})
	v, ok := a.cookies[name]
	if !ok {
		return nil, false
	}
	return &Cookie{Name: name, Value: v}, true
}

func (a *testAdapter) Set(name, value string, opts SetOptions) error {
	a.ops = append(a.ops, testOp{op: "set", name: name, value: value, opts: opts})
	if a.setErr != nil {
		return a.setErr
	}
	a.cookies[name] = value
	return nil
}

func (a *testAdapter) Delete(name string) error {
	a.ops = append(a.ops, testOp{op: "delete", name: name})
	if a.deleteErr != nil {
		return a.deleteErr
	}
	delete(a.cookies, name)
	return nil
}

// testBrowser is a cookie jar standing in for a browser.
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
func (b *testBrowser) request(rawURL string) *http.Request {
	b.t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(b.t, err)
	r, err := http.NewRequest(http.MethodGet, rawURL, nil)
	require.NoError(b.t, err)
	for _, c := range b.jar.Cookies(u) {
		r.AddCookie(c)
	}
	return r
}

// receive applies the cookies written by a to the browser, as if they were
// the Set-Cookie headers of the response to r.
func (b *testBrowser) receive(r *http.Request, a *RequestAdapter) {
	b.jar.SetCookies(r.URL, a.SetCookies())
}

// cookies returns every cookie the browser would send to rawURL.
func (b *testBrowser) cookies(rawURL string) []*http.Cookie {
	b.t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(b.t, err)
	return b.jar.Cookies(u)
}
