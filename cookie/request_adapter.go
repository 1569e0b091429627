// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cookie

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RequestAdapter is an Adapter for one request/response exchange.  Reads come
// from the request's cookies, overlaid with any writes already made through
// the adapter.  Writes are recorded in order and returned by SetCookies, so
// the caller decides how they reach the response.
//
// A RequestAdapter is not safe for concurrent use; it belongs to the single
// request being processed.
type RequestAdapter struct {
	incoming map[string]string

	// overlay holds values written during this request; a nil entry means
	// the cookie was deleted.
	overlay map[string]*string
	written []*http.Cookie

	// requestPath is the default cookie path of the request URL, see
	// RFC 6265 section 5.1.4.
	requestPath string
	path        string
	domain      string
	now         func() time.Time
}

// ensure that RequestAdapter implements the Adapter interface
var _ Adapter = (*RequestAdapter)(nil)

// NewRequestAdapter creates a RequestAdapter for the request r.  A nil request
// is treated as a request without cookies.
//
// Supported options: WithPath, WithDomain, WithNow
func NewRequestAdapter(r *http.Request, opt ...Option) *RequestAdapter {
	opts := getAdapterOpts(opt...)
	a := &RequestAdapter{
		incoming: map[string]string{},
		overlay:  map[string]*string{},
		path:     opts.withPath,
		domain:   opts.withDomain,
		now:      opts.withNow,
	}
	if r != nil {
		if r.URL != nil {
			a.requestPath = defaultPath(r.URL.Path)
		}
		for _, c := range r.Cookies() {
			// the most specific (first) cookie wins when a name is shadowed
			if _, ok := a.incoming[c.Name]; !ok {
				a.incoming[c.Name] = c.Value
			}
		}
	}
	return a
}

// Get implements Adapter.Get.
func (a *RequestAdapter) Get(name string) (*Cookie, bool) {
	if v, ok := a.overlay[name]; ok {
		if v == nil {
			return nil, false
		}
		return &Cookie{Name: name, Value: *v}, true
	}
	v, ok := a.incoming[name]
	if !ok {
		return nil, false
	}
	return &Cookie{Name: name, Value: v}, true
}

// Set implements Adapter.Set.  It returns ErrCookieTooLarge or
// ErrInvalidCookie when the cookie cannot be represented in a Set-Cookie
// header.
func (a *RequestAdapter) Set(name, value string, opts SetOptions) error {
	const op = "RequestAdapter.Set"
	if err := CheckSize(name, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   opts.Domain,
		Path:     opts.Path,
		Expires:  opts.Expires,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
		SameSite: opts.SameSite,
	}
	if err := c.Valid(); err != nil {
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidCookie, err)
	}
	a.written = append(a.written, c)

	expired := opts.MaxAge < 0 || (!opts.Expires.IsZero() && !opts.Expires.After(a.now()))
	if expired {
		a.overlay[name] = nil
		return nil
	}
	v := value
	a.overlay[name] = &v
	return nil
}

// Delete implements Adapter.Delete by writing an already expired cookie on
// the adapter's path.  When the request's default cookie path differs, the
// cookie is expired there too, which removes a cookie that was written
// without an explicit path.
func (a *RequestAdapter) Delete(name string) error {
	const op = "RequestAdapter.Delete"
	if name == "" {
		return fmt.Errorf("%s: missing name: %w", op, ErrInvalidParameter)
	}
	a.written = append(a.written, a.expired(name, a.path))
	if a.requestPath != "" && a.requestPath != a.path {
		a.written = append(a.written, a.expired(name, a.requestPath))
	}
	a.overlay[name] = nil
	return nil
}

func (a *RequestAdapter) expired(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    path,
		Domain:  a.domain,
		Expires: time.Unix(0, 0).UTC(),
		MaxAge:  -1,
	}
}

// defaultPath returns the directory of the request path.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

// SetCookies returns every cookie written through the adapter, in write
// order.
func (a *RequestAdapter) SetCookies() []*http.Cookie {
	out := make([]*http.Cookie, len(a.written))
	copy(out, a.written)
	return out
}

// WriteTo adds a Set-Cookie header for every cookie written through the
// adapter to h.
func (a *RequestAdapter) WriteTo(h http.Header) {
	for _, c := range a.written {
		if v := c.String(); v != "" {
			h.Add("Set-Cookie", v)
		}
	}
}

// adapterOptions is the set of available options for RequestAdapter
type adapterOptions struct {
	withPath   string
	withDomain string
	withNow    func() time.Time
}

func adapterDefaults() adapterOptions {
	return adapterOptions{
		withPath: "/",
		withNow:  time.Now,
	}
}

func getAdapterOpts(opt ...Option) adapterOptions {
	opts := adapterDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
