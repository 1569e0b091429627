// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthroutes/cookie"
	"github.com/hashicorp/oauthroutes/oidc"
	"github.com/hashicorp/oauthroutes/session"
)

// DefaultBasePath is the path the routes are served below by default.
const DefaultBasePath = "/api/auth"

// Route slugs.
const (
	SignInRoute          = "sign-in"
	SignUpRoute          = "sign-up"
	SignInCallbackRoute  = "sign-in-callback"
	SignOutRoute         = "sign-out"
	SignOutCallbackRoute = "sign-out-callback"
)

// SupportedRoutes returns the slugs served by a Handler.
func SupportedRoutes() []string {
	return []string{SignInRoute, SignUpRoute, SignInCallbackRoute, SignOutRoute, SignOutCallbackRoute}
}

// ProofLifetime is how long the nonce and code verifier cookies written by
// sign in (and sign up) live.  The callback must arrive within it.
const ProofLifetime = 5 * time.Minute

// Handler serves the sign in and sign out routes for a single provider
// config and application origin.  A Handler holds no per-request state and
// is safe for concurrent use.
type Handler struct {
	config *oidc.Config
	client *oidc.TokenClient
	logger hclog.Logger
	now    func() time.Time

	origin      string
	basePath    string
	customState string

	signInTarget  *url.URL
	signOutTarget *url.URL
	errorTarget   *url.URL

	keys         session.Keys
	nonceKey     string
	verifierKey  string
	cookieDomain string
	validator    cookie.Validator
}

// NewHandler creates a Handler for the provider config c.  The origin is
// the application's scheme and host (for example "https://example.com"); the
// provider must accept <origin><base path>/sign-in-callback as a redirect
// URI.
//
// Supported options: WithBasePath, WithCustomState,
// WithRedirectOnSignInComplete, WithRedirectOnSignOutComplete,
// WithRedirectOnError, WithKeyPrefix, WithCookieDomain, WithValidator,
// WithLogger, WithNow
func NewHandler(c *oidc.Config, origin string, opt ...Option) (*Handler, error) {
	const op = "routes.NewHandler"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	client, err := oidc.NewTokenClient(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	o, err := parseOrigin(origin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getHandlerOpts(opt...)
	basePath, err := cleanBasePath(opts.withBasePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	signInTarget, err := resolveTarget(o, opts.withRedirectOnSignInComplete)
	if err != nil {
		return nil, fmt.Errorf("%s: sign in complete target: %w", op, err)
	}
	signOutTarget, err := resolveTarget(o, opts.withRedirectOnSignOutComplete)
	if err != nil {
		return nil, fmt.Errorf("%s: sign out complete target: %w", op, err)
	}
	errorTarget := signInTarget
	if opts.withRedirectOnError != "" {
		if errorTarget, err = resolveTarget(o, opts.withRedirectOnError); err != nil {
			return nil, fmt.Errorf("%s: error target: %w", op, err)
		}
	}

	prefix := opts.withKeyPrefix
	if prefix == "" {
		prefix = session.DefaultKeyPrefix
	}
	keys, err := session.NewKeys(prefix, c.ClientId)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger := opts.withLogger
	if logger == nil {
		logger = c.Logger
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("routes")

	h := &Handler{
		config:        c,
		client:        client,
		logger:        logger,
		now:           opts.withNow,
		origin:        o.String(),
		basePath:      basePath,
		customState:   opts.withCustomState,
		signInTarget:  signInTarget,
		signOutTarget: signOutTarget,
		errorTarget:   errorTarget,
		keys:          keys,
		nonceKey:      prefix + "." + c.ClientId + ".oauthNonce",
		verifierKey:   prefix + "." + c.ClientId + ".codeVerifier",
		cookieDomain:  opts.withCookieDomain,
	}
	for _, name := range []string{h.nonceKey, h.verifierKey} {
		if err := cookie.CheckName(name); err != nil {
			return nil, fmt.Errorf("%s: proof cookie name: %w: %w", op, ErrInvalidParameter, err)
		}
	}
	if opts.withValidator != nil {
		vOpts := append([]session.Option{session.WithLogger(logger)}, opts.withValidatorOpts...)
		h.validator, err = session.NewTokenValidator(opts.withValidator, keys, opts.withExpected, vOpts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return h, nil
}

// CallbackURL returns the redirect URI sent to the provider.
func (h *Handler) CallbackURL() string {
	return h.routeURL(SignInCallbackRoute)
}

func (h *Handler) routeURL(slug string) string {
	return h.origin + h.basePath + "/" + slug
}

// Handle serves req and returns the response.  The route slug is read from
// rc.Params, falling back to the request path.  An error is only returned
// when the params can't be awaited.
func (h *Handler) Handle(req *http.Request, rc RouteContext) (*http.Response, error) {
	const op = "Handler.Handle"
	if req == nil {
		return nil, fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	out, err := h.dispatch(req, rc.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out.response(req), nil
}

// ServeHTTP implements http.Handler.  The route slug is read from the
// "slug" path wildcard, falling back to the request path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	out, err := h.dispatch(r, Resolved{SlugParam: r.PathValue(SlugParam)})
	if err != nil {
		h.logger.Error("unable to dispatch request", "error", err)
		out = plain(http.StatusInternalServerError)
	}
	if err := out.write(w); err != nil {
		h.logger.Debug("unable to write response", "error", err)
	}
}

// Session returns the session tokens carried by r's cookies.  It returns an
// error wrapping session.ErrNotFound when r has no session.
func (h *Handler) Session(ctx context.Context, r *http.Request) (*oidc.TokenSet, error) {
	const op = "Handler.Session"
	if r == nil {
		return nil, fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	in, err := h.newInput(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ts, err := in.session.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ts, nil
}

// RefreshSession redeems the refresh token carried by r's cookies and adds
// the Set-Cookie headers for the new session to header.
func (h *Handler) RefreshSession(ctx context.Context, r *http.Request, header http.Header) (*oidc.TokenSet, error) {
	const op = "Handler.RefreshSession"
	switch {
	case r == nil:
		return nil, fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	case header == nil:
		return nil, fmt.Errorf("%s: header is nil: %w", op, ErrNilParameter)
	}
	in, err := h.newInput(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ts, err := in.session.Refresh(ctx, h.client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	in.cookies.WriteTo(header)
	return ts, nil
}

// input is everything a route needs to serve one request.  It belongs to
// that request alone.
type input struct {
	ctx     context.Context
	req     *http.Request
	cookies *cookie.RequestAdapter
	session *session.Session
}

func (h *Handler) newInput(ctx context.Context, r *http.Request) (*input, error) {
	const op = "Handler.newInput"
	a := cookie.NewRequestAdapter(r, cookie.WithDomain(h.cookieDomain), cookie.WithNow(h.now))
	storeOpts := []cookie.Option{cookie.WithDomain(h.cookieDomain), cookie.WithNow(h.now)}
	if h.validator != nil {
		storeOpts = append(storeOpts, cookie.WithValidator(h.validator))
	}
	store, err := cookie.NewStore(a, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s, err := session.New(store, h.keys, session.WithLogger(h.logger), session.WithNow(h.now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &input{ctx: ctx, req: r, cookies: a, session: s}, nil
}

// dispatch turns a request into an outcome.  The error is only set when
// the params can't be awaited.
func (h *Handler) dispatch(req *http.Request, src ParamsSource) (*outcome, error) {
	const op = "Handler.dispatch"
	if req.Method != http.MethodGet {
		out := plain(http.StatusMethodNotAllowed)
		out.header.Set("Allow", http.MethodGet)
		return out, nil
	}
	ctx := req.Context()
	var params Params
	if src != nil {
		p, err := src.Await(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		params = p
	}
	slug := params[SlugParam]
	if slug == "" {
		slug = h.slugFromPath(req.URL.Path)
	}

	var route func(*input) *outcome
	switch slug {
	case SignInRoute:
		route = func(in *input) *outcome { return h.signIn(in, oidc.SignIn) }
	case SignUpRoute:
		route = func(in *input) *outcome { return h.signIn(in, oidc.SignUp) }
	case SignInCallbackRoute:
		route = h.signInCallback
	case SignOutRoute:
		route = h.signOut
	case SignOutCallbackRoute:
		route = h.signOutCallback
	default:
		return plain(http.StatusNotFound), nil
	}

	h.logger.Debug("serving route", "route", slug)
	in, err := h.newInput(ctx, req)
	if err != nil {
		h.logger.Error("unable to prepare request", "route", slug, "error", err)
		return h.failure(ErrorServer, ""), nil
	}
	out := route(in)
	in.cookies.WriteTo(out.header)
	return out, nil
}

func (h *Handler) slugFromPath(p string) string {
	rest, ok := strings.CutPrefix(p, h.basePath+"/")
	if !ok || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

// failure redirects to the error target with the error code (and optional
// description) in the query.
func (h *Handler) failure(code, description string) *outcome {
	u := *h.errorTarget
	q := u.Query()
	q.Set("error", code)
	if description != "" {
		q.Set("error_description", description)
	}
	u.RawQuery = q.Encode()
	return redirect(u.String())
}

func parseOrigin(origin string) (*url.URL, error) {
	const op = "routes.parseOrigin"
	u, err := url.Parse(origin)
	switch {
	case err != nil:
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidOrigin, err)
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, fmt.Errorf("%s: %q must use http or https: %w", op, origin, ErrInvalidOrigin)
	case u.Host == "":
		return nil, fmt.Errorf("%s: %q has no host: %w", op, origin, ErrInvalidOrigin)
	case (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" || u.User != nil:
		return nil, fmt.Errorf("%s: %q must be a scheme and host only: %w", op, origin, ErrInvalidOrigin)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

func cleanBasePath(p string) (string, error) {
	const op = "routes.cleanBasePath"
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%s: %q must start with /: %w", op, p, ErrInvalidParameter)
	}
	return strings.TrimSuffix(path.Clean(p), "/"), nil
}

// resolveTarget resolves a redirect target against the origin.  An empty
// target is the origin's root.
func resolveTarget(origin *url.URL, target string) (*url.URL, error) {
	const op = "routes.resolveTarget"
	if target == "" {
		target = "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidParameter, err)
	}
	u = origin.ResolveReference(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: %q must use http or https: %w", op, target, ErrInvalidParameter)
	}
	return u, nil
}

// sameOrigin reports whether raw is an absolute URL on the handler's origin.
func (h *Handler) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.User != nil {
		return false
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String() == h.origin
}
