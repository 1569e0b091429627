// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
routes is a package that serves the browser facing routes of an oauth
authorization code flow and keeps the resulting session in cookies.

A single Handler serves five routes below a base path (default /api/auth):

* sign-in and sign-up: redirect the user agent to the provider's authorize
(or registration) page with a CSRF state and a PKCE challenge.

* sign-in-callback: check the returned state against the nonce cookie set by
sign-in, exchange the code for tokens and persist the session.

* sign-out: revoke the refresh token (best effort), clear the session and
redirect to the provider's logout endpoint.

* sign-out-callback: clear any remaining session entries and redirect to the
application.

The Handler supports two calling conventions which produce the same
responses:

* Handle(req, RouteContext) returns an *http.Response.  The route
parameters are supplied by a ParamsSource which may already be resolved
(Resolved) or still pending (Pending).

* ServeHTTP(w, r) makes it an http.Handler; the slug comes from the "slug"
path wildcard or the path below the base path.

Every failure during the flow ends with a redirect to the application's
error target carrying an "error" query parameter.  Only a request with a
method other than GET (405) or an unknown route (404) gets a plain status
response.
*/
package routes
