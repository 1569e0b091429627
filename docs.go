// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// oauthroutes provides a collection of related packages which serve the
// browser side of an oauth authorization code flow and keep the resulting
// session in cookies.
//
//   - routes: the sign-in, sign-up, sign-in-callback, sign-out and
//     sign-out-callback routes, served through either of two calling
//     conventions.
//   - oidc: provider configuration, the state codec, PKCE and the token
//     client (code exchange, refresh and revocation).
//   - cookie: a key/value store kept in HTTP cookies.
//   - session: the session's token entries on top of a key/value store.
//   - jwt: JWT validation used to gate stored tokens.
package oauthroutes
