// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
oidc is a package for the provider facing half of an OAuth 2.0 authorization
code flow with PKCE.

Primary types provided by the package

* Config: the client's registration with a provider (client id, optional
secret or signed client assertion, scopes) and the provider's endpoints.
A Config is built directly with NewConfig or from the provider's discovery
document with Discover.

* State: the value carried through the provider round trip in the state
parameter. It holds a nonce that is matched against a cookie to detect CSRF,
the URL to return to and optional caller supplied custom state.

* CodeVerifier: the PKCE verifier and its S256 challenge.

* TokenClient: exchanges authorization codes, refreshes tokens and revokes
refresh tokens at the provider's token and revocation endpoints.

* TokenSet: an access_token, id_token and refresh_token along with their
expiry. The tokens redact themselves when printed or marshaled.

Testing

TestProvider is an in-process provider which implements the authorize,
token, revocation, logout and jwks endpoints. Tests can configure it to fail
in the ways a real provider fails.
*/
package oidc
