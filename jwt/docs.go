// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package jwt verifies the JWTs a provider issues (access and id tokens) so
values read back from session cookies can be trusted.

A KeySet verifies signatures.  Keys come from a JWKS URL (NewJSONWebKeySet),
from the provider's discovery document (NewOIDCDiscoveryKeySet) or from
local PEM encoded public keys (NewStaticKeySet).

A Validator checks the signature with one or more KeySets and then the
registered claims against an Expected value: "exp" (required), "nbf" and
"iat" with leeway for clock skew, and optionally "iss", "sub" and "aud".
WithRequiredClaim adds equality checks on other string claims.
*/
package jwt
