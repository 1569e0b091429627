// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc_test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/oauthroutes/oidc"
)

func Example() {
	// Create a new Config
	pc, err := oidc.NewConfig(
		"your_client_id",
		oidc.Endpoints{
			AuthURL:  "https://your-issuer.com/oauth2/authorize",
			TokenURL: "https://your-issuer.com/oauth2/token",
		},
		oidc.WithClientSecret("your_client_secret"),
	)
	if err != nil {
		// handle error
	}

	// Create a State and PKCE verifier for a user's authentication attempt.
	// Both the state's nonce and the verifier must be kept (for example in
	// short lived cookies) until the callback.
	state, err := oidc.NewState("https://your-app.com/home")
	if err != nil {
		// handle error
	}
	encoded, err := state.Encode()
	if err != nil {
		// handle error
	}
	verifier, err := oidc.NewCodeVerifier()
	if err != nil {
		// handle error
	}

	// Create an auth URL
	authURL, err := pc.AuthURL(oidc.SignIn, encoded, "https://your-app.com/callback", verifier)
	if err != nil {
		// handle error
	}
	fmt.Println("open url to kick-off authentication: ", authURL)

	tc, err := oidc.NewTokenClient(pc)
	if err != nil {
		// handle error
	}

	// Create a http.Handler for authentication response redirects
	callbackHandler := func(w http.ResponseWriter, r *http.Request) {
		got, err := oidc.DecodeState(r.FormValue("state"))
		if err != nil {
			// handle error
		}
		if err := got.ValidateNonce(state.Nonce); err != nil {
			// handle error
		}
		result, err := tc.ExchangeCode(r.Context(), r.FormValue("code"), "https://your-app.com/callback", verifier)
		if err != nil {
			// the provider couldn't be reached
		}
		if err := result.Err(); err != nil {
			// the provider rejected the code
		}
		fmt.Println("access token expires: ", result.Tokens.Expiry)
	}
	http.HandleFunc("/callback", callbackHandler)
}

func ExampleDiscover() {
	pc, err := oidc.Discover(context.Background(), "https://your-issuer.com/", "your_client_id")
	if err != nil {
		// handle error
	}
	fmt.Println(pc.Endpoints.TokenURL)
}

func ExampleNewState() {
	s, err := oidc.NewState("https://your-app.com/home", oidc.WithCustomState("tab=settings"))
	if err != nil {
		// handle error
	}
	encoded, err := s.Encode()
	if err != nil {
		// handle error
	}
	decoded, err := oidc.DecodeState(encoded)
	if err != nil {
		// handle error
	}
	fmt.Println(decoded.RedirectURL, decoded.CustomState)

	// Output:
	// https://your-app.com/home tab=settings
}

func ExampleCreateCodeChallenge() {
	// RFC 7636 appendix B
	challenge, err := oidc.CreateCodeChallenge(oidc.S256, "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	if err != nil {
		// handle error
	}
	fmt.Println(challenge)

	// Output:
	// E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM
}

func ExampleTokenSet() {
	ts := oidc.TokenSet{AccessToken: "access"}
	fmt.Println(ts.AccessToken, string(ts.AccessToken))
	fmt.Println(ts.Valid(time.Now()))

	// Output:
	// [REDACTED: access_token] access
	// true
}
