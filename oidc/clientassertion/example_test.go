// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/oauthroutes/oidc"
	"github.com/hashicorp/oauthroutes/oidc/clientassertion"
)

// A confidential client using private_key_jwt.  The token client signs a
// fresh assertion for every token and revocation request.
func ExampleNewJWTWithECKey() {
	endpoints := oidc.Endpoints{
		AuthURL:       "https://auth.example.com/oauth2/authorize",
		TokenURL:      "https://auth.example.com/oauth2/token",
		RevocationURL: "https://auth.example.com/oauth2/revoke",
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatal(err)
	}
	// the audience is normally the provider's token endpoint
	j, err := clientassertion.NewJWTWithECKey("client-id", []string{endpoints.TokenURL}, clientassertion.ES256, key,
		// if your key has an associated JWKS endpoint, this is the "kid" of
		// the public key there
		clientassertion.WithKeyID("ec-key-id"),
		clientassertion.WithLifetime(time.Minute),
	)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := oidc.NewConfig("client-id", endpoints, oidc.WithClientAssertion(j)); err != nil {
		log.Fatal(err)
	}

	signed, err := j.Serialize()
	if err != nil {
		log.Fatal(err)
	}
	{ // decode and inspect the JWT -- this is the provider's job
		token, err := jwt.ParseSigned(signed, []jose.SignatureAlgorithm{jose.ES256})
		if err != nil {
			log.Fatal(err)
		}
		var claim jwt.Claims
		if err := token.Claims(key.Public(), &claim); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Headers - KeyID: %s; Algorithm: %s\n", token.Headers[0].KeyID, token.Headers[0].Algorithm)
		fmt.Printf("Claims  - Issuer: %s; Subject: %s; Audience: %v\n", claim.Issuer, claim.Subject, claim.Audience)
		fmt.Println("Lifetime -", claim.Expiry.Time().Sub(claim.IssuedAt.Time()))
	}

	// Output:
	// Headers - KeyID: ec-key-id; Algorithm: ES256
	// Claims  - Issuer: client-id; Subject: client-id; Audience: [https://auth.example.com/oauth2/token]
	// Lifetime - 1m0s
}

// client_secret_jwt: the assertion is signed with the client secret, which
// itself never leaves the relying party.
func ExampleNewJWTWithHMAC() {
	secret := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 32 bytes for HS256
	j, err := clientassertion.NewJWTWithHMAC("client-id", []string{"https://auth.example.com/oauth2/token"}, clientassertion.HS256, secret,
		// extra headers are optional
		clientassertion.WithHeaders(map[string]string{"x-tenant": "example"}),
	)
	if err != nil {
		log.Fatal(err)
	}
	signed, err := j.Serialize()
	if err != nil {
		log.Fatal(err)
	}
	token, err := jwt.ParseSigned(signed, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		log.Fatal(err)
	}
	h := token.Headers[0]
	fmt.Printf("Headers - Algorithm: %s; typ: %s; x-tenant: %s\n", h.Algorithm, h.ExtraHeaders["typ"], h.ExtraHeaders["x-tenant"])

	// Output:
	// Headers - Algorithm: HS256; typ: JWT; x-tenant: example
}
