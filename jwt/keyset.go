// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	sdkHttp "github.com/hashicorp/oauthroutes/sdk/http"
)

// KeySet represents a set of keys that can be used to verify the signatures of JWTs.
// A KeySet is expected to be backed by a set of local or remote keys.
type KeySet interface {
	// VerifySignature parses the given JWT, verifies its signature, and returns the claims in its payload.
	VerifySignature(ctx context.Context, token string) (claims map[string]interface{}, err error)
}

// OIDCDiscoveryKeySet verifies JWT signatures using keys obtained by the OIDC discovery mechanism.
type OIDCDiscoveryKeySet struct {
	provider *oidc.Provider
}

// JSONWebKeySet verifies JWT signatures using keys obtained from a JWKS URL.
type JSONWebKeySet struct {
	remoteJWKS oidc.KeySet
}

// StaticKeySet verifies JWT signatures using local PEM-encoded public keys.
type StaticKeySet struct {
	publicKeys []interface{}
}

// NewOIDCDiscoveryKeySet returns a KeySet that verifies JWT signatures using
// keys from the JSON Web Key Set (JWKS) published in the discovery document
// of the issuer.  The client used to obtain the remote keys will verify
// server certificates using the root certificates provided by
// issuerCAPEM.  Keys are fetched lazily and cached; ctx is only used for
// its values.
func NewOIDCDiscoveryKeySet(ctx context.Context, issuer string, issuerCAPEM string) (KeySet, error) {
	const op = "jwt.NewOIDCDiscoveryKeySet"
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer must not be empty: %w", op, ErrInvalidParameter)
	}
	caCtx, err := createCAContext(ctx, issuerCAPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	provider, err := oidc.NewProvider(caCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &OIDCDiscoveryKeySet{
		provider: provider,
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using
// discovered JWKS keys, and returns the claims in its payload. The given JWT
// must be of the JWS compact serialization form.
func (ks *OIDCDiscoveryKeySet) VerifySignature(ctx context.Context, token string) (map[string]interface{}, error) {
	const op = "OIDCDiscoveryKeySet.VerifySignature"
	// verify only the signature; claims are the Validator's job
	verifier := ks.provider.Verifier(&oidc.Config{
		SkipClientIDCheck:    true,
		SkipExpiryCheck:      true,
		SkipIssuerCheck:      true,
		SupportedSigningAlgs: allAlgs(),
	})
	idToken, err := verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	allClaims := make(map[string]interface{})
	if err := idToken.Claims(&allClaims); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	return allClaims, nil
}

// NewJSONWebKeySet returns a KeySet that verifies JWT signatures using keys
// from the JSON Web Key Set (JWKS) at the given jwksURL. The client used to
// obtain the remote JWKS will verify server certificates using the root
// certificates provided by jwksCAPEM.
func NewJSONWebKeySet(ctx context.Context, jwksURL string, jwksCAPEM string) (KeySet, error) {
	const op = "jwt.NewJSONWebKeySet"
	if jwksURL == "" {
		return nil, fmt.Errorf("%s: jwksURL must not be empty: %w", op, ErrInvalidParameter)
	}
	caCtx, err := createCAContext(ctx, jwksCAPEM)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &JSONWebKeySet{
		remoteJWKS: oidc.NewRemoteKeySet(caCtx, jwksURL),
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using JWKS
// keys, and returns the claims in its payload. The given JWT must be of the
// JWS compact serialization form.
func (ks *JSONWebKeySet) VerifySignature(ctx context.Context, token string) (map[string]interface{}, error) {
	const op = "JSONWebKeySet.VerifySignature"
	payload, err := ks.remoteJWKS.VerifySignature(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	allClaims := map[string]interface{}{}
	if err := json.Unmarshal(payload, &allClaims); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	return allClaims, nil
}

// NewStaticKeySet returns a KeySet that verifies JWT signatures using
// PEM-encoded public keys. The given publicKeys must be of PEM-encoded x509
// certificate or PKIX public key forms.
func NewStaticKeySet(publicKeys []string) (KeySet, error) {
	const op = "jwt.NewStaticKeySet"
	if len(publicKeys) == 0 {
		return nil, fmt.Errorf("%s: no public keys: %w", op, ErrInvalidParameter)
	}
	parsedPublicKeys := make([]interface{}, 0, len(publicKeys))
	for _, k := range publicKeys {
		key, err := parsePublicKeyPEM([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		parsedPublicKeys = append(parsedPublicKeys, key)
	}
	return &StaticKeySet{
		publicKeys: parsedPublicKeys,
	}, nil
}

// VerifySignature parses the given JWT, verifies its signature using local
// PEM-encoded public keys, and returns the claims in its payload. The given
// JWT must be of the JWS compact serialization form.
func (ks *StaticKeySet) VerifySignature(_ context.Context, token string) (map[string]interface{}, error) {
	const op = "StaticKeySet.VerifySignature"
	algs := make([]jose.SignatureAlgorithm, 0, len(supportedAlgorithms))
	for _, a := range allAlgs() {
		algs = append(algs, jose.SignatureAlgorithm(a))
	}
	parsedJWT, err := jwt.ParseSigned(token, algs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedToken, err)
	}
	for _, key := range ks.publicKeys {
		allClaims := map[string]interface{}{}
		if err := parsedJWT.Claims(key, &allClaims); err == nil {
			return allClaims, nil
		}
	}
	return nil, fmt.Errorf("%s: no known key successfully validated the token signature: %w", op, ErrInvalidSignature)
}

// parsePublicKeyPEM is used to parse RSA, ECDSA and Ed25519 public keys from
// PEMs.
func parsePublicKeyPEM(data []byte) (interface{}, error) {
	const op = "jwt.parsePublicKeyPEM"
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: data does not contain a PEM block: %w", op, ErrInvalidParameter)
	}
	rawKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidParameter, errors.Join(err, certErr))
		}
		rawKey = cert.PublicKey
	}
	switch k := rawKey.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%s: unsupported public key type %T: %w", op, rawKey, ErrInvalidParameter)
	}
}

// createCAContext returns a long lived context carrying an http client
// configured with the root certificates from caPEM (or the system roots when
// caPEM is empty).  Remote key sets keep using it after the caller's ctx is
// done, so it doesn't inherit ctx's cancellation.
func createCAContext(ctx context.Context, caPEM string) (context.Context, error) {
	const op = "jwt.createCAContext"
	client, err := sdkHttp.NewClient(caPEM, 0)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sdkHttp.ClientContext(context.WithoutCancel(ctx), client), nil
}
