// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/hashicorp/oauthroutes/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims(issuer string) jwt.Claims {
	now := time.Now()
	return jwt.Claims{
		Issuer:    issuer,
		Subject:   "alice",
		Audience:  jwt.Audience{"test-client-id"},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func testPublicKeyPEM(t *testing.T, pub interface{}) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func TestNewJSONWebKeySet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := oidc.StartTestProvider(t)

	t.Run("valid", func(t *testing.T) {
		ks, err := NewJSONWebKeySet(ctx, tp.Addr()+oidc.TestJWKSPath, tp.CACert())
		require.NoError(t, err)
		require.NotNil(t, ks)
	})
	t.Run("empty-url", func(t *testing.T) {
		_, err := NewJSONWebKeySet(ctx, "", tp.CACert())
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("bad-ca", func(t *testing.T) {
		_, err := NewJSONWebKeySet(ctx, tp.Addr()+oidc.TestJWKSPath, "not a pem")
		require.ErrorIs(t, err, ErrInvalidCACert)
	})
}

func TestJSONWebKeySet_VerifySignature(t *testing.T) {
	t.Parallel()
	tp := oidc.StartTestProvider(t)
	_, priv := tp.SigningKeys()
	_, otherPriv := oidc.TestGenerateKeys(t)

	// the key set must outlive the context it was created with
	createCtx, cancel := context.WithCancel(context.Background())
	ks, err := NewJSONWebKeySet(createCtx, tp.Addr()+oidc.TestJWKSPath, tp.CACert())
	require.NoError(t, err)
	cancel()

	ctx := context.Background()
	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		token := oidc.TestSignJWT(t, priv, testClaims(tp.Addr()), map[string]interface{}{"email": "alice@example.com"})
		claims, err := ks.VerifySignature(ctx, token)
		require.NoError(err)
		assert.Equal(tp.Addr(), claims["iss"])
		assert.Equal("alice@example.com", claims["email"])
	})
	t.Run("unknown-key", func(t *testing.T) {
		token := oidc.TestSignJWT(t, otherPriv, testClaims(tp.Addr()), nil)
		_, err := ks.VerifySignature(ctx, token)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := ks.VerifySignature(ctx, "not.a.jwt")
		require.Error(t, err)
	})
}

func TestNewOIDCDiscoveryKeySet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := oidc.StartTestProvider(t)

	t.Run("valid", func(t *testing.T) {
		ks, err := NewOIDCDiscoveryKeySet(ctx, tp.Addr(), tp.CACert())
		require.NoError(t, err)
		require.NotNil(t, ks)
	})
	t.Run("empty-issuer", func(t *testing.T) {
		_, err := NewOIDCDiscoveryKeySet(ctx, "", tp.CACert())
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("untrusted", func(t *testing.T) {
		_, err := NewOIDCDiscoveryKeySet(ctx, tp.Addr(), "")
		require.Error(t, err)
	})
	t.Run("not-an-issuer", func(t *testing.T) {
		_, err := NewOIDCDiscoveryKeySet(ctx, tp.Addr()+"/nope", tp.CACert())
		require.Error(t, err)
	})
}

func TestOIDCDiscoveryKeySet_VerifySignature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tp := oidc.StartTestProvider(t)
	_, priv := tp.SigningKeys()
	_, otherPriv := oidc.TestGenerateKeys(t)

	ks, err := NewOIDCDiscoveryKeySet(ctx, tp.Addr(), tp.CACert())
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		claims, err := ks.VerifySignature(ctx, oidc.TestSignJWT(t, priv, testClaims(tp.Addr()), nil))
		require.NoError(t, err)
		assert.Equal(t, "alice", claims["sub"])
	})
	t.Run("expired-signature-still-verifies", func(t *testing.T) {
		c := testClaims(tp.Addr())
		c.Expiry = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		_, err := ks.VerifySignature(ctx, oidc.TestSignJWT(t, priv, c, nil))
		require.NoError(t, err)
	})
	t.Run("unknown-key", func(t *testing.T) {
		_, err := ks.VerifySignature(ctx, oidc.TestSignJWT(t, otherPriv, testClaims(tp.Addr()), nil))
		require.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestStaticKeySet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub, priv := oidc.TestGenerateKeys(t)
	otherPub, _ := oidc.TestGenerateKeys(t)

	t.Run("valid-second-key", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ks, err := NewStaticKeySet([]string{otherPub, pub})
		require.NoError(err)
		claims, err := ks.VerifySignature(ctx, oidc.TestSignJWT(t, priv, testClaims("https://issuer.example.com"), nil))
		require.NoError(err)
		assert.Equal("https://issuer.example.com", claims["iss"])
	})
	t.Run("no-matching-key", func(t *testing.T) {
		ks, err := NewStaticKeySet([]string{otherPub})
		require.NoError(t, err)
		_, err = ks.VerifySignature(ctx, oidc.TestSignJWT(t, priv, testClaims("https://issuer.example.com"), nil))
		require.ErrorIs(t, err, ErrInvalidSignature)
	})
	t.Run("malformed-token", func(t *testing.T) {
		ks, err := NewStaticKeySet([]string{pub})
		require.NoError(t, err)
		_, err = ks.VerifySignature(ctx, "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9")
		require.ErrorIs(t, err, ErrMalformedToken)
	})
	t.Run("no-keys", func(t *testing.T) {
		_, err := NewStaticKeySet(nil)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("bad-pem", func(t *testing.T) {
		_, err := NewStaticKeySet([]string{"not a pem"})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestParsePublicKeyPEM(t *testing.T) {
	t.Parallel()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	ecPub, _ := oidc.TestGenerateKeys(t)

	tests := []struct {
		name     string
		pem      string
		wantType interface{}
		wantIs   error
	}{
		{name: "rsa", pem: testPublicKeyPEM(t, rsaKey.Public()), wantType: &rsa.PublicKey{}},
		{name: "ecdsa", pem: ecPub, wantType: &ecdsa.PublicKey{}},
		{name: "ed25519", pem: testPublicKeyPEM(t, edPub), wantType: ed25519.PublicKey{}},
		{name: "not-pem", pem: "nope", wantIs: ErrInvalidParameter},
		{
			name:   "not-a-key",
			pem:    string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte("garbage")})),
			wantIs: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePublicKeyPEM([]byte(tt.pem))
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, got)
		})
	}
}
