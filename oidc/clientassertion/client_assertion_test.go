// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package clientassertion

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "test-client-id"
	testSecret   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 32 bytes for HS256
)

var testAudience = []string{"https://auth.example.com/oauth2/token"}

func TestNewJWTWithHMAC(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		clientID string
		audience []string
		alg      HSAlgorithm
		secret   string
		opts     []Option
		wantIs   []error
	}{
		{name: "valid", clientID: testClientID, audience: testAudience, alg: HS256, secret: testSecret},
		{name: "short-secret", clientID: testClientID, audience: testAudience, alg: HS384, secret: testSecret, wantIs: []error{ErrInvalidSecretLength}},
		{name: "empty-secret", clientID: testClientID, audience: testAudience, alg: HS256, wantIs: []error{ErrInvalidSecretLength}},
		{name: "unsupported-alg", clientID: testClientID, audience: testAudience, alg: "HS1", secret: testSecret, wantIs: []error{ErrUnsupportedAlgorithm}},
		{name: "missing-client-and-audience", alg: HS256, secret: testSecret, wantIs: []error{ErrMissingClientID, ErrMissingAudience}},
		{
			name: "kid-in-headers", clientID: testClientID, audience: testAudience, alg: HS256, secret: testSecret,
			opts:   []Option{WithHeaders(map[string]string{"kid": "nope"})},
			wantIs: []error{ErrKidHeader},
		},
		{
			name: "bad-lifetime", clientID: testClientID, audience: testAudience, alg: HS256, secret: testSecret,
			opts:   []Option{WithLifetime(0)},
			wantIs: []error{ErrInvalidLifetime},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			j, err := NewJWTWithHMAC(tt.clientID, tt.audience, tt.alg, tt.secret, tt.opts...)
			if len(tt.wantIs) > 0 {
				require.Error(err)
				for _, want := range tt.wantIs {
					assert.ErrorIs(err, want)
				}
				assert.Nil(j)
				return
			}
			require.NoError(err)
			assert.Equal(tt.clientID, j.clientID)
			assert.Equal(tt.audience, j.audience)
			assert.Equal(DefaultLifetime, j.lifetime)
		})
	}
}

func TestNewJWTWithRSAKey(t *testing.T) {
	t.Parallel()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = NewJWTWithRSAKey(testClientID, testAudience, RS256, nil)
	require.ErrorIs(t, err, ErrNilPrivateKey)
	_, err = NewJWTWithRSAKey(testClientID, testAudience, "PS256", key)
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	j, err := NewJWTWithRSAKey(testClientID, testAudience, RS256, key, WithKeyID("kid-1"))
	require.NoError(t, err)
	assert.Equal(t, "kid-1", j.headers["kid"])
}

func TestNewJWTWithECKey(t *testing.T) {
	t.Parallel()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	_, err = NewJWTWithECKey(testClientID, testAudience, ES256, nil)
	require.ErrorIs(t, err, ErrNilPrivateKey)
	_, err = NewJWTWithECKey(testClientID, testAudience, ES384, key)
	require.ErrorIs(t, err, ErrInvalidKeyCurve)
	_, err = NewJWTWithECKey(testClientID, testAudience, "ES1", key)
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	_, err = NewJWTWithECKey(testClientID, testAudience, ES256, key)
	require.NoError(t, err)
}

func TestJWT_Serialize(t *testing.T) {
	t.Parallel()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	now := time.Now()

	tests := []struct {
		name      string
		newJWT    func(opts ...Option) (*JWT, error)
		verifyKey any
		alg       jose.SignatureAlgorithm
	}{
		{
			name: "hmac",
			newJWT: func(opts ...Option) (*JWT, error) {
				return NewJWTWithHMAC(testClientID, testAudience, HS256, testSecret, opts...)
			},
			verifyKey: []byte(testSecret),
			alg:       jose.HS256,
		},
		{
			name: "rsa",
			newJWT: func(opts ...Option) (*JWT, error) {
				return NewJWTWithRSAKey(testClientID, testAudience, RS256, rsaKey, opts...)
			},
			verifyKey: rsaKey.Public(),
			alg:       jose.RS256,
		},
		{
			name: "ecdsa",
			newJWT: func(opts ...Option) (*JWT, error) {
				return NewJWTWithECKey(testClientID, testAudience, ES256, ecKey, opts...)
			},
			verifyKey: ecKey.Public(),
			alg:       jose.ES256,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			j, err := tt.newJWT(
				WithKeyID("test-key-id"),
				WithHeaders(map[string]string{"xtra": "headies"}),
				WithLifetime(time.Minute),
				WithNow(func() time.Time { return now }),
			)
			require.NoError(err)
			j.genID = func() (string, error) { return "test-claim-id", nil }

			signed, err := j.Serialize()
			require.NoError(err)
			token, err := jwt.ParseSigned(signed, []jose.SignatureAlgorithm{tt.alg})
			require.NoError(err)

			require.Len(token.Headers, 1)
			h := token.Headers[0]
			assert.Equal(string(tt.alg), h.Algorithm)
			assert.Equal("test-key-id", h.KeyID)
			assert.Equal("JWT", h.ExtraHeaders["typ"])
			assert.Equal("headies", h.ExtraHeaders["xtra"])

			var claims jwt.Claims
			require.NoError(token.Claims(tt.verifyKey, &claims))
			require.NoError(claims.Validate(jwt.Expected{
				Issuer:      testClientID,
				Subject:     testClientID,
				AnyAudience: testAudience,
				ID:          "test-claim-id",
				Time:        now,
			}))
			assert.Equal(now.Add(time.Minute).Unix(), claims.Expiry.Time().Unix())
		})
	}

	t.Run("unique-ids", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		j, err := NewJWTWithHMAC(testClientID, testAudience, HS256, testSecret)
		require.NoError(err)
		a1, err := j.Serialize()
		require.NoError(err)
		a2, err := j.Serialize()
		require.NoError(err)
		assert.NotEqual(a1, a2)
		assert.Equal(3, len(strings.Split(a1, ".")))
	})
	t.Run("error-generating-token-id", func(t *testing.T) {
		require := require.New(t)
		genIDErr := errors.New("failed to generate test id")
		j, err := NewJWTWithHMAC(testClientID, testAudience, HS256, testSecret)
		require.NoError(err)
		j.genID = func() (string, error) { return "", genIDErr }
		signed, err := j.Serialize()
		require.ErrorIs(err, genIDErr)
		require.Empty(signed)
	})
}
