// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	caPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}))

	tests := []struct {
		name        string
		caPEM       string
		timeout     time.Duration
		wantTimeout time.Duration
		wantErr     error
	}{
		{
			name:        "default-timeout",
			caPEM:       caPEM,
			wantTimeout: DefaultTimeout,
		},
		{
			name:        "explicit-timeout",
			caPEM:       caPEM,
			timeout:     time.Second,
			wantTimeout: time.Second,
		},
		{
			name:    "negative-timeout",
			timeout: -1,
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "bad-pem",
			caPEM:   "not a pem",
			wantErr: ErrInvalidCertificatePem,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			c, err := NewClient(tt.caPEM, tt.timeout)
			if tt.wantErr != nil {
				require.Error(err)
				assert.Truef(errors.Is(err, tt.wantErr), "wanted %q and got %q", tt.wantErr, err)
				return
			}
			require.NoError(err)
			assert.Equal(tt.wantTimeout, c.Timeout)

			resp, err := c.Get(srv.URL)
			require.NoError(err)
			defer resp.Body.Close()
			assert.Equal(http.StatusNoContent, resp.StatusCode)
		})
	}
	t.Run("system-ca-rejects-test-cert", func(t *testing.T) {
		c, err := NewClient("", 0)
		require.NoError(t, err)
		_, err = c.Get(srv.URL)
		require.Error(t, err)
		var certErr *tls.CertificateVerificationError
		assert.True(t, errors.As(err, &certErr))
	})
}

func TestClientContext(t *testing.T) {
	t.Parallel()
	c := &http.Client{}
	ctx := ClientContext(context.Background(), c)
	assert.Same(t, c, ctx.Value(oauth2.HTTPClient))
}
