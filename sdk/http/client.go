// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout bounds every request made by a client returned from
// NewClient when no timeout is provided.
const DefaultTimeout = 10 * time.Second

var (
	ErrInvalidCertificatePem = errors.New("invalid certificate PEM")
	ErrInvalidTimeout        = errors.New("invalid timeout")
)

// NewClient creates a new http client which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain.  Every request made with the client is bounded by timeout; a zero
// timeout means DefaultTimeout.
func NewClient(caPEM string, timeout time.Duration) (*http.Client, error) {
	const op = "http.NewClient"
	switch {
	case timeout < 0:
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidTimeout, timeout)
	case timeout == 0:
		timeout = DefaultTimeout
	}
	tr := cleanhttp.DefaultPooledTransport()

	if caPEM != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCertificatePem)
		}

		tr.TLSClientConfig = &tls.Config{
			RootCAs:    certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// ClientContext is a helper function that returns a new Context that carries
// the provided HTTP client. This method sets the same context key used by the
// github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the returned
// context works for those packages as well.
func ClientContext(ctx context.Context, client *http.Client) context.Context {
	return oidc.ClientContext(ctx, client)
}
