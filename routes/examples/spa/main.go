// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthroutes/jwt"
	"github.com/hashicorp/oauthroutes/oidc"
	"github.com/hashicorp/oauthroutes/routes"
)

// List of required configuration environment variables
const (
	clientID = "OIDC_CLIENT_ID"
	issuer   = "OIDC_ISSUER"
	port     = "OIDC_PORT"
)

// List of optional configuration environment variables
const (
	clientSecret = "OIDC_CLIENT_SECRET"
)

func envConfig() (map[string]string, error) {
	const op = "envConfig"
	env := map[string]string{
		clientID: os.Getenv(clientID),
		issuer:   os.Getenv(issuer),
		port:     os.Getenv(port),
	}
	for k, v := range env {
		if v == "" {
			return nil, fmt.Errorf("%s: %s is empty", op, k)
		}
	}
	env[clientSecret] = os.Getenv(clientSecret)
	return env, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "spa",
		Level: hclog.Debug,
	})

	env, err := envConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}

	// handle ctrl-c while waiting for the callback
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt)
	defer signal.Stop(sigintCh)

	ctx := context.Background()
	opts := []oidc.Option{oidc.WithLogger(logger), oidc.WithTimeout(10 * time.Second)}
	if env[clientSecret] != "" {
		opts = append(opts, oidc.WithClientSecret(env[clientSecret]))
	}
	pc, err := oidc.Discover(ctx, env[issuer], env[clientID], opts...)
	if err != nil {
		logger.Error("unable to discover provider", "error", err)
		return
	}

	var handlerOpts []routes.Option
	if pc.Endpoints.JWKSURL != "" {
		ks, err := jwt.NewJSONWebKeySet(ctx, pc.Endpoints.JWKSURL, "")
		if err != nil {
			logger.Error("unable to create key set", "error", err)
			return
		}
		v, err := jwt.NewValidator(ks)
		if err != nil {
			logger.Error("unable to create validator", "error", err)
			return
		}
		handlerOpts = append(handlerOpts, routes.WithValidator(v, jwt.Expected{
			Issuer:            env[issuer],
			SigningAlgorithms: []jwt.Alg{jwt.RS256, jwt.ES256},
		}))
	}
	handlerOpts = append(handlerOpts,
		routes.WithRedirectOnSignInComplete("/success"),
		routes.WithRedirectOnSignOutComplete("/"),
		routes.WithRedirectOnError("/"),
	)

	origin := fmt.Sprintf("http://localhost:%s", env[port])
	h, err := routes.NewHandler(pc, origin, handlerOpts...)
	if err != nil {
		logger.Error("unable to create handler", "error", err)
		return
	}
	logger.Info("register this redirect URI with the provider", "redirect_uri", h.CallbackURL())

	mux := http.NewServeMux()
	mux.Handle("/api/auth/{slug}", h)
	mux.HandleFunc("/success", SuccessHandler(h, logger))
	mux.HandleFunc("/", IndexHandler())

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%s", env[port]))
	if err != nil {
		logger.Error("unable to listen", "error", err)
		return
	}
	defer listener.Close()

	srvCh := make(chan error)
	// Start local server
	go func() {
		err := http.Serve(listener, mux)
		if err != nil && err != http.ErrServerClosed {
			srvCh <- err
		}
	}()
	logger.Info("listening", "url", origin)

	// Wait for either the server to fail or SIGINT to be received
	select {
	case err := <-srvCh:
		logger.Error("server closed with error", "error", err)
		return
	case <-sigintCh:
		logger.Info("interrupted")
		return
	}
}
