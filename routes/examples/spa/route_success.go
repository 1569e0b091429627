// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/oauthroutes/oidc"
	"github.com/hashicorp/oauthroutes/routes"
	"github.com/hashicorp/oauthroutes/session"
)

const index = `<!DOCTYPE html>
<html>
<body>
<p><a href="/api/auth/sign-in">Sign in</a> or <a href="/api/auth/sign-up">sign up</a></p>
<p><a href="/api/auth/sign-out">Sign out</a></p>
</body>
</html>
`

// IndexHandler shows the sign in and sign out links, and any error the
// flow returned.
func IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if e := r.FormValue("error"); e != "" {
			fmt.Fprintf(w, "<p>sign in failed: %s</p>\n", e)
		}
		fmt.Fprint(w, index)
	}
}

// SuccessHandler shows the session's tokens, refreshing them when the
// access token has expired.
func SuccessHandler(h *routes.Handler, logger hclog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.Session(r.Context(), r)
		switch {
		case errors.Is(err, session.ErrNotFound):
			http.Redirect(w, r, "/", http.StatusFound)
			return
		case err != nil:
			logger.Error("unable to read session", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		case !t.Valid(time.Now()):
			if t, err = h.RefreshSession(r.Context(), r, w.Header()); err != nil {
				logger.Error("unable to refresh session", "error", err)
				http.Redirect(w, r, "/api/auth/sign-out", http.StatusFound)
				return
			}
		}

		tokenData, err := json.MarshalIndent(printableToken(t), "", "    ")
		if err != nil {
			logger.Error("unable to marshal tokens", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(tokenData); err != nil {
			logger.Debug("unable to write response", "error", err)
		}
	}
}

type respToken struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// printableToken is needed because the oidc.TokenSet redacts the IdToken,
// AccessToken and RefreshToken
func printableToken(t *oidc.TokenSet) respToken {
	return respToken{
		IDToken:      string(t.IdToken),
		AccessToken:  string(t.AccessToken),
		RefreshToken: string(t.RefreshToken),
		Expiry:       t.Expiry,
	}
}
