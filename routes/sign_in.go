// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"net/http"
	"time"

	"github.com/hashicorp/oauthroutes/cookie"
	"github.com/hashicorp/oauthroutes/oidc"
)

// signIn starts an authorization request: the state nonce and PKCE verifier
// are kept in short lived cookies and the user agent is sent to the
// provider.
func (h *Handler) signIn(in *input, kind oidc.AuthKind) *outcome {
	st, err := oidc.NewState(h.signInTarget.String(), oidc.WithCustomState(h.customState))
	if err != nil {
		h.logger.Error("unable to create state", "error", err)
		return h.failure(ErrorServer, "")
	}
	encoded, err := st.Encode()
	if err != nil {
		h.logger.Error("unable to encode state", "error", err)
		return h.failure(ErrorServer, "")
	}
	v, err := oidc.NewCodeVerifier()
	if err != nil {
		h.logger.Error("unable to create code verifier", "error", err)
		return h.failure(ErrorServer, "")
	}
	authURL, err := h.config.AuthURL(kind, encoded, h.CallbackURL(), v)
	if err != nil {
		h.logger.Error("unable to create auth url", "error", err)
		return h.failure(ErrorServer, "")
	}
	if err := h.setProof(in, h.nonceKey, st.Nonce); err != nil {
		h.logger.Error("unable to set nonce cookie", "error", err)
		return h.failure(ErrorServer, "")
	}
	if err := h.setProof(in, h.verifierKey, v.Verifier()); err != nil {
		h.logger.Error("unable to set code verifier cookie", "error", err)
		return h.failure(ErrorServer, "")
	}
	return redirect(authURL)
}

// setProof replaces the named proof cookie.  Proof cookies are HttpOnly and
// expire after ProofLifetime.
func (h *Handler) setProof(in *input, name, value string) error {
	if err := in.cookies.Delete(name); err != nil {
		return err
	}
	return in.cookies.Set(name, value, cookie.SetOptions{
		Domain:   h.cookieDomain,
		Path:     "/",
		Expires:  h.now().Add(ProofLifetime),
		MaxAge:   int(ProofLifetime / time.Second),
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearProof removes both proof cookies.  The values are returned so they
// can still be checked; each proof is good for one callback only.
func (h *Handler) clearProof(in *input) (nonce, verifier string) {
	if c, ok := in.cookies.Get(h.nonceKey); ok {
		nonce = c.Value
	}
	if c, ok := in.cookies.Get(h.verifierKey); ok {
		verifier = c.Value
	}
	for _, name := range []string{h.nonceKey, h.verifierKey} {
		if err := in.cookies.Delete(name); err != nil {
			h.logger.Warn("unable to delete proof cookie", "cookie", name, "error", err)
		}
	}
	return nonce, verifier
}
