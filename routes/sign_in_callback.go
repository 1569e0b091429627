// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"errors"

	"github.com/hashicorp/oauthroutes/oidc"
)

// signInCallback completes an authorization request.  The proof cookies are
// removed whatever the outcome.  Session cookies are only written after a
// successful code exchange, all of them together.
func (h *Handler) signInCallback(in *input) *outcome {
	nonce, verifier := h.clearProof(in)
	q := in.req.URL.Query()

	if code := q.Get("error"); code != "" {
		h.logger.Debug("provider returned an error", "error", code, "error_description", q.Get("error_description"))
		return h.failure(code, q.Get("error_description"))
	}

	st, err := oidc.DecodeState(q.Get("state"))
	if err != nil {
		h.logger.Debug("rejecting callback", "error", err)
		return h.failure(ErrorMalformedState, "")
	}
	if err := st.ValidateNonce(nonce); err != nil {
		h.logger.Warn("rejecting callback", "error", err)
		return h.failure(ErrorCsrfValidation, "")
	}
	code := q.Get("code")
	if code == "" {
		return h.failure(ErrorInvalidRequest, "missing code")
	}
	v, err := oidc.ParseCodeVerifier(verifier)
	if err != nil {
		h.logger.Warn("rejecting callback", "error", err)
		return h.failure(ErrorCsrfValidation, "")
	}

	result, err := h.client.ExchangeCode(in.ctx, code, h.CallbackURL(), v)
	switch {
	case errors.Is(err, oidc.ErrTokenEndpointUnreachable):
		h.logger.Error("token endpoint unreachable", "error", err)
		return h.failure(ErrorTokenEndpointUnreachable, "")
	case err != nil:
		h.logger.Error("unable to exchange code", "error", err)
		return h.failure(ErrorServer, "")
	case result.Error != "":
		h.logger.Debug("code exchange rejected", "error", result.Error)
		return h.failure(result.Error, result.ErrorDescription)
	}

	if err := in.session.Persist(in.ctx, result.Tokens); err != nil {
		h.logger.Error("unable to persist session", "error", err)
		return h.failure(ErrorServer, "")
	}

	target := h.signInTarget.String()
	if st.RedirectURL != "" && h.sameOrigin(st.RedirectURL) {
		target = st.RedirectURL
	}
	return redirect(target)
}
