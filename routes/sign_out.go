// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import (
	"errors"
	"net/url"

	"github.com/hashicorp/oauthroutes/session"
)

// signOut revokes the refresh token (best effort), clears the session and
// sends the user agent to the provider's logout endpoint, which returns it
// to sign-out-callback.  Without a logout endpoint it goes to
// sign-out-callback directly.
func (h *Handler) signOut(in *input) *outcome {
	ts, err := in.session.Load(in.ctx)
	switch {
	case errors.Is(err, session.ErrNotFound):
	case err != nil:
		h.logger.Warn("unable to read session", "error", err)
	case ts.RefreshToken != "" && h.config.Endpoints.RevocationURL != "":
		result, err := h.client.Revoke(in.ctx, string(ts.RefreshToken))
		if err == nil {
			err = result.Err()
		}
		if err != nil {
			h.logger.Warn("unable to revoke refresh token", "error", err)
		}
	}
	if err := in.session.Clear(in.ctx); err != nil {
		h.logger.Error("unable to clear session", "error", err)
	}

	callback := h.routeURL(SignOutCallbackRoute)
	if h.config.Endpoints.LogoutURL == "" {
		return redirect(callback)
	}
	u, err := url.Parse(h.config.Endpoints.LogoutURL)
	if err != nil {
		h.logger.Error("unable to parse logout url", "error", err)
		return redirect(callback)
	}
	q := u.Query()
	q.Set("client_id", h.config.ClientId)
	q.Set("logout_uri", callback)
	u.RawQuery = q.Encode()
	return redirect(u.String())
}

// signOutCallback clears anything left of the session and returns the user
// agent to the application.
func (h *Handler) signOutCallback(in *input) *outcome {
	if err := in.session.Clear(in.ctx); err != nil {
		h.logger.Error("unable to clear session", "error", err)
	}
	return redirect(h.signOutTarget.String())
}
