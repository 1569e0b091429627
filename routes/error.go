// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package routes

import "errors"

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNilParameter      = errors.New("nil parameter")
	ErrInvalidOrigin     = errors.New("invalid origin")
	ErrParamsUnavailable = errors.New("route params unavailable")
)

// Error codes sent to the error target in the "error" query parameter.
// Provider error codes (for example "invalid_grant" or "access_denied") are
// passed through as is.
const (
	// ErrorMalformedState means the callback's state parameter couldn't be
	// decoded.
	ErrorMalformedState = "malformed_state"

	// ErrorCsrfValidation means the callback's state doesn't belong to the
	// sign in started by this user agent.
	ErrorCsrfValidation = "csrf_validation_failed"

	// ErrorTokenEndpointUnreachable means the provider's token endpoint
	// couldn't be reached in time.
	ErrorTokenEndpointUnreachable = "token_endpoint_unreachable"

	// ErrorInvalidRequest means the callback carried neither a code nor an
	// error.
	ErrorInvalidRequest = "invalid_request"

	// ErrorServer means the flow failed for a reason unrelated to the
	// request, see the logs.
	ErrorServer = "server_error"
)
