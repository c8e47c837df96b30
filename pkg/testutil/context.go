package testutil

import (
	"net/http"

	id "fraudintel/pkg/domain"
	"fraudintel/pkg/requestcontext"
)

// WithAccountID adds an account ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the accountID is not a valid UUID, it will not be added to the context.
func WithAccountID(req *http.Request, accountID string) *http.Request {
	if parsed, err := id.ParseAccountID(accountID); err == nil {
		return req.WithContext(requestcontext.WithAccountID(req.Context(), parsed))
	}
	return req
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
