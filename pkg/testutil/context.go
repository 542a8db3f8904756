package testutil

import (
	"net/http"

	"decide/pkg/requestcontext"
)

// WithUserID adds an authenticated user to the request context, as
// RequireAuth would. Non-positive ids are ignored.
func WithUserID(req *http.Request, userID int64) *http.Request {
	if userID <= 0 {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithStaff marks the request principal as staff.
func WithStaff(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithStaff(req.Context(), true))
}

// WithPrincipal sets both user and staff flag, the typical state for a
// request that passed RequireAuth.
func WithPrincipal(req *http.Request, userID int64, staff bool) *http.Request {
	req = WithUserID(req, userID)
	if staff {
		req = WithStaff(req)
	}
	return req
}

// WithRequestID sets the correlation id that RequestID middleware would set.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
