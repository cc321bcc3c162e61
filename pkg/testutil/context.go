package testutil

import (
	"net/http"
	"time"

	"dlms/pkg/requestcontext"
)

// WithTime pins the request clock, as the request-time middleware would.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithAgent sets the acting agent, as the metadata middleware would.
func WithAgent(req *http.Request, agent string) *http.Request {
	return req.WithContext(requestcontext.WithAgent(req.Context(), agent))
}
