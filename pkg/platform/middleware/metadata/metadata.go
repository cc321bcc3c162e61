// Package metadata copies correlation and actor headers into the request context.
package metadata

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"dlms/pkg/requestcontext"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderAgent     = "X-Agent-ID"
)

// maxHeaderLen caps caller-supplied identifiers before they reach logs.
const maxHeaderLen = 128

// RequestMetadata sets the request ID (taken from X-Request-ID or generated)
// and the acting agent (X-Agent-ID) on the context, and echoes the request ID.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := sanitize(r.Header.Get(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		if agent := sanitize(r.Header.Get(HeaderAgent)); agent != "" {
			ctx = requestcontext.WithAgent(ctx, agent)
		}
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sanitize(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > maxHeaderLen {
		v = v[:maxHeaderLen]
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, v)
}
