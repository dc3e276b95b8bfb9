package http

import (
	"context"
	"net/http"

	"conti/internal/log"
	"conti/internal/middleware/auth"
	"conti/internal/middleware/security"
)

// sanitizeInput strips markup and control characters from free text.
func sanitizeInput(s string) string {
	return security.SanitizeText(s)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ownerOf returns the authenticated owner of the request.
func ownerOf(r *http.Request) string {
	return auth.Owner(r.Context())
}

// nonNil turns a nil slice into an empty one so lists encode as [].
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// fail writes the response for err, logging anything that maps to a 5xx.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, log.NewFields())
	}
	resp.Write(w)
}

func ok(w http.ResponseWriter, v any) {
	NewResponse().JSON(v).Write(w)
}

func created(w http.ResponseWriter, v any) {
	NewResponse().Status(http.StatusCreated).JSON(v).Write(w)
}

func noContent(w http.ResponseWriter) {
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// logInfo records a successful write on the request-scoped logger.
func logInfo(ctx context.Context, msg string, args ...any) {
	log.FromContext(ctx).InfoContext(ctx, msg, args...)
}
