package testutil

import (
	"context"
	"net/http"

	"profilegate/internal/platform/middleware"
)

// WithSubject adds a subject ID to the request context, as the auth middleware
// would after validating a bearer token. Lets handler tests call endpoints
// directly without running the middleware chain.
func WithSubject(req *http.Request, subjectID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubjectID, subjectID)
	return req.WithContext(ctx)
}

// WithToken adds both subject and token IDs to the request context.
func WithToken(req *http.Request, subjectID, tokenID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubjectID, subjectID)
	ctx = context.WithValue(ctx, middleware.ContextKeyTokenID, tokenID)
	return req.WithContext(ctx)
}
