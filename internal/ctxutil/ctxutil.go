// Package ctxutil provides shared context key accessors.
package ctxutil

import "context"

type contextKey string

const keyRunID contextKey = "run_id"

// WithRunID returns a new context carrying the id of the current run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRunID, id)
}

// RunIDFromContext extracts the run id from the context, or "" if none.
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(keyRunID).(string); ok {
		return v
	}
	return ""
}
