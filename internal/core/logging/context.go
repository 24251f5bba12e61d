package logging

import "context"

type loopKey struct{}

// loopFields are the loop coordinates carried by a context.
type loopFields struct {
	sessionID string
	iteration int
}

func fieldsFrom(ctx context.Context) loopFields {
	f, _ := ctx.Value(loopKey{}).(loopFields)
	return f
}

// WithSessionID tags the context with the loop session identifier written in
// the session log header.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	f := fieldsFrom(ctx)
	f.sessionID = sessionID
	return context.WithValue(ctx, loopKey{}, f)
}

// WithIteration tags the context with the 1-based iteration number.
func WithIteration(ctx context.Context, n int) context.Context {
	f := fieldsFrom(ctx)
	f.iteration = n
	return context.WithValue(ctx, loopKey{}, f)
}

// GetSessionID returns the session ID, or "" when absent.
func GetSessionID(ctx context.Context) string {
	return fieldsFrom(ctx).sessionID
}

// GetIteration returns the iteration number, or 0 when absent.
func GetIteration(ctx context.Context) int {
	return fieldsFrom(ctx).iteration
}
