package core

import "context"

type contextKey string

const ctxKeyRequester contextKey = "derive_requester"

// Requester identifies who started a run. It is stored on the audit row.
type Requester struct {
	IPAddress string
	UserAgent string
}

// ContextWithRequester attaches requester details to ctx.
func ContextWithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, ctxKeyRequester, r)
}

// RequesterFromContext returns the requester attached to ctx, if any.
func RequesterFromContext(ctx context.Context) Requester {
	r, _ := ctx.Value(ctxKeyRequester).(Requester)
	return r
}
