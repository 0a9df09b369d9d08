package payment

import (
	"context"
)

// Platform values sent by clients.
const (
	PlatformWeb    = "web"
	PlatformNative = "native"
)

// Orchestrator collects a payment and reports a normalised outcome. It never
// returns an error; failures resolve as StatusFailed.
type Orchestrator interface {
	Pay(ctx context.Context, req Request) Outcome
}

// Router picks the flow for the client platform.
type Router struct {
	Web    Orchestrator
	Native Orchestrator
}

// Pay dispatches to the native flow for native clients and to the web flow otherwise.
func (r *Router) Pay(ctx context.Context, req Request) Outcome {
	if req.Platform == PlatformNative && r.Native != nil {
		return r.Native.Pay(ctx, req)
	}
	if r.Web == nil {
		return Outcome{Status: StatusFailed, TxRef: req.TxRef, Reason: "no payment flow configured"}
	}
	return r.Web.Pay(ctx, req)
}
