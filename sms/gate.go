package sms

import "context"

// Capability names a permission checked before an operation.
type Capability string

const (
	// CapabilityRead guards [Service.GetMessages].
	CapabilityRead Capability = "READ_SMS"
	// CapabilitySend guards [Service.SendMessage].
	CapabilitySend Capability = "SEND_SMS"
)

// Gate answers whether a capability is currently granted.
//
// Check must not have side effects the operation depends on; it is consulted
// exactly once per call, before any provider access.
type Gate interface {
	Check(ctx context.Context, capability Capability) bool
}

// GateFunc adapts a function to [Gate].
type GateFunc func(ctx context.Context, capability Capability) bool

func (f GateFunc) Check(ctx context.Context, capability Capability) bool {
	return f(ctx, capability)
}

// StaticGate grants a fixed set of capabilities.
type StaticGate struct {
	granted map[Capability]struct{}
}

// NewStaticGate returns a gate granting exactly the listed capabilities.
func NewStaticGate(granted ...Capability) *StaticGate {
	g := &StaticGate{granted: make(map[Capability]struct{}, len(granted))}
	for _, c := range granted {
		g.granted[c] = struct{}{}
	}
	return g
}

func (g *StaticGate) Check(_ context.Context, capability Capability) bool {
	if g == nil {
		return false
	}
	_, ok := g.granted[capability]
	return ok
}

var (
	_ Gate = GateFunc(nil)
	_ Gate = (*StaticGate)(nil)
)
