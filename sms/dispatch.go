package sms

import (
	"context"
	"errors"
	"unicode/utf16"
)

// DefaultSinglePartUnits is the single-segment capacity of [UnitLimit]'s
// default policy.
const DefaultSinglePartUnits = 160

// Transport delivers text messages.
//
// Divide splits a body into ordered segments using the transport's own
// segmentation rule; concatenating them must reproduce the body.
type Transport interface {
	Divide(body string) []string
	SendText(ctx context.Context, address string, body string) error
	SendMultipart(ctx context.Context, address string, parts []string) error
}

// Policy decides whether a body goes out as one atomic segment.
type Policy interface {
	SinglePart(body string) bool
}

// UnitLimit is a Policy that counts UTF-16 code units.
type UnitLimit int

func (l UnitLimit) SinglePart(body string) bool {
	return utf16Len(body) <= int(l)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
			continue
		}
		n++
	}
	return n
}

// Dispatcher chooses between single and multipart transmission.
type Dispatcher struct {
	Transport Transport
	Policy    Policy
}

// Dispatch sends req and returns the result plus the number of segments
// handed to the transport. Failures are returned as transport errors.
func (d Dispatcher) Dispatch(ctx context.Context, req SendRequest) (SendResult, int, error) {
	policy := d.Policy
	if policy == nil {
		policy = UnitLimit(DefaultSinglePartUnits)
	}

	segments := 1
	if policy.SinglePart(req.Body) {
		if err := d.Transport.SendText(ctx, req.Address, req.Body); err != nil {
			return SendResult{}, 0, TransportError(err)
		}
	} else {
		parts := d.Transport.Divide(req.Body)
		if len(parts) == 0 {
			return SendResult{}, 0, TransportError(errors.New("transport produced no segments"))
		}
		if err := d.Transport.SendMultipart(ctx, req.Address, parts); err != nil {
			return SendResult{}, 0, TransportError(err)
		}
		segments = len(parts)
	}

	return SendResult{Success: true, Message: "SMS sent to " + req.Address}, segments, nil
}
