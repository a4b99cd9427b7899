package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Outcome labels reported to an [Observer].
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Observer receives one notification per completed operation.
type Observer interface {
	ObserveRead(outcome string, rows int)
	ObserveSend(outcome string, segments int)
}

type nopObserver struct{}

func (nopObserver) ObserveRead(string, int) {}
func (nopObserver) ObserveSend(string, int) {}

// Option configures a [Service].
type Option func(*Service)

// WithPolicy replaces the single-segment policy. The default is
// UnitLimit(DefaultSinglePartUnits).
func WithPolicy(p Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithLogger sets the logger used for state transitions and failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver sets the operation observer (for example, metrics).
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// Service exposes the read and send operations. It holds no per-call state
// and is safe for concurrent use.
type Service struct {
	store     Store
	transport Transport
	gate      Gate
	policy    Policy
	logger    *zap.Logger
	observer  Observer
}

// NewService wires a provider, a transport, and a gate.
func NewService(store Store, transport Transport, gate Gate, opts ...Option) *Service {
	s := &Service{
		store:     store,
		transport: transport,
		gate:      gate,
		policy:    UnitLimit(DefaultSinglePartUnits),
		logger:    zap.NewNop(),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetMessages returns up to count messages matching filter, newest first.
//
// Errors are always *Error: CodePermissionDenied when the read capability is
// not granted (the store is not touched), CodeReadError for provider
// failures.
func (s *Service) GetMessages(ctx context.Context, filter Filter, count int) ([]Record, error) {
	log := s.logger.With(zap.String("op", "get_messages"))

	log.Debug("authorizing", zap.String("capability", string(CapabilityRead)))
	if !s.allowed(ctx, CapabilityRead) {
		err := PermissionDenied(CapabilityRead)
		log.Warn("rejected", zap.String("code", string(err.Code)))
		s.observer.ObserveRead(OutcomeRejected, 0)
		return nil, err
	}

	spec := BuildQuery(filter, count)
	log.Debug("querying",
		zap.String("box", string(spec.Box)),
		zap.Int("predicates", len(spec.Predicates)),
		zap.Int("limit", spec.Limit),
	)

	records, err := s.query(context.WithoutCancel(ctx), spec)
	if err != nil {
		log.Warn("failed", zap.String("code", string(CodeReadError)), zap.Error(err))
		s.observer.ObserveRead(OutcomeFailed, 0)
		return nil, err
	}

	log.Debug("succeeded", zap.Int("rows", len(records)))
	s.observer.ObserveRead(OutcomeSucceeded, len(records))
	return records, nil
}

func (s *Service) query(ctx context.Context, spec QuerySpec) ([]Record, error) {
	if s.store == nil {
		return nil, ProviderError(errors.New("no message store configured"))
	}
	cur, err := s.store.Query(ctx, spec)
	if err != nil {
		if cur != nil {
			if cerr := cur.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("releasing cursor: %w", cerr))
			}
		}
		return nil, ProviderError(err)
	}
	records, err := Normalize(cur)
	if err != nil {
		return nil, ProviderError(err)
	}
	return records, nil
}

// SendMessage sends body to address, splitting it into segments when the
// policy says it does not fit in one.
//
// Errors are always *Error: CodePermissionDenied when the send capability is
// not granted, CodeSendError for invalid input or transport failures.
func (s *Service) SendMessage(ctx context.Context, address string, body string) (SendResult, error) {
	log := s.logger.With(zap.String("op", "send_message"))

	log.Debug("authorizing", zap.String("capability", string(CapabilitySend)))
	if !s.allowed(ctx, CapabilitySend) {
		err := PermissionDenied(CapabilitySend)
		log.Warn("rejected", zap.String("code", string(err.Code)))
		s.observer.ObserveSend(OutcomeRejected, 0)
		return SendResult{}, err
	}

	req := SendRequest{Address: address, Body: body}
	if err := validateSendRequest(req); err != nil {
		log.Warn("failed", zap.String("code", string(err.Code)), zap.String("reason", err.Message))
		s.observer.ObserveSend(OutcomeFailed, 0)
		return SendResult{}, err
	}
	if s.transport == nil {
		err := TransportError(errors.New("no transport configured"))
		s.observer.ObserveSend(OutcomeFailed, 0)
		return SendResult{}, err
	}

	log.Debug("dispatching", zap.Int("body_len", len(req.Body)))
	d := Dispatcher{Transport: s.transport, Policy: s.policy}
	result, segments, err := d.Dispatch(context.WithoutCancel(ctx), req)
	if err != nil {
		log.Warn("failed", zap.String("code", string(CodeSendError)), zap.Error(err))
		s.observer.ObserveSend(OutcomeFailed, 0)
		return SendResult{}, err
	}

	log.Debug("succeeded", zap.Int("segments", segments))
	s.observer.ObserveSend(OutcomeSucceeded, segments)
	return result, nil
}

func (s *Service) allowed(ctx context.Context, capability Capability) bool {
	if s.gate == nil {
		return false
	}
	return s.gate.Check(ctx, capability)
}

func validateSendRequest(req SendRequest) *Error {
	if strings.TrimSpace(req.Address) == "" {
		return &Error{Code: CodeSendError, Message: "invalid destination address"}
	}
	if req.Body == "" {
		return &Error{Code: CodeSendError, Message: "invalid message body"}
	}
	return nil
}
