// Package sms reads and sends text messages through pluggable providers.
//
// The package exposes two operations on [Service]:
//
//   - GetMessages(ctx, filter, count): a filtered, bounded read, newest first.
//   - SendMessage(ctx, address, body): a send that splits oversized bodies
//     into transport-defined segments.
//
// Both follow the same shape: check the capability gate, build a
// deterministic request, call the external collaborator, normalize the
// result. Every failure comes back as *Error with a stable Code.
//
// Collaborators
//
//   - Store: a queryable message provider (see package android for a SQLite
//     telephony database and package smsbackup for an IMAP archive).
//   - Transport: single and multipart delivery plus the transport's own
//     segmentation rule (see package gateway).
//   - Gate: yes/no per Capability (CapabilityRead, CapabilitySend).
//
// Query rules
//
//   - Box "sent" and "all" select those collections; anything else reads the
//     inbox.
//   - Search adds body LIKE %search%; Address adds address LIKE %address%,
//     ANDed after the body predicate.
//   - The limit is clamped to [MinLimit, MaxLimit]; ordering is date
//     descending.
//
// Error codes
//
//   - PERMISSION_DENIED: the gate rejected the capability. No provider call
//     was made.
//   - SMS_READ_ERROR: the store query, row scan, or cursor release failed.
//   - SMS_SEND_ERROR: the request was invalid or the transport failed.
//
// Timeouts
//
// Operations run to completion once dispatched; the context passed to the
// store and transport never carries the caller's cancellation. Wrap a call
// with [Await] to stop waiting after a deadline.
//
// Minimal example:
//
//	svc := sms.NewService(store, transport, sms.NewStaticGate(sms.CapabilityRead))
//	records, err := svc.GetMessages(ctx, sms.Filter{Box: sms.BoxSent, Address: "12345"}, 500)
//	if sms.CodeOf(err) == sms.CodePermissionDenied { /* ask for access */ }
package sms
