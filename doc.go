// Package smskit is a lightweight index for the text messaging packages in
// this module.
//
// This root package is documentation-only. Import specific subpackages to use
// concrete helpers.
//
// Available subpackages:
//   - github.com/spachava753/smskit/sms
//     Permission-gated message queries and length-aware sending.
//   - github.com/spachava753/smskit/sms/gsm
//     GSM 03.38 encoding detection and segment division.
//   - github.com/spachava753/smskit/android
//     Message store backed by an Android mmssms.db copy.
//   - github.com/spachava753/smskit/macos/messages
//     Message store over a macOS chat.db and a Messages.app transport.
//   - github.com/spachava753/smskit/smsbackup
//     Message store backed by an SMS Backup+ IMAP archive.
//   - github.com/spachava753/smskit/gateway
//     Transport that mails segments to a carrier email-to-SMS gateway.
//   - github.com/spachava753/smskit/assist
//     Prompt context and send-action parsing for chat assistants.
//
// The smskit command (cmd/smskit) wires these together behind a CLI and an
// HTTP API.
//
// Discovery workflow for agents:
//   - Run: go doc github.com/spachava753/smskit
//   - Then drill in with:
//     go doc github.com/spachava753/smskit/sms
//     go doc github.com/spachava753/smskit/android
//     go doc github.com/spachava753/smskit/gateway
package smskit
