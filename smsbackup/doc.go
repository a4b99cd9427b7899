// Package smsbackup reads text messages archived by SMS Backup+ into an
// IMAP mailbox (a Gmail label by default).
//
// SMS Backup+ stores each message as an email and records the original
// telephony columns in headers:
//
//	X-smssync-id        provider row id
//	X-smssync-address   counterparty address
//	X-smssync-type      1 received, 2 sent
//	X-smssync-date      epoch milliseconds
//	X-smssync-read      1 when read
//	X-smssync-datatype  SMS
//
// [Store] translates an [sms.QuerySpec] into an IMAP SEARCH over those
// headers (collection and address) plus BODY (search text), fetches the
// matching dates, keeps the newest Limit UIDs, and fetches only those
// messages. Parsing uses github.com/emersion/go-message, so quoted-printable
// and non-UTF-8 charsets decode to plain text.
//
// Gmail requires an app password; spaces in the password are stripped. IMAP
// substring matching is server-defined and usually case-insensitive.
package smsbackup
