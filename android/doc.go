// Package android reads text messages from an Android telephony database.
//
// The telephony provider stores SMS in mmssms.db, table sms. This package
// opens a copy of that database read-only (for example one pulled with
// `adb backup` or from a rooted device) and serves it as an [sms.Store].
//
// Collections map onto the type column the same way the content provider
// does:
//
//   - inbox: type = 1
//   - sent:  type = 2
//   - all:   no type condition
//
// Rows are returned newest first (ORDER BY date DESC) with a bound LIMIT.
// Predicates are bound parameters, never interpolated.
//
// SQLite access uses github.com/mattn/go-sqlite3 (CGO required).
package android
