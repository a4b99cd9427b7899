// Package messages reads and sends text messages through macOS Messages.
//
// Data sources
//
//   - SQLite (~/Library/Messages/chat.db): Store implements sms.Store over the
//     message and handle tables. Set Store.Service to ServiceSMS to drop
//     iMessage rows.
//   - AppleScript (Messages.app): Transport implements sms.Transport and
//     tries SMS, then RCS, then iMessage accounts.
//
// Operational notes
//
//   - Reading chat.db requires Full Disk Access for the calling process.
//   - Sending requires macOS Automation permission for the calling process to
//     control Messages.app (System Settings -> Privacy & Security -> Automation).
//   - SQLite access uses github.com/mattn/go-sqlite3 (CGO required).
package messages
