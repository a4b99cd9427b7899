package sms

import "database/sql"

// Box selects which message collection a read targets.
type Box string

const (
	// BoxInbox selects received messages. It is the default.
	BoxInbox Box = "inbox"
	// BoxSent selects messages sent from the device.
	BoxSent Box = "sent"
	// BoxAll selects the unified collection.
	BoxAll Box = "all"
)

// ParseBox maps a caller-supplied box name to a Box. Only the exact values
// "sent" and "all" select those collections; anything else is BoxInbox.
func ParseBox(value string) Box {
	switch value {
	case "sent":
		return BoxSent
	case "all":
		return BoxAll
	default:
		return BoxInbox
	}
}

// Filter controls which messages [Service.GetMessages] returns.
//
// The zero value reads the inbox with no text filters. Search matches a
// substring of the message body; Address matches a substring of the
// sender/recipient address.
type Filter struct {
	Box     Box
	Search  string
	Address string
}

// Record is one normalized message row.
//
// Date is epoch milliseconds exactly as the provider stored it. Type is the
// provider's folder/direction code (1 received, 2 sent on Android).
type Record struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Body    string `json:"body"`
	Date    int64  `json:"date"`
	Type    int    `json:"type"`
	Read    bool   `json:"read"`
}

// RawRecord is one row as a provider returns it, before normalization.
type RawRecord struct {
	ID      string
	Address sql.NullString
	Body    sql.NullString
	Date    int64
	Type    int
	Read    int64
}

// SendRequest is the input to [Service.SendMessage].
type SendRequest struct {
	Address string
	Body    string
}

// SendResult reports a completed send.
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
