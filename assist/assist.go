package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spachava753/smskit/sms"
)

const (
	// DefaultCount is the page size used when a caller asks for messages
	// without a count.
	DefaultCount = 20
	// ContextCount is how many messages Augment pulls into a prompt.
	ContextCount = 30

	dateLayout = "1/2/2006, 3:04:05 PM"
)

var keywords = []string{
	"sms",
	"text message",
	"text messages",
	"send a text",
	"send text",
	"send sms",
	"my texts",
	"my text",
	"recent texts",
	"recent text",
	"read my texts",
	"read my messages",
	"check my texts",
	"check my messages",
	"who texted",
	"who messaged",
	"unread texts",
	"unread text",
	"reply to text",
	"respond to text",
	"text back",
}

var actionPattern = regexp.MustCompile(`(?s)\[ACTION:SEND_SMS\](.*?)\[/ACTION\]`)

// SendAction is a send request proposed by an assistant reply.
type SendAction struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Parsed is an assistant reply with any action tag removed.
type Parsed struct {
	DisplayText string
	Action      *SendAction
}

// Reader is the read half of [sms.Service].
type Reader interface {
	GetMessages(ctx context.Context, filter sms.Filter, count int) ([]sms.Record, error)
}

// IsRelated reports whether text mentions text messaging.
func IsRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FormatContext renders records as an [SMS_CONTEXT] block. Times are shown
// in loc, or the local zone when loc is nil. No records renders "".
func FormatContext(records []sms.Record, loc *time.Location) string {
	if len(records) == 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}

	entries := make([]string, 0, len(records))
	for _, r := range records {
		direction := "TO"
		status := ""
		if r.Type == 1 {
			direction = "FROM"
			if !r.Read {
				status = " [UNREAD]"
			}
		}
		date := time.UnixMilli(r.Date).In(loc).Format(dateLayout)
		entries = append(entries, fmt.Sprintf("%s: %s | %s%s\n%s", direction, r.Address, date, status, r.Body))
	}

	return fmt.Sprintf("[SMS_CONTEXT]\nRecent text messages from this phone (%d messages):\n\n%s\n[/SMS_CONTEXT]",
		len(records), strings.Join(entries, "\n---\n"))
}

// ParseAction extracts the first [ACTION:SEND_SMS]{...}[/ACTION] tag. A tag
// whose payload is not valid JSON leaves the reply untouched.
func ParseAction(reply string) Parsed {
	loc := actionPattern.FindStringSubmatchIndex(reply)
	if loc == nil {
		return Parsed{DisplayText: reply}
	}

	var action SendAction
	if err := json.Unmarshal([]byte(reply[loc[2]:loc[3]]), &action); err != nil {
		return Parsed{DisplayText: reply}
	}
	return Parsed{
		DisplayText: strings.TrimSpace(reply[:loc[0]] + reply[loc[1]:]),
		Action:      &action,
	}
}

// Augment appends recent messages from every collection to prompt when the
// prompt is about texting. On a read failure the prompt is returned as is
// together with the error.
func Augment(ctx context.Context, reader Reader, prompt string, loc *time.Location) (string, error) {
	if !IsRelated(prompt) {
		return prompt, nil
	}
	records, err := reader.GetMessages(ctx, sms.Filter{Box: sms.BoxAll}, ContextCount)
	if err != nil {
		return prompt, err
	}
	if len(records) == 0 {
		return prompt, nil
	}
	return prompt + "\n\n" + FormatContext(records, loc), nil
}
