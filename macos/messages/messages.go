package messages

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spachava753/smskit/sms"
	"github.com/spachava753/smskit/sms/gsm"
)

const (
	messagesDBRelativePath = "Library/Messages/chat.db"
	appleReferenceUnix     = int64(978307200) // 2001-01-01T00:00:00Z

	// ServiceSMS restricts a Store to carrier text messages.
	ServiceSMS = "SMS"
)

var columnFor = map[sms.Field]string{
	sms.FieldBody:    "m.text",
	sms.FieldAddress: "h.id",
	sms.FieldDate:    "m.date",
}

// Store reads the message table of a Messages chat.db.
type Store struct {
	db *sql.DB
	// Service limits rows to one service (for example ServiceSMS). Empty
	// means every service.
	Service string
}

// Open opens the chat database at path read-only. An empty path resolves to
// ~/Library/Messages/chat.db.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("messages: chat database unavailable at %s: %w", path, err)
	}

	db, err := openMessagesDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// DefaultPath returns ~/Library/Messages/chat.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("messages: unable to resolve home directory: %w", err)
	}
	return filepath.Join(home, messagesDBRelativePath), nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query runs spec against chat.db. Outbound rows (is_from_me) form the sent
// collection and are reported as read.
func (s *Store) Query(ctx context.Context, spec sms.QuerySpec) (sms.Cursor, error) {
	query, args := buildSQL(spec, s.Service)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil
		}
		return nil, fmt.Errorf("messages: sqlite query failed: %w", err)
	}
	return &cursor{rows: rows}, nil
}

func buildSQL(spec sms.QuerySpec, service string) (string, []any) {
	where := []string{"COALESCE(m.is_empty, 0) = 0"}
	var args []any

	switch spec.Box {
	case sms.BoxSent:
		where = append(where, "m.is_from_me = 1")
	case sms.BoxAll:
	default:
		where = append(where, "m.is_from_me = 0")
	}
	if service != "" {
		where = append(where, "m.service = ?")
		args = append(args, service)
	}
	for _, p := range spec.Predicates {
		column, ok := columnFor[p.Field]
		if !ok {
			continue
		}
		where = append(where, column+" LIKE ?")
		args = append(args, p.Pattern())
	}

	direction := "ASC"
	if spec.Order.Descending {
		direction = "DESC"
	}
	orderBy, ok := columnFor[spec.Order.Field]
	if !ok {
		orderBy = "m.date"
	}

	query := fmt.Sprintf(`SELECT
	m.ROWID,
	h.id,
	m.text,
	COALESCE(m.date, 0),
	CASE WHEN m.is_from_me = 1 THEN 2 ELSE 1 END,
	CASE WHEN m.is_from_me = 1 THEN 1 ELSE COALESCE(m.is_read, 0) END
FROM message m
LEFT JOIN handle h ON h.ROWID = m.handle_id
WHERE %s
ORDER BY %s %s
LIMIT ?`, strings.Join(where, " AND "), orderBy, direction)
	args = append(args, spec.Limit)
	return query, args
}

type cursor struct {
	rows *sql.Rows
}

func (c *cursor) Next() bool {
	return c.rows.Next()
}

func (c *cursor) Scan(dst *sms.RawRecord) error {
	var (
		rowID     sql.NullString
		appleDate int64
	)
	if err := c.rows.Scan(&rowID, &dst.Address, &dst.Body, &appleDate, &dst.Type, &dst.Read); err != nil {
		return fmt.Errorf("messages: scanning sqlite row failed: %w", err)
	}
	dst.ID = rowID.String
	dst.Date = appleToUnixMilli(appleDate)
	return nil
}

func (c *cursor) Err() error {
	if err := c.rows.Err(); err != nil {
		return fmt.Errorf("messages: iterating sqlite rows failed: %w", err)
	}
	return nil
}

func (c *cursor) Close() error {
	return c.rows.Close()
}

// appleToUnixMilli converts a chat.db date. Databases written before macOS
// 10.13 store seconds since the Apple epoch; later ones store nanoseconds.
func appleToUnixMilli(raw int64) int64 {
	if raw <= 0 {
		return 0
	}
	if raw < 1_000_000_000_000 {
		return (appleReferenceUnix + raw) * 1000
	}
	return appleReferenceUnix*1000 + raw/1_000_000
}

func openMessagesDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", strings.ReplaceAll(path, " ", "%20"))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("messages: opening sqlite database failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("messages: connecting to sqlite database failed: %w", err)
	}
	return db, nil
}

// ScriptRunner executes an AppleScript program with arguments.
type ScriptRunner func(ctx context.Context, lines []string, args []string) (string, error)

// Transport sends through Messages.app. It tries the preferred service
// first and then falls back to the others.
type Transport struct {
	Services []string
	Run      ScriptRunner
}

// NewTransport returns a Transport that prefers SMS, then RCS, then iMessage.
func NewTransport() *Transport {
	return &Transport{
		Services: []string{ServiceSMS, "RCS", "iMessage"},
		Run:      runAppleScript,
	}
}

// Divide splits body with GSM 03.38 segment sizes.
func (t *Transport) Divide(body string) []string {
	return gsm.Segmenter{}.Divide(body)
}

// SendText sends body to handle.
func (t *Transport) SendText(ctx context.Context, handle string, body string) error {
	return t.sendToHandle(ctx, handle, body)
}

// SendMultipart sends parts in order. Messages.app has no multipart API, so
// each part is its own send.
func (t *Transport) SendMultipart(ctx context.Context, handle string, parts []string) error {
	for i, part := range parts {
		if err := t.sendToHandle(ctx, handle, part); err != nil {
			return fmt.Errorf("part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

func (t *Transport) sendToHandle(ctx context.Context, handle string, body string) error {
	handle = normalizeHandleForSend(handle)
	if handle == "" {
		return errors.New("messages: handle is required")
	}
	run := t.Run
	if run == nil {
		run = runAppleScript
	}

	script := []string{
		`on run argv`,
		`set targetHandle to item 1 of argv`,
		`set bodyText to item 2 of argv`,
		`set desiredService to item 3 of argv`,
		`tell application "Messages"`,
		`set targetAccount to first account whose service type is desiredService`,
		`set targetParticipant to participant targetHandle of targetAccount`,
		`send bodyText to targetParticipant`,
		`end tell`,
		`end run`,
	}

	seen := map[string]struct{}{}
	var lastErr error
	for _, service := range t.Services {
		service = normalizeServiceName(service)
		if service == "" {
			continue
		}
		if _, ok := seen[service]; ok {
			continue
		}
		seen[service] = struct{}{}

		_, err := run(ctx, script, []string{handle, body, service})
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("no service account available")
	}
	return fmt.Errorf("messages: send to handle %q failed: %w", handle, lastErr)
}

func runAppleScript(ctx context.Context, lines []string, args []string) (string, error) {
	cmdArgs := make([]string, 0, len(lines)*2+len(args))
	for _, line := range lines {
		cmdArgs = append(cmdArgs, "-e", line)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, "/usr/bin/osascript", cmdArgs...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(out.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

func normalizeHandleForSend(handle string) string {
	handle = strings.TrimSpace(handle)
	if i := strings.Index(handle, "("); i > 0 && strings.HasSuffix(handle, ")") {
		handle = strings.TrimSpace(handle[:i])
	}
	return handle
}

func normalizeServiceName(service string) string {
	switch strings.ToLower(strings.TrimSpace(service)) {
	case "imessage":
		return "iMessage"
	case "sms":
		return "SMS"
	case "rcs":
		return "RCS"
	default:
		return ""
	}
}

var (
	_ sms.Store     = (*Store)(nil)
	_ sms.Transport = (*Transport)(nil)
)
