package android

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/spachava753/smskit/sms"
)

const (
	// DefaultRelativePath is where the telephony provider keeps its database
	// inside an extracted Android data directory.
	DefaultRelativePath = "data/com.android.providers.telephony/databases/mmssms.db"

	typeInbox = 1
	typeSent  = 2
)

// Store reads the sms table of an Android telephony database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path read-only.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("android: database path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("android: message database unavailable at %s: %w", path, err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// DefaultPath resolves DefaultRelativePath under root.
func DefaultPath(root string) string {
	return filepath.Join(root, DefaultRelativePath)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query runs spec against the sms table. The returned cursor wraps the
// driver's rows and must be closed by the caller. A database without an sms
// table yields a nil cursor.
func (s *Store) Query(ctx context.Context, spec sms.QuerySpec) (sms.Cursor, error) {
	query, args := buildSQL(spec)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("android: sqlite query failed: %w", err)
	}
	return &cursor{rows: rows}, nil
}

func buildSQL(spec sms.QuerySpec) (string, []any) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)

	switch spec.Box {
	case sms.BoxSent:
		where = append(where, "type = ?")
		args = append(args, typeSent)
	case sms.BoxAll:
	default:
		where = append(where, "type = ?")
		args = append(args, typeInbox)
	}

	if cond, condArgs := spec.Where(); cond != "" {
		where = append(where, cond)
		args = append(args, condArgs...)
	}

	query := "SELECT _id, address, body, COALESCE(date, 0), COALESCE(type, 0), COALESCE(read, 0) FROM sms"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	direction := "ASC"
	if spec.Order.Descending {
		direction = "DESC"
	}
	orderBy := spec.Order.Field
	if orderBy == "" {
		orderBy = sms.FieldDate
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT ?", orderBy, direction)
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
	var id sql.NullString
	if err := c.rows.Scan(&id, &dst.Address, &dst.Body, &dst.Date, &dst.Type, &dst.Read); err != nil {
		return fmt.Errorf("android: scanning sqlite row failed: %w", err)
	}
	dst.ID = id.String
	return nil
}

func (c *cursor) Err() error {
	if err := c.rows.Err(); err != nil {
		return fmt.Errorf("android: iterating sqlite rows failed: %w", err)
	}
	return nil
}

func (c *cursor) Close() error {
	return c.rows.Close()
}

func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", strings.ReplaceAll(path, " ", "%20"))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("android: opening sqlite database failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("android: connecting to sqlite database failed: %w", err)
	}
	return db, nil
}

func isMissingTable(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrError {
		return strings.Contains(sqliteErr.Error(), "no such table")
	}
	return strings.Contains(err.Error(), "no such table")
}

var _ sms.Store = (*Store)(nil)
