package sms

import (
	"context"
	"errors"
	"fmt"
)

// Store is a queryable, ordered message-record provider.
//
// Query may return a nil Cursor with a nil error when the requested
// collection is not accessible; callers treat that as zero rows.
type Store interface {
	Query(ctx context.Context, spec QuerySpec) (Cursor, error)
}

// Cursor is a provider result handle. It is owned by exactly one call and
// must be closed by it.
type Cursor interface {
	Next() bool
	Scan(dst *RawRecord) error
	Err() error
	Close() error
}

// Normalize drains cur into Records, preserving provider order, and closes
// it on every path.
func Normalize(cur Cursor) (records []Record, err error) {
	records = []Record{}
	if cur == nil {
		return records, nil
	}
	defer func() {
		if cerr := cur.Close(); cerr != nil && err == nil {
			records = nil
			err = fmt.Errorf("releasing cursor: %w", cerr)
		}
	}()

	for cur.Next() {
		var raw RawRecord
		if err := cur.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, normalizeRecord(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

func normalizeRecord(raw RawRecord) Record {
	return Record{
		ID:      raw.ID,
		Address: nullToEmpty(raw.Address.String, raw.Address.Valid),
		Body:    nullToEmpty(raw.Body.String, raw.Body.Valid),
		Date:    raw.Date,
		Type:    raw.Type,
		Read:    raw.Read == 1,
	}
}

func nullToEmpty(value string, valid bool) string {
	if !valid {
		return ""
	}
	return value
}

// SliceCursor is an in-memory Cursor over already fetched rows. Providers
// that cannot stream (IMAP) return one; OnClose releases their session.
type SliceCursor struct {
	Rows    []RawRecord
	OnClose func() error

	pos    int
	closed bool
}

func (c *SliceCursor) Next() bool {
	if c.closed || c.pos >= len(c.Rows) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Scan(dst *RawRecord) error {
	if c.closed {
		return errors.New("cursor closed")
	}
	if c.pos == 0 || c.pos > len(c.Rows) {
		return errors.New("scan called without a current row")
	}
	*dst = c.Rows[c.pos-1]
	return nil
}

func (c *SliceCursor) Err() error {
	return nil
}

func (c *SliceCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.OnClose != nil {
		return c.OnClose()
	}
	return nil
}

var _ Cursor = (*SliceCursor)(nil)
