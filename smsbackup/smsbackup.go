package smsbackup

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/textproto"

	"github.com/spachava753/smskit/sms"
)

const (
	// DefaultMailbox is the label SMS Backup+ writes to.
	DefaultMailbox = "SMS"

	headerID       = "X-smssync-id"
	headerAddress  = "X-smssync-address"
	headerType     = "X-smssync-type"
	headerDate     = "X-smssync-date"
	headerRead     = "X-smssync-read"
	headerDataType = "X-smssync-datatype"

	dataTypeSMS = "SMS"
)

// Config describes the IMAP account holding the archive.
type Config struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	// Insecure dials without TLS. Only meant for local test servers.
	Insecure bool
}

// Store serves an SMS Backup+ IMAP archive as an [sms.Store]. Every Query
// opens its own IMAP session; the returned cursor logs it out on Close.
type Store struct {
	cfg Config
}

// New validates cfg and returns a Store.
func New(cfg Config) (*Store, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.ReplaceAll(cfg.Password, " ", "")
	if cfg.Mailbox == "" {
		cfg.Mailbox = DefaultMailbox
	}
	if cfg.Addr == "" {
		return nil, errors.New("smsbackup: IMAP address is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("smsbackup: IMAP username and password are required")
	}
	return &Store{cfg: cfg}, nil
}

// Query searches the archive mailbox. A mailbox that cannot be selected
// yields a nil cursor.
func (s *Store) Query(ctx context.Context, spec sms.QuerySpec) (sms.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	imapClient, err := s.connect()
	if err != nil {
		return nil, err
	}

	if _, err := imapClient.Select(s.cfg.Mailbox, true); err != nil {
		imapClient.Logout()
		return nil, nil
	}

	rows, err := queryArchive(imapClient, spec)
	if err != nil {
		imapClient.Logout()
		return nil, err
	}

	return &sms.SliceCursor{Rows: rows, OnClose: imapClient.Logout}, nil
}

func queryArchive(imapClient *client.Client, spec sms.QuerySpec) ([]sms.RawRecord, error) {
	uids, err := imapClient.UidSearch(buildSearchCriteria(spec))
	if err != nil {
		return nil, fmt.Errorf("smsbackup: searching messages failed: %w", err)
	}
	if len(uids) == 0 {
		return []sms.RawRecord{}, nil
	}

	dated, err := fetchDates(imapClient, uids)
	if err != nil {
		return nil, err
	}
	newest := selectNewest(dated, spec.Limit)
	return fetchRecords(imapClient, newest)
}

func buildSearchCriteria(spec sms.QuerySpec) *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add(headerDataType, dataTypeSMS)

	switch spec.Box {
	case sms.BoxSent:
		criteria.Header.Add(headerType, "2")
	case sms.BoxAll:
	default:
		criteria.Header.Add(headerType, "1")
	}

	for _, p := range spec.Predicates {
		switch p.Field {
		case sms.FieldBody:
			criteria.Body = append(criteria.Body, p.Value)
		case sms.FieldAddress:
			criteria.Header.Add(headerAddress, p.Value)
		}
	}
	return criteria
}

type datedUID struct {
	UID  uint32
	Date int64
}

func fetchDates(imapClient *client.Client, uids []uint32) ([]datedUID, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier, Fields: []string{headerDate}},
		Peek:         true,
	}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids)+8)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.UidFetch(seqSet, items, messages)
	}()

	out := make([]datedUID, 0, len(uids))
	var readErr error
	for msg := range messages {
		entry := datedUID{UID: msg.Uid}
		if literal := msg.GetBody(section); literal != nil && readErr == nil {
			header, err := textproto.ReadHeader(bufio.NewReader(literal))
			if err != nil {
				readErr = fmt.Errorf("smsbackup: reading fetched header failed: %w", err)
				continue
			}
			entry.Date = parseInt(header.Get(headerDate))
		}
		out = append(out, entry)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("smsbackup: fetching dates failed: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}
	return out, nil
}

// selectNewest orders by date descending (UID descending on ties) and keeps
// the first limit entries.
func selectNewest(dated []datedUID, limit int) []datedUID {
	sort.SliceStable(dated, func(i, j int) bool {
		if dated[i].Date == dated[j].Date {
			return dated[i].UID > dated[j].UID
		}
		return dated[i].Date > dated[j].Date
	})
	if limit > 0 && len(dated) > limit {
		dated = dated[:limit]
	}
	return dated
}

func fetchRecords(imapClient *client.Client, ordered []datedUID) ([]sms.RawRecord, error) {
	if len(ordered) == 0 {
		return []sms.RawRecord{}, nil
	}
	position := make(map[uint32]int, len(ordered))
	seqSet := new(imap.SeqSet)
	for i, d := range ordered {
		position[d.UID] = i
		seqSet.AddNum(d.UID)
	}

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(ordered)+8)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.UidFetch(seqSet, items, messages)
	}()

	rows := make([]sms.RawRecord, len(ordered))
	found := make([]bool, len(ordered))
	var parseErr error
	for msg := range messages {
		i, ok := position[msg.Uid]
		if !ok || parseErr != nil {
			continue
		}
		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		record, err := parseRecord(literal)
		if err != nil {
			parseErr = fmt.Errorf("smsbackup: parsing message %d failed: %w", msg.Uid, err)
			continue
		}
		if record.ID == "" {
			record.ID = strconv.FormatUint(uint64(msg.Uid), 10)
		}
		rows[i] = record
		found[i] = true
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("smsbackup: fetching messages failed: %w", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	out := rows[:0]
	for i := range rows {
		if found[i] {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// parseRecord maps one archived message onto a raw provider row.
func parseRecord(r io.Reader) (sms.RawRecord, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return sms.RawRecord{}, err
	}

	record := sms.RawRecord{
		ID:   strings.TrimSpace(entity.Header.Get(headerID)),
		Date: parseInt(entity.Header.Get(headerDate)),
		Type: int(parseInt(entity.Header.Get(headerType))),
		Read: parseInt(entity.Header.Get(headerRead)),
	}
	if address := strings.TrimSpace(entity.Header.Get(headerAddress)); address != "" {
		record.Address.String = address
		record.Address.Valid = true
	}

	body, ok, err := textBody(entity)
	if err != nil {
		return sms.RawRecord{}, err
	}
	if ok {
		record.Body.String = body
		record.Body.Valid = true
	}
	return record, nil
}

func textBody(entity *message.Entity) (string, bool, error) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return "", false, nil
			}
			if err != nil {
				return "", false, err
			}
			mediaType, _, _ := part.Header.ContentType()
			if mediaType == "" || mediaType == "text/plain" {
				return textBody(part)
			}
		}
	}

	raw, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", false, err
	}
	body := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return strings.TrimSuffix(body, "\n"), true, nil
}

func parseInt(raw string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func (s *Store) connect() (*client.Client, error) {
	var (
		imapClient *client.Client
		err        error
	)
	if s.cfg.Insecure {
		imapClient, err = client.Dial(s.cfg.Addr)
	} else {
		host, _, splitErr := net.SplitHostPort(s.cfg.Addr)
		if splitErr != nil {
			host = s.cfg.Addr
		}
		imapClient, err = client.DialTLS(s.cfg.Addr, &tls.Config{ServerName: host})
	}
	if err != nil {
		return nil, fmt.Errorf("smsbackup: IMAP dial failed: %w", err)
	}

	if err := imapClient.Login(s.cfg.Username, s.cfg.Password); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("smsbackup: IMAP login failed: %w", err)
	}
	return imapClient, nil
}

var _ sms.Store = (*Store)(nil)
