package smsbackup

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/nalgeon/be"

	"github.com/spachava753/smskit/sms"
)

type archived struct {
	id      string
	address string
	typ     int
	date    int64
	read    int
	body    string
}

func (a archived) raw() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: SMS with %s\r\n", a.address)
	fmt.Fprintf(&b, "From: %s <%s@unknown.email>\r\n", a.address, a.address)
	fmt.Fprintf(&b, "X-smssync-id: %s\r\n", a.id)
	fmt.Fprintf(&b, "X-smssync-address: %s\r\n", a.address)
	b.WriteString("X-smssync-datatype: SMS\r\n")
	fmt.Fprintf(&b, "X-smssync-type: %d\r\n", a.typ)
	fmt.Fprintf(&b, "X-smssync-date: %d\r\n", a.date)
	fmt.Fprintf(&b, "X-smssync-read: %d\r\n", a.read)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(a.body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func startArchive(t *testing.T, msgs ...archived) *Store {
	t.Helper()
	backend := memory.New()
	user, err := backend.Login(nil, "username", "password")
	be.Err(t, err, nil)
	be.Err(t, user.CreateMailbox(DefaultMailbox), nil)
	mbox, err := user.GetMailbox(DefaultMailbox)
	be.Err(t, err, nil)
	for _, m := range msgs {
		be.Err(t, mbox.CreateMessage(nil, time.UnixMilli(m.date), bytes.NewBuffer(m.raw())), nil)
	}

	srv := server.New(backend)
	srv.AllowInsecureAuth = true
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	be.Err(t, err, nil)
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	store, err := New(Config{Addr: ln.Addr().String(), Username: "username", Password: "password", Insecure: true})
	be.Err(t, err, nil)
	return store
}

var fixtures = []archived{
	{id: "11", address: "+15550001", typ: 1, date: 1000, read: 1, body: "hello there"},
	{id: "12", address: "+15550001", typ: 2, date: 2000, read: 1, body: "on my way"},
	{id: "13", address: "+15550002", typ: 1, date: 3000, read: 0, body: "lunch tomorrow?"},
}

func query(t *testing.T, store *Store, filter sms.Filter, count int) []sms.Record {
	t.Helper()
	cur, err := store.Query(context.Background(), sms.BuildQuery(filter, count))
	be.Err(t, err, nil)
	records, err := sms.Normalize(cur)
	be.Err(t, err, nil)
	return records
}

func ids(records []sms.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestQueryArchive(t *testing.T) {
	store := startArchive(t, fixtures...)

	inbox := query(t, store, sms.Filter{}, 10)
	be.Equal(t, ids(inbox), []string{"13", "11"})
	be.Equal(t, inbox[0], sms.Record{ID: "13", Address: "+15550002", Body: "lunch tomorrow?", Date: 3000, Type: 1, Read: false})

	sent := query(t, store, sms.Filter{Box: sms.BoxSent}, 10)
	be.Equal(t, ids(sent), []string{"12"})

	byAddress := query(t, store, sms.Filter{Box: sms.BoxAll, Address: "0001"}, 10)
	be.Equal(t, ids(byAddress), []string{"12", "11"})

	bySearch := query(t, store, sms.Filter{Box: sms.BoxAll, Search: "lunch"}, 10)
	be.Equal(t, ids(bySearch), []string{"13"})

	newest := query(t, store, sms.Filter{Box: sms.BoxAll}, 1)
	be.Equal(t, ids(newest), []string{"13"})
}

func TestQueryMissingMailboxIsEmpty(t *testing.T) {
	store := startArchive(t)
	store.cfg.Mailbox = "Nope"

	cur, err := store.Query(context.Background(), sms.BuildQuery(sms.Filter{}, 10))
	be.Err(t, err, nil)
	be.True(t, cur == nil)
}

func TestQueryBadCredentials(t *testing.T) {
	store := startArchive(t)
	store.cfg.Password = "wrong"

	_, err := store.Query(context.Background(), sms.BuildQuery(sms.Filter{}, 10))
	be.Err(t, err, "IMAP login failed")
}

func TestBuildSearchCriteria(t *testing.T) {
	criteria := buildSearchCriteria(sms.BuildQuery(sms.Filter{Box: sms.BoxSent, Search: "hi", Address: "555"}, 5))
	be.Equal(t, criteria.Header.Get(headerType), "2")
	be.Equal(t, criteria.Header.Get(headerAddress), "555")
	be.Equal(t, criteria.Header.Get(headerDataType), "SMS")
	be.Equal(t, criteria.Body, []string{"hi"})

	criteria = buildSearchCriteria(sms.BuildQuery(sms.Filter{Box: sms.BoxAll}, 5))
	be.Equal(t, criteria.Header.Get(headerType), "")

	criteria = buildSearchCriteria(sms.BuildQuery(sms.Filter{Box: "drafts"}, 5))
	be.Equal(t, criteria.Header.Get(headerType), "1")
}

func TestSelectNewest(t *testing.T) {
	got := selectNewest([]datedUID{{UID: 1, Date: 10}, {UID: 2, Date: 30}, {UID: 3, Date: 30}, {UID: 4, Date: 20}}, 3)
	be.Equal(t, got, []datedUID{{UID: 3, Date: 30}, {UID: 2, Date: 30}, {UID: 4, Date: 20}})
}

func TestParseRecordMultipartAndMissingAddress(t *testing.T) {
	raw := "X-smssync-id: 77\r\n" +
		"X-smssync-type: 1\r\n" +
		"X-smssync-date: 42\r\n" +
		"Content-Type: multipart/alternative; boundary=b1\r\n" +
		"\r\n" +
		"--b1\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"caf=C3=A9 at 8\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>ignored</p>\r\n" +
		"--b1--\r\n"

	record, err := parseRecord(strings.NewReader(raw))
	be.Err(t, err, nil)
	be.Equal(t, record.ID, "77")
	be.Equal(t, record.Address.Valid, false)
	be.Equal(t, record.Body.String, "café at 8")
	be.Equal(t, record.Date, int64(42))
	be.Equal(t, record.Read, int64(0))
}

func TestParseRecordKeepsTrailingNewlines(t *testing.T) {
	raw := "X-smssync-id: 5\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"line one\r\nline two\r\n\r\n"

	record, err := parseRecord(strings.NewReader(raw))
	be.Err(t, err, nil)
	be.Equal(t, record.Body.String, "line one\nline two\n")
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Username: "u", Password: "p"})
	be.Err(t, err, "IMAP address is required")

	_, err = New(Config{Addr: "imap.gmail.com:993"})
	be.Err(t, err, "username and password are required")

	store, err := New(Config{Addr: "imap.gmail.com:993", Username: "u", Password: "abcd efgh"})
	be.Err(t, err, nil)
	be.Equal(t, store.cfg.Mailbox, DefaultMailbox)
	be.Equal(t, store.cfg.Password, "abcdefgh")
}
