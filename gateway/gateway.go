package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"golang.org/x/time/rate"

	"github.com/spachava753/smskit/sms"
	"github.com/spachava753/smskit/sms/gsm"
)

// Connection security modes.
const (
	SecurityImplicitTLS = "tls"
	SecurityStartTLS    = "starttls"
	SecurityNone        = "none"
)

// Config describes the SMTP relay and the carrier's email-to-SMS domain.
type Config struct {
	Addr     string
	Security string
	Username string
	Password string
	From     string
	// Domain is the carrier gateway domain, e.g. "vtext.com".
	Domain string
	// PerSecond caps segments submitted per second. Zero means unlimited.
	PerSecond float64
	Burst     int
}

// Transport delivers segments as email to <digits>@Domain.
type Transport struct {
	cfg     Config
	limiter *rate.Limiter
	now     func() time.Time
}

// New validates cfg and returns a Transport.
func New(cfg Config) (*Transport, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Domain = strings.Trim(strings.TrimSpace(cfg.Domain), "@")
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.Security = strings.ToLower(strings.TrimSpace(cfg.Security))
	if cfg.Security == "" {
		cfg.Security = SecurityImplicitTLS
	}

	switch {
	case cfg.Addr == "":
		return nil, errors.New("gateway: SMTP address is required")
	case cfg.Domain == "":
		return nil, errors.New("gateway: carrier domain is required")
	case cfg.From == "":
		return nil, errors.New("gateway: sender address is required")
	}
	switch cfg.Security {
	case SecurityImplicitTLS, SecurityStartTLS, SecurityNone:
	default:
		return nil, fmt.Errorf("gateway: unknown security mode %q", cfg.Security)
	}

	limit := rate.Inf
	if cfg.PerSecond > 0 {
		limit = rate.Limit(cfg.PerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Transport{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}, nil
}

// Divide splits body with GSM 03.38 segment sizes.
func (t *Transport) Divide(body string) []string {
	return gsm.Segmenter{}.Divide(body)
}

// SendText mails body as one message.
func (t *Transport) SendText(ctx context.Context, address, body string) error {
	return t.deliver(ctx, address, []string{body})
}

// SendMultipart mails parts in order over a single SMTP session.
func (t *Transport) SendMultipart(ctx context.Context, address string, parts []string) error {
	if len(parts) == 0 {
		return errors.New("gateway: no parts to send")
	}
	return t.deliver(ctx, address, parts)
}

func (t *Transport) deliver(ctx context.Context, address string, parts []string) error {
	recipient, err := t.recipient(address)
	if err != nil {
		return err
	}

	smtpClient, err := t.connect()
	if err != nil {
		return err
	}
	defer smtpClient.Close()

	for i, part := range parts {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("gateway: rate wait failed: %w", err)
		}
		raw, err := t.compose(recipient, part)
		if err != nil {
			return err
		}
		if err := submit(smtpClient, t.cfg.From, recipient, raw); err != nil {
			return fmt.Errorf("gateway: part %d/%d: %w", i+1, len(parts), err)
		}
	}

	if err := smtpClient.Quit(); err != nil {
		return fmt.Errorf("gateway: QUIT failed: %w", err)
	}
	return nil
}

func submit(smtpClient *smtp.Client, from, recipient string, raw []byte) error {
	if err := smtpClient.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := smtpClient.Rcpt(recipient, nil); err != nil {
		return fmt.Errorf("RCPT TO %q failed: %w", recipient, err)
	}
	writer, err := smtpClient.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		writer.Close()
		return fmt.Errorf("writing message failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing message failed: %w", err)
	}
	return nil
}

// recipient keeps the digits of address and appends the carrier domain.
func (t *Transport) recipient(address string) (string, error) {
	var digits strings.Builder
	for _, r := range address {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return "", fmt.Errorf("gateway: address %q has no digits", address)
	}
	return digits.String() + "@" + t.cfg.Domain, nil
}

func (t *Transport) compose(recipient, text string) ([]byte, error) {
	var h mail.Header
	h.SetDate(t.now())
	h.SetAddressList("From", []*mail.Address{{Address: t.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: recipient}})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("gateway: generating message id failed: %w", err)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("gateway: composing message failed: %w", err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return nil, fmt.Errorf("gateway: composing message failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gateway: composing message failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Transport) connect() (*smtp.Client, error) {
	host, _, err := net.SplitHostPort(t.cfg.Addr)
	if err != nil {
		host = t.cfg.Addr
	}
	tlsConfig := &tls.Config{ServerName: host}

	var smtpClient *smtp.Client
	switch t.cfg.Security {
	case SecurityNone:
		smtpClient, err = smtp.Dial(t.cfg.Addr)
	case SecurityStartTLS:
		smtpClient, err = smtp.DialStartTLS(t.cfg.Addr, tlsConfig)
	default:
		smtpClient, err = smtp.DialTLS(t.cfg.Addr, tlsConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("gateway: SMTP dial failed: %w", err)
	}

	if t.cfg.Username != "" {
		auth := sasl.NewPlainClient("", t.cfg.Username, strings.ReplaceAll(t.cfg.Password, " ", ""))
		if err := smtpClient.Auth(auth); err != nil {
			smtpClient.Close()
			return nil, fmt.Errorf("gateway: SMTP auth failed: %w", err)
		}
	}
	return smtpClient, nil
}

var _ sms.Transport = (*Transport)(nil)
