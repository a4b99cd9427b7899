// Package gateway sends text messages through a carrier email-to-SMS
// gateway.
//
// Most carriers accept mail addressed to <number>@<gateway domain> and
// forward the body as SMS. [Transport] implements [sms.Transport]: it keeps
// the digits of the destination, composes each segment as a text/plain
// quoted-printable message, and submits it over SMTP with PLAIN auth.
//
// Multipart bodies are divided with [gsm.Segmenter] and every part is sent,
// in order, over one SMTP session. A token-bucket limiter paces segment
// submission so relays with per-second quotas are not tripped.
//
// Example:
//
//	tr, err := gateway.New(gateway.Config{
//		Addr:     "smtp.gmail.com:465",
//		Username: "me@gmail.com",
//		Password: os.Getenv("SMSKIT_GATEWAY_PASSWORD"),
//		From:     "me@gmail.com",
//		Domain:   "vtext.com",
//	})
package gateway
