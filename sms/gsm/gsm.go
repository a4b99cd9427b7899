// Package gsm implements encoding-aware SMS segmentation.
//
// A body that only uses the GSM 03.38 default alphabet is sent as 7-bit
// septets (160 per single message, 153 per part of a concatenated message).
// Anything else is sent as UCS-2 (70 single, 67 per part). Characters from
// the GSM extension table cost two septets.
package gsm

import "unicode/utf16"

// Encoding is the data coding a body is transmitted with.
type Encoding int

const (
	GSM7 Encoding = iota
	UCS2
)

func (e Encoding) String() string {
	if e == UCS2 {
		return "ucs2"
	}
	return "gsm7"
}

// Capacities in septets (GSM7) or UTF-16 code units (UCS2).
const (
	SingleGSM7    = 160
	MultipartGSM7 = 153
	SingleUCS2    = 70
	MultipartUCS2 = 67
)

const (
	basicAlphabet = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
		"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"
	extensionAlphabet = "\f^{}\\[~]|€"
)

var (
	basic     = runeSet(basicAlphabet)
	extension = runeSet(extensionAlphabet)
)

func runeSet(s string) map[rune]struct{} {
	m := make(map[rune]struct{}, len(s))
	for _, r := range s {
		m[r] = struct{}{}
	}
	return m
}

// Detect returns GSM7 when every rune of body is representable in the GSM
// default alphabet or its extension table, UCS2 otherwise.
func Detect(body string) Encoding {
	for _, r := range body {
		if _, ok := basic[r]; ok {
			continue
		}
		if _, ok := extension[r]; ok {
			continue
		}
		return UCS2
	}
	return GSM7
}

// Units returns the length of body in its detected encoding.
func Units(body string) int {
	enc := Detect(body)
	n := 0
	for _, r := range body {
		n += cost(enc, r)
	}
	return n
}

func cost(enc Encoding, r rune) int {
	if enc == GSM7 {
		if _, ok := extension[r]; ok {
			return 2
		}
		return 1
	}
	if utf16.RuneLen(r) == 2 {
		return 2
	}
	return 1
}

func capacities(enc Encoding) (single int, multipart int) {
	if enc == UCS2 {
		return SingleUCS2, MultipartUCS2
	}
	return SingleGSM7, MultipartGSM7
}

// Policy decides single-part delivery by encoding: 160 septets for GSM7
// bodies, 70 code units for UCS2 bodies.
type Policy struct{}

func (Policy) SinglePart(body string) bool {
	single, _ := capacities(Detect(body))
	return Units(body) <= single
}

// Segmenter splits bodies the way a handset does for concatenated SMS.
type Segmenter struct{}

// Divide returns the ordered parts of body. A body that fits a single
// message is returned as one part. Escape sequences and surrogate pairs are
// never split across parts, and the parts concatenate back to body.
func (Segmenter) Divide(body string) []string {
	if body == "" {
		return nil
	}
	enc := Detect(body)
	single, multipart := capacities(enc)
	if Units(body) <= single {
		return []string{body}
	}

	var parts []string
	start, used := 0, 0
	for i, r := range body {
		c := cost(enc, r)
		if used+c > multipart {
			parts = append(parts, body[start:i])
			start, used = i, 0
		}
		used += c
	}
	parts = append(parts, body[start:])
	return parts
}
