package portal

import (
	"encoding/hex"
	"regexp"
)

var (
	cfEmailAttrRe = regexp.MustCompile(`data-cfemail="([a-f0-9]+)"`)
	emailShapeRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// looser variant used to spot literal addresses inside free text
	emailInTextRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// DecodeObfuscatedEmail extracts and decodes an XOR-obfuscated contact email
// from a markup fragment. The payload is a hex string whose first byte is the
// XOR key; every following byte is XOR-ed with it. Anything that does not
// decode to a syntactically valid address is reported as absent rather than
// propagated.
func DecodeObfuscatedEmail(markup string) (string, bool) {
	m := cfEmailAttrRe.FindStringSubmatch(markup)
	if m == nil {
		return "", false
	}
	return DecodePayload(m[1])
}

// DecodePayload decodes a bare hex payload (the data-cfemail attribute value).
func DecodePayload(payload string) (string, bool) {
	raw, err := hex.DecodeString(payload)
	if err != nil || len(raw) < 2 {
		return "", false
	}

	key := raw[0]
	decoded := make([]byte, 0, len(raw)-1)
	for _, b := range raw[1:] {
		decoded = append(decoded, b^key)
	}

	email := string(decoded)
	if !emailShapeRe.MatchString(email) {
		return "", false
	}
	return email, true
}

// FindLiteralEmail locates a plain email-shaped substring in free text. Used
// as the fallback when a row carries no obfuscated anchor.
func FindLiteralEmail(text string) (string, bool) {
	email := emailInTextRe.FindString(text)
	return email, email != ""
}
