package portal

import "time"

// RawPostingRecord is one candidate posting as lifted off a board page. It
// lives only within a harvest pass; decoding and fingerprinting turn it into
// a persisted Posting.
type RawPostingRecord struct {
	Title                 string
	DescriptionText       string
	ObfuscatedEmailMarkup string
	SourcePageURL         string
	PostedAt              *time.Time
}

// ContactEmail resolves the record's contact address: the obfuscated anchor is
// authoritative when present, a literal address in the detail text is the
// fallback. ok is false when neither yields a valid address (the record is
// still admissible, with an absent contact).
func (r RawPostingRecord) ContactEmail() (string, bool) {
	if r.ObfuscatedEmailMarkup != "" {
		if email, ok := DecodeObfuscatedEmail(r.ObfuscatedEmailMarkup); ok {
			return email, true
		}
	}
	return FindLiteralEmail(r.DescriptionText)
}

// rowResult is the outcome of extracting a single table row: either a record
// or a reason the row was skipped. Page-level failures abort the run through
// ordinary error returns instead.
type rowResult struct {
	record *RawPostingRecord
	skip   string
}
