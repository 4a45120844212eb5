package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Posting is a job offer harvested from the portal. The fingerprint is its
// natural key: the same (title, email, description) triple always maps to the
// same row, no matter how many harvest runs see it.
type Posting struct {
	ID           int       `gorm:"primaryKey"`
	Fingerprint  string    `gorm:"uniqueIndex;size:64"`
	Title        string    `gorm:"size:255"`
	Description  string
	ContactEmail string `gorm:"index;size:255"`
	SourceURL    string
	PostedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Fingerprint derives the stable identity of a posting from the case-preserved
// pipe-joined triple. Any single-character change in any field yields a
// different value.
func Fingerprint(title, email, description string) string {
	sum := sha256.Sum256([]byte(title + "|" + email + "|" + description))
	return hex.EncodeToString(sum[:])
}
