package models

import "time"

// MatchResult is the outcome of scoring one resume profile against one
// posting. Score is 0-100 rounded to one decimal, Confidence 0-1 rounded to
// two.
type MatchResult struct {
	Score         float64
	Confidence    float64
	MatchedSkills []string
	MissingSkills []string
	ExtraSkills   []string
	Details       MatchDetails
}

// MatchDetails carries the explainability breakdown of a score.
type MatchDetails struct {
	PostingSkillCount int                 `json:"posting_skill_count"`
	ResumeSkillCount  int                 `json:"resume_skill_count"`
	MatchedCount      int                 `json:"matched_count"`
	MissingCount      int                 `json:"missing_count"`
	ExtraCount        int                 `json:"extra_count"`
	CriticalMissing   []string            `json:"critical_missing"`
	PostingCategories map[string][]string `json:"posting_categories"`
	ResumeCategories  map[string][]string `json:"resume_categories"`
}

// MatchScore is the persisted form of a MatchResult, uniquely keyed by
// (user, resume, posting fingerprint). Recomputation overwrites in place.
type MatchScore struct {
	ID                 int     `gorm:"primaryKey"`
	UserID             int64   `gorm:"uniqueIndex:idx_user_resume_posting;index:idx_user_score"`
	ResumeID           int     `gorm:"uniqueIndex:idx_user_resume_posting"`
	PostingFingerprint string  `gorm:"uniqueIndex:idx_user_resume_posting;size:64"`
	Score              float64 `gorm:"index:idx_user_score"`
	Confidence         float64
	DetailsJSON        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
