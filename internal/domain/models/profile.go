package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/samber/lo"
)

// SkillProfile is a weighted set of canonical skill names derived from free
// text, grouped by lexicon category. Immutable once computed for a given text.
type SkillProfile struct {
	Skills     map[string]float64  `json:"skills"`
	Categories map[string][]string `json:"categories"`
}

func EmptySkillProfile() SkillProfile {
	return SkillProfile{
		Skills:     map[string]float64{},
		Categories: map[string][]string{},
	}
}

// Names returns the skill names in deterministic order.
func (p SkillProfile) Names() []string {
	names := lo.Keys(p.Skills)
	sort.Strings(names)
	return names
}

func (p SkillProfile) Len() int {
	return len(p.Skills)
}

func (p SkillProfile) Has(skill string) bool {
	_, ok := p.Skills[skill]
	return ok
}

// ResumeProfile is a user's resume reduced to parsed text plus the skill
// profile extracted from it. SkillsJSON holds the serialized SkillProfile;
// TextHash tracks the source text so the profile is only recomputed when the
// text actually changes.
type ResumeProfile struct {
	ID         int    `gorm:"primaryKey"`
	UserID     int64  `gorm:"index"`
	Name       string `gorm:"size:255"`
	ParsedText string
	TextHash   string `gorm:"size:64"`
	SkillsJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *ResumeProfile) Profile() (SkillProfile, error) {
	if r.SkillsJSON == "" {
		return EmptySkillProfile(), nil
	}
	var profile SkillProfile
	if err := json.Unmarshal([]byte(r.SkillsJSON), &profile); err != nil {
		return EmptySkillProfile(), err
	}
	if profile.Skills == nil {
		profile.Skills = map[string]float64{}
	}
	if profile.Categories == nil {
		profile.Categories = map[string][]string{}
	}
	return profile, nil
}

func (r *ResumeProfile) SetProfile(profile SkillProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	r.SkillsJSON = string(data)
	return nil
}
