package matching

import (
	"math"
	"regexp"
	"sort"

	"github.com/samber/lo"

	"github.com/postulamatic/harvester/internal/domain/models"
	"github.com/postulamatic/harvester/internal/skills"
)

const (
	postingMinConfidence  = 0.5
	extraSkillBonus       = 0.5
	extraBonusCap         = 20.0
	criticalPenalty       = 15.0
	criticalConfidenceHit = 0.2
	neutralScore          = 50.0
	neutralConfidence     = 0.3
	confidenceFloor       = 0.1
)

// criticalPatterns mark posting skills whose absence from a resume carries an
// extra penalty: core languages, major frameworks, databases, cloud platforms
// and mobile platforms.
var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(python|java|javascript|typescript|c\+\+|c#|php|ruby|go|rust|kotlin|swift)$`),
	regexp.MustCompile(`^(react|angular|vue|django|flask|spring|laravel|rails|express)$`),
	regexp.MustCompile(`^(mysql|postgresql|mongodb|redis|oracle|sqlite)$`),
	regexp.MustCompile(`^(aws|azure|gcp|docker|kubernetes|terraform)$`),
	regexp.MustCompile(`^(android|ios|react native|flutter)$`),
}

// Scorer computes the compatibility of a resume skill profile with a posting.
type Scorer struct {
	extractor *skills.Extractor
}

func NewScorer(extractor *skills.Extractor) *Scorer {
	return &Scorer{extractor: extractor}
}

// Score extracts the posting's required skills from its text and rates the
// resume profile against them. The result is deterministic for a given
// (profile, text) pair; recomputation is expected to overwrite prior results.
func (s *Scorer) Score(resume models.SkillProfile, postingText string) models.MatchResult {
	postingProfile := s.extractor.Extract(postingText, postingMinConfidence)

	resumeSkills := resume.Names()
	postingSkills := postingProfile.Names()

	matched := lo.Filter(postingSkills, func(skill string, _ int) bool { return resume.Has(skill) })
	missing := lo.Filter(postingSkills, func(skill string, _ int) bool { return !resume.Has(skill) })
	extra := lo.Filter(resumeSkills, func(skill string, _ int) bool { return !postingProfile.Has(skill) })

	var score, confidence float64
	if len(postingSkills) == 0 {
		score = neutralScore
		confidence = neutralConfidence
	} else {
		score = float64(len(matched)) / float64(len(postingSkills)) * 100
		if len(extra) > 0 {
			score = math.Min(score+math.Min(float64(len(extra))*extraSkillBonus, extraBonusCap), 100)
		}
		confidence = math.Min(float64(len(matched))/float64(len(postingSkills)), 1.0)
	}

	criticalMissing := lo.Filter(missing, func(skill string, _ int) bool { return isCritical(skill) })
	if len(criticalMissing) > 0 {
		score = math.Max(score-float64(len(criticalMissing))*criticalPenalty, 0)
		confidence = math.Max(confidence-criticalConfidenceHit, confidenceFloor)
	}

	sort.Strings(criticalMissing)

	return models.MatchResult{
		Score:         round(score, 1),
		Confidence:    round(confidence, 2),
		MatchedSkills: matched,
		MissingSkills: missing,
		ExtraSkills:   extra,
		Details: models.MatchDetails{
			PostingSkillCount: len(postingSkills),
			ResumeSkillCount:  len(resumeSkills),
			MatchedCount:      len(matched),
			MissingCount:      len(missing),
			ExtraCount:        len(extra),
			CriticalMissing:   criticalMissing,
			PostingCategories: postingProfile.Categories,
			ResumeCategories:  resume.Categories,
		},
	}
}

func isCritical(skill string) bool {
	for _, pattern := range criticalPatterns {
		if pattern.MatchString(skill) {
			return true
		}
	}
	return false
}

func round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
