package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"github.com/postulamatic/harvester/internal/domain/models"
	"github.com/postulamatic/harvester/internal/skills"
	log "github.com/sirupsen/logrus"
)

// resumeMinConfidence is deliberately low: a resume mentioning a skill once
// still counts as having it.
const resumeMinConfidence = 0.3

type resumeStore interface {
	Add(ctx context.Context, resume *models.ResumeProfile) error
	GetByUser(ctx context.Context, userID int64) ([]models.ResumeProfile, error)
	Update(ctx context.Context, resume *models.ResumeProfile) error
}

// ResumeIndexer keeps stored resume profiles in sync with their parsed text.
// A profile is only recomputed when the text hash changes, so re-uploading an
// identical resume is a no-op.
type ResumeIndexer struct {
	resumes   resumeStore
	extractor *skills.Extractor
}

func NewResumeIndexer(resumes resumeStore, extractor *skills.Extractor) *ResumeIndexer {
	return &ResumeIndexer{resumes: resumes, extractor: extractor}
}

// Index stores or refreshes the named resume for the user and returns the
// stored row with an up-to-date skill profile.
func (i *ResumeIndexer) Index(ctx context.Context, userID int64, name, parsedText string) (*models.ResumeProfile, error) {

	textHash := hashText(parsedText)

	existing, err := i.resumes.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for idx := range existing {
		resume := &existing[idx]
		if resume.Name != name {
			continue
		}
		if resume.TextHash == textHash {
			return resume, nil
		}
		if err := i.fillProfile(resume, parsedText, textHash); err != nil {
			return nil, err
		}
		if err := i.resumes.Update(ctx, resume); err != nil {
			return nil, err
		}
		log.Infof("reindexed resume %q for user %d", name, userID)
		return resume, nil
	}

	resume := &models.ResumeProfile{UserID: userID, Name: name}
	if err := i.fillProfile(resume, parsedText, textHash); err != nil {
		return nil, err
	}
	if err := i.resumes.Add(ctx, resume); err != nil {
		return nil, err
	}
	log.Infof("indexed new resume %q for user %d", name, userID)
	return resume, nil
}

// ReindexAll recomputes every profile of the user from its stored text, hash
// or no hash. Meant for after lexicon updates.
func (i *ResumeIndexer) ReindexAll(ctx context.Context, userID int64) (int, error) {

	resumes, err := i.resumes.GetByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	reindexed := 0
	for idx := range resumes {
		resume := &resumes[idx]
		if err := i.fillProfile(resume, resume.ParsedText, hashText(resume.ParsedText)); err != nil {
			return reindexed, err
		}
		if err := i.resumes.Update(ctx, resume); err != nil {
			return reindexed, err
		}
		reindexed++
	}
	return reindexed, nil
}

func (i *ResumeIndexer) fillProfile(resume *models.ResumeProfile, parsedText, textHash string) error {
	profile := i.extractor.Extract(parsedText, resumeMinConfidence)
	if err := resume.SetProfile(profile); err != nil {
		return err
	}
	resume.ParsedText = parsedText
	resume.TextHash = textHash
	return nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
