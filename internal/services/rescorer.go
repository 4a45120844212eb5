package services

import (
	"context"
	"github.com/postulamatic/harvester/internal/domain/models"
	"github.com/postulamatic/harvester/internal/logger"
	"github.com/postulamatic/harvester/internal/matching"
	log "github.com/sirupsen/logrus"
)

const rescorePageSize = 100

type postingLister interface {
	Get(ctx context.Context, limit, offset int) ([]models.Posting, error)
}

type matchRecalcRepository interface {
	matchRepository
	RemoveBelowThreshold(ctx context.Context, userID int64, threshold float64) (int64, error)
}

// Rescorer recomputes matches for a user against everything already in the
// posting store. Used after a resume changes or the lexicon is updated;
// existing match rows are overwritten in place.
type Rescorer struct {
	postings  postingLister
	resumes   resumeRepository
	matches   matchRecalcRepository
	scorer    *matching.Scorer
	threshold float64
}

func NewRescorer(postings postingLister, resumes resumeRepository, matches matchRecalcRepository,
	scorer *matching.Scorer, threshold float64) *Rescorer {

	return &Rescorer{
		postings:  postings,
		resumes:   resumes,
		matches:   matches,
		scorer:    scorer,
		threshold: threshold,
	}
}

// RecalculateForUser walks the posting store page by page and rescores every
// posting against each of the user's resumes. Returns the number of matches
// saved.
func (r *Rescorer) RecalculateForUser(ctx context.Context, userID int64) (int, error) {

	resumeRows, err := r.resumes.GetByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(resumeRows) == 0 {
		return 0, nil
	}

	saved := 0
	for offset := 0; ; offset += rescorePageSize {

		if err := ctx.Err(); err != nil {
			return saved, err
		}

		postings, err := r.postings.Get(ctx, rescorePageSize, offset)
		if err != nil {
			return saved, err
		}
		if len(postings) == 0 {
			break
		}

		for _, posting := range postings {
			postingText := posting.Title + " " + posting.Description
			for _, row := range resumeRows {
				profile, err := row.Profile()
				if err != nil {
					log.WithField(logger.ErrorTypeField, logger.ErrorTypeScore).
						Errorf("failed to parse profile of resume %d: %v", row.ID, err)
					continue
				}
				result := r.scorer.Score(profile, postingText)
				if result.Score < r.threshold {
					continue
				}
				if err := r.matches.Upsert(ctx, userID, row.ID, posting.Fingerprint, result); err != nil {
					return saved, err
				}
				saved++
			}
		}
	}

	pruned, err := r.matches.RemoveBelowThreshold(ctx, userID, r.threshold)
	if err != nil {
		return saved, err
	}

	log.Infof("recalculated matches for user %d: saved %d, pruned %d", userID, saved, pruned)
	return saved, nil
}
