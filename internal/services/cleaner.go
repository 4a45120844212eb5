package services

import (
	"context"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"time"
)

type PostingCleanupRepository interface {
	RemoveStale(ctx context.Context, expirationTime time.Time) (int64, error)
}

// PostingsCleaner periodically drops postings that have not been seen on the
// board for longer than the expiration window. Postings referenced by a saved
// match survive regardless of age.
type PostingsCleaner struct {
	postings             PostingCleanupRepository
	cron                 *cron.Cron
	expirationTimeInDays int
}

func NewPostingsCleaner(postings PostingCleanupRepository, expirationInDays int, schedule string) (*PostingsCleaner, error) {

	if expirationInDays <= 0 {
		return nil, errors.New("expiration in days must be greater than zero")
	}

	pc := &PostingsCleaner{
		postings:             postings,
		cron:                 cron.New(),
		expirationTimeInDays: expirationInDays,
	}

	if schedule == "" {
		schedule = "0 0 * * *"
	}

	_, err := pc.cron.AddFunc(schedule, pc.cleanStalePostings)
	if err != nil {
		return nil, err
	}

	pc.cron.Start()
	log.Infof("postings cleaner started, expiration in days: %d", pc.expirationTimeInDays)
	return pc, nil
}

func (pc *PostingsCleaner) Stop() {
	pc.cron.Stop()
}

func (pc *PostingsCleaner) cleanStalePostings() {
	expirationTime := time.Now().Add(-time.Duration(pc.expirationTimeInDays) * 24 * time.Hour)
	rowsAffected, err := pc.postings.RemoveStale(context.Background(), expirationTime)
	if err != nil {
		log.Errorf("Failed to clean stale postings: %v", err)
	} else {
		log.Infof("Stale postings cleaned at %v, affected rows: %v", time.Now(), rowsAffected)
	}
}
