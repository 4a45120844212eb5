package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/postulamatic/harvester/internal/clients/portal"
	"github.com/postulamatic/harvester/internal/domain/models"
	"github.com/postulamatic/harvester/internal/events"
	"github.com/postulamatic/harvester/internal/logger"
	"github.com/postulamatic/harvester/internal/matching"
	"github.com/postulamatic/harvester/internal/metrics"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

type RunState string

const (
	StateIdle           RunState = "idle"
	StateAuthenticating RunState = "authenticating"
	StateHarvesting     RunState = "harvesting"
	StateProcessing     RunState = "processing"
	StateScoring        RunState = "scoring"
	StateCompleted      RunState = "completed"
	StateFailed         RunState = "failed"
)

// HarvestError reports which state of a run a failure happened in.
type HarvestError struct {
	State RunState
	Step  string
	Cause error
}

func (e *HarvestError) Error() string {
	return fmt.Sprintf("harvest run failed in state %s (%s): %v", e.State, e.Step, e.Cause)
}

func (e *HarvestError) Unwrap() error { return e.Cause }

type authenticator interface {
	Authenticate(ctx context.Context, creds models.Credentials) (*portal.Session, error)
}

type pageHarvester interface {
	HarvestPages(ctx context.Context, session *portal.Session, maxPages int,
		handle func(portal.RawPostingRecord) error) error
}

type postingRepository interface {
	Admit(ctx context.Context, posting models.Posting) (bool, error)
}

type resumeRepository interface {
	GetByUser(ctx context.Context, userID int64) ([]models.ResumeProfile, error)
}

type matchRepository interface {
	Upsert(ctx context.Context, userID int64, resumeID int, fingerprint string, result models.MatchResult) error
}

// HarvestSummary is what one completed run produced.
type HarvestSummary struct {
	RunID      string
	Found      int
	Admitted   int
	Duplicates int
	Matched    int
	Duration   time.Duration
}

// Orchestrator drives a full harvest run: authenticate, walk the board,
// admit postings, score them against the user's resumes. Only one run may be
// in flight at a time.
type Orchestrator struct {
	bus       EventBus.Bus
	auth      authenticator
	harvester pageHarvester
	postings  postingRepository
	resumes   resumeRepository
	matches   matchRepository
	scorer    *matching.Scorer
	cache     *gocache.Cache
	threshold float64
	maxPages  int

	mu      sync.Mutex
	state   RunState
	running bool
}

func NewOrchestrator(bus EventBus.Bus, auth authenticator, harvester pageHarvester,
	postings postingRepository, resumes resumeRepository, matches matchRepository,
	scorer *matching.Scorer, threshold float64, maxPages int) *Orchestrator {

	return &Orchestrator{
		bus:       bus,
		auth:      auth,
		harvester: harvester,
		postings:  postings,
		resumes:   resumes,
		matches:   matches,
		scorer:    scorer,
		cache:     gocache.New(24*time.Hour, time.Hour),
		threshold: threshold,
		maxPages:  maxPages,
		state:     StateIdle,
	}
}

func (o *Orchestrator) CurrentState() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// RunHarvest executes one full run for the given user. Cancelling ctx stops
// the board walk between pages and records; records already collected are
// still admitted and scored before the run winds down.
func (o *Orchestrator) RunHarvest(ctx context.Context, userID int64, creds models.Credentials) (*HarvestSummary, error) {

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, errors.New("harvest run already in progress")
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.state = StateIdle
		o.mu.Unlock()
	}()

	runID := uuid.NewString()
	startTime := time.Now()
	log.Infof("harvest run %s started for user %d", runID, userID)

	summary, err := o.run(ctx, runID, userID, creds)
	if err != nil {
		o.setState(runID, userID, StateFailed, 100, err.Error())
		o.bus.Publish(events.HarvestCompletedTopic, events.HarvestCompleted{
			RunID: runID, UserID: userID, Success: false,
		})
		return nil, err
	}

	summary.Duration = time.Since(startTime)
	metrics.HarvestDuration.Observe(summary.Duration.Seconds())

	o.setState(runID, userID, StateCompleted, 100,
		fmt.Sprintf("found %d, admitted %d, matched %d", summary.Found, summary.Admitted, summary.Matched))
	o.bus.Publish(events.HarvestCompletedTopic, events.HarvestCompleted{
		RunID: runID, UserID: userID, Success: true,
		Found: summary.Found, Admitted: summary.Admitted, Matched: summary.Matched,
	})

	log.Infof("harvest run %s ended after %v: found %d, admitted %d, duplicates %d, matched %d",
		runID, summary.Duration, summary.Found, summary.Admitted, summary.Duplicates, summary.Matched)
	return summary, nil
}

func (o *Orchestrator) run(ctx context.Context, runID string, userID int64,
	creds models.Credentials) (*HarvestSummary, error) {

	summary := &HarvestSummary{RunID: runID}

	o.setState(runID, userID, StateAuthenticating, 10, "logging in to portal")
	start := time.Now()
	session, err := o.auth.Authenticate(ctx, creds)
	metrics.HarvestStepDuration.WithLabelValues("authentication").Observe(time.Since(start).Seconds())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypePortal).
			Errorf("authentication failed for user %s: %v", creds, err)
		return nil, &HarvestError{State: StateAuthenticating, Step: "login", Cause: err}
	}

	o.setState(runID, userID, StateHarvesting, 40, "walking board pages")
	start = time.Now()
	var records []portal.RawPostingRecord
	err = o.harvester.HarvestPages(ctx, session, o.maxPages, func(record portal.RawPostingRecord) error {
		records = append(records, record)
		metrics.PostingsFoundCounter.Inc()
		return nil
	})
	metrics.HarvestStepDuration.WithLabelValues("harvesting").Observe(time.Since(start).Seconds())
	summary.Found = len(records)

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypePortal).
			Errorf("board walk failed: %v", err)
		return nil, &HarvestError{State: StateHarvesting, Step: "board walk", Cause: err}
	}

	// A canceled walk still owes the collected records their admission and
	// scoring, so the wind-down runs on a context that outlives the cancel.
	workCtx := ctx
	if errors.Is(err, context.Canceled) {
		log.Infof("harvest run %s canceled, winding down with %d collected records", runID, len(records))
		workCtx = context.WithoutCancel(ctx)
	}

	o.setState(runID, userID, StateProcessing, 70, "admitting postings")
	start = time.Now()
	admitted := o.admitRecords(workCtx, records, summary)
	metrics.HarvestStepDuration.WithLabelValues("processing").Observe(time.Since(start).Seconds())

	o.setState(runID, userID, StateScoring, 90, "scoring against resumes")
	start = time.Now()
	o.scorePostings(workCtx, userID, admitted, summary)
	metrics.HarvestStepDuration.WithLabelValues("scoring").Observe(time.Since(start).Seconds())

	return summary, nil
}

// admitRecords turns raw records into persisted postings. A record whose
// contact cannot be decoded is still admitted, with an empty email. The
// in-memory fingerprint cache only short-circuits the db round-trip; the
// unique index on fingerprint is what actually guarantees idempotency.
func (o *Orchestrator) admitRecords(ctx context.Context, records []portal.RawPostingRecord,
	summary *HarvestSummary) []models.Posting {

	var admitted []models.Posting

	for _, record := range records {

		select {
		case <-ctx.Done():
			log.Infof("processing canceled with %d records left", len(records)-len(admitted)-summary.Duplicates)
			return admitted
		default:
		}

		email, ok := record.ContactEmail()
		if !ok && record.ObfuscatedEmailMarkup != "" {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDecode).
				Errorf("failed to decode contact for posting %q, admitting without email", record.Title)
		}

		posting := models.Posting{
			Fingerprint:  models.Fingerprint(record.Title, email, record.DescriptionText),
			Title:        record.Title,
			Description:  record.DescriptionText,
			ContactEmail: email,
			SourceURL:    record.SourcePageURL,
			PostedAt:     record.PostedAt,
		}

		if _, found := o.cache.Get(posting.Fingerprint); found {
			summary.Duplicates++
			metrics.PostingsDuplicateCounter.Inc()
			continue
		}

		created, err := o.postings.Admit(ctx, posting)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to admit posting %q: %v", record.Title, err)
			continue
		}

		if created {
			summary.Admitted++
			metrics.PostingsAdmittedCounter.Inc()
			admitted = append(admitted, posting)
		} else {
			summary.Duplicates++
			metrics.PostingsDuplicateCounter.Inc()
		}

		if err = o.cache.Add(posting.Fingerprint, "", gocache.DefaultExpiration); err != nil {
			log.Debugf("failed to cache fingerprint: %v", err)
		}
	}

	return admitted
}

// scorePostings computes matches for every (resume, admitted posting) pair.
// Cancellation is honored between postings, never mid-posting, so every
// admitted posting either has all its scores or none.
func (o *Orchestrator) scorePostings(ctx context.Context, userID int64, admitted []models.Posting,
	summary *HarvestSummary) {

	if len(admitted) == 0 {
		return
	}

	resumeRows, err := o.resumes.GetByUser(ctx, userID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to load resumes for user %d: %v", userID, err)
		return
	}
	if len(resumeRows) == 0 {
		log.Infof("user %d has no resumes, skipping scoring", userID)
		return
	}

	type resume struct {
		id      int
		profile models.SkillProfile
	}
	var parsed []resume
	for _, row := range resumeRows {
		profile, err := row.Profile()
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeScore).
				Errorf("failed to parse profile of resume %d: %v", row.ID, err)
			continue
		}
		parsed = append(parsed, resume{id: row.ID, profile: profile})
	}

	for _, posting := range admitted {

		select {
		case <-ctx.Done():
			log.Info("scoring canceled between postings")
			return
		default:
		}

		postingText := posting.Title + " " + posting.Description
		for _, r := range parsed {
			result := o.scorer.Score(r.profile, postingText)
			if result.Score < o.threshold {
				continue
			}
			if err := o.matches.Upsert(ctx, userID, r.id, posting.Fingerprint, result); err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
					Errorf("failed to save match for resume %d: %v", r.id, err)
				continue
			}
			summary.Matched++
			metrics.MatchesSavedCounter.Inc()
		}
	}
}

func (o *Orchestrator) setState(runID string, userID int64, state RunState, percentage int, message string) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()

	o.bus.Publish(events.HarvestProgressTopic, events.HarvestProgress{
		RunID:      runID,
		UserID:     userID,
		State:      string(state),
		Percentage: percentage,
		Message:    message,
	})
}
