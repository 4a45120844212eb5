package services

import (
	"context"
	"github.com/pkg/errors"
	"github.com/postulamatic/harvester/internal/domain/models"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Account pairs a user with the portal credentials harvested on their behalf.
type Account struct {
	UserID      int64
	Credentials models.Credentials
}

// CredentialSource supplies the accounts a scheduled run covers. The source
// owns secret storage; the scheduler only ever holds credentials in memory
// for the duration of a run.
type CredentialSource interface {
	Accounts(ctx context.Context) ([]Account, error)
}

// StaticCredentialSource serves a fixed single account, typically from config.
type StaticCredentialSource struct {
	account Account
}

func NewStaticCredentialSource(userID int64, username, password string) *StaticCredentialSource {
	return &StaticCredentialSource{account: Account{
		UserID:      userID,
		Credentials: models.Credentials{Username: username, Password: password},
	}}
}

func (s *StaticCredentialSource) Accounts(_ context.Context) ([]Account, error) {
	return []Account{s.account}, nil
}

// HarvestScheduler fires a harvest run for every known account on a cron
// schedule. Accounts are harvested sequentially so the portal only ever sees
// one authenticated session at a time.
type HarvestScheduler struct {
	orchestrator *Orchestrator
	source       CredentialSource
	cron         *cron.Cron
}

func NewHarvestScheduler(orchestrator *Orchestrator, source CredentialSource, schedule string) (*HarvestScheduler, error) {

	if schedule == "" {
		return nil, errors.New("harvest schedule must not be empty")
	}

	s := &HarvestScheduler{
		orchestrator: orchestrator,
		source:       source,
		cron:         cron.New(),
	}

	_, err := s.cron.AddFunc(schedule, func() { s.RunAll(context.Background()) })
	if err != nil {
		return nil, err
	}

	s.cron.Start()
	log.Infof("harvest scheduler started with schedule %q", schedule)
	return s, nil
}

func (s *HarvestScheduler) Stop() {
	s.cron.Stop()
}

// RunAll harvests every account once, in order. A failing account does not
// block the remaining ones.
func (s *HarvestScheduler) RunAll(ctx context.Context) {

	accounts, err := s.source.Accounts(ctx)
	if err != nil {
		log.Errorf("failed to load accounts: %v", err)
		return
	}

	for _, account := range accounts {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.orchestrator.RunHarvest(ctx, account.UserID, account.Credentials); err != nil {
			log.Errorf("scheduled harvest failed for user %d: %v", account.UserID, err)
		}
	}
}
