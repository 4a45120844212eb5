package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/postulamatic/harvester/internal/clients/portal"
	"github.com/postulamatic/harvester/internal/config"
	"github.com/postulamatic/harvester/internal/logger"
	"github.com/postulamatic/harvester/internal/matching"
	"github.com/postulamatic/harvester/internal/metrics"
	"github.com/postulamatic/harvester/internal/repositories"
	"github.com/postulamatic/harvester/internal/services"
	"github.com/postulamatic/harvester/internal/skills"
	log "github.com/sirupsen/logrus"
	"os/signal"
	"syscall"
	"time"
)

func newDriver(cfg config.HarvestConfig) portal.TransportDriver {

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if cfg.Driver == config.DriverBrowser {
		return portal.NewBrowserDriver(timeout)
	}

	driver := portal.NewHTTPDriver(timeout)
	if cfg.MaxRequestsPerSecond > 0 {
		driver.SetRateLimit(cfg.MaxRequestsPerSecond)
	}
	if cfg.MinRequestDelay > 0 && cfg.MaxRequestDelay >= cfg.MinRequestDelay {
		driver.SetDelayRange(cfg.MinRequestDelay, cfg.MaxRequestDelay)
	}
	return driver
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.Harvest.MetricsAddress)

	dbContext, err := repositories.NewDbContext(cfg.DB.Path)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	postings := repositories.NewPostingsRepository(dbContext.DB)
	resumes := repositories.NewResumesRepository(dbContext.DB)
	matches := repositories.NewMatchesRepository(dbContext.DB)

	bus := EventBus.New()

	driver := newDriver(cfg.Harvest)
	if browser, ok := driver.(*portal.BrowserDriver); ok {
		defer browser.Close()
	}
	auth := portal.NewAuthenticator(driver, cfg.Harvest.BaseURL, cfg.Harvest.LoginURL)
	harvester := portal.NewHarvester(cfg.Harvest.BaseURL, cfg.Harvest.BoardURL)

	scorer := matching.NewScorer(skills.NewExtractor(skills.DefaultLexicon()))

	orchestrator := services.NewOrchestrator(bus, auth, harvester, postings, resumes, matches,
		scorer, cfg.Harvest.ScoreThreshold, cfg.Harvest.MaxPages)

	source := services.NewStaticCredentialSource(1, cfg.Harvest.Username, cfg.Harvest.Password)
	scheduler, err := services.NewHarvestScheduler(orchestrator, source, cfg.Harvest.Schedule)
	if err != nil {
		log.Fatalf("can't create scheduler: %v", err)
	}
	defer scheduler.Stop()

	cleaner, err := services.NewPostingsCleaner(postings, cfg.Harvest.PostingExpirationInDays, cfg.Harvest.CleanupSchedule)
	if err != nil {
		log.Fatalf("can't create cleaner: %v", err)
	}
	defer cleaner.Stop()

	go scheduler.RunAll(ctx)

	<-ctx.Done()

	log.Info("Shutting down services...")
}
