package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/postulamatic/harvester/internal/domain/models"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(models.Posting{})
	if err != nil {
		return fmt.Errorf("failed to migrate Posting entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.ResumeProfile{})
	if err != nil {
		return fmt.Errorf("failed to migrate ResumeProfile entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.MatchScore{})
	if err != nil {
		return fmt.Errorf("failed to migrate MatchScore entity: %w", err)
	}

	// Fingerprint uniqueness is the pipeline's idempotency backstop and must
	// hold even when concurrent runs race on the same admission.
	if err = c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_posting_fingerprint ON postings (fingerprint); " +
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_match_identity ON match_scores (user_id, resume_id, posting_fingerprint);").
		Error; err != nil {
		return fmt.Errorf("failed to create uniqueness indexes: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
