package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/postulamatic/harvester/internal/domain/models"
)

type Postings struct {
	db *gorm.DB
}

func NewPostingsRepository(db *gorm.DB) *Postings {
	return &Postings{db: db}
}

func (repo *Postings) FindByFingerprint(ctx context.Context, fingerprint string) (*models.Posting, error) {
	var posting models.Posting
	err := repo.db.WithContext(ctx).First(&posting, "fingerprint = ?", fingerprint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &posting, nil
}

// Admit inserts the posting unless one with the same fingerprint already
// exists, in a single statement so concurrent runs racing on the same
// fingerprint resolve to one row. The losing writer sees created=false and a
// touched updated_at, never an error.
func (repo *Postings) Admit(ctx context.Context, posting models.Posting) (created bool, err error) {
	res := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoNothing: true,
		}).
		Create(&posting)
	if res.Error != nil {
		return false, res.Error
	}

	if res.RowsAffected > 0 {
		return true, nil
	}

	err = repo.db.WithContext(ctx).
		Model(&models.Posting{}).
		Where("fingerprint = ?", posting.Fingerprint).
		Update("updated_at", time.Now()).Error
	return false, err
}

func (repo *Postings) Get(ctx context.Context, limit, offset int) ([]models.Posting, error) {
	var postings []models.Posting
	if err := repo.db.WithContext(ctx).
		Limit(limit).
		Offset(offset).
		Order("id").
		Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}

func (repo *Postings) Count(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&models.Posting{}).Count(&count).Error
	return count, err
}

// RemoveStale deletes postings last touched before the expiration time that
// have no match results referencing them.
func (repo *Postings) RemoveStale(ctx context.Context, expirationTime time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).
		Where("updated_at < ?", expirationTime).
		Where("fingerprint NOT IN (?)",
			repo.db.Model(&models.MatchScore{}).Select("posting_fingerprint")).
		Delete(&models.Posting{})
	return res.RowsAffected, res.Error
}
