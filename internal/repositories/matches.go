package repositories

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/postulamatic/harvester/internal/domain/models"
)

type Matches struct {
	db *gorm.DB
}

func NewMatchesRepository(db *gorm.DB) *Matches {
	return &Matches{db: db}
}

// Upsert writes the result for (user, resume, posting fingerprint),
// overwriting any previous score for the same triple in place. Recomputation
// never appends a duplicate.
func (repo *Matches) Upsert(ctx context.Context, userID int64, resumeID int,
	fingerprint string, result models.MatchResult) error {

	details, err := json.Marshal(result.Details)
	if err != nil {
		return err
	}

	score := models.MatchScore{
		UserID:             userID,
		ResumeID:           resumeID,
		PostingFingerprint: fingerprint,
		Score:              result.Score,
		Confidence:         result.Confidence,
		DetailsJSON:        string(details),
	}

	return repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"}, {Name: "resume_id"}, {Name: "posting_fingerprint"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"score", "confidence", "details_json", "updated_at"}),
		}).
		Create(&score).Error
}

func (repo *Matches) GetByUser(ctx context.Context, userID int64, minScore float64) ([]models.MatchScore, error) {
	var scores []models.MatchScore
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND score >= ?", userID, minScore).
		Order("score DESC, created_at DESC").
		Find(&scores).Error
	return scores, err
}

func (repo *Matches) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&models.MatchScore{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// RemoveBelowThreshold prunes a user's results that no longer clear the
// configured threshold, used after a threshold change triggers recalculation.
func (repo *Matches) RemoveBelowThreshold(ctx context.Context, userID int64, threshold float64) (int64, error) {
	res := repo.db.WithContext(ctx).
		Where("user_id = ? AND score < ?", userID, threshold).
		Delete(&models.MatchScore{})
	return res.RowsAffected, res.Error
}
