package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/postulamatic/harvester/internal/domain/models"
)

type Resumes struct {
	db *gorm.DB
}

func NewResumesRepository(db *gorm.DB) *Resumes {
	return &Resumes{db: db}
}

func (repo *Resumes) Add(ctx context.Context, resume *models.ResumeProfile) error {
	return repo.db.WithContext(ctx).Create(resume).Error
}

func (repo *Resumes) GetByID(ctx context.Context, id int) (*models.ResumeProfile, error) {
	var resume models.ResumeProfile
	err := repo.db.WithContext(ctx).First(&resume, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resume, nil
}

func (repo *Resumes) GetByUser(ctx context.Context, userID int64) ([]models.ResumeProfile, error) {
	var resumes []models.ResumeProfile
	if err := repo.db.WithContext(ctx).Find(&resumes, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return resumes, nil
}

func (repo *Resumes) Update(ctx context.Context, resume *models.ResumeProfile) error {
	return repo.db.WithContext(ctx).Save(resume).Error
}
