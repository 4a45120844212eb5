package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/postulamatic/harvester/internal/domain/models"
)

func newTestContext(t *testing.T) *DbContext {
	t.Helper()
	dbContext, err := NewDbContext(":memory:")
	assert.NoError(t, err)
	assert.NoError(t, dbContext.Migrate())
	t.Cleanup(func() { _ = dbContext.Close() })
	return dbContext
}

func somePosting(title string) models.Posting {
	description := "Descripción de " + title
	email := "contact@example.com"
	return models.Posting{
		Fingerprint:  models.Fingerprint(title, email, description),
		Title:        title,
		Description:  description,
		ContactEmail: email,
		SourceURL:    "https://portal.example.com/job_board-0.html",
	}
}

func Test_PostingsAdmit_SecondAdmissionIsRejected(t *testing.T) {
	dbContext := newTestContext(t)
	postings := NewPostingsRepository(dbContext.DB)
	ctx := context.Background()

	posting := somePosting("Digital Marketing Analyst")

	created, err := postings.Admit(ctx, posting)
	assert.NoError(t, err)
	assert.True(t, created)

	created, err = postings.Admit(ctx, posting)
	assert.NoError(t, err)
	assert.False(t, created)

	count, err := postings.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_PostingsAdmit_DuplicateTouchesUpdatedAt(t *testing.T) {
	dbContext := newTestContext(t)
	postings := NewPostingsRepository(dbContext.DB)
	ctx := context.Background()

	posting := somePosting("Backend Engineer")
	_, err := postings.Admit(ctx, posting)
	assert.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	err = dbContext.DB.Model(&models.Posting{}).
		Where("fingerprint = ?", posting.Fingerprint).
		Update("updated_at", stale).Error
	assert.NoError(t, err)

	_, err = postings.Admit(ctx, posting)
	assert.NoError(t, err)

	stored, err := postings.FindByFingerprint(ctx, posting.Fingerprint)
	assert.NoError(t, err)
	if assert.NotNil(t, stored) {
		assert.True(t, stored.UpdatedAt.After(stale.Add(time.Hour)))
	}
}

func Test_PostingsFindByFingerprint_WhenMissing_ShouldReturnNil(t *testing.T) {
	dbContext := newTestContext(t)
	postings := NewPostingsRepository(dbContext.DB)

	posting, err := postings.FindByFingerprint(context.Background(), "no-such-fingerprint")
	assert.NoError(t, err)
	assert.Nil(t, posting)
}

func Test_PostingsRemoveStale_KeepsMatchedPostings(t *testing.T) {
	dbContext := newTestContext(t)
	postings := NewPostingsRepository(dbContext.DB)
	matches := NewMatchesRepository(dbContext.DB)
	ctx := context.Background()

	stalePlain := somePosting("Old Unmatched")
	staleMatched := somePosting("Old Matched")
	fresh := somePosting("Fresh")

	for _, p := range []models.Posting{stalePlain, staleMatched, fresh} {
		_, err := postings.Admit(ctx, p)
		assert.NoError(t, err)
	}

	err := matches.Upsert(ctx, 1, 1, staleMatched.Fingerprint, models.MatchResult{Score: 70})
	assert.NoError(t, err)

	old := time.Now().Add(-96 * time.Hour)
	for _, fp := range []string{stalePlain.Fingerprint, staleMatched.Fingerprint} {
		err = dbContext.DB.Model(&models.Posting{}).
			Where("fingerprint = ?", fp).Update("updated_at", old).Error
		assert.NoError(t, err)
	}

	removed, err := postings.RemoveStale(ctx, time.Now().Add(-24*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	kept, err := postings.FindByFingerprint(ctx, staleMatched.Fingerprint)
	assert.NoError(t, err)
	assert.NotNil(t, kept)

	gone, err := postings.FindByFingerprint(ctx, stalePlain.Fingerprint)
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func Test_MatchesUpsert_RecomputationOverwritesInPlace(t *testing.T) {
	dbContext := newTestContext(t)
	matches := NewMatchesRepository(dbContext.DB)
	ctx := context.Background()

	fingerprint := models.Fingerprint("Android Developer", "rrhh@empresa.com", "Kotlin")

	err := matches.Upsert(ctx, 7, 1, fingerprint, models.MatchResult{Score: 50.5, Confidence: 0.5})
	assert.NoError(t, err)
	err = matches.Upsert(ctx, 7, 1, fingerprint, models.MatchResult{Score: 85.0, Confidence: 0.9})
	assert.NoError(t, err)

	count, err := matches.CountByUser(ctx, 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	scores, err := matches.GetByUser(ctx, 7, 0)
	assert.NoError(t, err)
	if assert.Len(t, scores, 1) {
		assert.Equal(t, 85.0, scores[0].Score)
		assert.Equal(t, 0.9, scores[0].Confidence)
	}
}

func Test_MatchesGetByUser_FiltersAndOrdersByScore(t *testing.T) {
	dbContext := newTestContext(t)
	matches := NewMatchesRepository(dbContext.DB)
	ctx := context.Background()

	for i, score := range []float64{30, 90, 60} {
		fp := models.Fingerprint("Posting", "a@b.co", string(rune('a'+i)))
		err := matches.Upsert(ctx, 7, 1, fp, models.MatchResult{Score: score})
		assert.NoError(t, err)
	}

	scores, err := matches.GetByUser(ctx, 7, 40)
	assert.NoError(t, err)
	if assert.Len(t, scores, 2) {
		assert.Equal(t, 90.0, scores[0].Score)
		assert.Equal(t, 60.0, scores[1].Score)
	}
}

func Test_MatchesRemoveBelowThreshold(t *testing.T) {
	dbContext := newTestContext(t)
	matches := NewMatchesRepository(dbContext.DB)
	ctx := context.Background()

	for i, score := range []float64{20, 45, 80} {
		fp := models.Fingerprint("Posting", "a@b.co", string(rune('a'+i)))
		err := matches.Upsert(ctx, 7, 1, fp, models.MatchResult{Score: score})
		assert.NoError(t, err)
	}

	removed, err := matches.RemoveBelowThreshold(ctx, 7, 40)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := matches.CountByUser(ctx, 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func Test_Resumes_AddUpdateRoundTrip(t *testing.T) {
	dbContext := newTestContext(t)
	resumes := NewResumesRepository(dbContext.DB)
	ctx := context.Background()

	resume := &models.ResumeProfile{UserID: 7, Name: "backend.pdf", ParsedText: "python"}
	err := resume.SetProfile(models.SkillProfile{
		Skills:     map[string]float64{"python": 1.0},
		Categories: map[string][]string{"programming": {"python"}},
	})
	assert.NoError(t, err)
	assert.NoError(t, resumes.Add(ctx, resume))
	assert.NotZero(t, resume.ID)

	stored, err := resumes.GetByID(ctx, resume.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, stored) {
		profile, err := stored.Profile()
		assert.NoError(t, err)
		assert.True(t, profile.Has("python"))
	}

	stored.Name = "backend-v2.pdf"
	assert.NoError(t, resumes.Update(ctx, stored))

	byUser, err := resumes.GetByUser(ctx, 7)
	assert.NoError(t, err)
	if assert.Len(t, byUser, 1) {
		assert.Equal(t, "backend-v2.pdf", byUser[0].Name)
	}
}
