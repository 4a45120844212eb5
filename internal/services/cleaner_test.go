package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCleanupRepo struct {
	mock.Mock
}

func (m *mockCleanupRepo) RemoveStale(ctx context.Context, expirationTime time.Time) (int64, error) {
	args := m.Called(ctx, expirationTime)
	return args.Get(0).(int64), args.Error(1)
}

func Test_PostingsCleaner_RequiresPositiveExpiration(t *testing.T) {
	_, err := NewPostingsCleaner(&mockCleanupRepo{}, 0, "")
	assert.Error(t, err)

	_, err = NewPostingsCleaner(&mockCleanupRepo{}, -5, "")
	assert.Error(t, err)
}

func Test_PostingsCleaner_RemovesPostingsOlderThanWindow(t *testing.T) {

	repo := &mockCleanupRepo{}
	repo.On("RemoveStale", mock.Anything, mock.MatchedBy(func(expiration time.Time) bool {
		expected := time.Now().Add(-30 * 24 * time.Hour)
		return expiration.Sub(expected).Abs() < time.Minute
	})).Return(int64(3), nil).Once()

	cleaner, err := NewPostingsCleaner(repo, 30, "0 0 * * *")
	assert.NoError(t, err)
	defer cleaner.Stop()

	cleaner.cleanStalePostings()

	repo.AssertExpectations(t)
}

func Test_StaticCredentialSource_ServesSingleAccount(t *testing.T) {

	source := NewStaticCredentialSource(7, "maria", "s3cret")

	accounts, err := source.Accounts(context.Background())
	assert.NoError(t, err)
	if assert.Len(t, accounts, 1) {
		assert.Equal(t, int64(7), accounts[0].UserID)
		assert.Equal(t, "maria", accounts[0].Credentials.Username)
	}
}

func Test_HarvestScheduler_RequiresSchedule(t *testing.T) {
	_, err := NewHarvestScheduler(nil, NewStaticCredentialSource(1, "u", "p"), "")
	assert.Error(t, err)

	_, err = NewHarvestScheduler(nil, NewStaticCredentialSource(1, "u", "p"), "not a cron spec")
	assert.Error(t, err)
}
