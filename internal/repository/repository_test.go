package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"trading-journal/internal/database"
	"trading-journal/internal/models"
	"trading-journal/internal/realtime"
)

// setupTest creates a repository on a fresh in-memory database.
func setupTest(t *testing.T) (*GormRepository, *realtime.LocalBroker) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))

	broker := realtime.NewLocalBroker(zap.NewNop())
	return NewGormRepository(db, broker, zap.NewNop()), broker
}

func draft(owner, date string, result float64) models.TradeDraft {
	d, err := models.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return models.TradeDraft{
		OwnerID:     owner,
		Date:        d,
		Symbol:      "NQ",
		Model:       "Unicorn",
		Side:        models.SideLong,
		Result:      result,
		Notes:       "clean sweep of Asia high",
		Screenshots: []string{"data:image/jpeg;base64,AAAA", "data:image/jpeg;base64,BBBB"},
	}
}

func TestGormRepository_CreateAndList(t *testing.T) {
	repo, _ := setupTest(t)
	ctx := context.Background()

	first, err := repo.CreateTrade(ctx, draft("alice", "2025-01-01", 1))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	_, err = repo.CreateTrade(ctx, draft("alice", "2025-01-03", 2))
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, draft("bob", "2025-01-02", -1))
	require.NoError(t, err)

	trades, err := repo.ListTrades(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "2025-01-03", trades[0].Date.String(), "newest first")
	assert.Equal(t, "2025-01-01", trades[1].Date.String())
	assert.Equal(t, []string{"data:image/jpeg;base64,AAAA", "data:image/jpeg;base64,BBBB"}, []string(trades[1].Screenshots))

	none, err := repo.ListTrades(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormRepository_CreateRequiresOwner(t *testing.T) {
	repo, _ := setupTest(t)
	_, err := repo.CreateTrade(context.Background(), draft("", "2025-01-01", 1))
	assert.Error(t, err)
}

func TestGormRepository_UpdateNotesOnlyKeepsOtherFields(t *testing.T) {
	repo, _ := setupTest(t)
	ctx := context.Background()

	created, err := repo.CreateTrade(ctx, draft("alice", "2025-02-14", -0.75))
	require.NoError(t, err)
	before, err := repo.GetTrade(ctx, "alice", created.ID)
	require.NoError(t, err)

	edit := before.Draft()
	edit.Notes = "moved stop too early"
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.UpdateTrade(ctx, created.ID, edit))

	after, err := repo.GetTrade(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "moved stop too early", after.Notes)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.OwnerID, after.OwnerID)
	assert.Equal(t, before.Date, after.Date)
	assert.Equal(t, before.Symbol, after.Symbol)
	assert.Equal(t, before.Model, after.Model)
	assert.Equal(t, before.Side, after.Side)
	assert.Equal(t, before.Result, after.Result)
	assert.Equal(t, before.Screenshots, after.Screenshots)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
}

func TestGormRepository_UpdateReplacesScreenshots(t *testing.T) {
	repo, _ := setupTest(t)
	ctx := context.Background()

	created, err := repo.CreateTrade(ctx, draft("alice", "2025-02-14", 1))
	require.NoError(t, err)

	edit := created.Draft()
	edit.Screenshots = nil
	edit.Result = 0
	require.NoError(t, repo.UpdateTrade(ctx, created.ID, edit))

	after, err := repo.GetTrade(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Screenshots)
	assert.Equal(t, 0.0, after.Result, "zero values must be written too")
}

func TestGormRepository_OwnershipIsEnforced(t *testing.T) {
	repo, _ := setupTest(t)
	ctx := context.Background()

	created, err := repo.CreateTrade(ctx, draft("alice", "2025-03-01", 1))
	require.NoError(t, err)

	_, err = repo.GetTrade(ctx, "bob", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.UpdateTrade(ctx, created.ID, draft("bob", "2025-03-01", 5)), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTrade(ctx, "bob", created.ID), ErrNotFound)

	still, err := repo.GetTrade(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, still.Result)
}

func TestGormRepository_Delete(t *testing.T) {
	repo, _ := setupTest(t)
	ctx := context.Background()

	created, err := repo.CreateTrade(ctx, draft("alice", "2025-03-01", 1))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTrade(ctx, "alice", created.ID))
	_, err = repo.GetTrade(ctx, "alice", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTrade(ctx, "alice", created.ID), ErrNotFound)
}

func TestGormRepository_WritesNotifySubscribers(t *testing.T) {
	repo, _ := setupTest(t)
	ctx := context.Background()

	var alice, bob int
	unsubscribe := repo.SubscribeToChanges("alice", func() { alice++ })
	repo.SubscribeToChanges("bob", func() { bob++ })

	created, err := repo.CreateTrade(ctx, draft("alice", "2025-03-01", 1))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateTrade(ctx, created.ID, draft("alice", "2025-03-02", 1)))
	require.NoError(t, repo.DeleteTrade(ctx, "alice", created.ID))
	assert.Equal(t, 3, alice)
	assert.Equal(t, 0, bob)

	// Failed writes do not notify.
	assert.Error(t, repo.DeleteTrade(ctx, "alice", created.ID))
	assert.Equal(t, 3, alice)

	unsubscribe()
	_, err = repo.CreateTrade(ctx, draft("alice", "2025-03-03", 1))
	require.NoError(t, err)
	assert.Equal(t, 3, alice)
}
