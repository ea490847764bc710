package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"partdepot/internal/infra"
	"partdepot/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Integration tests against a throwaway postgres container. Gated behind
// PARTDEPOT_IT so the default test run stays docker-free.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("PARTDEPOT_IT") == "" {
		t.Skip("set PARTDEPOT_IT=1 to run postgres integration tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("partdepot_test"),
		tcpostgres.WithUsername("partdepot"),
		tcpostgres.WithPassword("partdepot"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// NewDatabase runs migrations, so the schema is ready to use.
	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	return db
}

func seedPart(t *testing.T, repo PartRepository, partNumber int, name string, partType model.PartType, location string) *model.Part {
	t.Helper()
	now := time.Now()
	p := &model.Part{
		ID:         uuid.New(),
		PartNumber: partNumber,
		Name:       name,
		PartType:   partType,
		Typt:       "fastener",
		Quantity:   1,
		Location:   location,
		Link:       "https://supplier.example/" + name,
		QuantityHistory: datatypes.JSONSlice[model.QuantityEntry]{
			{Date: now, From: 0, To: 1},
		},
		LocationHistory: datatypes.JSONSlice[model.LocationEntry]{
			{Date: now, From: nil, To: location},
		},
		EventsHistory: datatypes.JSONSlice[model.EventEntry]{},
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPartRepoCreateAndRoundTrip(t *testing.T) {
	repo := NewPartRepository(setupTestDB(t))
	ctx := context.Background()

	created := seedPart(t, repo, 1, "Bolt M3", model.PartTypeConsumable, "Shelf1")

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bolt M3", got.Name)
	assert.Equal(t, 1, got.PartNumber)
	require.Len(t, got.QuantityHistory, 1)
	assert.Equal(t, 0, got.QuantityHistory[0].From)
	assert.Equal(t, 1, got.QuantityHistory[0].To)
	require.Len(t, got.LocationHistory, 1)
	assert.Nil(t, got.LocationHistory[0].From)

	byNumber, err := repo.FindByPartNumber(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)
}

func TestPartRepoUniquePartNumberTranslatesError(t *testing.T) {
	repo := NewPartRepository(setupTestDB(t))

	seedPart(t, repo, 7, "Bolt M3", model.PartTypeConsumable, "Shelf1")

	dup := seedable(7, "Nut M3")
	err := repo.Create(context.Background(), dup)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "expected translated duplicate key error, got %v", err)
}

// seedable builds a part without inserting it.
func seedable(partNumber int, name string) *model.Part {
	return &model.Part{
		ID:         uuid.New(),
		PartNumber: partNumber,
		Name:       name,
		PartType:   model.PartTypeConsumable,
		Typt:       "fastener",
		Quantity:   1,
		Location:   "Shelf1",
		Link:       "https://supplier.example/" + name,
	}
}

func TestPartRepoMaxPartNumber(t *testing.T) {
	repo := NewPartRepository(setupTestDB(t))
	ctx := context.Background()

	max, err := repo.MaxPartNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, max)

	seedPart(t, repo, 3, "Bolt M3", model.PartTypeConsumable, "Shelf1")
	seedPart(t, repo, 11, "Gearbox", model.PartTypeComponent, "Bin1")

	max, err = repo.MaxPartNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, max)
}

func TestPartRepoDistinctLocations(t *testing.T) {
	repo := NewPartRepository(setupTestDB(t))
	ctx := context.Background()

	seedPart(t, repo, 1, "Bolt M3", model.PartTypeConsumable, "Shelf2")
	seedPart(t, repo, 2, "Nut M3", model.PartTypeConsumable, "Shelf1")
	seedPart(t, repo, 3, "Gearbox", model.PartTypeComponent, "Shelf1")

	locations, err := repo.DistinctLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shelf1", "Shelf2"}, locations)
}

func TestPartRepoUpdatePersistsAppendedHistory(t *testing.T) {
	repo := NewPartRepository(setupTestDB(t))
	ctx := context.Background()

	p := seedPart(t, repo, 1, "Bolt M3", model.PartTypeConsumable, "Shelf1")

	from := p.Location
	p.LocationHistory = append(p.LocationHistory, model.LocationEntry{
		Date: time.Now(),
		From: &from,
		To:   "Shelf2",
	})
	p.Location = "Shelf2"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shelf2", got.Location)
	require.Len(t, got.LocationHistory, 2)
	require.NotNil(t, got.LocationHistory[1].From)
	assert.Equal(t, "Shelf1", *got.LocationHistory[1].From)
}

func TestPartRepoCounts(t *testing.T) {
	repo := NewPartRepository(setupTestDB(t))
	ctx := context.Background()

	seedPart(t, repo, 1, "Bolt M3", model.PartTypeConsumable, "Shelf1")
	seedPart(t, repo, 2, "Nut M3", model.PartTypeConsumable, "Shelf1")
	seedPart(t, repo, 3, "Gearbox", model.PartTypeComponent, "Bin1")

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	consumables, err := repo.CountByPartType(ctx, model.PartTypeConsumable)
	require.NoError(t, err)
	assert.Equal(t, int64(2), consumables)

	typts, err := repo.CountByTypt(ctx)
	require.NoError(t, err)
	require.Len(t, typts, 1)
	assert.Equal(t, "fastener", typts[0].Typt)
	assert.Equal(t, int64(3), typts[0].Count)
}
