package database_test

import (
	"context"
	"testing"
	"time"

	"mpc-backend/internal/core/types"
	"mpc-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

func record(height float64, animal types.AnimalType) types.LabeledRecord {
	return types.LabeledRecord{
		FeatureRecord: types.FeatureRecord{Height: height, Weight: 10, Legs: 4, HasTail: true},
		AnimalType:    animal,
	}
}

func TestRepository_InsertAndQuery(t *testing.T) {
	repo := database.NewRepository(setupDB(t))
	ctx := context.Background()

	day := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertAnimals(ctx, []types.LabeledRecord{record(0.5, types.Dog)}, day))
	require.NoError(t, repo.InsertAnimals(ctx, []types.LabeledRecord{record(0.6, types.Dog), record(3, types.Elephant)}, day.Add(24*time.Hour)))
	require.NoError(t, repo.InsertAnimals(ctx, []types.LabeledRecord{record(0.7, types.Dog)}, day.Add(48*time.Hour)))

	rows, err := repo.AnimalsBetween(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 3, "both bounds are inclusive")
	assert.Equal(t, record(0.5, types.Dog), rows[0].Record())
	assert.True(t, rows[0].Timestamp.Equal(day))
	assert.ElementsMatch(t,
		[]types.LabeledRecord{record(0.6, types.Dog), record(3, types.Elephant)},
		[]types.LabeledRecord{rows[1].Record(), rows[2].Record()})

	rows, err = repo.AnimalsBetween(ctx, day.Add(time.Minute), day.Add(47*time.Hour))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.AnimalsBetween(ctx, day.Add(72*time.Hour), day.Add(96*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepository_InsertNothing(t *testing.T) {
	repo := database.NewRepository(setupDB(t))
	require.NoError(t, repo.InsertAnimals(context.Background(), nil, time.Now()))
}

func TestRepository_Ping(t *testing.T) {
	db := setupDB(t)
	repo := database.NewRepository(db)
	require.NoError(t, repo.Ping(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	assert.Error(t, repo.Ping(context.Background()))
}

func TestGetMigrator_Idempotent(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, database.GetMigrator(db).Migrate())
	assert.True(t, db.Migrator().HasTable(&database.Animal{}))
	assert.True(t, db.Migrator().HasIndex(&database.Animal{}, "Timestamp"))
}
