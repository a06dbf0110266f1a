package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mpc-backend/internal/core/types"

	"gorm.io/gorm"
)

const insertBatchSize = 500

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping(ctx context.Context) error {
	return Ping(ctx, r.db)
}

// InsertAnimals stores the records in one transaction, all stamped with ts.
func (r *Repository) InsertAnimals(ctx context.Context, records []types.LabeledRecord, ts time.Time) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]Animal, len(records))
	for i, record := range records {
		rows[i] = NewAnimal(record, ts)
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		slog.Error("error saving animals", "count", len(rows), "error", err)
		return fmt.Errorf("failed to save animals: %w", err)
	}

	slog.Info("saved animals", "count", len(rows))
	return nil
}

// AnimalsBetween returns the animals with start <= timestamp <= end ordered by
// timestamp.
func (r *Repository) AnimalsBetween(ctx context.Context, start, end time.Time) ([]Animal, error) {
	var rows []Animal
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start.UTC(), end.UTC()).
		Order("timestamp, id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not query animals: %w", err)
	}
	return rows, nil
}
