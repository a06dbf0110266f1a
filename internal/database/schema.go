package database

import (
	"time"

	"mpc-backend/internal/core/types"

	"github.com/google/uuid"
)

// Animal is one labeled observation, either submitted for prediction or
// imported for training.
type Animal struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Height       float64 `gorm:"not null"`
	Weight       float64 `gorm:"not null"`
	WalksOnNLegs int     `gorm:"not null"`
	HasWings     bool    `gorm:"not null"`
	HasTail      bool    `gorm:"not null"`
	AnimalType   string  `gorm:"size:20;not null"`

	Timestamp time.Time `gorm:"not null;index"`
}

func NewAnimal(record types.LabeledRecord, ts time.Time) Animal {
	return Animal{
		Id:           uuid.New(),
		Height:       record.Height,
		Weight:       record.Weight,
		WalksOnNLegs: record.Legs,
		HasWings:     record.HasWings,
		HasTail:      record.HasTail,
		AnimalType:   string(record.AnimalType),
		Timestamp:    ts.UTC(),
	}
}

func (a Animal) Record() types.LabeledRecord {
	return types.LabeledRecord{
		FeatureRecord: types.FeatureRecord{
			Height:   a.Height,
			Weight:   a.Weight,
			Legs:     a.WalksOnNLegs,
			HasWings: a.HasWings,
			HasTail:  a.HasTail,
		},
		AnimalType: types.AnimalType(a.AnimalType),
	}
}
