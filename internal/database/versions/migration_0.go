package versions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Animal struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Height       float64 `gorm:"not null"`
	Weight       float64 `gorm:"not null"`
	WalksOnNLegs int     `gorm:"not null"`
	HasWings     bool    `gorm:"not null"`
	HasTail      bool    `gorm:"not null"`
	AnimalType   string  `gorm:"size:20;not null"`

	Timestamp time.Time `gorm:"not null"`
}

func Migration0(db *gorm.DB) error {
	if err := db.AutoMigrate(&Animal{}); err != nil {
		return fmt.Errorf("error creating animals table: %w", err)
	}
	return nil
}
