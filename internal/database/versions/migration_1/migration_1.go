package migration_1

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Range queries on stored animals filter by timestamp.
type Animal struct {
	Timestamp time.Time `gorm:"not null;index"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateIndex(&Animal{}, "Timestamp"); err != nil {
		return fmt.Errorf("error creating timestamp index: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Animal{}, "Timestamp"); err != nil {
		return fmt.Errorf("error dropping timestamp index: %w", err)
	}
	return nil
}
