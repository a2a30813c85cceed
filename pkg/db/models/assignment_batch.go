package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentBatch records one submitted bulk-assignment session and the
// outcome counts the service reported for it.
type AssignmentBatch struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PickerID  int       `gorm:"column:picker_id;not null;index"`
	Total     int       `gorm:"column:total;not null"`
	Assigned  int       `gorm:"column:assigned;not null"`
	Skipped   int       `gorm:"column:skipped;not null"`
	Failed    int       `gorm:"column:failed;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
