package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ekamauln/livo-mobile-order/pkg/db/models"
)

// Recorder appends shift-audit rows. Implementations must treat writes
// as best-effort; callers log and move on when a write fails.
type Recorder interface {
	RecordPick(ctx context.Context, event models.PickEvent) error
	RecordBatch(ctx context.Context, batch models.AssignmentBatch) error
}

// Store persists audit rows in the embedded station journal.
type Store struct {
	conn *gorm.DB
}

// NewStore builds a journal store over the given connection.
func NewStore(conn *gorm.DB) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("journal connection required")
	}
	return &Store{conn: conn}, nil
}

func (s *Store) RecordPick(ctx context.Context, event models.PickEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return s.conn.WithContext(ctx).Create(&event).Error
}

func (s *Store) RecordBatch(ctx context.Context, batch models.AssignmentBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	return s.conn.WithContext(ctx).Create(&batch).Error
}

// Nop discards all writes; used when the journal is disabled.
type Nop struct{}

func (Nop) RecordPick(ctx context.Context, event models.PickEvent) error {
	return nil
}

func (Nop) RecordBatch(ctx context.Context, batch models.AssignmentBatch) error {
	return nil
}
