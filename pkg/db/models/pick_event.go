package models

import (
	"time"

	"github.com/google/uuid"
)

// PickEventKind classifies journal rows.
type PickEventKind string

const (
	PickEventScanCaptured PickEventKind = "scan_captured"
	PickEventScanMatched  PickEventKind = "scan_matched"
	PickEventQtyPicked    PickEventKind = "qty_picked"
	PickEventCompleted    PickEventKind = "completed"
	PickEventPending      PickEventKind = "pending"
)

// PickEvent is one append-only shift-audit row. The journal is
// best-effort; it never gates a pick.
type PickEvent struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	Kind        PickEventKind `gorm:"column:kind;not null;index"`
	OrderID     int           `gorm:"column:order_id;not null;index"`
	Tracking    string        `gorm:"column:tracking"`
	LineItemID  int           `gorm:"column:line_item_id"`
	Barcode     string        `gorm:"column:barcode"`
	RequiredQty int           `gorm:"column:required_qty"`
	PickedQty   int           `gorm:"column:picked_qty"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
}
