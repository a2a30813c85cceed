package picking

import (
	"context"
	"fmt"
	"sync"

	"github.com/ekamauln/livo-mobile-order/internal/journal"
	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	"github.com/ekamauln/livo-mobile-order/pkg/db/models"
	"github.com/ekamauln/livo-mobile-order/pkg/enums"
	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// OrderCompleter is the slice of the backend the machine submits to.
type OrderCompleter interface {
	CompleteOrder(ctx context.Context, orderID int) error
}

// PendingApprover runs the step-up check and the pending transition.
type PendingApprover interface {
	Approve(ctx context.Context, orderID int, username, password string) error
}

// Machine owns the station-local state of one order: per-line-item pick
// progress and the completion/pending transitions. Local mutations are
// optimistic; only the two terminal transitions reach the order service.
type Machine struct {
	mu         sync.Mutex
	order      *backend.Order
	status     enums.OrderStatus
	submitting bool

	completer OrderCompleter
	approver  PendingApprover
	journal   journal.Recorder
	logg      *logger.Logger
}

// NewMachine wraps a freshly loaded order.
func NewMachine(order *backend.Order, completer OrderCompleter, approver PendingApprover, rec journal.Recorder, logg *logger.Logger) (*Machine, error) {
	if order == nil {
		return nil, fmt.Errorf("order required")
	}
	if completer == nil {
		return nil, fmt.Errorf("order completer required")
	}
	if approver == nil {
		return nil, fmt.Errorf("pending approver required")
	}
	if rec == nil {
		rec = journal.Nop{}
	}

	status, err := enums.ParseOrderStatus(order.EventStatus)
	if err != nil {
		status = enums.OrderStatusAssigned
	}

	return &Machine{
		order:     order,
		status:    status,
		completer: completer,
		approver:  approver,
		journal:   rec,
		logg:      logg,
	}, nil
}

// OrderID returns the wrapped order's id.
func (m *Machine) OrderID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.ID
}

// Status returns the station-local order status.
func (m *Machine) Status() enums.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Items returns a snapshot of the order's line items.
func (m *Machine) Items() []backend.LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backend.LineItem, len(m.order.Items))
	copy(out, m.order.Items)
	return out
}

// Item looks up one line item by id.
func (m *Machine) Item(itemID int) (backend.LineItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.order.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return backend.LineItem{}, false
}

// ConfirmQuantity applies a confirmed quantity to a line item. Invalid
// input is a no-op. A valid confirmation overwrites the picked quantity
// and moves an assigned order into in_progress.
func (m *Machine) ConfirmQuantity(ctx context.Context, itemID int, qtyText string) bool {
	qty, ok := ParseQuantity(qtyText)
	if !ok {
		return false
	}

	m.mu.Lock()
	var updated *backend.LineItem
	for i := range m.order.Items {
		if m.order.Items[i].ID == itemID {
			m.order.Items[i].PickedQty = qty
			updated = &m.order.Items[i]
			break
		}
	}
	if updated == nil {
		m.mu.Unlock()
		return false
	}
	if m.status == enums.OrderStatusAssigned {
		m.status = enums.OrderStatusInProgress
	}
	event := models.PickEvent{
		Kind:        models.PickEventQtyPicked,
		OrderID:     m.order.ID,
		Tracking:    m.order.Tracking,
		LineItemID:  updated.ID,
		Barcode:     updated.ExpectedBarcode(),
		RequiredQty: updated.RequiredQty,
		PickedQty:   qty,
	}
	m.mu.Unlock()

	m.record(ctx, event)
	return true
}

// CanComplete reports whether every line item is fully picked. An order
// without line items never completes.
func (m *Machine) CanComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canCompleteLocked()
}

func (m *Machine) canCompleteLocked() bool {
	if len(m.order.Items) == 0 {
		return false
	}
	for _, item := range m.order.Items {
		if !item.IsComplete() {
			return false
		}
	}
	return true
}

// Complete submits the completion transition. The UI disables the action
// unless CanComplete holds; an out-of-contract call fails deterministically
// without touching the network. One submission may be in flight per order.
func (m *Machine) Complete(ctx context.Context) error {
	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "a submission is already in flight")
	}
	if !m.canCompleteLocked() {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodePrecondition, "order has unpicked line items")
	}
	m.submitting = true
	orderID := m.order.ID
	tracking := m.order.Tracking
	m.mu.Unlock()

	err := m.completer.CompleteOrder(ctx, orderID)

	m.mu.Lock()
	m.submitting = false
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.status = enums.OrderStatusComplete
	m.mu.Unlock()

	m.record(ctx, models.PickEvent{
		Kind:     models.PickEventCompleted,
		OrderID:  orderID,
		Tracking: tracking,
	})
	return nil
}

// RequestPending asks for the pending transition. It is allowed
// regardless of pick completeness but goes through the step-up approval
// gate; the same single-submission guard applies.
func (m *Machine) RequestPending(ctx context.Context, username, password string) error {
	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "a submission is already in flight")
	}
	m.submitting = true
	orderID := m.order.ID
	tracking := m.order.Tracking
	m.mu.Unlock()

	err := m.approver.Approve(ctx, orderID, username, password)

	m.mu.Lock()
	m.submitting = false
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.status = enums.OrderStatusPending
	m.mu.Unlock()

	m.record(ctx, models.PickEvent{
		Kind:     models.PickEventPending,
		OrderID:  orderID,
		Tracking: tracking,
	})
	return nil
}

// record appends an audit row; journal failures never surface to the
// operator.
func (m *Machine) record(ctx context.Context, event models.PickEvent) {
	if err := m.journal.RecordPick(ctx, event); err != nil && m.logg != nil {
		m.logg.Warn(m.logg.WithOrderID(ctx, event.OrderID), "journal write failed")
	}
}
