package station

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ekamauln/livo-mobile-order/internal/assign"
	"github.com/ekamauln/livo-mobile-order/internal/journal"
	"github.com/ekamauln/livo-mobile-order/internal/picking"
	"github.com/ekamauln/livo-mobile-order/internal/scanner"
	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	"github.com/ekamauln/livo-mobile-order/pkg/db/models"
	"github.com/ekamauln/livo-mobile-order/pkg/enums"
	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// Mode is the station's active consuming context for emitted scans.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModePicking   Mode = "picking"
	ModeAssigning Mode = "assigning"
)

const assignTarget = "bulk-assign"

// ScanControl is the aggregator surface the station steers: entering a
// mode attaches a target and opens capture, leaving it detaches.
type ScanControl interface {
	SetListening(on bool)
	SetTarget(target string)
	ClearTarget()
	Listening() bool
	Target() string
}

// OrderSource loads orders from the order service.
type OrderSource interface {
	ListOrders(ctx context.Context) ([]backend.Order, error)
	GetOrder(ctx context.Context, orderID int) (*backend.Order, error)
}

// PickerRoster resolves assignable pickers.
type PickerRoster interface {
	Pickers(ctx context.Context) ([]backend.User, error)
}

// QuantityPrompt is a latched request for operator quantity input after
// a matched scan. It stays up until answered or the session changes.
type QuantityPrompt struct {
	Item         backend.LineItem `json:"item"`
	SuggestedQty int              `json:"suggested_qty"`
}

// Mismatch is the last wrong-product scan, kept for the operator to
// compare against the expected code.
type Mismatch struct {
	Scanned  string `json:"scanned"`
	Expected string `json:"expected"`
}

// promptBoard latches operator-facing prompts between the scan handler
// and whatever renders them. It implements picking.Notifier.
type promptBoard struct {
	mu       sync.Mutex
	qty      *QuantityPrompt
	mismatch *Mismatch
	logg     *logger.Logger
}

func (b *promptBoard) WrongProduct(ctx context.Context, scanned, expected string) {
	b.mu.Lock()
	b.mismatch = &Mismatch{Scanned: scanned, Expected: expected}
	b.mu.Unlock()
	if b.logg != nil {
		ctx = b.logg.WithFields(ctx, map[string]any{"scanned": scanned, "expected": expected})
		b.logg.Warn(ctx, "wrong product scanned")
	}
}

func (b *promptBoard) ConfirmQuantity(ctx context.Context, item backend.LineItem, suggestedQty int) {
	b.mu.Lock()
	b.qty = &QuantityPrompt{Item: item, SuggestedQty: suggestedQty}
	b.mismatch = nil
	b.mu.Unlock()
}

func (b *promptBoard) snapshot() (*QuantityPrompt, *Mismatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var qty *QuantityPrompt
	if b.qty != nil {
		q := *b.qty
		qty = &q
	}
	var mismatch *Mismatch
	if b.mismatch != nil {
		m := *b.mismatch
		mismatch = &m
	}
	return qty, mismatch
}

func (b *promptBoard) clearQty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.qty = nil
}

func (b *promptBoard) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.qty = nil
	b.mismatch = nil
}

// Service routes emitted scan codes to the active consuming context: a
// targeted line item while picking, or the tracking queue while
// assigning. It is the aggregator's emission handler in the station
// binary.
type Service struct {
	mu         sync.Mutex
	mode       Mode
	machine    *picking.Machine
	targetItem *backend.LineItem

	scans      ScanControl
	picker     *picking.Picker
	board      *promptBoard
	reconciler *assign.Reconciler
	directory  PickerRoster
	orders     OrderSource
	completer  picking.OrderCompleter
	approver   picking.PendingApprover
	journal    journal.Recorder
	logg       *logger.Logger
}

// Params carries the service dependencies.
type Params struct {
	Scans      ScanControl
	Orders     OrderSource
	Completer  picking.OrderCompleter
	Approver   picking.PendingApprover
	Reconciler *assign.Reconciler
	Directory  PickerRoster
	Journal    journal.Recorder
	Logger     *logger.Logger
}

// NewService validates the dependency set and builds the dispatcher.
func NewService(p Params) (*Service, error) {
	if p.Scans == nil {
		return nil, fmt.Errorf("scan control required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("order source required")
	}
	if p.Completer == nil {
		return nil, fmt.Errorf("order completer required")
	}
	if p.Approver == nil {
		return nil, fmt.Errorf("pending approver required")
	}
	if p.Reconciler == nil {
		return nil, fmt.Errorf("assign reconciler required")
	}
	if p.Directory == nil {
		return nil, fmt.Errorf("picker roster required")
	}
	if p.Journal == nil {
		p.Journal = journal.Nop{}
	}

	board := &promptBoard{logg: p.Logger}
	picker, err := picking.NewPicker(p.Scans, board)
	if err != nil {
		return nil, err
	}

	return &Service{
		mode:       ModeIdle,
		scans:      p.Scans,
		picker:     picker,
		board:      board,
		reconciler: p.Reconciler,
		directory:  p.Directory,
		orders:     p.Orders,
		completer:  p.Completer,
		approver:   p.Approver,
		journal:    p.Journal,
		logg:       p.Logger,
	}, nil
}

// HandleScan consumes one emitted code. Every capture is journaled for
// the shift audit, then routed by the active mode.
func (s *Service) HandleScan(code scanner.Code) {
	ctx := context.Background()
	if s.logg != nil {
		ctx = s.logg.WithScanSession(ctx, code.Value)
	}

	if err := s.journal.RecordPick(ctx, models.PickEvent{
		Kind:      models.PickEventScanCaptured,
		Barcode:   code.Value,
		CreatedAt: code.CapturedAt,
	}); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "journal write failed")
	}

	s.mu.Lock()
	mode := s.mode
	var item *backend.LineItem
	if s.targetItem != nil {
		snapshot := *s.targetItem
		item = &snapshot
	}
	s.mu.Unlock()

	switch mode {
	case ModeAssigning:
		if s.reconciler.AddScan(code) {
			if s.logg != nil {
				s.logg.Info(ctx, "tracking queued")
			}
			return
		}
		if s.logg != nil {
			s.logg.Info(ctx, "tracking dropped")
		}
	case ModePicking:
		if item == nil {
			return
		}
		if s.picker.Evaluate(ctx, *item, code) == picking.OutcomeMatched {
			s.mu.Lock()
			s.targetItem = nil
			s.mu.Unlock()
		}
	default:
		if s.logg != nil {
			s.logg.Info(ctx, "scan dropped, no active session")
		}
	}
}

// ListOrders passes the assigned-order list through.
func (s *Service) ListOrders(ctx context.Context) ([]backend.Order, error) {
	return s.orders.ListOrders(ctx)
}

// OpenOrder loads an order and makes it the active picking session.
// Capture stays closed until an item is targeted.
func (s *Service) OpenOrder(ctx context.Context, orderID int) (*backend.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	machine, err := picking.NewMachine(order, s.completer, s.approver, s.journal, s.logg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.mode = ModePicking
	s.machine = machine
	s.targetItem = nil
	s.mu.Unlock()

	s.board.clear()
	s.scans.SetListening(false)
	s.scans.ClearTarget()

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order opened")
	}
	return order, nil
}

// CloseOrder abandons the active session and closes capture.
func (s *Service) CloseOrder() {
	s.mu.Lock()
	s.mode = ModeIdle
	s.machine = nil
	s.targetItem = nil
	s.mu.Unlock()

	s.board.clear()
	s.scans.SetListening(false)
	s.scans.ClearTarget()
}

// TargetItem aims the scan session at one line item and opens capture.
func (s *Service) TargetItem(ctx context.Context, itemID int) (backend.LineItem, error) {
	s.mu.Lock()
	machine := s.machine
	mode := s.mode
	s.mu.Unlock()

	if mode != ModePicking || machine == nil {
		return backend.LineItem{}, pkgerrors.New(pkgerrors.CodePrecondition, "open an order before targeting an item")
	}
	item, ok := machine.Item(itemID)
	if !ok {
		return backend.LineItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
	}

	s.mu.Lock()
	s.targetItem = &item
	s.mu.Unlock()

	s.board.clear()
	s.scans.SetTarget("item:" + strconv.Itoa(item.ID))
	s.scans.SetListening(true)
	return item, nil
}

// SubmitQuantity answers the quantity prompt. Invalid input is a no-op
// and the prompt stays up.
func (s *Service) SubmitQuantity(ctx context.Context, itemID int, qtyText string) bool {
	s.mu.Lock()
	machine := s.machine
	s.mu.Unlock()
	if machine == nil {
		return false
	}
	if !machine.ConfirmQuantity(ctx, itemID, qtyText) {
		return false
	}
	s.board.clearQty()
	return true
}

// Complete submits the active order's completion transition.
func (s *Service) Complete(ctx context.Context) error {
	machine := s.currentMachine()
	if machine == nil {
		return pkgerrors.New(pkgerrors.CodePrecondition, "no open order")
	}
	return machine.Complete(ctx)
}

// RequestPending submits the pending transition through the step-up
// gate with the coordinator credential pair.
func (s *Service) RequestPending(ctx context.Context, username, password string) error {
	machine := s.currentMachine()
	if machine == nil {
		return pkgerrors.New(pkgerrors.CodePrecondition, "no open order")
	}
	return machine.RequestPending(ctx, username, password)
}

func (s *Service) currentMachine() *picking.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine
}

// StartAssign resolves the picker from the roster, opens an assignment
// session, and starts capturing tracking codes.
func (s *Service) StartAssign(ctx context.Context, pickerID int) (backend.User, error) {
	pickers, err := s.directory.Pickers(ctx)
	if err != nil {
		return backend.User{}, err
	}
	for _, picker := range pickers {
		if picker.ID != pickerID {
			continue
		}
		s.reconciler.SetAssignee(picker)

		s.mu.Lock()
		s.mode = ModeAssigning
		s.machine = nil
		s.targetItem = nil
		s.mu.Unlock()

		s.board.clear()
		s.scans.SetTarget(assignTarget)
		s.scans.SetListening(true)

		if s.logg != nil {
			s.logg.Info(s.logg.WithPickerID(ctx, pickerID), "assignment session started")
		}
		return picker, nil
	}
	return backend.User{}, pkgerrors.New(pkgerrors.CodeNotFound, "picker not found in directory")
}

// PauseAssign abandons the scanned queue and closes capture. The
// assignee survives so the session can resume.
func (s *Service) PauseAssign() {
	s.reconciler.Pause()
	s.scans.SetListening(false)
}

// SubmitAssign sends the queued trackings to the assignment service.
func (s *Service) SubmitAssign(ctx context.Context) (*assign.Outcome, error) {
	return s.reconciler.Submit(ctx)
}

// RemoveTracking drops one queued code.
func (s *Service) RemoveTracking(value string) {
	s.reconciler.Remove(value)
}

// Status is the station's full operator-visible state.
type Status struct {
	Mode        Mode               `json:"mode"`
	Listening   bool               `json:"listening"`
	Target      string             `json:"target"`
	OrderID     int                `json:"order_id,omitempty"`
	OrderStatus enums.OrderStatus  `json:"order_status,omitempty"`
	Items       []backend.LineItem `json:"items,omitempty"`
	CanComplete bool               `json:"can_complete"`
	Trackings   []string           `json:"trackings,omitempty"`
	Assignee    *backend.User      `json:"assignee,omitempty"`
	Prompt      *QuantityPrompt    `json:"prompt,omitempty"`
	Mismatch    *Mismatch          `json:"mismatch,omitempty"`
}

// Status snapshots the current session.
func (s *Service) Status() Status {
	s.mu.Lock()
	mode := s.mode
	machine := s.machine
	s.mu.Unlock()

	status := Status{
		Mode:      mode,
		Listening: s.scans.Listening(),
		Target:    s.scans.Target(),
	}

	if machine != nil {
		status.OrderID = machine.OrderID()
		status.OrderStatus = machine.Status()
		status.Items = machine.Items()
		status.CanComplete = machine.CanComplete()
	}

	if mode == ModeAssigning {
		status.Trackings = s.reconciler.Trackings()
		if assignee, ok := s.reconciler.Assignee(); ok {
			status.Assignee = &assignee
		}
	}

	status.Prompt, status.Mismatch = s.board.snapshot()
	return status
}
