package assign

import (
	"context"
	"fmt"
	"sync"

	"github.com/ekamauln/livo-mobile-order/internal/journal"
	"github.com/ekamauln/livo-mobile-order/internal/scanner"
	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	"github.com/ekamauln/livo-mobile-order/pkg/db/models"
	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// BulkAssigner is the slice of the backend the reconciler submits to.
type BulkAssigner interface {
	BulkAssignPicker(ctx context.Context, pickerID int, trackings []string) (*backend.AssignSummary, string, error)
}

// Outcome is what the operator sees after a successful submission: the
// service's counts, untouched, plus its headline message.
type Outcome struct {
	Summary backend.AssignSummary
	Message string
}

// Reconciler runs one bulk-assignment session: a deduplicated tracking
// set plus a chosen assignee, reconciled against the assignment
// service's response.
type Reconciler struct {
	mu         sync.Mutex
	set        *TrackingSet
	assignee   *backend.User
	submitting bool

	backend BulkAssigner
	journal journal.Recorder
	logg    *logger.Logger
}

// NewReconciler builds a reconciler with an empty session.
func NewReconciler(svc BulkAssigner, rec journal.Recorder, logg *logger.Logger) (*Reconciler, error) {
	if svc == nil {
		return nil, fmt.Errorf("bulk assigner required")
	}
	if rec == nil {
		rec = journal.Nop{}
	}
	return &Reconciler{
		set:     NewTrackingSet(),
		backend: svc,
		journal: rec,
		logg:    logg,
	}, nil
}

// SetAssignee chooses the picker that scanned codes will attach to.
func (r *Reconciler) SetAssignee(user backend.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignee = &user
}

// Assignee returns the chosen picker, if any.
func (r *Reconciler) Assignee() (backend.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignee == nil {
		return backend.User{}, false
	}
	return *r.assignee, true
}

// AddScan admits an emitted scan into the session. Scans delivered
// before an assignee is chosen are ignored, and duplicates are dropped.
func (r *Reconciler) AddScan(code scanner.Code) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignee == nil {
		return false
	}
	return r.set.Add(code.Value)
}

// Remove drops one code from the session.
func (r *Reconciler) Remove(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Remove(value)
}

// Trackings returns the session's codes in scan order.
func (r *Reconciler) Trackings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.Values()
}

// Pause abandons the session: the scanned queue is cleared along with
// the capture state the caller resets on its aggregator.
func (r *Reconciler) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Clear()
}

// Submit sends the session to the assignment service. Missing assignee
// or an empty set fail fast without a network call. On success the
// service's counts are surfaced verbatim and the session is cleared; on
// failure the set is preserved so the operator retries without
// rescanning.
func (r *Reconciler) Submit(ctx context.Context) (*Outcome, error) {
	r.mu.Lock()
	if r.submitting {
		r.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a submission is already in flight")
	}
	if r.assignee == nil {
		r.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "select a picker before submitting")
	}
	if r.set.Len() == 0 {
		r.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "scan at least one tracking number")
	}
	r.submitting = true
	pickerID := r.assignee.ID
	trackings := r.set.Values()
	r.mu.Unlock()

	summary, message, err := r.backend.BulkAssignPicker(ctx, pickerID, trackings)

	r.mu.Lock()
	r.submitting = false
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.set.Clear()
	r.mu.Unlock()

	if jerr := r.journal.RecordBatch(ctx, models.AssignmentBatch{
		PickerID: pickerID,
		Total:    summary.Total,
		Assigned: summary.Assigned,
		Skipped:  summary.Skipped,
		Failed:   summary.Failed,
	}); jerr != nil && r.logg != nil {
		r.logg.Warn(r.logg.WithPickerID(ctx, pickerID), "journal write failed")
	}

	return &Outcome{Summary: *summary, Message: message}, nil
}
