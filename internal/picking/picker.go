package picking

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ekamauln/livo-mobile-order/internal/scanner"
	"github.com/ekamauln/livo-mobile-order/pkg/backend"
)

// Outcome is the result of evaluating a scan against a target item.
type Outcome string

const (
	OutcomeMatched    Outcome = "matched"
	OutcomeMismatched Outcome = "mismatched"
)

// Notifier surfaces operator-visible prompts. The station UI (out of
// scope here) renders them however it likes.
type Notifier interface {
	// WrongProduct tells the operator both values so they can retry.
	WrongProduct(ctx context.Context, scanned, expected string)
	// ConfirmQuantity asks for the picked count, pre-filled with the
	// suggested default.
	ConfirmQuantity(ctx context.Context, item backend.LineItem, suggestedQty int)
}

// ScanSession is the slice of the aggregator the picker steers.
type ScanSession interface {
	SetListening(on bool)
	ClearTarget()
}

// Picker decides match/mismatch for scans against one target line item.
type Picker struct {
	session  ScanSession
	notifier Notifier
}

// NewPicker builds a picker over the given scan session and notifier.
func NewPicker(session ScanSession, notifier Notifier) (*Picker, error) {
	if session == nil {
		return nil, fmt.Errorf("scan session required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Picker{session: session, notifier: notifier}, nil
}

// Evaluate compares the scan against the item's expected barcode with
// exact string equality; catalog barcodes are canonical, so no
// case-folding or fuzzing. A match closes the scan session and hands off
// to quantity confirmation; a mismatch leaves the session open for an
// immediate retry.
func (p *Picker) Evaluate(ctx context.Context, target backend.LineItem, code scanner.Code) Outcome {
	expected := target.ExpectedBarcode()
	if code.Value != expected {
		p.notifier.WrongProduct(ctx, code.Value, expected)
		return OutcomeMismatched
	}

	p.session.SetListening(false)
	p.session.ClearTarget()
	p.notifier.ConfirmQuantity(ctx, target, target.RequiredQty)
	return OutcomeMatched
}

// ParseQuantity parses operator quantity input. Non-numeric or
// non-positive values report ok=false and must be treated as a no-op,
// never an error.
func ParseQuantity(text string) (int, bool) {
	qty, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || qty <= 0 {
		return 0, false
	}
	return qty, true
}
