package approval

import (
	"context"
	"fmt"

	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

// PendingSubmitter carries the credential pair to the order service,
// which performs the actual re-authentication.
type PendingSubmitter interface {
	PendingPick(ctx context.Context, orderID int, username, password string) error
}

// Gate exchanges coordinator credentials for permission to mark an order
// pending. The station never validates credentials itself; it is a
// transport for a server-side step-up check.
type Gate struct {
	backend PendingSubmitter
	logg    *logger.Logger
}

// NewGate builds the approval gate.
func NewGate(backend PendingSubmitter, logg *logger.Logger) (*Gate, error) {
	if backend == nil {
		return nil, fmt.Errorf("pending submitter required")
	}
	return &Gate{backend: backend, logg: logg}, nil
}

// Request holds one in-flight credential pair. It lives only for the
// duration of a single approval call and wipes itself on every exit
// path, so a stale pair can never be reused for a different coordinator.
type Request struct {
	gate     *Gate
	orderID  int
	username string
	password string
}

// Begin opens a credential collection for the given order.
func (g *Gate) Begin(orderID int) *Request {
	return &Request{gate: g, orderID: orderID}
}

// SetCredentials stores the coordinator pair in memory.
func (r *Request) SetCredentials(username, password string) {
	r.username = username
	r.password = password
}

// Empty reports whether the credential fields have been wiped.
func (r *Request) Empty() bool {
	return r.username == "" && r.password == ""
}

// Submit sends the pending transition with the collected credentials.
// The fields are cleared whether the server accepts or rejects.
func (r *Request) Submit(ctx context.Context) error {
	defer r.clear()

	if r.username == "" || r.password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinator username and password are required")
	}

	if err := r.gate.backend.PendingPick(ctx, r.orderID, r.username, r.password); err != nil {
		if r.gate.logg != nil {
			r.gate.logg.Warn(r.gate.logg.WithOrderID(ctx, r.orderID), "pending approval rejected")
		}
		return err
	}
	return nil
}

func (r *Request) clear() {
	r.username = ""
	r.password = ""
}

// Approve is the one-shot path: collect, submit, wipe.
func (g *Gate) Approve(ctx context.Context, orderID int, username, password string) error {
	req := g.Begin(orderID)
	req.SetCredentials(username, password)
	return req.Submit(ctx)
}
