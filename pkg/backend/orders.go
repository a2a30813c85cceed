package backend

import (
	"context"
	"fmt"
	"net/http"

	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
)

// ListOrders returns the orders assigned to the current operator.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if _, err := c.do(ctx, http.MethodGet, "/mobile/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Normalize()
	}
	return orders, nil
}

// GetOrder loads one order with its line items.
func (c *Client) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	var order Order
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/mobile/orders/%d", orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	order.Normalize()
	return &order, nil
}

// CompleteOrder marks the order complete. The caller guarantees every
// line item is fully picked before invoking this.
func (c *Client) CompleteOrder(ctx context.Context, orderID int) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/mobile/orders/%d/complete", orderID), nil, nil, nil)
	return err
}

type pendingPickRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PendingPick requests the pending transition. The coordinator credential
// pair rides along for the server-side step-up check; a rejection comes
// back as CodeStepUp with the server's message.
func (c *Client) PendingPick(ctx context.Context, orderID int, username, password string) error {
	body := pendingPickRequest{Username: username, Password: password}
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/mobile/orders/%d/pending-pick", orderID), nil, body, nil)
	if err != nil && pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		typed := pkgerrors.As(err)
		return pkgerrors.New(pkgerrors.CodeStepUp, typed.Message())
	}
	return err
}

type bulkAssignRequest struct {
	PickerID  int      `json:"picker_id"`
	Trackings []string `json:"trackings"`
}

// BulkAssignPicker submits scanned tracking codes for assignment and
// returns the service's per-code outcome counts unchanged.
func (c *Client) BulkAssignPicker(ctx context.Context, pickerID int, trackings []string) (*AssignSummary, string, error) {
	var data struct {
		Summary *AssignSummary `json:"summary"`
	}
	message, err := c.do(ctx, http.MethodPost, "/mobile/orders/bulk-assign-picker", nil, bulkAssignRequest{PickerID: pickerID, Trackings: trackings}, &data)
	if err != nil {
		return nil, "", err
	}
	if data.Summary == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeDependency, "bulk assign response missing summary")
	}
	return data.Summary, message, nil
}
