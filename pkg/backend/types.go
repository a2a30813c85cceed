package backend

import "github.com/ekamauln/livo-mobile-order/pkg/enums"

// Role is one directory role attached to a user.
type Role struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// User is a directory entry.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Roles    []Role `json:"roles"`
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(role enums.Role) bool {
	for _, r := range u.Roles {
		if r.Name == string(role) {
			return true
		}
	}
	return false
}

// LoginResult carries the token pair and profile returned by the
// authenticator.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ProductDetail is the nested catalog record on a line item; Barcode is
// what the physical label carries.
type ProductDetail struct {
	ID       int    `json:"id"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Variant  string `json:"variant,omitempty"`
	Location string `json:"location,omitempty"`
	Barcode  string `json:"barcode,omitempty"`
}

// LineItem is one product entry within an order. PickedQty is station-local
// state; the service only receives the completion/pending transitions.
type LineItem struct {
	ID          int            `json:"id"`
	SKU         string         `json:"sku"`
	ProductName string         `json:"product_name"`
	Variant     string         `json:"variant"`
	RequiredQty int            `json:"quantity"`
	Product     *ProductDetail `json:"product,omitempty"`
	PickedQty   int            `json:"picked_qty,omitempty"`
}

// ExpectedBarcode resolves the value a scan must match: the catalog
// barcode when present, the SKU otherwise.
func (li LineItem) ExpectedBarcode() string {
	if li.Product != nil && li.Product.Barcode != "" {
		return li.Product.Barcode
	}
	return li.SKU
}

// IsComplete reports whether the required quantity has been picked.
func (li LineItem) IsComplete() bool {
	return li.PickedQty >= li.RequiredQty
}

// Order is the station's view of one pick order. The service serializes
// line items under either "products" or "order_details"; Normalize folds
// the two so callers only ever read Items.
type Order struct {
	ID               int        `json:"id"`
	GineeID          string     `json:"order_ginee_id"`
	ProcessingStatus string     `json:"processing_status,omitempty"`
	EventStatus      string     `json:"event_status"`
	Channel          string     `json:"channel"`
	Store            string     `json:"store"`
	Courier          string     `json:"courier"`
	Tracking         string     `json:"tracking"`
	SentBefore       string     `json:"sent_before"`
	AssignedBy       string     `json:"assigned_by,omitempty"`
	AssignedAt       string     `json:"assigned_at,omitempty"`
	PickedBy         string     `json:"picked_by,omitempty"`
	PickedAt         string     `json:"picked_at,omitempty"`
	Items            []LineItem `json:"products,omitempty"`
	AltItems         []LineItem `json:"order_details,omitempty"`
}

// Normalize prefers products and falls back to order_details.
func (o *Order) Normalize() {
	if len(o.Items) == 0 && len(o.AltItems) > 0 {
		o.Items = o.AltItems
	}
	o.AltItems = nil
}

// AssignSummary is the per-submission outcome of a bulk assignment,
// surfaced to the operator verbatim.
type AssignSummary struct {
	Total    int `json:"total"`
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Pagination is the directory listing cursor metadata.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}
