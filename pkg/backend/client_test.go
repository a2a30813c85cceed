package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append(opts, WithHTTPClient(&http.Client{Transport: rt}))
	client, err := NewClient("http://backend.test/api", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestGetOrderNormalizesOrderDetails(t *testing.T) {
	const respBody = `{"success":true,"message":"ok","data":{"id":9,"tracking":"TRK-9","event_status":"assigned","order_details":[{"id":1,"sku":"SKU-1","product_name":"Widget","quantity":5,"product":{"id":10,"sku":"SKU-1","name":"Widget","barcode":"890123"}}]}}`

	var capturedURL, capturedAuth string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, respBody), nil
	})

	client := newTestClient(t, rt, WithTokenSource(staticToken("tok-1")))

	order, err := client.GetOrder(context.Background(), 9)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if capturedURL != "http://backend.test/api/mobile/orders/9" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", capturedAuth)
	}
	if len(order.Items) != 1 || order.AltItems != nil {
		t.Fatalf("expected order_details folded into items, got %+v", order)
	}
	if got := order.Items[0].ExpectedBarcode(); got != "890123" {
		t.Fatalf("expected catalog barcode, got %q", got)
	}
}

func TestGetOrderPrefersProducts(t *testing.T) {
	const respBody = `{"success":true,"data":{"id":3,"tracking":"TRK-3","event_status":"assigned","products":[{"id":1,"sku":"A","product_name":"A","quantity":1}],"order_details":[{"id":2,"sku":"B","product_name":"B","quantity":1}]}}`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, respBody), nil
	})
	client := newTestClient(t, rt)

	order, err := client.GetOrder(context.Background(), 3)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].SKU != "A" {
		t.Fatalf("expected products preferred over order_details, got %+v", order.Items)
	}
}

func TestExpectedBarcodeFallsBackToSKU(t *testing.T) {
	item := LineItem{SKU: "SKU-77"}
	if got := item.ExpectedBarcode(); got != "SKU-77" {
		t.Fatalf("expected sku fallback, got %q", got)
	}
	item.Product = &ProductDetail{Barcode: ""}
	if got := item.ExpectedBarcode(); got != "SKU-77" {
		t.Fatalf("empty catalog barcode should fall back to sku, got %q", got)
	}
}

func TestPendingPickMapsRejectionToStepUp(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["username"] != "coord" || payload["password"] != "bad" {
			t.Fatalf("unexpected credential payload %v", payload)
		}
		return jsonResponse(http.StatusUnauthorized, `{"success":false,"message":"invalid coordinator credentials"}`), nil
	})
	client := newTestClient(t, rt)

	err := client.PendingPick(context.Background(), 4, "coord", "bad")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStepUp) {
		t.Fatalf("expected step-up code, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() != "invalid coordinator credentials" {
		t.Fatalf("expected server message preserved, got %q", typed.Message())
	}
}

func TestBulkAssignSurfacesSummaryVerbatim(t *testing.T) {
	const respBody = `{"success":true,"message":"Assignment Complete","data":{"summary":{"total":2,"assigned":1,"skipped":1,"failed":0}}}`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		var payload struct {
			PickerID  int      `json:"picker_id"`
			Trackings []string `json:"trackings"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload.PickerID != 7 || len(payload.Trackings) != 2 {
			t.Fatalf("unexpected payload %+v", payload)
		}
		return jsonResponse(http.StatusOK, respBody), nil
	})
	client := newTestClient(t, rt)

	summary, message, err := client.BulkAssignPicker(context.Background(), 7, []string{"T1", "T2"})
	if err != nil {
		t.Fatalf("bulk assign: %v", err)
	}
	if message != "Assignment Complete" {
		t.Fatalf("unexpected message %q", message)
	}
	if summary.Total != 2 || summary.Assigned != 1 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Fatalf("summary not surfaced verbatim: %+v", summary)
	}
}

func TestTransportErrorMapsToDependency(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, io.ErrUnexpectedEOF
	})
	client := newTestClient(t, rt)

	_, err := client.ListOrders(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code, got %v", err)
	}
}

func TestListUsersBuildsPaginationQuery(t *testing.T) {
	const respBody = `{"success":true,"data":{"users":[{"id":1,"username":"ana","full_name":"Ana","roles":[{"id":2,"name":"picker"}]}],"pagination":{"current_page":1,"last_page":1,"total":1,"per_page":50}}}`

	var capturedQuery string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedQuery = req.URL.RawQuery
		return jsonResponse(http.StatusOK, respBody), nil
	})
	client := newTestClient(t, rt)

	page, err := client.ListUsers(context.Background(), 1, 50, "")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if !strings.Contains(capturedQuery, "page=1") || !strings.Contains(capturedQuery, "limit=50") {
		t.Fatalf("unexpected query %q", capturedQuery)
	}
	if len(page.Users) != 1 || page.Pagination.Total != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestLoginRejectsBlankCredentialsLocally(t *testing.T) {
	called := false
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		called = true
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	client := newTestClient(t, rt)

	if _, err := client.Login(context.Background(), "  ", "pw"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatalf("blank credentials must not hit the network")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
