package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ekamauln/livo-mobile-order/api/controllers"
	"github.com/ekamauln/livo-mobile-order/internal/assign"
	"github.com/ekamauln/livo-mobile-order/internal/scanner"
	"github.com/ekamauln/livo-mobile-order/internal/station"
	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	"github.com/ekamauln/livo-mobile-order/pkg/config"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
)

type stubBridge struct {
	mu        sync.Mutex
	deltas    []string
	submits   int
	listening bool
}

func (b *stubBridge) OnRawDelta(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deltas = append(b.deltas, text)
}

func (b *stubBridge) OnExplicitSubmit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submits++
}

func (b *stubBridge) SetListening(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listening = on
}

func (b *stubBridge) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type stubSessions struct {
	user backend.User
	err  error
}

func (s *stubSessions) Login(ctx context.Context, username, password string) (*backend.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.user, nil
}

func (s *stubSessions) Logout() {}

func (s *stubSessions) Current() (backend.User, bool) {
	return s.user, s.user.ID != 0
}

type stubOrders struct {
	order *backend.Order
}

func (o *stubOrders) ListOrders(ctx context.Context) ([]backend.Order, error) {
	return []backend.Order{*o.order}, nil
}

func (o *stubOrders) GetOrder(ctx context.Context, orderID int) (*backend.Order, error) {
	return o.order, nil
}

type stubCompleter struct{}

func (stubCompleter) CompleteOrder(ctx context.Context, orderID int) error {
	return nil
}

type stubApprover struct{}

func (stubApprover) Approve(ctx context.Context, orderID int, username, password string) error {
	return nil
}

type stubRoster struct {
	pickers []backend.User
}

func (r *stubRoster) Pickers(ctx context.Context) ([]backend.User, error) {
	return r.pickers, nil
}

type stubAssigner struct{}

func (stubAssigner) BulkAssignPicker(ctx context.Context, pickerID int, trackings []string) (*backend.AssignSummary, string, error) {
	return &backend.AssignSummary{Total: len(trackings), Assigned: len(trackings)}, "assigned", nil
}

type nopSink struct{}

func (nopSink) Focus() {}
func (nopSink) Clear() {}

func testOrder() *backend.Order {
	return &backend.Order{
		ID:          42,
		Tracking:    "TRK-42",
		EventStatus: "assigned",
		Items: []backend.LineItem{
			{ID: 7, SKU: "SKU-7", RequiredQty: 2, Product: &backend.ProductDetail{Barcode: "BC-7"}},
		},
	}
}

// newStationService builds a real dispatcher over the given aggregator
// with stubbed backend collaborators.
func newStationService(t *testing.T, agg *scanner.Aggregator) *station.Service {
	t.Helper()
	reconciler, err := assign.NewReconciler(stubAssigner{}, nil, nil)
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}
	svc, err := station.NewService(station.Params{
		Scans:      agg,
		Orders:     &stubOrders{order: testOrder()},
		Completer:  stubCompleter{},
		Approver:   stubApprover{},
		Reconciler: reconciler,
		Directory:  &stubRoster{pickers: []backend.User{{ID: 3, Username: "ana"}}},
	})
	if err != nil {
		t.Fatalf("new station service: %v", err)
	}
	return svc
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	return cfg
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "station-test"})
}

// testRouter wires a stub bridge for the scan endpoint unit tests; the
// station service behind it is real but idle.
func testRouter(t *testing.T, bridge controllers.ScanBridge, deps map[string]controllers.Pinger) http.Handler {
	t.Helper()
	agg, err := scanner.New(nopSink{}, func(scanner.Code) {})
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	return NewRouter(testConfig(), testLogger(), bridge, newStationService(t, agg), &stubSessions{}, deps)
}

// liveRouter wires one real aggregator as both the wedge bridge and the
// station's scan control, the way the binary does.
func liveRouter(t *testing.T) (http.Handler, *station.Service) {
	t.Helper()
	var svc *station.Service
	agg, err := scanner.New(
		nopSink{},
		func(code scanner.Code) { svc.HandleScan(code) },
		scanner.WithQuietPeriod(15*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	svc = newStationService(t, agg)
	return NewRouter(testConfig(), testLogger(), agg, svc, &stubSessions{user: backend.User{ID: 1}}, nil), svc
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestScanDeltaAcceptsBufferSnapshot(t *testing.T) {
	bridge := &stubBridge{}
	router := testRouter(t, bridge, nil)

	rec := do(t, router, http.MethodPost, "/v1/scan/delta", `{"text":"BC-1001"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(bridge.deltas) != 1 || bridge.deltas[0] != "BC-1001" {
		t.Fatalf("deltas = %v", bridge.deltas)
	}
}

func TestScanDeltaDropsNoiseSilently(t *testing.T) {
	bridge := &stubBridge{}
	router := testRouter(t, bridge, nil)

	for _, body := range []string{`{}`, `{"text":""}`, `not json`} {
		rec := do(t, router, http.MethodPost, "/v1/scan/delta", body)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("body %q: status = %d, want 204", body, rec.Code)
		}
	}
	if len(bridge.deltas) != 0 {
		t.Fatal("noise must not reach the aggregator")
	}
}

func TestScanSubmitFlushesBuffer(t *testing.T) {
	bridge := &stubBridge{}
	router := testRouter(t, bridge, nil)

	rec := do(t, router, http.MethodPost, "/v1/scan/submit", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if bridge.submits != 1 {
		t.Fatalf("submits = %d, want 1", bridge.submits)
	}
}

func TestScanListeningToggle(t *testing.T) {
	bridge := &stubBridge{}
	router := testRouter(t, bridge, nil)

	rec := do(t, router, http.MethodPut, "/v1/scan/listening", `{"listening":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !bridge.Listening() {
		t.Fatal("listening not enabled")
	}

	do(t, router, http.MethodPut, "/v1/scan/listening", `{"listening":false}`)
	if bridge.Listening() {
		t.Fatal("listening not disabled")
	}
}

func TestScanListeningRequiresField(t *testing.T) {
	bridge := &stubBridge{}
	router := testRouter(t, bridge, nil)

	rec := do(t, router, http.MethodPut, "/v1/scan/listening", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// The full picking loop over HTTP with nothing stubbed between the
// wedge and the dispatcher: open an order, target an item, stream
// deltas, and confirm the quantity prompt comes up.
func TestPickingFlowEndToEnd(t *testing.T) {
	router, svc := liveRouter(t)

	if rec := do(t, router, http.MethodPost, "/v1/orders/42/open", ""); rec.Code != http.StatusOK {
		t.Fatalf("open: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, router, http.MethodPut, "/v1/orders/items/7/target", ""); rec.Code != http.StatusOK {
		t.Fatalf("target: %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, router, http.MethodPost, "/v1/scan/delta", `{"text":"BC"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("delta: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/v1/scan/delta", `{"text":"BC-7"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("delta: %d", rec.Code)
	}
	if rec := do(t, router, http.MethodPost, "/v1/scan/submit", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("submit: %d", rec.Code)
	}

	status := svc.Status()
	if status.Prompt == nil || status.Prompt.Item.ID != 7 {
		t.Fatalf("expected quantity prompt for item 7, got %+v", status.Prompt)
	}
	if status.Listening {
		t.Fatal("matched scan must close capture")
	}

	rec := do(t, router, http.MethodPost, "/v1/orders/items/7/quantity", `{"quantity":"2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("quantity: %d %s", rec.Code, rec.Body.String())
	}
	var applied struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &applied); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !applied.Data["applied"] {
		t.Fatal("quantity not applied")
	}

	if rec := do(t, router, http.MethodPost, "/v1/orders/complete", ""); rec.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rec.Code, rec.Body.String())
	}
}

// Same wiring for the debounce path: no explicit submit, the quiet
// period alone must emit.
func TestDebouncedScanReachesDispatcherEndToEnd(t *testing.T) {
	router, svc := liveRouter(t)

	do(t, router, http.MethodPost, "/v1/orders/42/open", "")
	do(t, router, http.MethodPut, "/v1/orders/items/7/target", "")
	do(t, router, http.MethodPost, "/v1/scan/delta", `{"text":"BC-7"}`)

	deadline := time.After(time.Second)
	for svc.Status().Prompt == nil {
		select {
		case <-deadline:
			t.Fatal("debounced scan never reached the dispatcher")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAssignFlowEndToEnd(t *testing.T) {
	router, svc := liveRouter(t)

	if rec := do(t, router, http.MethodPost, "/v1/assign/start", `{"picker_id":3}`); rec.Code != http.StatusOK {
		t.Fatalf("start: %d %s", rec.Code, rec.Body.String())
	}

	do(t, router, http.MethodPost, "/v1/scan/delta", `{"text":"TRK-9"}`)
	do(t, router, http.MethodPost, "/v1/scan/submit", "")

	status := svc.Status()
	if len(status.Trackings) != 1 || status.Trackings[0] != "TRK-9" {
		t.Fatalf("trackings = %v", status.Trackings)
	}

	rec := do(t, router, http.MethodPost, "/v1/assign/submit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var outcome struct {
		Data struct {
			Summary backend.AssignSummary `json:"Summary"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.Data.Summary.Assigned != 1 {
		t.Fatalf("unexpected summary: %+v", outcome.Data.Summary)
	}
}

func TestStatusReportsStationState(t *testing.T) {
	router, _ := liveRouter(t)

	do(t, router, http.MethodPost, "/v1/orders/42/open", "")
	do(t, router, http.MethodPut, "/v1/orders/items/7/target", "")

	rec := do(t, router, http.MethodGet, "/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Mode      string `json:"mode"`
			Listening bool   `json:"listening"`
			Target    string `json:"target"`
			OrderID   int    `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.Mode != "picking" || !envelope.Data.Listening {
		t.Fatalf("unexpected status: %+v", envelope.Data)
	}
	if envelope.Data.Target != "item:7" || envelope.Data.OrderID != 42 {
		t.Fatalf("unexpected status: %+v", envelope.Data)
	}
}

func TestAuthLoginValidatesBody(t *testing.T) {
	router, _ := liveRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/auth/login", `{"username":"wira"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/v1/auth/login", `{"username":"wira","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthzReportsDependencies(t *testing.T) {
	router := testRouter(t, &stubBridge{}, map[string]controllers.Pinger{
		"journal": stubPinger{},
		"cache":   stubPinger{err: errors.New("connection refused")},
	})

	rec := do(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := rec.Header().Get("X-Livo-Env"); got != "test" {
		t.Fatalf("env header = %q", got)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data["journal"] != "up" || envelope.Data["cache"] != "down" {
		t.Fatalf("unexpected dependency map: %v", envelope.Data)
	}
}

func TestHealthzAllUp(t *testing.T) {
	router := testRouter(t, &stubBridge{}, map[string]controllers.Pinger{"journal": stubPinger{}})

	rec := do(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
