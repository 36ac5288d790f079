package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/checkout"
	"github.com/iliyamo/comedy-tour-seating/internal/handler"
	"github.com/iliyamo/comedy-tour-seating/internal/metrics"
	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/queue"
	"github.com/iliyamo/comedy-tour-seating/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.OrderConfirmedEvent
}

func (p *recordingPublisher) PublishOrderConfirmed(_ context.Context, ev queue.OrderConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type testServer struct {
	e   *echo.Echo
	pub *recordingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, catalog.NewFixture())
}

func newTestServerWith(t *testing.T, provider catalog.Provider) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	pub := &recordingPublisher{}
	svc := checkout.NewService(provider, pub, m, logger)
	svc.Orders = checkout.NewMemoryOrders()
	e := New(Deps{
		Logger:   logger,
		Metrics:  m,
		Catalogs: provider,
		Sessions: session.NewMemoryStore(time.Hour),
		Signer:   session.NewSigner("router-test", time.Hour),
		Checkout: svc,
		Health:   map[string]handler.Pinger{"redis": nil},
	})
	return &testServer{e: e, pub: pub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(bs)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (s *testServer) start(t *testing.T, showID string, quota map[string]int) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/v1/shows/"+showID+"/selections", "", map[string]any{"quota": quota})
	if code != http.StatusCreated {
		t.Fatalf("start: %d %v", code, body)
	}
	return body["token"].(string)
}

func (s *testServer) toggle(t *testing.T, token, id string) (int, map[string]any) {
	t.Helper()
	return s.do(t, http.MethodPost, "/v1/selection/toggle", token, map[string]string{"id": id})
}

func selectionOf(body map[string]any) map[string]any {
	if sel, ok := body["selection"].(map[string]any); ok {
		return sel
	}
	return body
}

func entryIDs(sel map[string]any) []string {
	var ids []string
	entries, _ := sel["entries"].([]any)
	for _, e := range entries {
		ids = append(ids, e.(map[string]any)["id"].(string))
	}
	return ids
}

func TestSelectionFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	tok := s.start(t, "2", map[string]int{"REG": 2, "VIP": 1})

	// One of two regular seats chosen: both categories still short.
	code, body := s.toggle(t, tok, "REG-1")
	if code != http.StatusOK || body["outcome"] != "added" {
		t.Fatalf("toggle REG-1: %d %v", code, body)
	}
	sel := selectionOf(body)
	if sel["complete"] != false {
		t.Fatalf("complete after REG-1: %v", sel)
	}
	missing := sel["missing"].(map[string]any)
	if missing["REG"] != float64(1) || missing["VIP"] != float64(1) {
		t.Fatalf("missing = %v", missing)
	}

	code, body = s.do(t, http.MethodPost, "/v1/selection/checkout", tok, nil)
	if code != http.StatusConflict || body["code"] != handler.CodeIncomplete {
		t.Fatalf("early checkout: %d %v", code, body)
	}

	s.toggle(t, tok, "REG-2")
	_, body = s.toggle(t, tok, "VIP-3")
	sel = selectionOf(body)
	counts := sel["counts"].(map[string]any)
	if sel["complete"] != true || counts["REG"] != float64(2) || counts["VIP"] != float64(1) {
		t.Fatalf("after REG-2, VIP-3: %v", sel)
	}

	// Deselecting REG-1 keeps the click order of the rest.
	code, body = s.toggle(t, tok, "REG-1")
	sel = selectionOf(body)
	if code != http.StatusOK || body["outcome"] != "removed" || sel["complete"] != false {
		t.Fatalf("toggle REG-1 off: %d %v", code, body)
	}
	if ids := entryIDs(sel); strings.Join(ids, ",") != "REG-2,VIP-3" {
		t.Fatalf("entries = %v", ids)
	}

	s.toggle(t, tok, "REG-4")
	code, body = s.do(t, http.MethodPost, "/v1/selection/checkout", tok, nil)
	if code != http.StatusOK {
		t.Fatalf("checkout: %d %v", code, body)
	}
	next := body["next"].(string)
	if next != "/v1/shows/2/order-summary?seats=REG-2&seats=VIP-3&seats=REG-4&tickets=REG%3A2&tickets=VIP%3A1" {
		t.Fatalf("next = %s", next)
	}

	code, body = s.do(t, http.MethodGet, next, "", nil)
	if code != http.StatusOK {
		t.Fatalf("order summary: %d %v", code, body)
	}
	summary := body["summary"].(map[string]any)
	// 2 x $45 + $95 = $185, fee $27.75
	if summary["subtotal_cents"] != float64(18500) || summary["fees_cents"] != float64(2775) || summary["total_cents"] != float64(21275) {
		t.Fatalf("summary = %v", summary)
	}

	code, body = s.do(t, http.MethodPost, "/v1/shows/2/orders", "", map[string]any{
		"tickets": []map[string]any{{"code": "REG", "quantity": 2}, {"code": "VIP", "quantity": 1}},
		"seats":   []string{"REG-2", "VIP-3", "REG-4"},
		"name":    "Pat Doe",
		"email":   "pat@example.com",
	})
	if code != http.StatusCreated {
		t.Fatalf("confirm: %d %v", code, body)
	}
	if len(body["order_number"].(string)) != 8 || len(s.pub.events) != 1 {
		t.Fatalf("confirmation %v, events %d", body, len(s.pub.events))
	}
	orderID := body["order_id"].(string)
	number := body["order_number"].(string)

	code, body = s.do(t, http.MethodGet, "/v1/orders/"+orderID, "", nil)
	if code != http.StatusOK || body["order_number"] != number || body["total_cents"] != float64(21275) {
		t.Fatalf("order lookup: %d %v", code, body)
	}
	if code, body := s.do(t, http.MethodGet, "/v1/orders/unknown", "", nil); code != http.StatusNotFound || body["code"] != handler.CodeOrderNotFound {
		t.Fatalf("unknown order: %d %v", code, body)
	}

	// The same seats cannot be sold again.
	code, body = s.do(t, http.MethodPost, "/v1/shows/2/orders", "", map[string]any{
		"tickets": []map[string]any{{"code": "REG", "quantity": 1}},
		"seats":   []string{"REG-4"},
		"name":    "Lee Roe",
		"email":   "lee@example.com",
	})
	if code != http.StatusConflict || body["code"] != handler.CodeItemUnavailable {
		t.Fatalf("second sale of REG-4: %d %v", code, body)
	}

	if code, _ := s.do(t, http.MethodDelete, "/v1/selection", tok, nil); code != http.StatusNoContent {
		t.Fatalf("discard: %d", code)
	}
	if code, body := s.do(t, http.MethodGet, "/v1/selection", tok, nil); code != http.StatusNotFound || body["code"] != handler.CodeSessionNotFound {
		t.Fatalf("after discard: %d %v", code, body)
	}
}

func TestToggleRejections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	tok := s.start(t, "2", map[string]int{"T10": 1})

	code, body := s.toggle(t, tok, "T10-C")
	if code != http.StatusConflict || body["code"] != handler.CodeItemUnavailable {
		t.Fatalf("taken table: %d %v", code, body)
	}

	if code, _ := s.toggle(t, tok, "T10-A"); code != http.StatusOK {
		t.Fatalf("T10-A: %d", code)
	}
	code, body = s.toggle(t, tok, "T10-B")
	if code != http.StatusConflict || body["code"] != handler.CodeSelectionLimit || body["category"] != "T10" || body["max"] != float64(1) {
		t.Fatalf("second table: %d %v", code, body)
	}

	_, body = s.do(t, http.MethodGet, "/v1/selection", tok, nil)
	if ids := entryIDs(body); strings.Join(ids, ",") != "T10-A" {
		t.Fatalf("entries after rejections = %v", ids)
	}

	code, body = s.do(t, http.MethodPost, "/v1/selection/toggle", tok, map[string]string{"id": "REG-1", "category": "VIP"})
	if code != http.StatusBadRequest || body["code"] != handler.CodeCategoryMismatch {
		t.Fatalf("category mismatch: %d %v", code, body)
	}
	code, body = s.toggle(t, tok, "BAL-1")
	if code != http.StatusNotFound || body["code"] != handler.CodeUnknownItem {
		t.Fatalf("unknown item: %d %v", code, body)
	}
}

func TestTablePricedOnce(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/v1/shows/3/order-summary?tickets=T5:1&tickets=REG:2&seats=T5-A&seats=REG-1&seats=REG-2", "", nil)
	if code != http.StatusOK {
		t.Fatalf("summary: %d %v", code, body)
	}
	if got := body["summary"].(map[string]any)["subtotal_cents"]; got != float64(31500) {
		t.Fatalf("subtotal = %v, want 31500", got)
	}
}

func TestStartRejections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown show", "/v1/shows/99/selections", map[string]any{"quota": map[string]int{"REG": 1}}, http.StatusNotFound, handler.CodeShowNotFound},
		{"sold out", "/v1/shows/1/selections", map[string]any{"quota": map[string]int{"REG": 1}}, http.StatusConflict, handler.CodeShowSoldOut},
		{"negative quota", "/v1/shows/2/selections", map[string]any{"quota": map[string]int{"REG": -1}}, http.StatusBadRequest, handler.CodeInvalidQuota},
		{"over capacity", "/v1/shows/2/selections", map[string]any{"quota": map[string]int{"T5": 2}}, http.StatusBadRequest, handler.CodeInvalidQuota},
		{"unknown type", "/v1/shows/2/selections", map[string]any{"quota": map[string]int{"BAL": 1}}, http.StatusBadRequest, handler.CodeUnknownTicketType},
		{"bad tickets", "/v1/shows/2/selections", map[string]any{"tickets": []string{"REG"}}, http.StatusBadRequest, handler.CodeMalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(t, http.MethodPost, tt.path, "", tt.body)
			if code != tt.status || body["code"] != tt.code {
				t.Fatalf("got %d %v, want %d %s", code, body, tt.status, tt.code)
			}
		})
	}

	// Quota from the ticket step's "CODE:qty" strings.
	code, body := s.do(t, http.MethodPost, "/v1/shows/2/selections", "", map[string]any{"tickets": []string{"REG:2", "T5:1"}})
	if code != http.StatusCreated {
		t.Fatalf("start from tickets: %d %v", code, body)
	}
	quota := body["selection"].(map[string]any)["quota"].(map[string]any)
	if quota["REG"] != float64(2) || quota["T5"] != float64(1) {
		t.Fatalf("quota = %v", quota)
	}
}

func TestSelectionRequiresToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	if code, _ := s.do(t, http.MethodGet, "/v1/selection", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code, _ := s.toggle(t, "forged", "REG-1"); code != http.StatusUnauthorized {
		t.Fatalf("forged token: %d", code)
	}
}

func TestCatalogRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/v1/shows", "", nil)
	if code != http.StatusOK || len(body["items"].([]any)) != 6 {
		t.Fatalf("shows: %d %v", code, body)
	}
	if code, body := s.do(t, http.MethodGet, "/v1/shows/42", "", nil); code != http.StatusNotFound || body["code"] != handler.CodeShowNotFound {
		t.Fatalf("missing show: %d %v", code, body)
	}
	if code, _ := s.do(t, http.MethodGet, "/v1/shows/abc", "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", code)
	}
	for _, path := range []string{"/v1/shows/abc/seats", "/v1/shows/0/ticket-types"} {
		if code, body := s.do(t, http.MethodGet, path, "", nil); code != http.StatusBadRequest || body["code"] != handler.CodeBadRequest {
			t.Fatalf("%s: %d %v", path, code, body)
		}
	}
	if code, body := s.do(t, http.MethodGet, "/v1/shows/42/seats", "", nil); code != http.StatusNotFound || body["code"] != handler.CodeShowNotFound {
		t.Fatalf("seats of missing show: %d %v", code, body)
	}

	_, body = s.do(t, http.MethodGet, "/v1/shows/2/ticket-types", "", nil)
	if n := len(body["items"].([]any)); n != 4 {
		t.Fatalf("ticket types = %d", n)
	}

	_, body = s.do(t, http.MethodGet, "/v1/shows/2/seats", "", nil)
	groups := body["groups"].([]any)
	t10 := groups[3].(map[string]any)
	if t10["ticket_type"].(map[string]any)["code"] != "T10" || t10["available"] != float64(3) {
		t.Fatalf("T10 group = %v", t10)
	}

	if code, body := s.do(t, http.MethodGet, "/healthz", "", nil); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", code, body)
	}
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

// chartProvider serves one show whose chart a test can change.
type chartProvider struct {
	mu    sync.Mutex
	types []model.TicketType
	items []model.InventoryItem
}

func newChartProvider() *chartProvider {
	return &chartProvider{
		types: catalog.TourTicketTypes(),
		items: []model.InventoryItem{
			{ID: "REG-1", Category: "REG", DisplayName: "Seat 1", Availability: model.Available},
			{ID: "REG-2", Category: "REG", DisplayName: "Seat 2", Availability: model.Available},
			{ID: "VIP-1", Category: "VIP", DisplayName: "Seat 1", Availability: model.Available},
		},
	}
}

func (p *chartProvider) show() model.Show {
	return model.Show{ID: 9, City: "Portland, OR", Venue: "Back Room", Status: model.ShowAvailable}
}

func (p *chartProvider) Shows(context.Context) ([]model.Show, error) {
	return []model.Show{p.show()}, nil
}

func (p *chartProvider) Show(_ context.Context, id uint64) (model.Show, error) {
	if id != 9 {
		return model.Show{}, catalog.ErrShowNotFound
	}
	return p.show(), nil
}

func (p *chartProvider) Catalog(ctx context.Context, id uint64) (*catalog.Catalog, error) {
	show, err := p.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return catalog.New(show, p.types, p.items)
}

func (p *chartProvider) offSale(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.types {
		if p.types[i].Code == code {
			p.types[i].Available = false
		}
	}
}

func (p *chartProvider) take(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.items[i].ID == id {
			p.items[i].Availability = model.Taken
		}
	}
}

func TestOffSaleTicketType(t *testing.T) {
	t.Parallel()
	chart := newChartProvider()
	chart.offSale("VIP")
	s := newTestServerWith(t, chart)

	code, body := s.do(t, http.MethodPost, "/v1/shows/9/selections", "", map[string]any{"quota": map[string]int{"VIP": 1}})
	if code != http.StatusConflict || body["code"] != handler.CodeTypeUnavailable {
		t.Fatalf("VIP quota: %d %v", code, body)
	}

	tok := s.start(t, "9", map[string]int{"REG": 1, "VIP": 0})
	code, body = s.toggle(t, tok, "VIP-1")
	if code != http.StatusConflict || body["code"] != handler.CodeTypeUnavailable {
		t.Fatalf("toggle VIP-1: %d %v", code, body)
	}
	if code, _ := s.toggle(t, tok, "REG-1"); code != http.StatusOK {
		t.Fatalf("toggle REG-1: %d", code)
	}

	code, body = s.do(t, http.MethodGet, "/v1/shows/9/order-summary?tickets=VIP:1&seats=VIP-1", "", nil)
	if code != http.StatusConflict || body["code"] != handler.CodeTypeUnavailable {
		t.Fatalf("VIP summary: %d %v", code, body)
	}
}

func TestStaleEntriesFlagged(t *testing.T) {
	t.Parallel()
	chart := newChartProvider()
	s := newTestServerWith(t, chart)
	tok := s.start(t, "9", map[string]int{"REG": 2})

	s.toggle(t, tok, "REG-1")
	_, body := s.toggle(t, tok, "REG-2")
	if _, ok := selectionOf(body)["unavailable"]; ok {
		t.Fatalf("nothing should be flagged yet: %v", body)
	}

	// REG-1 sold elsewhere after it was picked.
	chart.take("REG-1")
	code, body := s.do(t, http.MethodGet, "/v1/selection", tok, nil)
	if code != http.StatusOK {
		t.Fatalf("get: %d %v", code, body)
	}
	stale, _ := body["unavailable"].([]any)
	if len(stale) != 1 || stale[0] != "REG-1" {
		t.Fatalf("unavailable = %v", body["unavailable"])
	}

	code, body = s.toggle(t, tok, "REG-1")
	if code != http.StatusConflict || body["code"] != handler.CodeItemUnavailable {
		t.Fatalf("toggle stale REG-1: %d %v", code, body)
	}
}
