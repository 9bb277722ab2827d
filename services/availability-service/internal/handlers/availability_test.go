package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/partysnap/partyhub/services/availability-service/internal/availability"
	"github.com/partysnap/partyhub/services/availability-service/internal/scheduling"
)

type stubSupplier struct {
	category string
	record   string
}

type fakeProvider struct {
	today     availability.Date
	suppliers map[string]stubSupplier
	orders    []availability.Order
	saved     map[string]string
	fail      error
}

func (p *fakeProvider) Engine(_ context.Context, id string) (*availability.Engine, scheduling.SupplierRef, error) {
	if p.fail != nil {
		return nil, scheduling.SupplierRef{}, p.fail
	}
	s, ok := p.suppliers[id]
	if !ok {
		return nil, scheduling.SupplierRef{}, scheduling.ErrUnknownSupplier
	}
	rec := availability.NormalizeOrDefault(nil, []byte(s.record), s.category)
	return availability.NewEngine(rec, p.today), scheduling.SupplierRef{SupplierID: id, OwnerID: id, Category: s.category}, nil
}

func (p *fakeProvider) Orders(context.Context, scheduling.SupplierRef, availability.Date, availability.Date) ([]availability.Order, error) {
	return p.orders, nil
}

func (p *fakeProvider) SaveRecord(_ context.Context, id string, raw []byte) error {
	if _, ok := p.suppliers[id]; !ok {
		return scheduling.ErrUnknownSupplier
	}
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return scheduling.ErrInvalidRecord
	}
	p.saved[id] = string(raw)
	return nil
}

func newTestMux(p *fakeProvider) *http.ServeMux {
	mux := http.NewServeMux()
	NewAvailabilityHandler(p, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)
	return mux
}

func testProvider() *fakeProvider {
	return &fakeProvider{
		today: availability.NewDate(2025, time.January, 1),
		suppliers: map[string]stubSupplier{
			"venue-1": {category: "Venues", record: `{"unavailableDates": [{"date": "2025-01-06", "timeSlots": ["morning"]}], "weekendPremium": {"enabled": true}}`},
			"bags-1":  {category: "Party Bags", record: `{"leadTimeSettings": {"minLeadTimeDays": 7, "rushOrdersAvailable": true, "rushOrderFee": 10}}`},
			"cake-1":  {category: "Cakes", record: `{"blockedDates": ["2025-01-17"], "minimumNoticeDays": 3}`},
		},
		saved: map[string]string{},
	}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(method, target, r))
	return rw
}

func decode(t *testing.T, rw *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rw.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rw.Body.String(), err)
	}
}

func TestEvaluate(t *testing.T) {
	mux := newTestMux(testProvider())

	rw := do(t, mux, http.MethodGet, "/api/v1/availability/evaluate?supplier_id=venue-1&date=2025-01-06", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rw.Code, rw.Body.String())
	}
	var resp struct {
		Status           string   `json:"status"`
		Bookable         bool     `json:"bookable"`
		Slots            []string `json:"slots"`
		AvailabilityType string   `json:"availability_type"`
		WeekendPremium   bool     `json:"weekend_premium"`
	}
	decode(t, rw, &resp)
	if resp.Status != "partially-available" || !resp.Bookable || len(resp.Slots) != 1 || resp.Slots[0] != "afternoon" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.AvailabilityType != "time_slot" || resp.WeekendPremium {
		t.Fatalf("unexpected type/premium: %+v", resp)
	}

	rw = do(t, mux, http.MethodGet, "/api/v1/availability/evaluate?supplier_id=venue-1&date=2025-01-06&slot=Morning", "")
	decode(t, rw, &resp)
	if resp.Status != "unavailable" || resp.Bookable {
		t.Fatalf("expected morning unavailable, got %+v", resp)
	}

	rw = do(t, mux, http.MethodGet, "/api/v1/availability/evaluate?supplier_id=venue-1&date=2025-01-04", "")
	decode(t, rw, &resp)
	if !resp.WeekendPremium {
		t.Fatalf("expected saturday premium flag, got %+v", resp)
	}
}

func TestEvaluateOmitsSlotsWhenNotBookable(t *testing.T) {
	mux := newTestMux(testProvider())
	for _, date := range []string{"2024-12-31", "2026-06-01"} {
		rw := do(t, mux, http.MethodGet, "/api/v1/availability/evaluate?supplier_id=venue-1&date="+date, "")
		var resp struct {
			Status string   `json:"status"`
			Slots  []string `json:"slots"`
		}
		decode(t, rw, &resp)
		if resp.Status == "available" || resp.Status == "partially-available" || len(resp.Slots) != 0 {
			t.Fatalf("%s: expected a non-bookable status without slots, got %s", date, rw.Body.String())
		}
	}
}

func TestEvaluateRushOrder(t *testing.T) {
	mux := newTestMux(testProvider())
	rw := do(t, mux, http.MethodGet, "/api/v1/availability/evaluate?supplier_id=bags-1&date=2025-01-03", "")
	var resp struct {
		Status    string `json:"status"`
		RushOrder *struct {
			Available bool    `json:"available"`
			Fee       float64 `json:"fee"`
		} `json:"rush_order"`
	}
	decode(t, rw, &resp)
	if resp.Status != "outside-window" || resp.RushOrder == nil || resp.RushOrder.Fee != 10 {
		t.Fatalf("unexpected response: %s", rw.Body.String())
	}
}

func TestEvaluateValidation(t *testing.T) {
	mux := newTestMux(testProvider())
	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodPost, "/api/v1/availability/evaluate?supplier_id=venue-1&date=2025-01-06", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/availability/evaluate?supplier_id=venue-1&date=06/01/2025", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/availability/evaluate?supplier_id=venue-1&date=2025-01-06&slot=evening", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/availability/evaluate?date=2025-01-06", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/availability/evaluate?supplier_id=ghost&date=2025-01-06", http.StatusNotFound},
	}
	for _, c := range cases {
		if rw := do(t, mux, c.method, c.target, ""); rw.Code != c.want {
			t.Fatalf("%s %s: expected %d, got %d", c.method, c.target, c.want, rw.Code)
		}
	}

	p := testProvider()
	p.fail = errors.New("db down")
	if rw := do(t, newTestMux(p), http.MethodGet, "/api/v1/availability/evaluate?supplier_id=venue-1&date=2025-01-06", ""); rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
}

func TestSlots(t *testing.T) {
	mux := newTestMux(testProvider())

	rw := do(t, mux, http.MethodGet, "/api/v1/availability/slots?supplier_id=venue-1&date=2024-12-31", "")
	if rw.Code != http.StatusOK || !strings.Contains(rw.Body.String(), `"slots":[]`) {
		t.Fatalf("expected empty slots for a past date, got %d %s", rw.Code, rw.Body.String())
	}
	rw = do(t, mux, http.MethodGet, "/api/v1/availability/slots?supplier_id=cake-1&date=2025-01-20", "")
	if rw.Code != http.StatusConflict {
		t.Fatalf("expected 409 for cake supplier, got %d", rw.Code)
	}
}

func TestCalendar(t *testing.T) {
	p := testProvider()
	p.orders = []availability.Order{{ID: "o-1", PartyDate: availability.NewDate(2025, time.January, 25)}}
	mux := newTestMux(p)

	rw := do(t, mux, http.MethodGet, "/api/v1/availability/calendar?supplier_id=cake-1&month=2025-01", "")
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rw.Code, rw.Body.String())
	}
	var resp struct {
		Month string `json:"month"`
		Days  []struct {
			Date      string   `json:"date"`
			Status    string   `json:"status"`
			CakeState string   `json:"cake_state"`
			Orders    []string `json:"orders"`
		} `json:"days"`
	}
	decode(t, rw, &resp)
	if resp.Month != "2025-01" || len(resp.Days) != 31 {
		t.Fatalf("unexpected calendar: month=%s days=%d", resp.Month, len(resp.Days))
	}
	if d := resp.Days[16]; d.Date != "2025-01-17" || d.Status != "unavailable" || d.CakeState != "blocked" {
		t.Fatalf("unexpected 17th: %+v", d)
	}
	if d := resp.Days[23]; d.CakeState != "has-order" || len(d.Orders) != 1 {
		t.Fatalf("expected order delivered on the 24th, got %+v", d)
	}
	if d := resp.Days[1]; d.CakeState != "within-notice" || d.Status != "outside-window" {
		t.Fatalf("unexpected 2nd: %+v", d)
	}

	if rw := do(t, mux, http.MethodGet, "/api/v1/availability/calendar?supplier_id=cake-1&month=2025-13", ""); rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad month, got %d", rw.Code)
	}
}

func TestPartyCheck(t *testing.T) {
	mux := newTestMux(testProvider())

	rw := do(t, mux, http.MethodPost, "/api/v1/availability/party-check",
		`{"supplier_id": "venue-1", "date": "2025-01-06", "start_time": "10am", "duration_hours": 2}`)
	var resp struct {
		Status        string `json:"status"`
		ResolvedSlot  string `json:"resolved_slot"`
		EvaluatedDate string `json:"evaluated_date"`
		Bookable      bool   `json:"bookable"`
	}
	decode(t, rw, &resp)
	if resp.Status != "unavailable" || resp.ResolvedSlot != "morning" || resp.Bookable {
		t.Fatalf("unexpected venue check: %+v", resp)
	}

	rw = do(t, mux, http.MethodPost, "/api/v1/availability/party-check",
		`{"supplier_id": "cake-1", "date": "2025-01-19"}`)
	decode(t, rw, &resp)
	if resp.EvaluatedDate != "2025-01-17" || resp.Status != "unavailable" {
		t.Fatalf("expected cake delivery date evaluated, got %+v", resp)
	}

	for _, body := range []string{`{`, `{"date": "2025-01-19"}`, `{"supplier_id": "cake-1", "date": "soon"}`} {
		if rw := do(t, mux, http.MethodPost, "/api/v1/availability/party-check", body); rw.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rw.Code)
		}
	}
}

func TestRecord(t *testing.T) {
	p := testProvider()
	mux := newTestMux(p)

	rw := do(t, mux, http.MethodPut, "/api/v1/availability/record?supplier_id=venue-1", `{"maxBookingDays": 90}`)
	if rw.Code != http.StatusNoContent || p.saved["venue-1"] == "" {
		t.Fatalf("expected 204 and saved record, got %d", rw.Code)
	}
	if rw := do(t, mux, http.MethodPut, "/api/v1/availability/record?supplier_id=venue-1", `[1,2]`); rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-object, got %d", rw.Code)
	}
	if rw := do(t, mux, http.MethodPut, "/api/v1/availability/record?supplier_id=ghost", `{}`); rw.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rw.Code)
	}
	if rw := do(t, mux, http.MethodGet, "/api/v1/availability/record?supplier_id=venue-1", ""); rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
	big := `{"x": "` + strings.Repeat("a", maxRecordBytes) + `"}`
	if rw := do(t, mux, http.MethodPut, "/api/v1/availability/record?supplier_id=venue-1", big); rw.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rw.Code)
	}
}
