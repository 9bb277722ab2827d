package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/partysnap/partyhub/libs/httpx"
	"github.com/partysnap/partyhub/services/availability-service/internal/availability"
	"github.com/partysnap/partyhub/services/availability-service/internal/scheduling"
)

const maxRecordBytes = 256 << 10

type AvailabilityHandler struct {
	provider scheduling.Provider
	logger   *slog.Logger
}

func NewAvailabilityHandler(provider scheduling.Provider, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{provider: provider, logger: logger}
}

// Register mounts the availability routes on mux.
func (h *AvailabilityHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/availability/evaluate", h.Evaluate)
	mux.HandleFunc("/api/v1/availability/slots", h.Slots)
	mux.HandleFunc("/api/v1/availability/calendar", h.Calendar)
	mux.HandleFunc("/api/v1/availability/party-check", h.PartyCheck)
	mux.HandleFunc("/api/v1/availability/record", h.Record)
}

type evaluateResponse struct {
	SupplierID       string                      `json:"supplier_id"`
	Date             availability.Date           `json:"date"`
	Slot             availability.Slot           `json:"slot,omitempty"`
	AvailabilityType availability.Type           `json:"availability_type"`
	Status           availability.Status         `json:"status"`
	Bookable         bool                        `json:"bookable"`
	Slots            []availability.Slot         `json:"slots,omitempty"`
	WeekendPremium   bool                        `json:"weekend_premium"`
	RushOrder        *availability.RushOrderInfo `json:"rush_order,omitempty"`
}

func (h *AvailabilityHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	date, ok := availability.ParseDate(q.Get("date"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	slot := availability.Slot(strings.ToLower(strings.TrimSpace(q.Get("slot"))))
	if slot != "" && !slot.Valid() {
		httpx.WriteError(w, r, http.StatusBadRequest, "slot must be morning or afternoon")
		return
	}

	eng, ref, ok := h.engine(w, r)
	if !ok {
		return
	}
	resp := evaluateResponse{
		SupplierID:       ref.SupplierID,
		Date:             date,
		Slot:             slot,
		AvailabilityType: eng.Type(),
		Status:           eng.Evaluate(date, slot),
		WeekendPremium:   eng.IsWeekendPremiumDay(date),
	}
	resp.Bookable = resp.Status.Bookable()
	// Free slots are listed only when the day itself can be booked.
	if eng.Evaluate(date, "").Bookable() {
		if slots, err := eng.AvailableSlots(date); err == nil {
			resp.Slots = slots
		}
	}
	if rush, ok := eng.RushOrder(); ok && rush.Available {
		resp.RushOrder = &rush
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type slotsResponse struct {
	SupplierID string              `json:"supplier_id"`
	Date       availability.Date   `json:"date"`
	Slots      []availability.Slot `json:"slots"`
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	date, ok := availability.ParseDate(r.URL.Query().Get("date"))
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	eng, ref, ok := h.engine(w, r)
	if !ok {
		return
	}
	slots, err := eng.AvailableSlots(date)
	if errors.Is(err, availability.ErrNotTimeSlot) {
		httpx.WriteError(w, r, http.StatusConflict, err.Error())
		return
	}
	if slots == nil {
		slots = []availability.Slot{}
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{SupplierID: ref.SupplierID, Date: date, Slots: slots})
}

type calendarResponse struct {
	SupplierID       string                 `json:"supplier_id"`
	Month            string                 `json:"month"`
	AvailabilityType availability.Type      `json:"availability_type"`
	Days             []availability.DayCell `json:"days"`
}

func (h *AvailabilityHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	month, err := time.Parse("2006-01", strings.TrimSpace(r.URL.Query().Get("month")))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	eng, ref, ok := h.engine(w, r)
	if !ok {
		return
	}

	var orders []availability.Order
	if eng.Type() == availability.TypeCakeCalendar {
		first := availability.NewDate(month.Year(), month.Month(), 1)
		last := availability.NewDate(month.Year(), month.Month()+1, 0)
		orders, err = h.provider.Orders(r.Context(), ref, first, last)
		if err != nil {
			h.logger.Error("orders lookup failed", "err", err, "supplier_id", ref.SupplierID)
			httpx.WriteError(w, r, http.StatusInternalServerError, "orders lookup failed")
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, calendarResponse{
		SupplierID:       ref.SupplierID,
		Month:            month.Format("2006-01"),
		AvailabilityType: eng.Type(),
		Days:             eng.Month(month.Year(), month.Month(), orders),
	})
}

type partyCheckRequest struct {
	SupplierID    string  `json:"supplier_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	TimeSlot      string  `json:"time_slot"`
	DurationHours float64 `json:"duration_hours"`
}

type partyCheckResponse struct {
	SupplierID     string              `json:"supplier_id"`
	PartyDate      availability.Date   `json:"party_date"`
	EvaluatedDate  availability.Date   `json:"evaluated_date"`
	Status         availability.Status `json:"status"`
	Bookable       bool                `json:"bookable"`
	ResolvedSlot   availability.Slot   `json:"resolved_slot,omitempty"`
	WeekendPremium bool                `json:"weekend_premium"`
}

func (h *AvailabilityHandler) PartyCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req partyCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	req.SupplierID = strings.TrimSpace(req.SupplierID)
	if req.SupplierID == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "supplier_id is required")
		return
	}
	date, ok := availability.ParseDate(req.Date)
	if !ok {
		httpx.WriteError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	binding := availability.PartyDateBinding{
		Date:      date,
		StartTime: req.StartTime,
		TimeSlot:  availability.Slot(strings.ToLower(strings.TrimSpace(req.TimeSlot))),
	}
	if req.DurationHours > 0 {
		binding.Duration = time.Duration(req.DurationHours * float64(time.Hour))
	}

	eng, ref, ok := h.engineFor(w, r, req.SupplierID)
	if !ok {
		return
	}
	res := eng.ReconcilePartyDate(binding)
	httpx.WriteJSON(w, http.StatusOK, partyCheckResponse{
		SupplierID:     ref.SupplierID,
		PartyDate:      date,
		EvaluatedDate:  res.EvaluatedDate,
		Status:         res.Status,
		Bookable:       res.Status.Bookable(),
		ResolvedSlot:   res.Slot,
		WeekendPremium: eng.IsWeekendPremiumDay(date),
	})
}

// Record replaces the stored availability record of a supplier's calendar.
func (h *AvailabilityHandler) Record(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	supplierID := strings.TrimSpace(r.URL.Query().Get("supplier_id"))
	if supplierID == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "supplier_id is required")
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRecordBytes+1))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "unreadable body")
		return
	}
	if len(raw) > maxRecordBytes {
		httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "record too large")
		return
	}
	if err := h.provider.SaveRecord(r.Context(), supplierID, raw); err != nil {
		h.writeProviderError(w, r, err, supplierID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AvailabilityHandler) engine(w http.ResponseWriter, r *http.Request) (*availability.Engine, scheduling.SupplierRef, bool) {
	supplierID := strings.TrimSpace(r.URL.Query().Get("supplier_id"))
	if supplierID == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "supplier_id is required")
		return nil, scheduling.SupplierRef{}, false
	}
	return h.engineFor(w, r, supplierID)
}

func (h *AvailabilityHandler) engineFor(w http.ResponseWriter, r *http.Request, supplierID string) (*availability.Engine, scheduling.SupplierRef, bool) {
	eng, ref, err := h.provider.Engine(r.Context(), supplierID)
	if err != nil {
		h.writeProviderError(w, r, err, supplierID)
		return nil, scheduling.SupplierRef{}, false
	}
	return eng, ref, true
}

func (h *AvailabilityHandler) writeProviderError(w http.ResponseWriter, r *http.Request, err error, supplierID string) {
	switch {
	case errors.Is(err, scheduling.ErrUnknownSupplier):
		httpx.WriteError(w, r, http.StatusNotFound, "supplier not found")
	case errors.Is(err, scheduling.ErrInvalidRecord):
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("availability lookup failed", "err", err, "supplier_id", supplierID,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "availability lookup failed")
	}
}
