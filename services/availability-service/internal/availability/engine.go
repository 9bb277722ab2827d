package availability

import (
	"errors"
	"time"
)

// ErrNotTimeSlot is returned by slot-level queries against suppliers without slots.
var ErrNotTimeSlot = errors.New("supplier does not use time slots")

// Evaluator is the capability every availability strategy shares.
type Evaluator interface {
	Type() Type
	Evaluate(q DateQuery) Status
}

// NewEvaluator picks the strategy for rec.AvailabilityType.
func NewEvaluator(rec Record, today Date) Evaluator {
	switch rec.AvailabilityType {
	case TypeLeadTime:
		return NewLeadTimeEvaluator(rec, today)
	case TypeCakeCalendar:
		return NewCakeCalendarEvaluator(rec, today)
	default:
		return NewTimeSlotEvaluator(rec, today)
	}
}

// Engine answers every availability question about one supplier as of one day. It holds
// its own copy of the record and is safe for concurrent use.
type Engine struct {
	today     Date
	premium   WeekendPremium
	evaluator Evaluator
}

func NewEngine(rec Record, today Date) *Engine {
	return &Engine{
		today:     today,
		premium:   rec.WeekendPremium,
		evaluator: NewEvaluator(rec, today),
	}
}

func (e *Engine) Type() Type { return e.evaluator.Type() }

func (e *Engine) Today() Date { return e.today }

// Evaluate returns the status of d, or of one slot on d when slot is set.
func (e *Engine) Evaluate(d Date, slot Slot) Status {
	return e.evaluator.Evaluate(DateQuery{Date: d, Slot: slot})
}

// AvailableSlots lists the free slots on d for time-slot suppliers.
func (e *Engine) AvailableSlots(d Date) ([]Slot, error) {
	ts, ok := e.evaluator.(*TimeSlotEvaluator)
	if !ok {
		return nil, ErrNotTimeSlot
	}
	return ts.AvailableSlots(d), nil
}

// RushOrder reports rush-order metadata for lead-time suppliers.
func (e *Engine) RushOrder() (RushOrderInfo, bool) {
	lt, ok := e.evaluator.(*LeadTimeEvaluator)
	if !ok {
		return RushOrderInfo{}, false
	}
	return lt.RushOrder(), true
}

// IsWeekendPremiumDay only decorates calendar cells; it never feeds into a Status.
func (e *Engine) IsWeekendPremiumDay(d Date) bool {
	return e.premium.Enabled && isWeekend(d)
}

// IsWeekendPremiumDay reports whether rec charges a weekend premium on d.
func IsWeekendPremiumDay(d Date, rec Record) bool {
	return rec.WeekendPremium.Enabled && isWeekend(d)
}

// Reconciliation is the outcome of checking a supplier against a fixed party date.
type Reconciliation struct {
	Status Status
	// Slot is set when a time-slot supplier was checked against one resolved slot.
	Slot Slot
	// EvaluatedDate differs from the party date for cake suppliers, who deliver early.
	EvaluatedDate Date
}

// ReconcilePartyDate checks the supplier against the customer's committed party date,
// independent of whichever month a calendar is showing.
func (e *Engine) ReconcilePartyDate(b PartyDateBinding) Reconciliation {
	switch ev := e.evaluator.(type) {
	case *TimeSlotEvaluator:
		if slot, ok := ResolvePartySlot(b); ok {
			return Reconciliation{Status: ev.Evaluate(DateQuery{Date: b.Date, Slot: slot}), Slot: slot, EvaluatedDate: b.Date}
		}
		return Reconciliation{Status: ev.Evaluate(DateQuery{Date: b.Date}), EvaluatedDate: b.Date}
	case *CakeCalendarEvaluator:
		delivery := DeliveryDateFor(b.Date)
		return Reconciliation{Status: ev.Evaluate(DateQuery{Date: delivery}), EvaluatedDate: delivery}
	default:
		return Reconciliation{Status: ev.Evaluate(DateQuery{Date: b.Date}), EvaluatedDate: b.Date}
	}
}

// DayCell is one rendered calendar day.
type DayCell struct {
	Date           Date          `json:"date"`
	Status         Status        `json:"status"`
	Slots          []Slot        `json:"slots,omitempty"`
	WeekendPremium bool          `json:"weekend_premium"`
	CakeState      CakeCellState `json:"cake_state,omitempty"`
	Orders         []string      `json:"orders,omitempty"`
}

// Month renders every day of the given month. Slots are listed only on bookable days and
// orders only matter to cake suppliers.
func (e *Engine) Month(year int, month time.Month, orders []Order) []DayCell {
	first := NewDate(year, month, 1)
	days := first.DaysUntil(first.AddDays(32).firstOfMonth())
	cells := make([]DayCell, 0, days)
	for i := 0; i < days; i++ {
		d := first.AddDays(i)
		cell := DayCell{
			Date:           d,
			Status:         e.evaluator.Evaluate(DateQuery{Date: d}),
			WeekendPremium: e.IsWeekendPremiumDay(d),
		}
		switch ev := e.evaluator.(type) {
		case *TimeSlotEvaluator:
			if cell.Status.Bookable() {
				cell.Slots = ev.AvailableSlots(d)
			}
		case *CakeCalendarEvaluator:
			cake := ev.Cell(d, orders)
			cell.CakeState = cake.State
			cell.Orders = cake.Orders
		}
		cells = append(cells, cell)
	}
	return cells
}

func (d Date) firstOfMonth() Date {
	y, m, _ := d.t.Date()
	return NewDate(y, m, 1)
}
