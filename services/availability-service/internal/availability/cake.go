package availability

import "time"

// CakeCellState is how a cake calendar cell must be rendered and routed on click.
type CakeCellState string

const (
	CakeCellPast         CakeCellState = "past"
	CakeCellHasOrder     CakeCellState = "has-order"
	CakeCellWithinNotice CakeCellState = "within-notice"
	CakeCellBlocked      CakeCellState = "blocked"
	CakeCellOpen         CakeCellState = "open"
)

type CakeCell struct {
	Date   Date          `json:"date"`
	State  CakeCellState `json:"state"`
	Orders []string      `json:"orders,omitempty"`
}

// IsBlocked reports whether d is in the record's blocked list.
func IsBlocked(d Date, rec Record) bool {
	for _, b := range rec.BlockedDates {
		if b == d {
			return true
		}
	}
	return false
}

// IsWithinMinimumNotice reports today <= d < today+noticeDays.
func IsWithinMinimumNotice(d, today Date, noticeDays int) bool {
	return !d.Before(today) && d.Before(today.AddDays(noticeDays))
}

// DeliveryDateFor derives when a cake must be delivered for a party: two days earlier for
// a Sunday party, otherwise the day before.
func DeliveryDateFor(party Date) Date {
	if party.Weekday() == time.Sunday {
		return party.AddDays(-2)
	}
	return party.AddDays(-1)
}

func (o Order) deliveryDate() Date {
	if !o.PartyDate.IsZero() {
		return DeliveryDateFor(o.PartyDate)
	}
	return o.DeliveryDate
}

// HasOrder reports whether any order is delivered on d.
func HasOrder(d Date, orders []Order) bool {
	return len(ordersOn(d, orders)) > 0
}

func ordersOn(d Date, orders []Order) []string {
	var ids []string
	for _, o := range orders {
		if dd := o.deliveryDate(); !dd.IsZero() && dd == d {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// CakeCalendarEvaluator is the per-day open/blocked model used by bakers.
type CakeCalendarEvaluator struct {
	today   Date
	blocked map[Date]struct{}
	notice  int
	window  window
}

func NewCakeCalendarEvaluator(rec Record, today Date) *CakeCalendarEvaluator {
	blocked := make(map[Date]struct{}, len(rec.BlockedDates))
	for _, d := range rec.BlockedDates {
		blocked[d] = struct{}{}
	}
	return &CakeCalendarEvaluator{
		today:   today,
		blocked: blocked,
		notice:  rec.MinimumNoticeDays,
		window:  bookingWindow(today, rec.AdvanceBookingDays, rec.MaxBookingDays),
	}
}

func (e *CakeCalendarEvaluator) Type() Type { return TypeCakeCalendar }

// Evaluate maps the calendar rules onto a Status. Existing orders never change it.
func (e *CakeCalendarEvaluator) Evaluate(q DateQuery) Status {
	d := q.Date
	switch {
	case d.Before(e.today):
		return StatusPast
	case IsWithinMinimumNotice(d, e.today, e.notice), !e.window.contains(d):
		return StatusOutsideWindow
	case e.isBlocked(d):
		return StatusUnavailable
	}
	return StatusAvailable
}

// Cell applies the render precedence past > has order > within notice > blocked > open.
// Days before the advance booking bound render as within notice.
func (e *CakeCalendarEvaluator) Cell(d Date, orders []Order) CakeCell {
	cell := CakeCell{Date: d, Orders: ordersOn(d, orders)}
	switch {
	case d.Before(e.today):
		cell.State = CakeCellPast
	case len(cell.Orders) > 0:
		cell.State = CakeCellHasOrder
	case IsWithinMinimumNotice(d, e.today, e.notice), d.Before(e.window.earliest):
		cell.State = CakeCellWithinNotice
	case e.isBlocked(d):
		cell.State = CakeCellBlocked
	default:
		cell.State = CakeCellOpen
	}
	return cell
}

func (e *CakeCalendarEvaluator) isBlocked(d Date) bool {
	_, ok := e.blocked[d]
	return ok
}
