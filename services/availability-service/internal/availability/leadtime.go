package availability

// RushOrderInfo describes the shorter notice path a supplier advertises. It is surfaced to
// callers and never evaluated automatically.
type RushOrderInfo struct {
	Available bool    `json:"available"`
	Fee       float64 `json:"fee"`
	MinHours  int     `json:"min_hours"`
}

// LeadTimeEvaluator decides availability for stock/notice based suppliers. Working hours
// and blocked dates are deliberately not consulted for this type.
type LeadTimeEvaluator struct {
	today    Date
	settings LeadTimeSettings
	advance  int
	maxDays  int
}

func NewLeadTimeEvaluator(rec Record, today Date) *LeadTimeEvaluator {
	return &LeadTimeEvaluator{
		today:    today,
		settings: rec.LeadTimeSettings,
		advance:  rec.AdvanceBookingDays,
		maxDays:  rec.MaxBookingDays,
	}
}

func (e *LeadTimeEvaluator) Type() Type { return TypeLeadTime }

// Evaluate ignores q.Slot; lead-time suppliers have no time-of-day.
func (e *LeadTimeEvaluator) Evaluate(q DateQuery) Status {
	d := q.Date
	if d.Before(e.today) {
		return StatusPast
	}
	s := e.settings
	if s.MaxLeadTimeDays > 0 && s.MinLeadTimeDays > s.MaxLeadTimeDays {
		// Inconsistent settings are a configuration error; nothing is bookable.
		return StatusOutsideWindow
	}
	if d.Before(e.today.AddDays(s.MinLeadTimeDays + e.advance)) {
		return StatusOutsideWindow
	}
	if d.After(e.today.AddDays(e.maxDays)) {
		return StatusOutsideWindow
	}
	if s.StockBased && !s.UnlimitedStock && s.StockQuantity <= 0 {
		return StatusUnavailable
	}
	return StatusAvailable
}

func (e *LeadTimeEvaluator) RushOrder() RushOrderInfo {
	return RushOrderInfo{
		Available: e.settings.RushOrdersAvailable,
		Fee:       e.settings.RushOrderFee,
		MinHours:  e.settings.RushOrderMinHours,
	}
}
