package availability

// window is the inclusive booking window [earliest, latest].
type window struct {
	earliest Date
	latest   Date
}

func bookingWindow(today Date, advanceDays, maxDays int) window {
	return window{earliest: today.AddDays(advanceDays), latest: today.AddDays(maxDays)}
}

func (w window) contains(d Date) bool {
	return !d.Before(w.earliest) && !d.After(w.latest)
}

// TimeSlotEvaluator decides availability for morning/afternoon suppliers.
type TimeSlotEvaluator struct {
	today  Date
	hours  map[string]DaySchedule
	blocks map[Date][]Slot
	window window
}

// NewTimeSlotEvaluator snapshots the parts of rec it needs; later edits to rec are not seen.
func NewTimeSlotEvaluator(rec Record, today Date) *TimeSlotEvaluator {
	hours := make(map[string]DaySchedule, len(rec.WorkingHours))
	for k, v := range rec.WorkingHours {
		hours[k] = v
	}
	blocks := map[Date][]Slot{}
	for _, list := range [][]DateOverride{rec.UnavailableDates, rec.BusyDates} {
		for _, o := range list {
			blocks[o.Date] = append(blocks[o.Date], o.TimeSlots...)
		}
	}
	return &TimeSlotEvaluator{
		today:  today,
		hours:  hours,
		blocks: blocks,
		window: bookingWindow(today, rec.AdvanceBookingDays, rec.MaxBookingDays),
	}
}

func (e *TimeSlotEvaluator) Type() Type { return TypeTimeSlot }

// AvailableSlots returns the free slots on d in canonical order. Past dates have none.
func (e *TimeSlotEvaluator) AvailableSlots(d Date) []Slot {
	if d.Before(e.today) {
		return nil
	}
	var free []Slot
	for _, s := range AllSlots {
		if e.slotOpen(d, s) {
			free = append(free, s)
		}
	}
	return free
}

// SlotFree reports whether one slot on d is free, ignoring the booking window.
func (e *TimeSlotEvaluator) SlotFree(d Date, s Slot) bool {
	if d.Before(e.today) || !s.Valid() {
		return false
	}
	return e.slotOpen(d, s)
}

func (e *TimeSlotEvaluator) Evaluate(q DateQuery) Status {
	if q.Date.Before(e.today) {
		return StatusPast
	}
	if !e.window.contains(q.Date) {
		return StatusOutsideWindow
	}
	if q.Slot != "" {
		if e.SlotFree(q.Date, q.Slot) {
			return StatusAvailable
		}
		return StatusUnavailable
	}
	switch len(e.AvailableSlots(q.Date)) {
	case 0:
		return StatusUnavailable
	case 1:
		return StatusPartiallyAvailable
	default:
		return StatusAvailable
	}
}

func (e *TimeSlotEvaluator) slotOpen(d Date, s Slot) bool {
	if len(e.hours) > 0 {
		day, ok := e.hours[weekdayName(d.Weekday())]
		if ok {
			if !day.Active || !day.TimeSlots.get(s).Available {
				return false
			}
		}
	}
	for _, blocked := range e.blocks[d] {
		if blocked == s {
			return false
		}
	}
	return true
}
