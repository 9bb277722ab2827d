package availability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalize_LegacyDaySchedule(t *testing.T) {
	raw := []byte(`{
		"workingHours": {
			"Monday": {"active": true, "start": "10:00", "end": "16:00"},
			"Sunday": {"active": false, "start": "09:00", "end": "17:00"}
		}
	}`)
	rec, err := Normalize(raw, "venue")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	mon := rec.WorkingHours["monday"]
	if !mon.Active {
		t.Fatalf("expected monday active")
	}
	if mon.TimeSlots.Morning != (SlotConfig{Available: true, StartTime: "10:00", EndTime: "13:00"}) {
		t.Fatalf("unexpected morning slot: %+v", mon.TimeSlots.Morning)
	}
	if mon.TimeSlots.Afternoon != (SlotConfig{Available: true, StartTime: "13:00", EndTime: "16:00"}) {
		t.Fatalf("unexpected afternoon slot: %+v", mon.TimeSlots.Afternoon)
	}

	sun := rec.WorkingHours["sunday"]
	if sun.Active || sun.TimeSlots.Morning.Available || sun.TimeSlots.Afternoon.Available {
		t.Fatalf("expected sunday closed, got %+v", sun)
	}

	// Days that were never configured stay open.
	if tue := rec.WorkingHours["tuesday"]; !tue.Active || !tue.TimeSlots.Afternoon.Available {
		t.Fatalf("expected tuesday open by default, got %+v", tue)
	}
}

func TestNormalize_BareStringsBlockWholeDay(t *testing.T) {
	raw := []byte(`{
		"unavailableDates": ["2025-03-10T00:00:00.000Z", "not-a-date", {"date": "2025-03-11", "timeSlots": ["afternoon"]}],
		"busyDates": [{"date": "2025-03-12"}]
	}`)
	rec, err := Normalize(raw, "entertainer")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(rec.UnavailableDates) != 2 {
		t.Fatalf("expected malformed entry dropped, got %d entries", len(rec.UnavailableDates))
	}
	first := rec.UnavailableDates[0]
	if first.Date.String() != "2025-03-10" || !first.FullDay() {
		t.Fatalf("expected full-day block on 2025-03-10, got %+v", first)
	}
	second := rec.UnavailableDates[1]
	if second.FullDay() || len(second.TimeSlots) != 1 || second.TimeSlots[0] != SlotAfternoon {
		t.Fatalf("expected afternoon-only block, got %+v", second)
	}
	if len(rec.BusyDates) != 1 || !rec.BusyDates[0].FullDay() {
		t.Fatalf("expected slotless busy entry to cover the day, got %+v", rec.BusyDates)
	}
}

func TestNormalize_MergesDuplicateDates(t *testing.T) {
	raw := []byte(`{"unavailableDates": [
		{"date": "2025-05-02", "timeSlots": ["afternoon"]},
		{"date": "2025-05-01", "timeSlots": ["morning"]},
		{"date": "2025-05-02", "timeSlots": ["morning"]}
	]}`)
	rec, err := Normalize(raw, "venue")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(rec.UnavailableDates) != 2 {
		t.Fatalf("expected 2 merged entries, got %d", len(rec.UnavailableDates))
	}
	if rec.UnavailableDates[0].Date.String() != "2025-05-01" {
		t.Fatalf("expected entries sorted by date, got %s first", rec.UnavailableDates[0].Date)
	}
	if !rec.UnavailableDates[1].FullDay() {
		t.Fatalf("expected union of slots to block 2025-05-02 fully")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []byte(`{
		"workingHours": {"mon": {"active": true, "start": "08:00", "end": "18:00"}},
		"unavailableDates": ["2025-07-01", {"date": "2025-06-30", "timeSlots": ["morning"]}],
		"blockedDates": ["2025-08-02", "2025-08-01", "2025-08-02"],
		"leadTimeSettings": {"minLeadTimeDays": 3, "stockBased": true, "stockQuantity": "4"},
		"serviceDetails": {"weekendPremium": {"enabled": true, "type": "fixed", "amount": 25}},
		"maxBookingDays": 120
	}`)
	first, err := Normalize(raw, "")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	once, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := Normalize(once, "")
	if err != nil {
		t.Fatalf("renormalize: %v", err)
	}
	twice, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("normalization not idempotent:\n%s\n%s", once, twice)
	}
}

func TestNormalize_EmptyAndMalformed(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("  "), []byte("null"), []byte("{}")} {
		rec, err := Normalize(raw, "")
		if err != nil {
			t.Fatalf("normalize %q: %v", raw, err)
		}
		if rec.AvailabilityType != TypeTimeSlot || rec.MaxBookingDays != DefaultMaxBookingDays {
			t.Fatalf("expected open time-slot default for %q, got %+v", raw, rec)
		}
		if len(rec.WorkingHours) != 7 {
			t.Fatalf("expected all weekdays present, got %d", len(rec.WorkingHours))
		}
	}

	for _, raw := range [][]byte{[]byte(`[]`), []byte(`"x"`), []byte(`42`), []byte(`{broken`)} {
		if _, err := Normalize(raw, ""); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("expected ErrMalformedRecord for %q, got %v", raw, err)
		}
		rec := NormalizeOrDefault(nil, raw, "cakes")
		if rec.AvailabilityType != TypeCakeCalendar {
			t.Fatalf("expected default record to keep category type, got %s", rec.AvailabilityType)
		}
	}
}

func TestNormalize_AliasResolution(t *testing.T) {
	rec, err := Normalize([]byte(`{"weekendPremium": {"enabled": true}, "serviceDetails": {"weekendPremium": {"enabled": false}}}`), "venue")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !rec.WeekendPremium.Enabled {
		t.Fatalf("expected top-level weekend premium to win")
	}

	rec, err = Normalize([]byte(`{"leadTimeSettings": {"minLeadTimeDays": 5}}`), "cakes")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if rec.MinimumNoticeDays != 5 {
		t.Fatalf("expected notice from lead time settings, got %d", rec.MinimumNoticeDays)
	}

	rec, err = Normalize([]byte(`{"minNoticeDays": 2, "leadTimeSettings": {"minLeadTimeDays": 5}}`), "cakes")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if rec.MinimumNoticeDays != 2 {
		t.Fatalf("expected explicit notice to win, got %d", rec.MinimumNoticeDays)
	}
}

func TestNormalize_TypeSelection(t *testing.T) {
	rec, _ := Normalize([]byte(`{"availabilityType": "lead_time"}`), "Venue")
	if rec.AvailabilityType != TypeTimeSlot {
		t.Fatalf("expected known category to decide, got %s", rec.AvailabilityType)
	}
	rec, _ = Normalize([]byte(`{"availabilityType": "lead_time_based"}`), "")
	if rec.AvailabilityType != TypeLeadTime {
		t.Fatalf("expected stored type when category unknown, got %s", rec.AvailabilityType)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Type{
		"  Venue ":      TypeTimeSlot,
		"FACE PAINTING": TypeTimeSlot,
		"Party Bags":    TypeLeadTime,
		"bouncy castle": TypeLeadTime,
		"Cakes":         TypeCakeCalendar,
		"":              TypeTimeSlot,
		"unicorns":      TypeTimeSlot,
	}
	for in, want := range cases {
		if got := (Classifier{}).Classify(in); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", in, got, want)
		}
	}
	if _, ok := LookupCategory("unicorns"); ok {
		t.Fatalf("expected unknown category lookup to fail")
	}
}

func TestNormalize_ClampsHugeDayCounts(t *testing.T) {
	rec, err := Normalize([]byte(`{
		"advanceBookingDays": 1e15,
		"maxBookingDays": 1e300,
		"minimumNoticeDays": "9e18",
		"leadTimeSettings": {"minLeadTimeDays": 1e15, "maxLeadTimeDays": -1e15}
	}`), "party bags")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if rec.AdvanceBookingDays != MaxDayCount || rec.MaxBookingDays != MaxDayCount || rec.MinimumNoticeDays != MaxDayCount {
		t.Fatalf("expected day counts clamped to %d, got %+v", MaxDayCount, rec)
	}
	if rec.LeadTimeSettings.MinLeadTimeDays != MaxDayCount || rec.LeadTimeSettings.MaxLeadTimeDays != -MaxDayCount {
		t.Fatalf("expected lead time clamped, got %+v", rec.LeadTimeSettings)
	}

	lead := NewEngine(mustNormalize(t, `{"leadTimeSettings": {"minLeadTimeDays": 1e15}}`, "party bags"), wednesday)
	if got := lead.Evaluate(wednesday.AddDays(30), ""); got != StatusOutsideWindow {
		t.Fatalf("expected huge lead time to keep near dates outside-window, got %s", got)
	}
	venue := NewEngine(mustNormalize(t, `{"maxBookingDays": 1e15}`, "venue"), wednesday)
	if got := venue.Evaluate(wednesday.AddDays(30), ""); got != StatusAvailable {
		t.Fatalf("expected huge booking window to keep near dates available, got %s", got)
	}
}
