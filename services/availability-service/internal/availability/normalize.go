package availability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned when the stored value is not a JSON object.
var ErrMalformedRecord = errors.New("availability record is not a JSON object")

// Normalize converts any stored shape (legacy or current) into the canonical Record.
// Empty input and JSON null yield the permissive default. Malformed nested entries are
// dropped; only a non-object top level is an error.
func Normalize(raw []byte, category string) (Record, error) {
	return normalize(raw, category, nil)
}

// NormalizeOrDefault never fails: a malformed record is logged and treated as absent.
func NormalizeOrDefault(logger *slog.Logger, raw []byte, category string) Record {
	rec, err := normalize(raw, category, logger)
	if err != nil {
		if logger != nil {
			logger.Warn("malformed availability record, using open defaults", "err", err, "category", category)
		}
		return DefaultRecord(Classifier{Logger: logger}.Classify(category))
	}
	return rec
}

func normalize(raw []byte, category string, logger *slog.Logger) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return DefaultRecord(Classifier{Logger: logger}.Classify(category)), nil
	}
	var doc map[string]any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Record{}, ErrMalformedRecord
	}
	if doc == nil {
		return DefaultRecord(Classifier{Logger: logger}.Classify(category)), nil
	}

	rec := DefaultRecord(resolveType(doc, category, logger))
	rec.WorkingHours = normalizeWorkingHours(doc["workingHours"])
	rec.UnavailableDates = normalizeOverrides(doc["unavailableDates"])
	rec.BusyDates = normalizeOverrides(doc["busyDates"])
	rec.LeadTimeSettings = normalizeLeadTime(doc["leadTimeSettings"])
	rec.DeliverySettings = normalizeDelivery(doc["deliverySettings"])
	rec.BlockedDates = normalizeBlockedDates(doc["blockedDates"])
	rec.MinimumNoticeDays = resolveMinimumNotice(doc)

	if v, ok := dayField(doc, "advanceBookingDays"); ok && v > 0 {
		rec.AdvanceBookingDays = v
	}
	if v, ok := dayField(doc, "maxBookingDays"); ok && v > 0 {
		rec.MaxBookingDays = v
	}
	rec.WeekendPremium = resolveWeekendPremium(doc)
	return rec, nil
}

func resolveType(doc map[string]any, category string, logger *slog.Logger) Type {
	if t, ok := LookupCategory(category); ok {
		return t
	}
	if s, ok := doc["availabilityType"].(string); ok {
		if t, ok := parseType(s); ok {
			return t
		}
	}
	return Classifier{Logger: logger}.Classify(category)
}

func parseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "time_slot", "timeslot", "time-slot", "time_slot_based", "slot":
		return TypeTimeSlot, true
	case "lead_time", "leadtime", "lead-time", "lead_time_based", "stock":
		return TypeLeadTime, true
	case "cake_calendar", "cake", "cake-calendar", "cakecalendar":
		return TypeCakeCalendar, true
	}
	return "", false
}

func normalizeWorkingHours(v any) map[string]DaySchedule {
	out := make(map[string]DaySchedule, len(weekdayNames))
	for _, name := range weekdayNames {
		out[name] = openDay()
	}
	days, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for key, raw := range days {
		name, ok := canonicalWeekday(key)
		if !ok {
			continue
		}
		day, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out[name] = normalizeDay(day)
	}
	return out
}

func canonicalWeekday(key string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, name := range weekdayNames {
		if k == name || (len(k) == 3 && strings.HasPrefix(name, k)) {
			return name, true
		}
	}
	return "", false
}

func normalizeDay(day map[string]any) DaySchedule {
	active := boolField(day, "active", true)
	if slots, ok := day["timeSlots"].(map[string]any); ok {
		return DaySchedule{
			Active: active,
			TimeSlots: SlotConfigs{
				Morning:   normalizeSlot(slots["morning"], defaultDayStart, middayBoundary),
				Afternoon: normalizeSlot(slots["afternoon"], middayBoundary, defaultDayEnd),
			},
		}
	}
	_, hasStart := day["start"]
	_, hasEnd := day["end"]
	if hasStart || hasEnd {
		// Legacy {active, start, end}: split at the fixed midday boundary.
		start := stringField(day, "start", defaultDayStart)
		end := stringField(day, "end", defaultDayEnd)
		return DaySchedule{
			Active: active,
			TimeSlots: SlotConfigs{
				Morning:   SlotConfig{Available: active, StartTime: start, EndTime: middayBoundary},
				Afternoon: SlotConfig{Available: active, StartTime: middayBoundary, EndTime: end},
			},
		}
	}
	sched := openDay()
	sched.Active = active
	return sched
}

func normalizeSlot(v any, start, end string) SlotConfig {
	cfg := SlotConfig{Available: true, StartTime: start, EndTime: end}
	m, ok := v.(map[string]any)
	if !ok {
		return cfg
	}
	cfg.Available = boolField(m, "available", true)
	cfg.StartTime = stringField(m, "startTime", start)
	cfg.EndTime = stringField(m, "endTime", end)
	return cfg
}

func normalizeOverrides(v any) []DateOverride {
	list, _ := v.([]any)
	merged := map[Date]map[Slot]struct{}{}
	for _, item := range list {
		var (
			date  Date
			ok    bool
			slots []Slot
		)
		switch entry := item.(type) {
		case string:
			date, ok = ParseDate(entry)
			slots = AllSlots
		case map[string]any:
			s, _ := entry["date"].(string)
			date, ok = ParseDate(s)
			slots = parseSlots(entry["timeSlots"])
			if len(slots) == 0 {
				slots = AllSlots
			}
		}
		if !ok {
			continue
		}
		set := merged[date]
		if set == nil {
			set = map[Slot]struct{}{}
			merged[date] = set
		}
		for _, s := range slots {
			set[s] = struct{}{}
		}
	}

	out := make([]DateOverride, 0, len(merged))
	for date, set := range merged {
		o := DateOverride{Date: date, TimeSlots: make([]Slot, 0, len(set))}
		for _, s := range AllSlots {
			if _, ok := set[s]; ok {
				o.TimeSlots = append(o.TimeSlots, s)
			}
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func parseSlots(v any) []Slot {
	list, _ := v.([]any)
	var out []Slot
	for _, item := range list {
		s, _ := item.(string)
		slot := Slot(strings.ToLower(strings.TrimSpace(s)))
		if slot.Valid() {
			out = append(out, slot)
		}
	}
	return out
}

func normalizeBlockedDates(v any) []Date {
	list, _ := v.([]any)
	seen := map[Date]struct{}{}
	out := make([]Date, 0, len(list))
	for _, item := range list {
		var s string
		switch entry := item.(type) {
		case string:
			s = entry
		case map[string]any:
			s, _ = entry["date"].(string)
		}
		d, ok := ParseDate(s)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func normalizeLeadTime(v any) LeadTimeSettings {
	m, ok := v.(map[string]any)
	if !ok {
		return LeadTimeSettings{}
	}
	var s LeadTimeSettings
	s.MinLeadTimeDays, _ = dayField(m, "minLeadTimeDays")
	s.MaxLeadTimeDays, _ = dayField(m, "maxLeadTimeDays")
	s.CustomOrderLeadTime, _ = dayField(m, "customOrderLeadTime")
	s.StockBased = boolField(m, "stockBased", false)
	s.UnlimitedStock = boolField(m, "unlimitedStock", false)
	s.StockQuantity, _ = intField(m, "stockQuantity")
	s.RestockDays, _ = dayField(m, "restockDays")
	s.RushOrdersAvailable = boolField(m, "rushOrdersAvailable", false)
	s.RushOrderFee, _ = floatField(m, "rushOrderFee")
	s.RushOrderMinHours, _ = intField(m, "rushOrderMinHours")
	s.ProcessingNotes = stringField(m, "processingNotes", "")
	if s.MinLeadTimeDays < 0 {
		s.MinLeadTimeDays = 0
	}
	return s
}

func normalizeDelivery(v any) DeliverySettings {
	out := DeliverySettings{DeliveryDays: []string{}, TimeSlots: []string{}}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	out.DeliveryRadius, _ = floatField(m, "deliveryRadius")
	out.DeliveryFee, _ = floatField(m, "deliveryFee")
	out.DeliveryDays = stringList(m["deliveryDays"])
	out.TimeSlots = stringList(m["timeSlots"])
	return out
}

func resolveMinimumNotice(doc map[string]any) int {
	if v, ok := dayField(doc, "minimumNoticeDays"); ok && v >= 0 {
		return v
	}
	if v, ok := dayField(doc, "minNoticeDays"); ok && v >= 0 {
		return v
	}
	if lt, ok := doc["leadTimeSettings"].(map[string]any); ok {
		if v, ok := dayField(lt, "minLeadTimeDays"); ok && v >= 0 {
			return v
		}
	}
	return 0
}

func resolveWeekendPremium(doc map[string]any) WeekendPremium {
	raw, _ := doc["weekendPremium"].(map[string]any)
	if raw == nil {
		if details, ok := doc["serviceDetails"].(map[string]any); ok {
			raw, _ = details["weekendPremium"].(map[string]any)
		}
	}
	wp := WeekendPremium{Type: PremiumPercentage}
	if raw == nil {
		return wp
	}
	wp.Enabled = boolField(raw, "enabled", false)
	if strings.EqualFold(stringField(raw, "type", ""), string(PremiumFixed)) {
		wp.Type = PremiumFixed
	}
	wp.Amount, _ = floatField(raw, "amount")
	return wp
}

func boolField(m map[string]any, key string, fallback bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func floatField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func intField(m map[string]any, key string) (int, bool) {
	f, ok := floatField(m, key)
	if !ok {
		return 0, false
	}
	f = math.Max(math.Min(math.Round(f), math.MaxInt32), math.MinInt32)
	return int(f), true
}

// dayField reads a day count bounded to ±MaxDayCount so date arithmetic cannot overflow.
func dayField(m map[string]any, key string) (int, bool) {
	v, ok := intField(m, key)
	if !ok {
		return 0, false
	}
	return min(max(v, -MaxDayCount), MaxDayCount), true
}

func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
