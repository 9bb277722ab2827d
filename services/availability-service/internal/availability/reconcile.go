package availability

import (
	"regexp"
	"strconv"
	"strings"
)

// clockPattern finds standalone clock times anywhere in the text, so "Party at 2pm"
// resolves but the digits of a year do not.
var clockPattern = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?(?:\b|$)`)

// ResolvePartySlot picks the slot a party occupies: an explicit slot wins, otherwise the
// free-text start time is matched against simple keywords and hour ranges.
func ResolvePartySlot(b PartyDateBinding) (Slot, bool) {
	if b.TimeSlot.Valid() {
		return b.TimeSlot, true
	}
	return SlotFromTimeText(b.StartTime)
}

// SlotFromTimeText maps strings like "10am", "2:30 pm", "14:00" or "afternoon" to a slot.
// Hours 9-12 are morning, 1-5 and 13-17 afternoon; anything else is unresolved.
func SlotFromTimeText(text string) (Slot, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	switch {
	case strings.Contains(s, "morning"):
		return SlotMorning, true
	case strings.Contains(s, "afternoon"):
		return SlotAfternoon, true
	}

	for _, m := range clockPattern.FindAllStringSubmatch(s, -1) {
		if slot, ok := slotFromClock(m); ok {
			return slot, true
		}
	}
	return "", false
}

func slotFromClock(m []string) (Slot, bool) {
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	switch strings.ReplaceAll(m[3], ".", "") {
	case "am":
		if hour >= 1 && hour <= 12 {
			return SlotMorning, true
		}
		return "", false
	case "pm":
		if hour == 12 || (hour >= 1 && hour <= 11) {
			return SlotAfternoon, true
		}
		return "", false
	}
	switch {
	case hour >= 9 && hour <= 12:
		return SlotMorning, true
	case hour >= 1 && hour <= 5, hour >= 13 && hour <= 17:
		return SlotAfternoon, true
	}
	return "", false
}
