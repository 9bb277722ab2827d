package availability

import (
	"log/slog"
	"strings"
)

var categoryTypes = map[string]Type{
	// Appointment-style suppliers book morning/afternoon slots.
	"venue":         TypeTimeSlot,
	"venues":        TypeTimeSlot,
	"entertainment": TypeTimeSlot,
	"entertainer":   TypeTimeSlot,
	"entertainers":  TypeTimeSlot,
	"catering":      TypeTimeSlot,
	"caterer":       TypeTimeSlot,
	"caterers":      TypeTimeSlot,
	"photography":   TypeTimeSlot,
	"photographer":  TypeTimeSlot,
	"photographers": TypeTimeSlot,
	"face painting": TypeTimeSlot,
	"facepainting":  TypeTimeSlot,
	"face painter":  TypeTimeSlot,
	"face painters": TypeTimeSlot,
	"magician":      TypeTimeSlot,
	"magicians":     TypeTimeSlot,
	"activities":    TypeTimeSlot,

	// Product suppliers care about notice and stock.
	"party bags":     TypeLeadTime,
	"partybags":      TypeLeadTime,
	"party bag":      TypeLeadTime,
	"bouncy castle":  TypeLeadTime,
	"bouncy castles": TypeLeadTime,
	"bouncycastle":   TypeLeadTime,
	"decorations":    TypeLeadTime,
	"decoration":     TypeLeadTime,
	"soft play":      TypeLeadTime,
	"softplay":       TypeLeadTime,
	"balloons":       TypeLeadTime,

	"cakes":  TypeCakeCalendar,
	"cake":   TypeCakeCalendar,
	"baker":  TypeCakeCalendar,
	"bakers": TypeCakeCalendar,
	"bakery": TypeCakeCalendar,
}

// LookupCategory is the pure table lookup. The second result is false for unknown or
// empty categories.
func LookupCategory(category string) (Type, bool) {
	t, ok := categoryTypes[strings.ToLower(strings.TrimSpace(category))]
	return t, ok
}

// Classifier maps supplier categories to availability types, falling back to the
// time-slot strategy for anything it does not recognise.
type Classifier struct {
	Logger *slog.Logger
}

func (c Classifier) Classify(category string) Type {
	if t, ok := LookupCategory(category); ok {
		return t
	}
	if c.Logger != nil {
		c.Logger.Warn("unknown supplier category, defaulting to time slots", "category", category)
	}
	return TypeTimeSlot
}
