package availability

import "time"

// Type selects which evaluator applies to a supplier.
type Type string

const (
	TypeTimeSlot     Type = "time_slot"
	TypeLeadTime     Type = "lead_time"
	TypeCakeCalendar Type = "cake_calendar"
)

func (t Type) Valid() bool {
	switch t {
	case TypeTimeSlot, TypeLeadTime, TypeCakeCalendar:
		return true
	}
	return false
}

type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
)

// AllSlots is the canonical slot order.
var AllSlots = []Slot{SlotMorning, SlotAfternoon}

func (s Slot) Valid() bool {
	return s == SlotMorning || s == SlotAfternoon
}

// Status is the evaluator output. It is computed on demand and never stored.
type Status string

const (
	StatusPast               Status = "past"
	StatusOutsideWindow      Status = "outside-window"
	StatusUnavailable        Status = "unavailable"
	StatusPartiallyAvailable Status = "partially-available"
	StatusAvailable          Status = "available"
)

// Bookable reports whether the status permits adding the supplier to a plan.
func (s Status) Bookable() bool {
	return s == StatusAvailable || s == StatusPartiallyAvailable
}

const (
	DefaultAdvanceBookingDays = 0
	DefaultMaxBookingDays     = 365

	// MaxDayCount caps every stored day count; larger values are clamped to it.
	MaxDayCount = 3650

	middayBoundary  = "13:00"
	defaultDayStart = "09:00"
	defaultDayEnd   = "17:00"
)

var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func weekdayName(wd time.Weekday) string {
	// time.Weekday starts at Sunday.
	return weekdayNames[(int(wd)+6)%7]
}

type SlotConfig struct {
	Available bool   `json:"available"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type SlotConfigs struct {
	Morning   SlotConfig `json:"morning"`
	Afternoon SlotConfig `json:"afternoon"`
}

func (c SlotConfigs) get(s Slot) SlotConfig {
	if s == SlotAfternoon {
		return c.Afternoon
	}
	return c.Morning
}

type DaySchedule struct {
	Active    bool        `json:"active"`
	TimeSlots SlotConfigs `json:"timeSlots"`
}

func openDay() DaySchedule {
	return DaySchedule{
		Active: true,
		TimeSlots: SlotConfigs{
			Morning:   SlotConfig{Available: true, StartTime: defaultDayStart, EndTime: middayBoundary},
			Afternoon: SlotConfig{Available: true, StartTime: middayBoundary, EndTime: defaultDayEnd},
		},
	}
}

// DateOverride marks slots of one date as blocked or busy. Listing both slots blocks the day.
type DateOverride struct {
	Date      Date   `json:"date"`
	TimeSlots []Slot `json:"timeSlots"`
}

func (o DateOverride) FullDay() bool {
	return o.covers(SlotMorning) && o.covers(SlotAfternoon)
}

func (o DateOverride) covers(s Slot) bool {
	for _, v := range o.TimeSlots {
		if v == s {
			return true
		}
	}
	return false
}

type LeadTimeSettings struct {
	MinLeadTimeDays     int     `json:"minLeadTimeDays"`
	MaxLeadTimeDays     int     `json:"maxLeadTimeDays"`
	CustomOrderLeadTime int     `json:"customOrderLeadTime"`
	StockBased          bool    `json:"stockBased"`
	UnlimitedStock      bool    `json:"unlimitedStock"`
	StockQuantity       int     `json:"stockQuantity"`
	RestockDays         int     `json:"restockDays"`
	RushOrdersAvailable bool    `json:"rushOrdersAvailable"`
	RushOrderFee        float64 `json:"rushOrderFee"`
	RushOrderMinHours   int     `json:"rushOrderMinHours"`
	ProcessingNotes     string  `json:"processingNotes"`
}

// DeliverySettings is pass-through data; it never gates availability.
type DeliverySettings struct {
	DeliveryRadius float64  `json:"deliveryRadius"`
	DeliveryFee    float64  `json:"deliveryFee"`
	DeliveryDays   []string `json:"deliveryDays"`
	TimeSlots      []string `json:"timeSlots"`
}

type PremiumKind string

const (
	PremiumPercentage PremiumKind = "percentage"
	PremiumFixed      PremiumKind = "fixed"
)

type WeekendPremium struct {
	Enabled bool        `json:"enabled"`
	Type    PremiumKind `json:"type"`
	Amount  float64     `json:"amount"`
}

// Record is the canonical SupplierAvailabilityRecord. Only the fields selected by
// AvailabilityType are authoritative.
type Record struct {
	AvailabilityType   Type                   `json:"availabilityType"`
	WorkingHours       map[string]DaySchedule `json:"workingHours"`
	UnavailableDates   []DateOverride         `json:"unavailableDates"`
	BusyDates          []DateOverride         `json:"busyDates"`
	LeadTimeSettings   LeadTimeSettings       `json:"leadTimeSettings"`
	DeliverySettings   DeliverySettings       `json:"deliverySettings"`
	BlockedDates       []Date                 `json:"blockedDates"`
	MinimumNoticeDays  int                    `json:"minimumNoticeDays"`
	AdvanceBookingDays int                    `json:"advanceBookingDays"`
	MaxBookingDays     int                    `json:"maxBookingDays"`
	WeekendPremium     WeekendPremium         `json:"weekendPremium"`
}

// DefaultRecord is the fully open record used when a supplier has no settings.
func DefaultRecord(t Type) Record {
	if !t.Valid() {
		t = TypeTimeSlot
	}
	hours := make(map[string]DaySchedule, len(weekdayNames))
	for _, name := range weekdayNames {
		hours[name] = openDay()
	}
	return Record{
		AvailabilityType:   t,
		WorkingHours:       hours,
		UnavailableDates:   []DateOverride{},
		BusyDates:          []DateOverride{},
		DeliverySettings:   DeliverySettings{DeliveryDays: []string{}, TimeSlots: []string{}},
		BlockedDates:       []Date{},
		AdvanceBookingDays: DefaultAdvanceBookingDays,
		MaxBookingDays:     DefaultMaxBookingDays,
		WeekendPremium:     WeekendPremium{Type: PremiumPercentage},
	}
}

// DateQuery asks about one date and, optionally, one slot.
type DateQuery struct {
	Date Date
	Slot Slot
}

// PartyDateBinding is the customer's committed party date. Read-only here.
type PartyDateBinding struct {
	Date      Date
	StartTime string
	TimeSlot  Slot
	Duration  time.Duration
}

// Order is an existing cake order on a supplier's calendar.
type Order struct {
	ID           string
	SupplierID   string
	PartyDate    Date
	DeliveryDate Date
}
