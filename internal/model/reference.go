package model

// Center is a service center. Reference data, immutable for a session.
type Center struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Service is a bookable service offered by the centers.
type Service struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
}

// TimeSlot is a bookable window returned by an availability query.
type TimeSlot struct {
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	GapRemainingAfter int    `json:"gap_remaining_after"`
}

// Label renders the slot as "09:00-09:30".
func (s TimeSlot) Label() string {
	return s.StartTime + "-" + s.EndTime
}

// SuggestedDate is an alternative date offered when the requested one is full.
type SuggestedDate struct {
	Date          string  `json:"date"`
	NumSlots      int     `json:"num_slots"`
	EarliestStart *string `json:"earliest_start"`
}

// Availability is the answer to an availability query.
type Availability struct {
	Available      bool            `json:"available"`
	Slots          []TimeSlot      `json:"slots"`
	Message        string          `json:"message,omitempty"`
	SuggestedDates []SuggestedDate `json:"suggested_dates,omitempty"`
}

// Normalize enforces that an unavailable result carries no slots.
func (a *Availability) Normalize() {
	if !a.Available || a.Slots == nil {
		a.Slots = []TimeSlot{}
	}
}

// HasSlot reports whether slot is one of the returned slots.
func (a *Availability) HasSlot(slot TimeSlot) bool {
	if a == nil || !a.Available {
		return false
	}
	for _, s := range a.Slots {
		if s.StartTime == slot.StartTime && s.EndTime == slot.EndTime {
			return true
		}
	}
	return false
}
