package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "Pending"
	StatusAccepted   BookingStatus = "Accepted"
	StatusRejected   BookingStatus = "Rejected"
	StatusInProgress BookingStatus = "In-Progress"
	StatusCompleted  BookingStatus = "Completed"
	StatusHoldOn     BookingStatus = "Hold-on"
)

// AllStatuses lists every status in display order.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusAccepted,
	StatusInProgress,
	StatusHoldOn,
	StatusCompleted,
	StatusRejected,
}

// ParseStatus accepts the canonical spellings and the legacy "In Progress" / "Hold on" forms.
func ParseStatus(s string) (BookingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "accepted":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	case "in-progress", "in progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "hold-on", "hold on":
		return StatusHoldOn, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is exposed from s.
func (s BookingStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// StatusFromWire maps a status string from a backend onto a BookingStatus.
// Unknown values are kept verbatim; they are not Valid and expose no actions.
func StatusFromWire(raw string) BookingStatus {
	if parsed, err := ParseStatus(raw); err == nil {
		return parsed
	}
	return BookingStatus(strings.TrimSpace(raw))
}

// UnmarshalJSON normalizes legacy spellings. null decodes to the empty status.
func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = ""
		return nil
	}
	*s = StatusFromWire(*raw)
	return nil
}

// Action is an employee intent on a booking.
type Action string

const (
	ActionAccept   Action = "Accept"
	ActionReject   Action = "Reject"
	ActionComplete Action = "Complete"
)

// allowedTransitions maps a status to the actions it exposes and their target.
var allowedTransitions = map[BookingStatus]map[Action]BookingStatus{
	StatusPending: {
		ActionAccept: StatusAccepted,
		ActionReject: StatusRejected,
	},
	StatusAccepted: {
		ActionComplete: StatusCompleted,
	},
	StatusInProgress: {
		ActionComplete: StatusCompleted,
	},
}

// NextStatus returns the status reached by applying action to from.
func NextStatus(from BookingStatus, action Action) (BookingStatus, bool) {
	to, ok := allowedTransitions[from][action]
	return to, ok
}

// CanTransition reports whether some action moves from to to.
func CanTransition(from, to BookingStatus) bool {
	for _, target := range allowedTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// AvailableActions returns the actions exposed for status, in a stable order.
func AvailableActions(status BookingStatus) []Action {
	var actions []Action
	for _, a := range []Action{ActionAccept, ActionReject, ActionComplete} {
		if _, ok := allowedTransitions[status][a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}
