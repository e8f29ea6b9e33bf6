package store

import (
	"errors"

	"autoservice-dashboard/internal/model"
)

// ErrNotFound is returned when an entity id is not in the store.
var ErrNotFound = errors.New("not found")

// BookingState is the snapshot held by a BookingStore.
// Entries must be treated as read-only; mutations go through the store.
type BookingState struct {
	Bookings  []*model.Booking
	IsLoading bool
	Error     string
}

// BookingStore mirrors the server's bookings for rendering.
type BookingStore struct {
	c *Container[BookingState]
}

// NewBookingStore creates an empty booking store.
func NewBookingStore() *BookingStore {
	return &BookingStore{c: NewContainer(BookingState{Bookings: []*model.Booking{}})}
}

func (s *BookingStore) Snapshot() BookingState { return s.c.Get() }

func (s *BookingStore) Bookings() []*model.Booking { return s.c.Get().Bookings }

// Get returns a copy of the booking with the given reference id.
func (s *BookingStore) Get(bookingID string) (model.Booking, bool) {
	for _, b := range s.c.Get().Bookings {
		if b.BookingID == bookingID {
			return *b, true
		}
	}
	return model.Booking{}, false
}

func (s *BookingStore) Subscribe(l Listener[BookingState]) func() { return s.c.Subscribe(l) }

// SetBookings replaces the whole list after a full fetch.
func (s *BookingStore) SetBookings(bookings []model.Booking) {
	list := make([]*model.Booking, len(bookings))
	for i := range bookings {
		b := bookings[i]
		list[i] = &b
	}
	s.c.Update(func(st BookingState) BookingState {
		st.Bookings = list
		return st
	})
}

// AddBooking prepends b.
func (s *BookingStore) AddBooking(b model.Booking) {
	s.c.Update(func(st BookingState) BookingState {
		list := make([]*model.Booking, 0, len(st.Bookings)+1)
		list = append(list, &b)
		st.Bookings = append(list, st.Bookings...)
		return st
	})
}

// UpdateBookingStatus sets the status of one booking in place.
func (s *BookingStore) UpdateBookingStatus(bookingID string, status model.BookingStatus) error {
	return s.swap(bookingID, func(b model.Booking) model.Booking {
		b.CurrentStatus = status
		return b
	})
}

// ReplaceBooking swaps in the server's copy of b, keeping its position.
func (s *BookingStore) ReplaceBooking(b model.Booking) error {
	return s.swap(b.BookingID, func(model.Booking) model.Booking { return b })
}

// RemoveBooking drops the booking with the given reference id.
func (s *BookingStore) RemoveBooking(bookingID string) {
	s.c.Update(func(st BookingState) BookingState {
		list := make([]*model.Booking, 0, len(st.Bookings))
		for _, b := range st.Bookings {
			if b.BookingID != bookingID {
				list = append(list, b)
			}
		}
		st.Bookings = list
		return st
	})
}

func (s *BookingStore) SetLoading(loading bool) {
	s.c.Update(func(st BookingState) BookingState {
		st.IsLoading = loading
		return st
	})
}

func (s *BookingStore) SetError(msg string) {
	s.c.Update(func(st BookingState) BookingState {
		st.Error = msg
		return st
	})
}

// ApplyOptimistic applies mutate to one booking immediately and returns a function
// restoring the previous value. The revert is a no-op if the entry was replaced since.
func (s *BookingStore) ApplyOptimistic(bookingID string, mutate func(model.Booking) model.Booking) (revert func(), err error) {
	var prev, applied *model.Booking
	s.c.Update(func(st BookingState) BookingState {
		idx := indexOfBooking(st.Bookings, bookingID)
		if idx < 0 {
			return st
		}
		prev = st.Bookings[idx]
		next := mutate(*prev)
		applied = &next
		st.Bookings = replaceAt(st.Bookings, idx, applied)
		return st
	})
	if prev == nil {
		return nil, ErrNotFound
	}

	return func() {
		s.c.Update(func(st BookingState) BookingState {
			idx := indexOfBooking(st.Bookings, bookingID)
			if idx < 0 || st.Bookings[idx] != applied {
				return st
			}
			st.Bookings = replaceAt(st.Bookings, idx, prev)
			return st
		})
	}, nil
}

func (s *BookingStore) swap(bookingID string, fn func(model.Booking) model.Booking) error {
	found := false
	s.c.Update(func(st BookingState) BookingState {
		idx := indexOfBooking(st.Bookings, bookingID)
		if idx < 0 {
			return st
		}
		found = true
		next := fn(*st.Bookings[idx])
		st.Bookings = replaceAt(st.Bookings, idx, &next)
		return st
	})
	if !found {
		return ErrNotFound
	}
	return nil
}

func indexOfBooking(list []*model.Booking, bookingID string) int {
	for i, b := range list {
		if b.BookingID == bookingID {
			return i
		}
	}
	return -1
}

// replaceAt copies list and swaps the pointer at idx; other entries keep their identity.
func replaceAt[T any](list []*T, idx int, v *T) []*T {
	out := make([]*T, len(list))
	copy(out, list)
	out[idx] = v
	return out
}
