// Package poller keeps the employee's booking requests fresh in the background.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"autoservice-dashboard/config"
	"autoservice-dashboard/internal/model"
	"autoservice-dashboard/internal/store"
)

// Refresher reloads the booking requests into the store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Notifier is told about booking requests that appeared since the previous poll.
type Notifier interface {
	BookingCreated(b model.Booking)
}

// Session reports whether someone is signed in.
type Session interface {
	Token() string
}

// Service polls the workshop API on an interval.
type Service struct {
	cfg       config.PollerConfig
	refresher Refresher
	bookings  *store.BookingStore
	session   Session
	notifier  Notifier
	logger    *zap.Logger

	seen   map[string]struct{}
	primed bool
}

// NewService creates a poller. notifier may be nil.
func NewService(cfg config.PollerConfig, refresher Refresher, bookings *store.BookingStore, session Session, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		refresher: refresher,
		bookings:  bookings,
		session:   session,
		notifier:  notifier,
		logger:    logger,
		seen:      make(map[string]struct{}),
	}
}

// Run polls until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("poller is disabled, not starting")
		return
	}
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	s.logger.Info("starting poller", zap.Duration("interval", interval))

	s.PollOnce(ctx)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poller shutting down")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(interval)
		}
	}
}

// PollOnce refreshes the booking requests and returns the ones not seen before.
// The first successful poll only records what exists. Nothing is fetched while signed out.
func (s *Service) PollOnce(ctx context.Context) []model.Booking {
	if s.session != nil && s.session.Token() == "" {
		s.logger.Debug("no session, skipping poll")
		return nil
	}

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn("poll failed", zap.Error(err))
		return nil
	}

	var fresh []model.Booking
	for _, b := range s.bookings.Bookings() {
		if _, ok := s.seen[b.BookingID]; ok {
			continue
		}
		s.seen[b.BookingID] = struct{}{}
		if s.primed {
			fresh = append(fresh, *b)
		}
	}
	if !s.primed {
		s.primed = true
		s.logger.Info("poller primed", zap.Int("bookings", len(s.seen)))
		return nil
	}

	if len(fresh) > 0 {
		s.logger.Info("new booking requests", zap.Int("count", len(fresh)))
		if s.notifier != nil {
			for _, b := range fresh {
				s.notifier.BookingCreated(b)
			}
		}
	}
	return fresh
}
