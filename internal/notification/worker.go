package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"autoservice-dashboard/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore lists subscriptions and drops expired ones.
type SubscriptionStore interface {
	List(ctx context.Context) ([]model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

// EventKind distinguishes booking events.
type EventKind string

const (
	EventBookingCreated EventKind = "booking_created"
	EventStatusChanged  EventKind = "status_changed"
)

// Event is one booking event to fan out.
type Event struct {
	Kind    EventKind
	Booking model.Booking
	From    model.BookingStatus
}

// Message is the JSON payload delivered to the browser.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Event
	subs    SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	logger  *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs SubscriptionStore, webpushOptions *webpush.Options, logger *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, size*16),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case ev := <-wp.jobs:
			wp.sendEvent(ctx, ev)
		case <-ctx.Done():
			wp.logger.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues ev. It never blocks: events are dropped when the queue is full.
func (wp *WorkerPool) Dispatch(ev Event) bool {
	select {
	case wp.jobs <- ev:
		return true
	default:
		wp.logger.Warn("notification queue full, dropping event",
			zap.String("kind", string(ev.Kind)),
			zap.String("booking_id", ev.Booking.BookingID),
		)
		return false
	}
}

// BookingCreated queues a notification for a new booking.
func (wp *WorkerPool) BookingCreated(b model.Booking) {
	wp.Dispatch(Event{Kind: EventBookingCreated, Booking: b})
}

// StatusChanged queues a notification for a status change.
func (wp *WorkerPool) StatusChanged(b model.Booking, from model.BookingStatus) {
	wp.Dispatch(Event{Kind: EventStatusChanged, Booking: b, From: from})
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Event {
	return wp.jobs
}

// BuildMessage renders the payload for ev.
func BuildMessage(ev Event) Message {
	b := ev.Booking
	msg := Message{BookingID: b.BookingID, Status: string(b.CurrentStatus)}
	switch ev.Kind {
	case EventBookingCreated:
		msg.Title = "Appointment booked"
		msg.Body = fmt.Sprintf("%s on %s", serviceLabel(b), b.Date)
		if b.StartTime != "" {
			msg.Body += " at " + b.StartTime
		}
	default:
		msg.Title = "Booking updated"
		msg.Body = fmt.Sprintf("Booking %s is now %s", b.BookingID, b.CurrentStatus)
	}
	return msg
}

func serviceLabel(b model.Booking) string {
	if b.ServiceName != "" {
		return b.ServiceName
	}
	return "Service"
}

func (wp *WorkerPool) sendEvent(ctx context.Context, ev Event) {
	subscriptions, err := wp.subs.List(ctx)
	if err != nil {
		wp.logger.Error("failed to fetch subscriptions", zap.String("booking_id", ev.Booking.BookingID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(BuildMessage(ev))
	if err != nil {
		wp.logger.Error("failed to encode notification", zap.Error(err))
		return
	}

	wp.logger.Info("sending notifications",
		zap.Int("count", len(subscriptions)),
		zap.String("kind", string(ev.Kind)),
		zap.String("booking_id", ev.Booking.BookingID),
	)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.logger.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.subs.Delete(ctx, sub.Endpoint); err != nil {
			wp.logger.Warn("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
