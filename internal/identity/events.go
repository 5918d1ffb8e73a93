package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const eventChannel = "identity:events"

// Event kinds carried on the auth-event stream.
const (
	EventSignedIn  = "signed_in"
	EventSignedOut = "signed_out"
)

// Event is an asynchronous authentication notification.
type Event struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
}

// EventHandler receives auth events. Calls are made one at a time, in
// arrival order.
type EventHandler struct {
	OnSignedIn  func(subjectID string)
	OnSignedOut func(subjectID string)
}

// EventHub broadcasts sign-in/sign-out notifications over Redis pub/sub so
// every platform process observes credential changes as they happen.
type EventHub struct {
	client *redis.Client
	logger *slog.Logger
}

// NewEventHub constructs an EventHub.
func NewEventHub(client *redis.Client, logger *slog.Logger) *EventHub {
	return &EventHub{client: client, logger: logger}
}

// PublishSignedIn announces a fresh sign-in for the subject.
func (h *EventHub) PublishSignedIn(ctx context.Context, subjectID string) error {
	return h.publish(ctx, Event{Kind: EventSignedIn, Subject: subjectID})
}

// PublishSignedOut announces revocation or sign-out for the subject.
func (h *EventHub) PublishSignedOut(ctx context.Context, subjectID string) error {
	return h.publish(ctx, Event{Kind: EventSignedOut, Subject: subjectID})
}

func (h *EventHub) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := h.client.Publish(ctx, eventChannel, data).Err(); err != nil {
		return fmt.Errorf("%w: publish event: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Subscribe blocks delivering events to the handler until the context is
// cancelled. Delivery order matches arrival order; events are never
// coalesced or reordered.
func (h *EventHub) Subscribe(ctx context.Context, handler EventHandler) error {
	sub := h.client.Subscribe(ctx, eventChannel)
	defer func() { _ = sub.Close() }()

	// Force the subscription handshake so publishers after this call are
	// guaranteed to be observed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("%w: subscribe: %v", ErrBackendUnavailable, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if h.logger != nil {
					h.logger.Warn("drop malformed auth event", slog.Any("error", err))
				}
				continue
			}
			h.dispatch(handler, event)
		}
	}
}

func (h *EventHub) dispatch(handler EventHandler, event Event) {
	switch event.Kind {
	case EventSignedIn:
		if handler.OnSignedIn != nil {
			handler.OnSignedIn(event.Subject)
		}
	case EventSignedOut:
		if handler.OnSignedOut != nil {
			handler.OnSignedOut(event.Subject)
		}
	default:
		if h.logger != nil {
			h.logger.Warn("drop unknown auth event", slog.String("kind", event.Kind))
		}
	}
}
