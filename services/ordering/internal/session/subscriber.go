package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/seatside/pkg/event"
	"github.com/appetiteclub/seatside/pkg/lib/core"
	"github.com/appetiteclub/seatside/pkg/lib/events"
)

// OrderEventSubscriber refreshes open sessions when the ledger reports a
// change to one of their orders.
type OrderEventSubscriber struct {
	subscriber events.Subscriber
	registry   *Registry
	logger     core.Logger
}

func NewOrderEventSubscriber(sub events.Subscriber, registry *Registry, logger core.Logger) *OrderEventSubscriber {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &OrderEventSubscriber{
		subscriber: sub,
		registry:   registry,
		logger:     logger,
	}
}

func (s *OrderEventSubscriber) Start(ctx context.Context) error {
	s.log().Info("starting ledger order subscriber", "topic", event.LedgerOrdersTopic)
	if s.subscriber == nil {
		return fmt.Errorf("ledger order subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.LedgerOrdersTopic, s.handleEvent)
}

func (s *OrderEventSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderChangedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Info("invalid ledger order event", "error", err)
		return nil
	}

	if evt.EventType != event.EventOrderChanged {
		s.log().Debug("unknown ledger order event type", "event_type", evt.EventType)
		return nil
	}

	sess, ok := s.registry.Get(evt.TicketID)
	if !ok {
		return nil
	}

	if err := sess.Refresh(ctx); err != nil {
		s.log().Info("cannot refresh session after ledger change", "ticket_id", evt.TicketID, "error", err)
		return err
	}

	s.log().Debug("session refreshed from ledger event",
		"ticket_id", evt.TicketID,
		"ledger", evt.Ledger,
		"status", evt.Status,
		"action", evt.Action,
	)
	return nil
}

func (s *OrderEventSubscriber) log() core.Logger {
	return s.logger.With("component", "OrderEventSubscriber")
}
