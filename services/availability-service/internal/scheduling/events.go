package scheduling

import (
	"context"
	"encoding/json"

	"github.com/partysnap/partyhub/services/availability-service/internal/outbox"
	"github.com/segmentio/kafka-go"
)

// TopicOrderPlaced is published by the booking side whenever a supplier receives an order.
const TopicOrderPlaced = "booking.order.placed.v1"

type supplierEvent struct {
	SupplierID string `json:"supplier_id"`
}

// HandleEvent keeps the record cache coherent across replicas. Malformed payloads are
// logged and dropped, not retried.
func (s *Service) HandleEvent(ctx context.Context, msg kafka.Message) error {
	var evt supplierEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil || evt.SupplierID == "" {
		s.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
		return nil
	}

	switch msg.Topic {
	case outbox.EventAvailabilityUpdated:
		s.InvalidateCalendar(ctx, evt.SupplierID)
	case TopicOrderPlaced:
		s.cache.Invalidate(ctx, evt.SupplierID)
	default:
		s.logger.Warn("unhandled topic", "topic", msg.Topic)
	}
	return nil
}
