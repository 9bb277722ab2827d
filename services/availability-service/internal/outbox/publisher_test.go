package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/partysnap/partyhub/libs/kafkax"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestToMessage(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := Record{
		ID:          7,
		EventID:     "3f8a2a0c-8d55-4c8e-9d67-000000000001",
		AggregateID: "sup-1",
		EventType:   EventAvailabilityUpdated,
		Payload:     []byte(`{"supplier_id":"sup-1"}`),
		Traceparent: "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
		CreatedAt:   created,
	}

	msg := toMessage(context.Background(), rec)
	if msg.Topic != EventAvailabilityUpdated || string(msg.Key) != "sup-1" || !msg.Time.Equal(created) {
		t.Fatalf("unexpected message: %+v", msg)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != rec.EventID || meta.EventType != rec.EventType {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if got := kafkax.HeaderValue(msg.Headers, "traceparent"); got != rec.Traceparent {
		t.Fatalf("expected stored traceparent forwarded, got %q", got)
	}
}

func TestNewPublisherDefaults(t *testing.T) {
	p := NewPublisher(nil, nil, nil, PublisherConfig{Brokers: "k1:9092, k2:9092"})
	if p.pollEvery != 2*time.Second || p.batchSize != 50 || len(p.brokers) != 2 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}
