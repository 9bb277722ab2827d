package scheduling

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/partysnap/partyhub/services/availability-service/internal/availability"
	"github.com/partysnap/partyhub/services/availability-service/internal/outbox"
	"github.com/partysnap/partyhub/services/availability-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type fakeStore struct {
	suppliers map[string]storage.Supplier
	records   map[string][]byte
	orders    []availability.Order
	err       error

	orderQuery []string
}

func (f *fakeStore) GetSupplier(_ context.Context, id string) (storage.Supplier, error) {
	if f.err != nil {
		return storage.Supplier{}, f.err
	}
	s, ok := f.suppliers[id]
	if !ok {
		return storage.Supplier{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetRecord(_ context.Context, ownerID string) ([]byte, error) {
	raw, ok := f.records[ownerID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return raw, nil
}

func (f *fakeStore) ListCalendarSupplierIDs(_ context.Context, ownerID string) ([]string, error) {
	var ids []string
	for id, s := range f.suppliers {
		if s.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) ListOrders(_ context.Context, ids []string, _, _ availability.Date) ([]availability.Order, error) {
	f.orderQuery = ids
	return f.orders, nil
}

type fakeWriter struct {
	owner string
	raw   []byte
	err   error
}

func (w *fakeWriter) WriteRecord(_ context.Context, ownerID string, raw []byte) error {
	w.owner, w.raw = ownerID, raw
	return w.err
}

func newTestService(store *fakeStore, writer RecordWriter) *Service {
	clock := func() time.Time { return time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC) }
	return NewService(store, writer, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), WithClock(clock))
}

func marketplace() *fakeStore {
	return &fakeStore{
		suppliers: map[string]storage.Supplier{
			"venue-1":  {ID: "venue-1", Category: "Venues", OwnerID: "venue-1"},
			"venue-1b": {ID: "venue-1b", Category: "Venues", OwnerID: "venue-1"},
			"cake-1":   {ID: "cake-1", Category: "Cakes", OwnerID: "cake-1"},
			"bags-1":   {ID: "bags-1", Category: "Party Bags", OwnerID: "bags-1"},
		},
		records: map[string][]byte{
			"venue-1": []byte(`{"unavailableDates": ["2025-01-06"]}`),
			"cake-1":  []byte(`"corrupt"`),
		},
	}
}

func TestEngineSharesOwnerCalendar(t *testing.T) {
	svc := newTestService(marketplace(), nil)

	eng, ref, err := svc.Engine(context.Background(), "venue-1b")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if ref.OwnerID != "venue-1" || eng.Type() != availability.TypeTimeSlot {
		t.Fatalf("unexpected ref/type: %+v %s", ref, eng.Type())
	}
	if got := eng.Evaluate(availability.NewDate(2025, time.January, 6), ""); got != availability.StatusUnavailable {
		t.Fatalf("expected owner's block to apply, got %s", got)
	}
	if eng.Today() != availability.NewDate(2025, time.January, 1) {
		t.Fatalf("unexpected today %s", eng.Today())
	}
}

func TestEngineTodayFollowsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	svc := NewService(marketplace(), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC) }),
		WithLocation(loc),
	)
	eng, _, err := svc.Engine(context.Background(), "bags-1")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if eng.Today() != availability.NewDate(2025, time.January, 2) {
		t.Fatalf("expected local calendar day, got %s", eng.Today())
	}
	if eng.Type() != availability.TypeLeadTime {
		t.Fatalf("expected lead time, got %s", eng.Type())
	}
}

func TestEngineFallsBackToDefaults(t *testing.T) {
	svc := newTestService(marketplace(), nil)

	eng, _, err := svc.Engine(context.Background(), "cake-1")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if eng.Type() != availability.TypeCakeCalendar {
		t.Fatalf("expected cake calendar from category, got %s", eng.Type())
	}
	if got := eng.Evaluate(availability.NewDate(2025, time.March, 1), ""); got != availability.StatusAvailable {
		t.Fatalf("expected open default record, got %s", got)
	}
}

func TestEngineErrors(t *testing.T) {
	svc := newTestService(marketplace(), nil)
	if _, _, err := svc.Engine(context.Background(), "ghost"); !errors.Is(err, ErrUnknownSupplier) {
		t.Fatalf("expected ErrUnknownSupplier, got %v", err)
	}

	broken := marketplace()
	broken.err = errors.New("connection refused")
	_, _, err := newTestService(broken, nil).Engine(context.Background(), "venue-1")
	if err == nil || IsClientError(err) {
		t.Fatalf("expected a server-side error, got %v", err)
	}
}

func TestOrdersSpanSharedCalendar(t *testing.T) {
	store := marketplace()
	store.orders = []availability.Order{{ID: "o-1", SupplierID: "venue-1b"}}
	svc := newTestService(store, nil)

	orders, err := svc.Orders(context.Background(), SupplierRef{SupplierID: "venue-1b", OwnerID: "venue-1"},
		availability.NewDate(2025, time.January, 1), availability.NewDate(2025, time.January, 31))
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 1 || len(store.orderQuery) != 2 {
		t.Fatalf("expected both listings queried, got %v", store.orderQuery)
	}
}

func TestSaveRecord(t *testing.T) {
	w := &fakeWriter{}
	svc := newTestService(marketplace(), w)

	if err := svc.SaveRecord(context.Background(), "venue-1b", []byte(`{"maxBookingDays": 90}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if w.owner != "venue-1" {
		t.Fatalf("expected write to calendar owner, got %q", w.owner)
	}

	for _, raw := range []string{`[]`, `null`, `nope`, `"x"`} {
		if err := svc.SaveRecord(context.Background(), "venue-1", []byte(raw)); !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("expected ErrInvalidRecord for %s, got %v", raw, err)
		}
	}
	if err := svc.SaveRecord(context.Background(), "ghost", []byte(`{}`)); !errors.Is(err, ErrUnknownSupplier) {
		t.Fatalf("expected ErrUnknownSupplier, got %v", err)
	}

	w.err = errors.New("tx aborted")
	if err := svc.SaveRecord(context.Background(), "venue-1", []byte(`{}`)); err == nil || IsClientError(err) {
		t.Fatalf("expected write failure, got %v", err)
	}
}

func TestHandleEventIgnoresGarbage(t *testing.T) {
	svc := newTestService(marketplace(), nil)
	msgs := []kafka.Message{
		{Topic: outbox.EventAvailabilityUpdated, Value: []byte(`{"supplier_id":"venue-1"}`)},
		{Topic: TopicOrderPlaced, Value: []byte(`{"supplier_id":"cake-1"}`)},
		{Topic: TopicOrderPlaced, Value: []byte(`not json`)},
		{Topic: "other.v1", Value: []byte(`{"supplier_id":"x"}`)},
	}
	for _, m := range msgs {
		if err := svc.HandleEvent(context.Background(), m); err != nil {
			t.Fatalf("expected events to be absorbed, got %v", err)
		}
	}
}
