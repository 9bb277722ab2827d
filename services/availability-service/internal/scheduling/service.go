package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/partysnap/partyhub/services/availability-service/internal/availability"
	"github.com/partysnap/partyhub/services/availability-service/internal/cache"
	"github.com/partysnap/partyhub/services/availability-service/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is the read side of storage.Repository.
type Store interface {
	GetSupplier(ctx context.Context, id string) (storage.Supplier, error)
	GetRecord(ctx context.Context, ownerID string) ([]byte, error)
	ListCalendarSupplierIDs(ctx context.Context, ownerID string) ([]string, error)
	ListOrders(ctx context.Context, supplierIDs []string, from, to availability.Date) ([]availability.Order, error)
}

// RecordWriter persists a raw record and its change event atomically.
type RecordWriter interface {
	WriteRecord(ctx context.Context, ownerID string, raw []byte) error
}

type Service struct {
	store  Store
	writer RecordWriter
	cache  *cache.RecordCache
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
	tracer trace.Tracer
}

type Option func(*Service)

// WithClock overrides the wall clock used to decide "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone whose calendar day counts as "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(store Store, writer RecordWriter, rc *cache.RecordCache, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		writer: writer,
		cache:  rc,
		logger: logger,
		now:    time.Now,
		loc:    time.UTC,
		tracer: otel.Tracer("availability-service/scheduling"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() availability.Date {
	return availability.DateOf(s.now().In(s.loc))
}

// Engine loads, normalizes and classifies the supplier's record once and returns an engine
// fixed to today's date.
func (s *Service) Engine(ctx context.Context, supplierID string) (*availability.Engine, SupplierRef, error) {
	ctx, span := s.tracer.Start(ctx, "availability.engine", trace.WithAttributes(attribute.String("supplier.id", supplierID)))
	defer span.End()

	entry, err := s.load(ctx, supplierID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load")
		return nil, SupplierRef{}, err
	}
	ref := SupplierRef{SupplierID: entry.SupplierID, OwnerID: entry.OwnerID, Category: entry.Category}

	rec := availability.NormalizeOrDefault(s.logger.With("supplier_id", supplierID), entry.Record, entry.Category)
	span.SetAttributes(
		attribute.String("supplier.calendar_owner", ref.OwnerID),
		attribute.String("availability.type", string(rec.AvailabilityType)),
	)
	return availability.NewEngine(rec, s.today()), ref, nil
}

func (s *Service) load(ctx context.Context, supplierID string) (cache.Entry, error) {
	if e, ok := s.cache.Get(ctx, supplierID); ok {
		return e, nil
	}

	sup, err := s.store.GetSupplier(ctx, supplierID)
	if err != nil {
		if storage.IsNotFound(err) {
			return cache.Entry{}, ErrUnknownSupplier
		}
		return cache.Entry{}, fmt.Errorf("get supplier: %w", err)
	}
	raw, err := s.store.GetRecord(ctx, sup.OwnerID)
	if err != nil && !storage.IsNotFound(err) {
		return cache.Entry{}, fmt.Errorf("get record: %w", err)
	}
	if err != nil {
		s.logger.Info("no availability record, using open defaults", "supplier_id", supplierID, "owner_id", sup.OwnerID)
	}

	e := cache.Entry{SupplierID: sup.ID, OwnerID: sup.OwnerID, Category: sup.Category, Record: raw}
	s.cache.Set(ctx, e)
	return e, nil
}

// Orders returns orders on every listing that shares ref's calendar.
func (s *Service) Orders(ctx context.Context, ref SupplierRef, from, to availability.Date) ([]availability.Order, error) {
	ctx, span := s.tracer.Start(ctx, "availability.orders", trace.WithAttributes(attribute.String("supplier.calendar_owner", ref.OwnerID)))
	defer span.End()

	ids, err := s.store.ListCalendarSupplierIDs(ctx, ref.OwnerID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list calendar suppliers: %w", err)
	}
	orders, err := s.store.ListOrders(ctx, ids, from, to)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// SaveRecord stores raw as the calendar owner's record. Anything that is not a JSON object
// is rejected; legacy shapes are accepted as-is and normalized on read.
func (s *Service) SaveRecord(ctx context.Context, supplierID string, raw []byte) error {
	ctx, span := s.tracer.Start(ctx, "availability.save_record", trace.WithAttributes(attribute.String("supplier.id", supplierID)))
	defer span.End()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return ErrInvalidRecord
	}

	sup, err := s.store.GetSupplier(ctx, supplierID)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrUnknownSupplier
		}
		return fmt.Errorf("get supplier: %w", err)
	}
	if err := s.writer.WriteRecord(ctx, sup.OwnerID, raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write")
		return fmt.Errorf("write record: %w", err)
	}
	s.InvalidateCalendar(ctx, sup.OwnerID)
	return nil
}

// InvalidateCalendar drops cached entries for every listing reading ownerID's calendar.
func (s *Service) InvalidateCalendar(ctx context.Context, ownerID string) {
	ids, err := s.store.ListCalendarSupplierIDs(ctx, ownerID)
	if err != nil {
		s.logger.Warn("calendar lookup failed, invalidating owner only", "err", err, "owner_id", ownerID)
		ids = nil
	}
	if len(ids) == 0 {
		ids = []string{ownerID}
	}
	s.cache.Invalidate(ctx, ids...)
}

var _ Provider = (*Service)(nil)

// IsClientError reports errors caused by the request rather than the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownSupplier) || errors.Is(err, ErrInvalidRecord)
}
