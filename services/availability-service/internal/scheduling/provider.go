package scheduling

import (
	"context"
	"errors"

	"github.com/partysnap/partyhub/services/availability-service/internal/availability"
)

var (
	ErrUnknownSupplier = errors.New("unknown supplier")
	ErrInvalidRecord   = errors.New("availability record must be a JSON object")
)

// SupplierRef identifies the supplier asked about and the calendar it reads.
type SupplierRef struct {
	SupplierID string
	OwnerID    string
	Category   string
}

// Provider is what the HTTP layer needs from the service.
type Provider interface {
	Engine(ctx context.Context, supplierID string) (*availability.Engine, SupplierRef, error)
	Orders(ctx context.Context, ref SupplierRef, from, to availability.Date) ([]availability.Order, error)
	SaveRecord(ctx context.Context, supplierID string, raw []byte) error
}
