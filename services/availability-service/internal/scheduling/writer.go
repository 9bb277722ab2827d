package scheduling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/partysnap/partyhub/libs/db"
	"github.com/partysnap/partyhub/services/availability-service/internal/outbox"
	"github.com/partysnap/partyhub/services/availability-service/internal/storage"
)

// TxWriter upserts the record and enqueues supplier.availability.updated.v1 in one
// transaction.
type TxWriter struct {
	pool   *db.Pool
	repo   *storage.Repository
	outbox *outbox.Repository
	now    func() time.Time
}

func NewTxWriter(pool *db.Pool, repo *storage.Repository, outboxRepo *outbox.Repository) *TxWriter {
	return &TxWriter{pool: pool, repo: repo, outbox: outboxRepo, now: time.Now}
}

// AvailabilityUpdated is the payload of supplier.availability.updated.v1.
type AvailabilityUpdated struct {
	SupplierID string    `json:"supplier_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (w *TxWriter) WriteRecord(ctx context.Context, ownerID string, raw []byte) error {
	payload, err := json.Marshal(AvailabilityUpdated{SupplierID: ownerID, UpdatedAt: w.now().UTC()})
	if err != nil {
		return err
	}
	return w.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if err := w.repo.UpsertRecord(ctx, tx, ownerID, raw); err != nil {
			return err
		}
		_, err := w.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: outbox.AggregateSupplierAvailability,
			AggregateID:   ownerID,
			EventType:     outbox.EventAvailabilityUpdated,
			Payload:       payload,
		})
		return err
	})
}
