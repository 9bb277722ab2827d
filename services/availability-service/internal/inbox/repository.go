package inbox

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/partysnap/partyhub/libs/db"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository remembers which supplier events a consumer group has already applied. Each
// group keeps its own history so a second deployment reading the same topics still sees
// every event once.
type Repository struct {
	exec  execer
	group string
}

func NewRepository(pool *db.Pool, group string) *Repository {
	return newRepository(pool, group)
}

func newRepository(exec execer, group string) *Repository {
	return &Repository{exec: exec, group: group}
}

// Record claims eventID for the group. It returns false when the event was already applied.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	if eventID == "" {
		return false, errors.New("inbox: empty event id")
	}
	_, err := r.exec.Exec(ctx, `
		INSERT INTO inbox_events (consumer_group, event_id, event_type)
		VALUES ($1, $2, $3)
	`, r.group, eventID, eventType)
	switch {
	case err == nil:
		return true, nil
	case db.IsUniqueViolation(err):
		return false, nil
	}
	return false, err
}
