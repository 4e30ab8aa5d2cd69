package postgresql

import (
	"context"

	"github.com/simvault/orderdesk/internal/db"
	"github.com/simvault/orderdesk/internal/dispatch"
	"github.com/simvault/orderdesk/internal/repository"
)

// DispatchRepo records finished dispatches. It implements dispatch.History.
type DispatchRepo struct {
	db db.DB
}

func NewDispatchRepo(db db.DB) *DispatchRepo {
	return &DispatchRepo{db: db}
}

func (r *DispatchRepo) Record(ctx context.Context, entry dispatch.HistoryEntry) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO dispatch_history (
            id, order_id, remote_order_id, kind, outcome, detail, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, entry.ID, entry.OrderID, entry.RemoteOrderID, string(entry.Kind), entry.Outcome, entry.Detail, entry.CreatedAt)
	return err
}

// GetByOrderID returns the dispatch attempts for an order, newest first.
func (r *DispatchRepo) GetByOrderID(ctx context.Context, orderID string, limit int) ([]*repository.DispatchRecord, error) {
	query := `
        SELECT id, order_id, remote_order_id, kind, outcome, detail, created_at
        FROM dispatch_history
        WHERE order_id = $1
        ORDER BY created_at DESC
    `
	args := []interface{}{orderID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var records []*repository.DispatchRecord
	err := r.db.Select(ctx, &records, query, args...)
	return records, err
}
