package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("not found")

// DispatchRecord is one finished dispatch attempt as stored in Postgres.
// The order records themselves are never persisted; only what we did to
// them is.
type DispatchRecord struct {
	ID            uuid.UUID `db:"id"`
	OrderID       string    `db:"order_id"`
	RemoteOrderID string    `db:"remote_order_id"`
	Kind          string    `db:"kind"`
	Outcome       string    `db:"outcome"`
	Detail        string    `db:"detail"`
	CreatedAt     time.Time `db:"created_at"`
}

type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
}
