package application

import (
	"context"
	"errors"

	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

// ErrStore marks fetch/update failures of the order store. Update
// failures are surfaced to staff; fetch failures only keep the
// previous snapshot on screen.
var ErrStore = errors.New("order store failure")

var ErrOrderNotFound = errors.New("order not in working set")

var ErrUnknownFilter = errors.New("unknown status filter")

type OrderStore interface {
	// List returns every order, newest first by createdAt.
	List(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus changes a single row's status and returns the
	// updated row.
	UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Order, error)
}

type DispatchSender interface {
	Send(ctx context.Context, o domain.Order) error
}
