package store

import (
    "context"
    "errors"

    "lojabot/internal/model"
)

// Store is the persistence interface for orders. The order lifecycle manager
// is its only writer.
type Store interface {
    // InsertOrder persists a new order and returns it with the assigned ID.
    InsertOrder(ctx context.Context, o model.Order) (model.Order, error)
    // GetOrder returns the order with the given ID, or ErrNotFound.
    GetOrder(ctx context.Context, id int64) (model.Order, error)
    // TransitionOrder sets status to `to` only if the current status is
    // `from`. It returns the order as stored afterwards and whether the
    // transition actually happened; a false result with a nil error means
    // the order was already past `from` (the idempotent no-op case).
    TransitionOrder(ctx context.Context, id int64, from, to model.OrderStatus) (model.Order, bool, error)
    // ListOrdersByStatus returns all orders with the given status, ordered
    // by ascending ID.
    ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
}

var ErrNotFound = errors.New("not found")
