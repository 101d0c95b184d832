package store

import (
    "context"
    "sort"
    "sync"
    "time"

    "lojabot/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu     sync.Mutex
    nextID int64
    orders map[int64]model.Order
}

func NewMemory() *Memory {
    return &Memory{nextID: 1, orders: map[int64]model.Order{}}
}

func (m *Memory) InsertOrder(ctx context.Context, o model.Order) (model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    o.ID = m.nextID
    m.nextID++
    if o.CreatedAt.IsZero() {
        o.CreatedAt = time.Now().UTC()
    }
    m.orders[o.ID] = o
    return o, nil
}

func (m *Memory) GetOrder(ctx context.Context, id int64) (model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    o, ok := m.orders[id]
    if !ok {
        return model.Order{}, ErrNotFound
    }
    return o, nil
}

func (m *Memory) TransitionOrder(ctx context.Context, id int64, from, to model.OrderStatus) (model.Order, bool, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    o, ok := m.orders[id]
    if !ok {
        return model.Order{}, false, ErrNotFound
    }
    if o.Status != from {
        return o, false, nil
    }
    o.Status = to
    m.orders[id] = o
    return o, true, nil
}

func (m *Memory) ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := make([]model.Order, 0, 8)
    for _, o := range m.orders {
        if o.Status == status {
            out = append(out, o)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}
