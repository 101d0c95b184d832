// Package guard suppresses duplicate rapid "buy" clicks. A claim is taken per
// (buyer, product) before the order-creation task starts and expires on its
// own; a failed creation releases it early so the buyer can retry.
package guard

import (
    "context"
    "sync"
    "time"
)

// Guard hands out short-lived purchase claims.
type Guard interface {
    // Claim returns true if the buyer now holds the claim for this product,
    // false if a claim is already active.
    Claim(ctx context.Context, buyerID, productID string) (bool, error)
    // Release drops the claim before its TTL runs out.
    Release(ctx context.Context, buyerID, productID string)
}

// TTL is how long a claim blocks a second click. Long enough to cover thread
// creation plus the store insert, short enough not to strand a buyer after a
// lost task.
const TTL = 30 * time.Second

// Memory is the in-process guard used when no REDIS_URL is set.
type Memory struct {
    mu     sync.Mutex
    claims map[string]time.Time
    now    func() time.Time
}

func NewMemory() *Memory {
    return &Memory{claims: map[string]time.Time{}, now: time.Now}
}

func key(buyerID, productID string) string { return buyerID + ":" + productID }

func (m *Memory) Claim(ctx context.Context, buyerID, productID string) (bool, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    k := key(buyerID, productID)
    now := m.now()
    if exp, ok := m.claims[k]; ok && now.Before(exp) {
        return false, nil
    }
    // opportunistic sweep of expired claims
    for ck, exp := range m.claims {
        if !now.Before(exp) {
            delete(m.claims, ck)
        }
    }
    m.claims[k] = now.Add(TTL)
    return true, nil
}

func (m *Memory) Release(ctx context.Context, buyerID, productID string) {
    m.mu.Lock(); defer m.mu.Unlock()
    delete(m.claims, key(buyerID, productID))
}
