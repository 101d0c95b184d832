package guard

import (
    "context"
    "testing"
    "time"
)

func TestMemoryClaimBlocksSecondClick(t *testing.T) {
    g := NewMemory()
    ctx := context.Background()

    ok, err := g.Claim(ctx, "u1", "bot_musica")
    if err != nil || !ok { t.Fatalf("first claim: ok=%v err=%v", ok, err) }
    ok, err = g.Claim(ctx, "u1", "bot_musica")
    if err != nil || ok { t.Fatalf("second claim must be blocked: ok=%v err=%v", ok, err) }

    // a different buyer or product is independent
    if ok, _ := g.Claim(ctx, "u2", "bot_musica"); !ok { t.Fatalf("other buyer blocked") }
    if ok, _ := g.Claim(ctx, "u1", "bot_economia"); !ok { t.Fatalf("other product blocked") }
}

func TestMemoryReleaseAllowsRetry(t *testing.T) {
    g := NewMemory()
    ctx := context.Background()
    if ok, _ := g.Claim(ctx, "u1", "p1"); !ok { t.Fatalf("claim") }
    g.Release(ctx, "u1", "p1")
    if ok, _ := g.Claim(ctx, "u1", "p1"); !ok { t.Fatalf("claim after release must succeed") }
}

func TestMemoryClaimExpires(t *testing.T) {
    g := NewMemory()
    ctx := context.Background()
    now := time.Now()
    g.now = func() time.Time { return now }

    if ok, _ := g.Claim(ctx, "u1", "p1"); !ok { t.Fatalf("claim") }
    g.now = func() time.Time { return now.Add(TTL + time.Second) }
    if ok, _ := g.Claim(ctx, "u1", "p1"); !ok { t.Fatalf("expired claim must not block") }
    if len(g.claims) != 1 { t.Fatalf("expired claims not swept: %d", len(g.claims)) }
}
