package guard

import (
    "context"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Redis implements Guard over Redis SET NX EX, so the claim survives process
// restarts and is shared across replicas.
type Redis struct {
    rdb *redis.Client
}

func NewRedis(url string) (*Redis, error) {
    opt, err := redis.ParseURL(url)
    if err != nil {
        return nil, err
    }
    return &Redis{rdb: redis.NewClient(opt)}, nil
}

func (r *Redis) Claim(ctx context.Context, buyerID, productID string) (bool, error) {
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    return r.rdb.SetNX(ctx, "buyclaim:"+key(buyerID, productID), 1, TTL).Result()
}

func (r *Redis) Release(ctx context.Context, buyerID, productID string) {
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    _ = r.rdb.Del(ctx, "buyclaim:"+key(buyerID, productID)).Err()
}
