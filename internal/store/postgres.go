package store

import (
    "context"
    "database/sql"
    "errors"
    "time"

    _ "github.com/jackc/pgx/v5/stdlib"

    "lojabot/internal/model"
)

// Postgres stores orders in a PostgreSQL database via the pgx stdlib driver.
type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

// EnsureSchema creates the orders table if it does not exist (dev helper).
func (p *Postgres) EnsureSchema(ctx context.Context) error {
    _, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS orders (
    id            BIGSERIAL PRIMARY KEY,
    buyer_id      TEXT NOT NULL,
    buyer_name    TEXT NOT NULL,
    product_id    TEXT NOT NULL,
    product_name  TEXT NOT NULL,
    thread_id     TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status, id);`)
    return err
}

func (p *Postgres) InsertOrder(ctx context.Context, o model.Order) (model.Order, error) {
    if o.CreatedAt.IsZero() {
        o.CreatedAt = time.Now().UTC()
    }
    err := p.db.QueryRowContext(ctx,
        `INSERT INTO orders (buyer_id, buyer_name, product_id, product_name, thread_id, status, created_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
        o.BuyerID, o.BuyerName, o.ProductID, o.ProductName, o.ThreadID, string(o.Status), o.CreatedAt,
    ).Scan(&o.ID)
    if err != nil {
        return model.Order{}, err
    }
    return o, nil
}

func (p *Postgres) GetOrder(ctx context.Context, id int64) (model.Order, error) {
    o, err := scanOrder(p.db.QueryRowContext(ctx,
        `SELECT id, buyer_id, buyer_name, product_id, product_name, thread_id, status, created_at
         FROM orders WHERE id=$1`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return model.Order{}, ErrNotFound
    }
    return o, err
}

// TransitionOrder is a single conditional UPDATE; the WHERE status clause is
// what makes concurrent confirm/cancel on the same order safe.
func (p *Postgres) TransitionOrder(ctx context.Context, id int64, from, to model.OrderStatus) (model.Order, bool, error) {
    res, err := p.db.ExecContext(ctx,
        `UPDATE orders SET status=$1 WHERE id=$2 AND status=$3`, string(to), id, string(from))
    if err != nil {
        return model.Order{}, false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return model.Order{}, false, err
    }
    o, err := p.GetOrder(ctx, id)
    if err != nil {
        return model.Order{}, false, err
    }
    return o, n > 0, nil
}

func (p *Postgres) ListOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
    rows, err := p.db.QueryContext(ctx,
        `SELECT id, buyer_id, buyer_name, product_id, product_name, thread_id, status, created_at
         FROM orders WHERE status=$1 ORDER BY id ASC`, string(status))
    if err != nil {
        return nil, err
    }
    defer func() { _ = rows.Close() }()
    var out []model.Order
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, o)
    }
    return out, rows.Err()
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanOrder(r rowScanner) (model.Order, error) {
    var o model.Order
    var status string
    err := r.Scan(&o.ID, &o.BuyerID, &o.BuyerName, &o.ProductID, &o.ProductName, &o.ThreadID, &status, &o.CreatedAt)
    if err != nil {
        return model.Order{}, err
    }
    o.Status = model.OrderStatus(status)
    return o, nil
}
