// Package api implements the interaction webhook endpoint and its routing.
package api

import (
    "context"
    "fmt"
    "log"
    "os"
    "strings"

    "lojabot/internal/auth"
    "lojabot/internal/catalog"
    "lojabot/internal/discord"
    "lojabot/internal/guard"
    "lojabot/internal/orders"
    "lojabot/internal/store"
    "lojabot/internal/tasks"
)

type Server struct {
    Store     store.Store
    Catalog   *catalog.Catalog
    Platform  discord.API
    Orders    *orders.Manager
    Tasks     *tasks.Dispatcher
    Guard     guard.Guard
    Verifier  *auth.Verifier
    AdminRole string
}

// NewServer builds the server from the environment. The platform credential,
// public key, application ID, and admin role are required; missing any of
// them is a startup failure. DATABASE_URL and REDIS_URL select external
// backends, with in-memory fallbacks for dev.
func NewServer() (*Server, error) {
    token, err := requireEnv("DISCORD_BOT_TOKEN")
    if err != nil {
        return nil, err
    }
    pubKey, err := requireEnv("DISCORD_PUBLIC_KEY")
    if err != nil {
        return nil, err
    }
    appID, err := requireEnv("DISCORD_APP_ID")
    if err != nil {
        return nil, err
    }
    adminRole, err := requireEnv("ADMIN_ROLE_ID")
    if err != nil {
        return nil, err
    }

    verifier, err := auth.NewVerifier(pubKey)
    if err != nil {
        return nil, fmt.Errorf("DISCORD_PUBLIC_KEY: %w", err)
    }

    cat, err := catalog.Load(os.Getenv("CATALOG_PATH"))
    if err != nil {
        return nil, err
    }

    var s store.Store
    if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(dsn)
        if err != nil {
            return nil, err
        }
        if err := sp.EnsureSchema(context.Background()); err != nil {
            return nil, err
        }
        s = sp
    }

    var g guard.Guard
    if url := os.Getenv("REDIS_URL"); url != "" {
        rg, err := guard.NewRedis(url)
        if err != nil {
            log.Printf("redis guard unavailable, using in-memory guard: %v", err)
            g = guard.NewMemory()
        } else {
            g = rg
        }
    } else {
        g = guard.NewMemory()
    }

    dc := discord.NewClient(token, appID)
    return &Server{
        Store:     s,
        Catalog:   cat,
        Platform:  dc,
        Orders:    orders.NewManager(s, dc, cat),
        Tasks:     tasks.NewDispatcher(),
        Guard:     g,
        Verifier:  verifier,
        AdminRole: adminRole,
    }, nil
}

func requireEnv(name string) (string, error) {
    v := strings.TrimSpace(os.Getenv(name))
    if v == "" {
        return "", fmt.Errorf("required environment variable %s is not set", name)
    }
    return v, nil
}
