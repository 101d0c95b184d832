package api

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "log"
    "net/http"
    "time"

    "lojabot/internal/auth"
    "lojabot/internal/dashboard"
    "lojabot/internal/discord"
    "lojabot/internal/metrics"
    "lojabot/internal/model"
)

const (
    headerSignature = "X-Signature-Ed25519"
    headerTimestamp = "X-Signature-Timestamp"
)

const (
    msgNotImplemented = "Interação não implementada."
    msgNoPermission   = "🚫 Você não tem permissão para usar este comando."
    msgBuyInProgress  = "⏳ Você já tem um pedido deste produto em andamento. Aguarde a confirmação."
    msgUnknownProduct = "⚠️ Este produto não está mais disponível."
    msgCommFailure    = "❌ Ocorreu um erro de comunicação com a plataforma. Tente novamente em instantes."
    msgUnexpected     = "❌ Ocorreu um erro inesperado. Tente novamente."
)

// HealthHandler answers the platform's liveness probe.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/plain; charset=utf-8")
    _, _ = w.Write([]byte("O bot de vendas está operando e pronto para receber interações."))
}

// InteractionsHandler receives every interaction webhook. Signature
// verification runs over the raw body before anything else; after that the
// payload is routed by type, then by command name or custom-ID namespace.
// Every verified call gets exactly one JSON response.
func (s *Server) InteractionsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    body, err := io.ReadAll(r.Body)
    if err != nil {
        http.Error(w, "could not read body", http.StatusBadRequest)
        return
    }
    if err := s.Verifier.Verify(r.Header.Get(headerSignature), r.Header.Get(headerTimestamp), body); err != nil {
        metrics.Interactions.WithLabelValues("unverified", "unauthorized").Inc()
        if errors.Is(err, auth.ErrMissingSignature) {
            http.Error(w, "missing signature headers", http.StatusUnauthorized)
        } else {
            log.Printf("interactions: %v", err)
            http.Error(w, "invalid request signature", http.StatusUnauthorized)
        }
        return
    }

    var in discord.Interaction
    if err := json.Unmarshal(body, &in); err != nil {
        metrics.Interactions.WithLabelValues("unverified", "malformed").Inc()
        http.Error(w, "malformed interaction payload", http.StatusBadRequest)
        return
    }

    kind := interactionKind(&in)
    start := time.Now()
    defer func() {
        metrics.InteractionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
    }()

    switch in.Type {
    case discord.InteractionPing:
        metrics.Interactions.WithLabelValues(kind, "ok").Inc()
        respond(w, discord.ResponsePong, nil)
    case discord.InteractionCommand:
        s.handleCommand(w, r, &in, kind)
    case discord.InteractionComponent:
        s.handleComponent(w, r, &in, kind)
    default:
        metrics.Interactions.WithLabelValues(kind, "unknown").Inc()
        respondEphemeral(w, discord.ResponseChannelMessage, msgNotImplemented)
    }
}

func interactionKind(in *discord.Interaction) string {
    switch in.Type {
    case discord.InteractionPing:
        return "ping"
    case discord.InteractionCommand:
        return "command"
    case discord.InteractionComponent:
        return "component"
    }
    return "other"
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, in *discord.Interaction, kind string) {
    switch in.Data.Name {
    case "comprar":
        metrics.Interactions.WithLabelValues(kind, "ok").Inc()
        view := s.Catalog.PageView(0)
        respond(w, discord.ResponseChannelMessage, &view)

    case "pedidos":
        if !s.requireAdmin(w, in, kind) {
            return
        }
        view, err := s.Orders.PendingView(r.Context(), 0)
        if err != nil {
            log.Printf("pedidos: %v", err)
            metrics.Interactions.WithLabelValues(kind, "error").Inc()
            respondEphemeral(w, discord.ResponseChannelMessage, msgUnexpected)
            return
        }
        metrics.Interactions.WithLabelValues(kind, "ok").Inc()
        respond(w, discord.ResponseChannelMessage, &view)

    case "dashboard":
        if !s.requireAdmin(w, in, kind) {
            return
        }
        metrics.Interactions.WithLabelValues(kind, "ok").Inc()
        // slow path: chart rendering plus a store scan; ack now, deliver later
        respondEphemeral(w, discord.ResponseDeferredMessage, "")
        token := in.Token
        s.Tasks.Go("dashboard", func(ctx context.Context) {
            s.deliverDashboard(ctx, token)
        })

    default:
        metrics.Interactions.WithLabelValues(kind, "unknown").Inc()
        respondEphemeral(w, discord.ResponseChannelMessage, msgNotImplemented)
    }
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request, in *discord.Interaction, kind string) {
    cid, ok := parseCustomID(in.Data.CustomID)
    if !ok {
        metrics.Interactions.WithLabelValues(kind, "unknown").Inc()
        respondEphemeral(w, discord.ResponseChannelMessage, msgNotImplemented)
        return
    }

    switch cid.Kind {
    case kindCatalogPrev, kindCatalogNext:
        // pure pagination: same renderer as the initial command, new page,
        // immediate in-place update
        page := cid.Page - 1
        if cid.Kind == kindCatalogNext {
            page = cid.Page + 1
        }
        metrics.Interactions.WithLabelValues(kind, "ok").Inc()
        view := s.Catalog.PageView(page)
        respond(w, discord.ResponseUpdateMessage, &view)

    case kindPendingPrev, kindPendingNext:
        if !s.requireAdmin(w, in, kind) {
            return
        }
        page := cid.Page - 1
        if cid.Kind == kindPendingNext {
            page = cid.Page + 1
        }
        view, err := s.Orders.PendingView(r.Context(), page)
        if err != nil {
            log.Printf("pedidos pagination: %v", err)
            metrics.Interactions.WithLabelValues(kind, "error").Inc()
            respondEphemeral(w, discord.ResponseChannelMessage, msgUnexpected)
            return
        }
        metrics.Interactions.WithLabelValues(kind, "ok").Inc()
        respond(w, discord.ResponseUpdateMessage, &view)

    case kindBuy:
        s.handleBuy(w, in, cid.ProductID, kind)

    case kindConfirm, kindCancel:
        if !s.requireAdmin(w, in, kind) {
            return
        }
        metrics.Interactions.WithLabelValues(kind, "ok").Inc()
        respond(w, discord.ResponseDeferredUpdate, nil)
        token := in.Token
        confirm := cid.Kind == kindConfirm
        orderID, page := cid.OrderID, cid.Page
        s.Tasks.Go("order-transition", func(ctx context.Context) {
            var msg discord.MessageData
            if confirm {
                msg = s.Orders.Confirm(ctx, orderID, page)
            } else {
                msg = s.Orders.Cancel(ctx, orderID, page)
            }
            if err := s.Platform.EditOriginal(ctx, token, msg); err != nil {
                log.Printf("order transition follow-up: %v", err)
            }
        })

    default:
        metrics.Interactions.WithLabelValues(kind, "unknown").Inc()
        respondEphemeral(w, discord.ResponseChannelMessage, msgNotImplemented)
    }
}

func (s *Server) handleBuy(w http.ResponseWriter, in *discord.Interaction, productID, kind string) {
    product, ok := s.Catalog.Get(productID)
    if !ok {
        metrics.Interactions.WithLabelValues(kind, "unknown").Inc()
        respondEphemeral(w, discord.ResponseChannelMessage, msgUnknownProduct)
        return
    }
    buyer := in.Invoker()
    claimed, err := s.Guard.Claim(context.Background(), buyer.ID, productID)
    if err != nil {
        // the guard is best-effort; a broken guard must not block sales
        log.Printf("buy guard: %v", err)
        claimed = true
    }
    if !claimed {
        metrics.Interactions.WithLabelValues(kind, "duplicate").Inc()
        respondEphemeral(w, discord.ResponseChannelMessage, msgBuyInProgress)
        return
    }

    metrics.Interactions.WithLabelValues(kind, "ok").Inc()
    respond(w, discord.ResponseDeferredUpdate, nil)
    token, channelID := in.Token, in.ChannelID
    s.Tasks.Go("create-order", func(ctx context.Context) {
        msg, created := s.Orders.CreateOrder(ctx, product, buyer, channelID)
        if !created {
            s.Guard.Release(ctx, buyer.ID, productID)
        }
        if err := s.Platform.EditOriginal(ctx, token, msg); err != nil {
            log.Printf("create order follow-up: %v", err)
        }
    })
}

func (s *Server) deliverDashboard(ctx context.Context, token string) {
    completed, err := s.Store.ListOrdersByStatus(ctx, model.StatusCompleted)
    if err != nil {
        log.Printf("dashboard: listing completed orders: %v", err)
        s.failFollowup(ctx, token, msgUnexpected)
        return
    }
    summary := dashboard.Aggregate(completed, s.Catalog, time.Now())
    png, err := dashboard.Render(summary)
    if err != nil {
        log.Printf("dashboard: rendering chart: %v", err)
        s.failFollowup(ctx, token, msgUnexpected)
        return
    }
    data := discord.MessageData{
        Content: "📊 **Dashboard de Vendas** — últimos 30 dias\n" +
            "Receita total: **" + dashboard.FormatRevenue(summary.TotalRevenue) + "**",
        Attachments: []discord.Attachment{{ID: 0, Filename: "vendas.png"}},
    }
    if err := s.Platform.EditOriginalFile(ctx, token, "vendas.png", png, data); err != nil {
        log.Printf("dashboard: delivering chart: %v", err)
        s.failFollowup(ctx, token, msgCommFailure)
    }
}

// failFollowup is the single best-effort failure message a background task
// may deliver.
func (s *Server) failFollowup(ctx context.Context, token, msg string) {
    if err := s.Platform.EditOriginal(ctx, token, discord.MessageData{Content: msg, Flags: discord.EphemeralFlag}); err != nil {
        log.Printf("failure follow-up undeliverable: %v", err)
    }
}

// requireAdmin answers the permission-denied message itself when the invoker
// lacks the admin role; no side effects and no task may run after a false
// return.
func (s *Server) requireAdmin(w http.ResponseWriter, in *discord.Interaction, kind string) bool {
    if in.HasRole(s.AdminRole) {
        return true
    }
    metrics.Interactions.WithLabelValues(kind, "denied").Inc()
    respondEphemeral(w, discord.ResponseChannelMessage, msgNoPermission)
    return false
}

func respondEphemeral(w http.ResponseWriter, typ int, content string) {
    respond(w, typ, &discord.MessageData{Content: content, Flags: discord.EphemeralFlag})
}
