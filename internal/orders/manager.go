// Package orders owns the order lifecycle: creation at buy time and the
// pending -> completed/cancelled transitions driven by admins.
package orders

import (
    "context"
    "errors"
    "fmt"
    "log"

    "github.com/google/uuid"

    "lojabot/internal/catalog"
    "lojabot/internal/discord"
    "lojabot/internal/model"
    "lojabot/internal/store"
)

// The only failure texts end users ever see. Raw collaborator errors stay in
// the operator log.
const (
    msgCommFailure = "❌ Ocorreu um erro de comunicação com a plataforma. Tente novamente em instantes."
    msgUnexpected  = "❌ Ocorreu um erro inesperado ao processar o pedido. Tente novamente."
)

// Manager drives order state against the external store and the platform API.
// It is the sole writer of order rows.
type Manager struct {
    Store   store.Store
    API     discord.API
    Catalog *catalog.Catalog
}

func NewManager(s store.Store, api discord.API, c *catalog.Catalog) *Manager {
    return &Manager{Store: s, API: api, Catalog: c}
}

// CreateOrder opens a private purchase thread, admits the buyer, persists the
// order as pending_payment, and posts payment instructions into the thread.
// The returned message is the follow-up content for the buyer; ok reports
// whether an order now exists (callers release the buy claim when it does
// not). Partial side effects are not rolled back: a thread may outlive a
// failed insert. That is a documented best-effort boundary.
func (m *Manager) CreateOrder(ctx context.Context, p model.Product, buyer discord.User, channelID string) (discord.MessageData, bool) {
    threadName := fmt.Sprintf("🛒・pedido-%s-%s", buyer.Username, uuid.NewString()[:6])
    threadID, err := m.API.CreateThread(ctx, channelID, threadName)
    if err != nil {
        log.Printf("create order: thread creation failed: %v", err)
        return ephemeral(msgCommFailure), false
    }
    if err := m.API.AddThreadMember(ctx, threadID, buyer.ID); err != nil {
        log.Printf("create order: adding buyer %s to thread %s failed: %v", buyer.ID, threadID, err)
        return ephemeral(msgCommFailure), false
    }
    o, err := m.Store.InsertOrder(ctx, model.Order{
        BuyerID:     buyer.ID,
        BuyerName:   buyer.DisplayName(),
        ProductID:   p.ID,
        ProductName: p.Name,
        ThreadID:    threadID,
        Status:      model.StatusPendingPayment,
    })
    if err != nil {
        log.Printf("create order: insert failed (thread %s orphaned): %v", threadID, err)
        return ephemeral(msgUnexpected), false
    }
    if err := m.API.PostMessage(ctx, threadID, paymentInstructions(o, p)); err != nil {
        // The order exists; the buyer still reaches the thread via the
        // follow-up, so degrade instead of reporting failure.
        log.Printf("create order: posting instructions in thread %s failed: %v", threadID, err)
    }
    return ephemeral(fmt.Sprintf("✅ Pedido **#%d** criado! Acesse a thread <#%s> para concluir o pagamento.", o.ID, threadID)), true
}

func paymentInstructions(o model.Order, p model.Product) discord.MessageData {
    return discord.MessageData{
        Content: fmt.Sprintf("Olá <@%s>! Seu pedido **#%d** foi aberto.", o.BuyerID, o.ID),
        Embeds: []discord.Embed{{
            Title: "Instruções de Pagamento",
            Color: 0x5865F2,
            Description: fmt.Sprintf(
                "Produto: **%s**\nValor: **`%s`**\n\nRealize o pagamento pelo link abaixo e aguarde a confirmação de um administrador.",
                p.Name, p.PriceDisplay),
        }},
        Components: []discord.ComponentRow{discord.Row(discord.Button{
            Type:  2,
            Style: discord.StyleLink,
            Label: "Pagar agora",
            URL:   p.PaymentLink,
        })},
    }
}

// Confirm moves an order to completed and notifies the buyer's thread with
// the download link. The returned message replaces the admin's pending view
// at the given page; scoped failures keep the view and prepend a warning
// line. Re-confirming an already completed order is a no-op.
func (m *Manager) Confirm(ctx context.Context, orderID int64, page int) discord.MessageData {
    o, moved, err := m.Store.TransitionOrder(ctx, orderID, model.StatusPendingPayment, model.StatusCompleted)
    if errors.Is(err, store.ErrNotFound) {
        return m.pendingWithNote(ctx, page, fmt.Sprintf("⚠️ Pedido #%d não foi encontrado.", orderID))
    }
    if err != nil {
        log.Printf("confirm order %d: %v", orderID, err)
        return ephemeral(msgUnexpected)
    }
    if !moved {
        if o.Status == model.StatusCancelled {
            return m.pendingWithNote(ctx, page, fmt.Sprintf("⚠️ Pedido #%d já foi cancelado e não pode ser confirmado.", orderID))
        }
        // already completed by a concurrent click
        return m.pendingWithNote(ctx, page, fmt.Sprintf("✅ Pedido #%d confirmado.", orderID))
    }
    note := fmt.Sprintf("✅ Pedido #%d confirmado.", orderID)
    if o.ThreadID != "" {
        if err := m.API.PostMessage(ctx, o.ThreadID, deliveryMessage(m.Catalog, o)); err != nil {
            log.Printf("confirm order %d: notifying thread %s failed: %v", orderID, o.ThreadID, err)
            note = fmt.Sprintf("✅ Pedido #%d confirmado, mas não foi possível avisar o comprador na thread.", orderID)
        }
    }
    return m.pendingWithNote(ctx, page, note)
}

func deliveryMessage(c *catalog.Catalog, o model.Order) discord.MessageData {
    msg := discord.MessageData{
        Content: fmt.Sprintf("🎉 <@%s>, seu pagamento foi confirmado! Obrigado pela compra de **%s**.", o.BuyerID, o.ProductName),
    }
    if p, ok := c.Get(o.ProductID); ok {
        msg.Components = []discord.ComponentRow{discord.Row(discord.Button{
            Type:  2,
            Style: discord.StyleLink,
            Label: "Baixar agora",
            URL:   p.DownloadLink,
        })}
    }
    return msg
}

// Cancel moves an order to cancelled and posts a cancellation notice into the
// buyer's thread. Symmetric to Confirm.
func (m *Manager) Cancel(ctx context.Context, orderID int64, page int) discord.MessageData {
    o, moved, err := m.Store.TransitionOrder(ctx, orderID, model.StatusPendingPayment, model.StatusCancelled)
    if errors.Is(err, store.ErrNotFound) {
        return m.pendingWithNote(ctx, page, fmt.Sprintf("⚠️ Pedido #%d não foi encontrado.", orderID))
    }
    if err != nil {
        log.Printf("cancel order %d: %v", orderID, err)
        return ephemeral(msgUnexpected)
    }
    if !moved {
        if o.Status == model.StatusCompleted {
            return m.pendingWithNote(ctx, page, fmt.Sprintf("⚠️ Pedido #%d já foi concluído e não pode ser cancelado.", orderID))
        }
        return m.pendingWithNote(ctx, page, fmt.Sprintf("🚫 Pedido #%d cancelado.", orderID))
    }
    if o.ThreadID != "" {
        notice := discord.MessageData{Content: fmt.Sprintf("🚫 <@%s>, seu pedido **#%d** (%s) foi cancelado por um administrador.", o.BuyerID, o.ID, o.ProductName)}
        if err := m.API.PostMessage(ctx, o.ThreadID, notice); err != nil {
            log.Printf("cancel order %d: notifying thread %s failed: %v", orderID, o.ThreadID, err)
        }
    }
    return m.pendingWithNote(ctx, page, fmt.Sprintf("🚫 Pedido #%d cancelado.", orderID))
}

func (m *Manager) pendingWithNote(ctx context.Context, page int, note string) discord.MessageData {
    view, err := m.PendingView(ctx, page)
    if err != nil {
        log.Printf("pending view after transition: %v", err)
        return ephemeral(msgUnexpected)
    }
    if view.Content != "" {
        // empty-state view; keep its message visible under the note
        view.Content = note + "\n" + view.Content
    } else {
        view.Content = note
    }
    return view
}

// PendingView renders one pending order per page with confirm/cancel and
// prev/next controls. The empty list is its own explicit state.
func (m *Manager) PendingView(ctx context.Context, page int) (discord.MessageData, error) {
    pending, err := m.Store.ListOrdersByStatus(ctx, model.StatusPendingPayment)
    if err != nil {
        return discord.MessageData{}, err
    }
    n := len(pending)
    if n == 0 {
        return discord.MessageData{
            Content: "✅ Nenhum pedido pendente no momento.",
            Flags:   discord.EphemeralFlag,
        }, nil
    }
    page = catalog.ClampPage(page, n)
    o := pending[page]

    embed := discord.Embed{
        Title: fmt.Sprintf("Pedido #%d", o.ID),
        Color: 0xFEE75C,
        Fields: []discord.EmbedField{
            {Name: "📦 Produto", Value: o.ProductName, Inline: true},
            {Name: "👤 Comprador", Value: fmt.Sprintf("%s (<@%s>)", o.BuyerName, o.BuyerID), Inline: true},
            {Name: "🕒 Criado em", Value: o.CreatedAt.UTC().Format("02/01/2006 15:04"), Inline: true},
        },
        Footer: &discord.EmbedFooter{Text: fmt.Sprintf("Página %d de %d", page+1, n)},
    }

    return discord.MessageData{
        Embeds: []discord.Embed{embed},
        Components: []discord.ComponentRow{
            discord.Row(
                discord.Button{
                    Type:     2,
                    Style:    discord.StyleSuccess,
                    Label:    "Confirmar pagamento",
                    Emoji:    &discord.Emoji{Name: "✅"},
                    CustomID: fmt.Sprintf("pedidos_confirm_%d_%d", o.ID, page),
                },
                discord.Button{
                    Type:     2,
                    Style:    discord.StyleDanger,
                    Label:    "Cancelar",
                    Emoji:    &discord.Emoji{Name: "🚫"},
                    CustomID: fmt.Sprintf("pedidos_cancel_%d_%d", o.ID, page),
                },
            ),
            discord.Row(
                discord.Button{
                    Type:     2,
                    Style:    discord.StyleSecondary,
                    Emoji:    &discord.Emoji{Name: "⬅️"},
                    CustomID: fmt.Sprintf("pedidos_prev_%d", page),
                    Disabled: page == 0,
                },
                discord.Button{
                    Type:     2,
                    Style:    discord.StyleSecondary,
                    Emoji:    &discord.Emoji{Name: "➡️"},
                    CustomID: fmt.Sprintf("pedidos_next_%d", page),
                    Disabled: page == n-1,
                },
            ),
        },
        Flags: discord.EphemeralFlag,
    }, nil
}

func ephemeral(content string) discord.MessageData {
    return discord.MessageData{Content: content, Flags: discord.EphemeralFlag}
}
