package api

import (
    "bytes"
    "context"
    "crypto/ed25519"
    "crypto/rand"
    "encoding/hex"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "lojabot/internal/auth"
    "lojabot/internal/catalog"
    "lojabot/internal/discord"
    "lojabot/internal/guard"
    "lojabot/internal/model"
    "lojabot/internal/orders"
    "lojabot/internal/store"
    "lojabot/internal/tasks"
)

const testAdminRole = "role_admin"

type fakePlatform struct {
    mu      sync.Mutex
    threads []string
    members [][2]string // threadID, userID
    posted  []struct {
        ChannelID string
        Data      discord.MessageData
    }
    edits  chan discord.MessageData
    files  chan discord.MessageData
    nextID int
}

func newFakePlatform() *fakePlatform {
    return &fakePlatform{
        edits: make(chan discord.MessageData, 8),
        files: make(chan discord.MessageData, 8),
    }
}

func (f *fakePlatform) CreateThread(ctx context.Context, channelID, name string) (string, error) {
    f.mu.Lock(); defer f.mu.Unlock()
    f.nextID++
    id := "thread_" + hex.EncodeToString([]byte{byte(f.nextID)})
    f.threads = append(f.threads, id)
    return id, nil
}

func (f *fakePlatform) AddThreadMember(ctx context.Context, threadID, userID string) error {
    f.mu.Lock(); defer f.mu.Unlock()
    f.members = append(f.members, [2]string{threadID, userID})
    return nil
}

func (f *fakePlatform) PostMessage(ctx context.Context, channelID string, data discord.MessageData) error {
    f.mu.Lock(); defer f.mu.Unlock()
    f.posted = append(f.posted, struct {
        ChannelID string
        Data      discord.MessageData
    }{channelID, data})
    return nil
}

func (f *fakePlatform) EditOriginal(ctx context.Context, token string, data discord.MessageData) error {
    f.edits <- data
    return nil
}

func (f *fakePlatform) EditOriginalFile(ctx context.Context, token, filename string, file []byte, data discord.MessageData) error {
    f.files <- data
    return nil
}

func newTestServer(t *testing.T) (*Server, ed25519.PrivateKey, *fakePlatform, *store.Memory) {
    t.Helper()
    pub, priv, err := ed25519.GenerateKey(rand.Reader)
    if err != nil { t.Fatalf("generate key: %v", err) }
    v, err := auth.NewVerifier(hex.EncodeToString(pub))
    if err != nil { t.Fatalf("NewVerifier: %v", err) }
    cat, err := catalog.Load("")
    if err != nil { t.Fatalf("catalog: %v", err) }
    mem := store.NewMemory()
    fp := newFakePlatform()
    s := &Server{
        Store:     mem,
        Catalog:   cat,
        Platform:  fp,
        Orders:    orders.NewManager(mem, fp, cat),
        Tasks:     tasks.NewDispatcher(),
        Guard:     guard.NewMemory(),
        Verifier:  v,
        AdminRole: testAdminRole,
    }
    return s, priv, fp, mem
}

func signedRequest(t *testing.T, priv ed25519.PrivateKey, payload any) *http.Request {
    t.Helper()
    body, err := json.Marshal(payload)
    if err != nil { t.Fatalf("marshal: %v", err) }
    ts := "1700000000"
    sig := ed25519.Sign(priv, append([]byte(ts), body...))
    req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
    req.Header.Set("X-Signature-Timestamp", ts)
    return req
}

func post(t *testing.T, s *Server, priv ed25519.PrivateKey, payload any) *httptest.ResponseRecorder {
    t.Helper()
    rr := httptest.NewRecorder()
    s.InteractionsHandler(rr, signedRequest(t, priv, payload))
    return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) discord.Response {
    t.Helper()
    var resp discord.Response
    if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
        t.Fatalf("decode response %q: %v", rr.Body.String(), err)
    }
    return resp
}

func awaitEdit(t *testing.T, ch chan discord.MessageData) discord.MessageData {
    t.Helper()
    select {
    case m := <-ch:
        return m
    case <-time.After(3 * time.Second):
        t.Fatalf("no follow-up delivered within 3s")
        return discord.MessageData{}
    }
}

func command(name string, admin bool) map[string]any {
    roles := []string{}
    if admin { roles = []string{testAdminRole} }
    return map[string]any{
        "type": 2, "token": "tok", "channel_id": "chan1",
        "member": map[string]any{
            "user":  map[string]any{"id": "u1", "username": "ana", "global_name": "Ana"},
            "roles": roles,
        },
        "data": map[string]any{"name": name},
    }
}

func component(customID string, admin bool) map[string]any {
    m := command("", admin)
    m["type"] = 3
    m["data"] = map[string]any{"custom_id": customID}
    return m
}

func viewFooter(t *testing.T, data *discord.MessageData) string {
    t.Helper()
    if data == nil || len(data.Embeds) == 0 || data.Embeds[0].Footer == nil {
        t.Fatalf("view has no embed footer: %+v", data)
    }
    return data.Embeds[0].Footer.Text
}

func TestSignatureGate(t *testing.T) {
    s, priv, _, _ := newTestServer(t)

    // no headers at all
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{"type":1}`))
    s.InteractionsHandler(rr, req)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("missing headers: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), "missing signature headers") {
        t.Fatalf("missing headers: body %q", rr.Body.String())
    }

    // syntactically valid but cryptographically wrong signature
    req = signedRequest(t, priv, map[string]any{"type": 1})
    req.Header.Set("X-Signature-Timestamp", "1700000099") // breaks the signed message
    rr = httptest.NewRecorder()
    s.InteractionsHandler(rr, req)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("bad signature: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), "invalid request signature") {
        t.Fatalf("bad signature: body %q", rr.Body.String())
    }
    // the router never ran: a rejected request produces no JSON response
    if strings.Contains(rr.Body.String(), `"type"`) {
        t.Fatalf("router ran on rejected request: %q", rr.Body.String())
    }
}

func TestPingPong(t *testing.T) {
    s, priv, _, _ := newTestServer(t)
    rr := post(t, s, priv, map[string]any{"type": 1, "extra": "ignored"})
    if rr.Code != 200 { t.Fatalf("ping: got %d", rr.Code) }
    resp := decode(t, rr)
    if resp.Type != discord.ResponsePong || resp.Data != nil {
        t.Fatalf("ping: got %+v, want bare {type:1}", resp)
    }
}

func TestComprarInitialPage(t *testing.T) {
    s, priv, _, _ := newTestServer(t)
    resp := decode(t, post(t, s, priv, command("comprar", false)))
    if resp.Type != discord.ResponseChannelMessage { t.Fatalf("comprar: type %d", resp.Type) }
    if got := viewFooter(t, resp.Data); got != "Página 1 de 3" { t.Fatalf("footer: %q", got) }
    nav := resp.Data.Components[1].Components
    if !nav[0].Disabled { t.Fatalf("page 0: prev must be disabled") }
    if nav[1].Disabled { t.Fatalf("page 0: next must be enabled") }
}

func TestCatalogNavigation(t *testing.T) {
    s, priv, _, _ := newTestServer(t)

    resp := decode(t, post(t, s, priv, component("catalog_next_0", false)))
    if resp.Type != discord.ResponseUpdateMessage { t.Fatalf("next: type %d", resp.Type) }
    if got := viewFooter(t, resp.Data); got != "Página 2 de 3" { t.Fatalf("footer: %q", got) }
    nav := resp.Data.Components[1].Components
    if nav[0].Disabled || nav[1].Disabled { t.Fatalf("page 1: both nav buttons must be enabled") }

    // next from the last page stays clamped on the last page
    resp = decode(t, post(t, s, priv, component("catalog_next_2", false)))
    if got := viewFooter(t, resp.Data); got != "Página 3 de 3" { t.Fatalf("clamped footer: %q", got) }
    nav = resp.Data.Components[1].Components
    if !nav[1].Disabled { t.Fatalf("last page: next must be disabled") }
}

// The initial command response and a next-then-prev round trip must render
// byte-identical content.
func TestCatalogRoundTripSymmetry(t *testing.T) {
    s, priv, _, _ := newTestServer(t)

    initial := decode(t, post(t, s, priv, command("comprar", false)))
    decode(t, post(t, s, priv, component("catalog_next_0", false)))
    back := decode(t, post(t, s, priv, component("catalog_prev_1", false)))

    a, _ := json.Marshal(initial.Data)
    b, _ := json.Marshal(back.Data)
    if !bytes.Equal(a, b) {
        t.Fatalf("round trip render differs:\n%s\n%s", a, b)
    }
}

func TestUnrecognizedCommandAndComponent(t *testing.T) {
    s, priv, _, _ := newTestServer(t)
    for _, payload := range []map[string]any{
        command("vender", false),
        component("loja_next_0", false),
        component("catalog_jump_1", false),
    } {
        resp := decode(t, post(t, s, priv, payload))
        if resp.Type != discord.ResponseChannelMessage { t.Fatalf("type %d", resp.Type) }
        if resp.Data.Content != msgNotImplemented { t.Fatalf("content %q", resp.Data.Content) }
        if resp.Data.Flags != discord.EphemeralFlag { t.Fatalf("not ephemeral") }
    }
}

func TestAdminGate(t *testing.T) {
    s, priv, fp, _ := newTestServer(t)
    for _, payload := range []map[string]any{
        command("pedidos", false),
        command("dashboard", false),
        component("pedidos_confirm_1_0", false),
        component("pedidos_next_0", false),
    } {
        resp := decode(t, post(t, s, priv, payload))
        if resp.Type != discord.ResponseChannelMessage { t.Fatalf("denied: type %d", resp.Type) }
        if resp.Data.Content != msgNoPermission { t.Fatalf("denied: content %q", resp.Data.Content) }
    }
    // denial spawns no background work
    select {
    case m := <-fp.edits:
        t.Fatalf("background follow-up after denial: %+v", m)
    case <-time.After(100 * time.Millisecond):
    }
}

func TestPedidosEmptyState(t *testing.T) {
    s, priv, _, _ := newTestServer(t)
    resp := decode(t, post(t, s, priv, command("pedidos", true)))
    if resp.Type != discord.ResponseChannelMessage { t.Fatalf("type %d", resp.Type) }
    if !strings.Contains(resp.Data.Content, "Nenhum pedido pendente") { t.Fatalf("content %q", resp.Data.Content) }
    if len(resp.Data.Components) != 0 { t.Fatalf("empty state must have no controls") }
}

// Single pending order #7: the view shows it with navigation disabled both
// ways; confirming defers (type 6), then the admin view collapses to the
// empty state and the buyer's thread receives the delivery message.
func TestPedidosConfirmFlow(t *testing.T) {
    s, priv, fp, mem := newTestServer(t)
    ctx := context.Background()
    for i := 0; i < 7; i++ {
        o, err := mem.InsertOrder(ctx, model.Order{
            BuyerID: "u9", BuyerName: "Rui", ProductID: "bot_musica",
            ProductName: "Bot de Música Avançado", ThreadID: "t9",
            Status: model.StatusPendingPayment,
        })
        if err != nil { t.Fatalf("insert: %v", err) }
        if o.ID < 7 {
            if _, _, err := mem.TransitionOrder(ctx, o.ID, model.StatusPendingPayment, model.StatusCancelled); err != nil {
                t.Fatalf("seed cancel: %v", err)
            }
        }
    }

    resp := decode(t, post(t, s, priv, command("pedidos", true)))
    if got := viewFooter(t, resp.Data); got != "Página 1 de 1" { t.Fatalf("footer: %q", got) }
    if title := resp.Data.Embeds[0].Title; title != "Pedido #7" { t.Fatalf("title: %q", title) }
    nav := resp.Data.Components[1].Components
    if !nav[0].Disabled || !nav[1].Disabled { t.Fatalf("single item: both nav buttons must be disabled") }

    resp = decode(t, post(t, s, priv, component("pedidos_confirm_7_0", true)))
    if resp.Type != discord.ResponseDeferredUpdate { t.Fatalf("confirm ack: type %d, want 6", resp.Type) }

    followup := awaitEdit(t, fp.edits)
    if !strings.Contains(followup.Content, "Pedido #7 confirmado") { t.Fatalf("follow-up: %q", followup.Content) }
    if !strings.Contains(followup.Content, "Nenhum pedido pendente") { t.Fatalf("follow-up must show empty state: %q", followup.Content) }

    o, err := mem.GetOrder(ctx, 7)
    if err != nil || o.Status != model.StatusCompleted { t.Fatalf("order 7: %+v err=%v", o, err) }

    fp.mu.Lock()
    defer fp.mu.Unlock()
    if len(fp.posted) != 1 || fp.posted[0].ChannelID != "t9" {
        t.Fatalf("thread message: %+v", fp.posted)
    }
    if !strings.Contains(fp.posted[0].Data.Content, "pagamento foi confirmado") {
        t.Fatalf("thread content: %q", fp.posted[0].Data.Content)
    }
}

func TestBuyFlow(t *testing.T) {
    s, priv, fp, mem := newTestServer(t)

    resp := decode(t, post(t, s, priv, component("buy_bot_musica", false)))
    if resp.Type != discord.ResponseDeferredUpdate { t.Fatalf("buy ack: type %d, want 6", resp.Type) }

    followup := awaitEdit(t, fp.edits)
    if !strings.Contains(followup.Content, "criado") { t.Fatalf("buy follow-up: %q", followup.Content) }

    pending, err := mem.ListOrdersByStatus(context.Background(), model.StatusPendingPayment)
    if err != nil || len(pending) != 1 { t.Fatalf("pending after buy: %v err=%v", pending, err) }
    o := pending[0]
    if o.ProductName != "Bot de Música Avançado" { t.Fatalf("product snapshot: %q", o.ProductName) }
    if o.ThreadID == "" { t.Fatalf("order has no thread") }

    fp.mu.Lock()
    if len(fp.threads) != 1 { t.Fatalf("threads: %v", fp.threads) }
    if len(fp.members) != 1 || fp.members[0][1] != "u1" { t.Fatalf("thread member: %v", fp.members) }
    if len(fp.posted) != 1 { t.Fatalf("payment instructions not posted: %v", fp.posted) }
    fp.mu.Unlock()

    // a rapid second click is suppressed by the claim, no second task
    resp = decode(t, post(t, s, priv, component("buy_bot_musica", false)))
    if resp.Type != discord.ResponseChannelMessage || resp.Data.Content != msgBuyInProgress {
        t.Fatalf("duplicate buy: %+v", resp)
    }
    pending, _ = mem.ListOrdersByStatus(context.Background(), model.StatusPendingPayment)
    if len(pending) != 1 { t.Fatalf("duplicate buy created an order") }
}

func TestBuyUnknownProduct(t *testing.T) {
    s, priv, fp, _ := newTestServer(t)
    resp := decode(t, post(t, s, priv, component("buy_bot_inexistente", false)))
    if resp.Type != discord.ResponseChannelMessage || resp.Data.Content != msgUnknownProduct {
        t.Fatalf("unknown product: %+v", resp)
    }
    fp.mu.Lock()
    defer fp.mu.Unlock()
    if len(fp.threads) != 0 { t.Fatalf("thread created for unknown product") }
}

func TestDashboardDeferredShape(t *testing.T) {
    s, priv, fp, mem := newTestServer(t)
    if _, err := mem.InsertOrder(context.Background(), model.Order{
        BuyerID: "u1", BuyerName: "Ana", ProductID: "bot_musica",
        ProductName: "Bot de Música Avançado", Status: model.StatusCompleted,
    }); err != nil {
        t.Fatalf("insert: %v", err)
    }

    resp := decode(t, post(t, s, priv, command("dashboard", true)))
    if resp.Type != discord.ResponseDeferredMessage { t.Fatalf("dashboard ack: type %d, want 5", resp.Type) }

    delivered := awaitEdit(t, fp.files)
    if !strings.Contains(delivered.Content, "Dashboard de Vendas") { t.Fatalf("dashboard content: %q", delivered.Content) }
    if !strings.Contains(delivered.Content, "R$ 50,00") { t.Fatalf("revenue missing: %q", delivered.Content) }
}
