package discord

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "strconv"
    "time"

    "golang.org/x/time/rate"

    "lojabot/internal/metrics"
)

// API is the platform surface the rest of the service depends on. The
// concrete Client talks to the real REST API; tests substitute a fake.
type API interface {
    CreateThread(ctx context.Context, channelID, name string) (string, error)
    AddThreadMember(ctx context.Context, threadID, userID string) error
    PostMessage(ctx context.Context, channelID string, data MessageData) error
    EditOriginal(ctx context.Context, token string, data MessageData) error
    EditOriginalFile(ctx context.Context, token, filename string, file []byte, data MessageData) error
}

// Client is a minimal REST client for the platform API. Every call waits on a
// shared limiter first; the platform rate-limits bots globally.
type Client struct {
    Token   string
    AppID   string
    BaseURL string
    HTTP    *http.Client
    lim     *rate.Limiter
}

// NewClient builds a client with the bot credential and application ID.
func NewClient(token, appID string) *Client {
    return &Client{
        Token:   token,
        AppID:   appID,
        BaseURL: "https://discord.com/api/v10",
        HTTP:    &http.Client{Timeout: 10 * time.Second},
        lim:     rate.NewLimiter(rate.Limit(5), 10),
    }
}

// StatusError is a non-2xx reply from the platform.
type StatusError struct {
    Op   string
    Code int
    Body string
}

func (e *StatusError) Error() string {
    return fmt.Sprintf("%s: platform returned %d: %s", e.Op, e.Code, e.Body)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, contentType string, out any) error {
    if err := c.lim.Wait(ctx); err != nil {
        return err
    }
    var rd io.Reader
    if body != nil {
        rd = bytes.NewReader(body)
    }
    req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
    if err != nil {
        return err
    }
    req.Header.Set("Authorization", "Bot "+c.Token)
    if contentType != "" {
        req.Header.Set("Content-Type", contentType)
    }
    resp, err := c.HTTP.Do(req)
    if err != nil {
        metrics.PlatformRequests.WithLabelValues(op, "error").Inc()
        return fmt.Errorf("%s: %w", op, err)
    }
    defer func() { _ = resp.Body.Close() }()
    metrics.PlatformRequests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        snip, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
        return &StatusError{Op: op, Code: resp.StatusCode, Body: string(snip)}
    }
    if out != nil {
        return json.NewDecoder(resp.Body).Decode(out)
    }
    return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload, out any) error {
    b, err := json.Marshal(payload)
    if err != nil {
        return err
    }
    return c.do(ctx, op, method, path, b, "application/json", out)
}

// CreateThread opens a private thread (type 12) in the given channel and
// returns its ID.
func (c *Client) CreateThread(ctx context.Context, channelID, name string) (string, error) {
    payload := map[string]any{
        "name":                  name,
        "type":                  12,
        "auto_archive_duration": 1440,
        "invitable":             false,
    }
    var out struct {
        ID string `json:"id"`
    }
    if err := c.doJSON(ctx, "create thread", http.MethodPost, "/channels/"+channelID+"/threads", payload, &out); err != nil {
        return "", err
    }
    return out.ID, nil
}

// AddThreadMember admits a user to a thread.
func (c *Client) AddThreadMember(ctx context.Context, threadID, userID string) error {
    return c.do(ctx, "add thread member", http.MethodPut, "/channels/"+threadID+"/thread-members/"+userID, nil, "", nil)
}

// PostMessage posts a message into a channel or thread.
func (c *Client) PostMessage(ctx context.Context, channelID string, data MessageData) error {
    return c.doJSON(ctx, "post message", http.MethodPost, "/channels/"+channelID+"/messages", data, nil)
}

// EditOriginal rewrites the original interaction response addressed by the
// interaction's callback token. This is how deferred handlers deliver their
// real result.
func (c *Client) EditOriginal(ctx context.Context, token string, data MessageData) error {
    return c.doJSON(ctx, "edit original response", http.MethodPatch, "/webhooks/"+c.AppID+"/"+token+"/messages/@original", data, nil)
}

// EditOriginalFile delivers the deferred result with one file attachment,
// still as a single edit of the original response.
func (c *Client) EditOriginalFile(ctx context.Context, token, filename string, file []byte, data MessageData) error {
    var buf bytes.Buffer
    w := multipart.NewWriter(&buf)
    payload, err := json.Marshal(data)
    if err != nil {
        return err
    }
    if err := w.WriteField("payload_json", string(payload)); err != nil {
        return err
    }
    fw, err := w.CreateFormFile("files[0]", filename)
    if err != nil {
        return err
    }
    if _, err := fw.Write(file); err != nil {
        return err
    }
    if err := w.Close(); err != nil {
        return err
    }
    return c.do(ctx, "edit original response with file", http.MethodPatch, "/webhooks/"+c.AppID+"/"+token+"/messages/@original", buf.Bytes(), w.FormDataContentType(), nil)
}
