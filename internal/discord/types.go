// Package discord holds the interaction wire types and the REST client used
// to drive threads, messages, and interaction follow-ups.
package discord

// Interaction types received on the webhook.
const (
    InteractionPing      = 1
    InteractionCommand   = 2
    InteractionComponent = 3
)

// Interaction response types. 4 and 7 answer synchronously; 5 and 6 are the
// deferred acknowledgements that must precede any background work.
const (
    ResponsePong            = 1
    ResponseChannelMessage  = 4
    ResponseDeferredMessage = 5
    ResponseDeferredUpdate  = 6
    ResponseUpdateMessage   = 7
)

// EphemeralFlag marks a message as visible only to the invoking user.
const EphemeralFlag = 64

// Interaction is one inbound webhook payload. Only the fields this service
// routes on are decoded; everything else is ignored.
type Interaction struct {
    ID            string          `json:"id"`
    ApplicationID string          `json:"application_id"`
    Type          int             `json:"type"`
    Token         string          `json:"token"`
    ChannelID     string          `json:"channel_id"`
    Member        *Member         `json:"member"`
    User          *User           `json:"user"`
    Data          InteractionData `json:"data"`
}

type InteractionData struct {
    Name     string `json:"name"`
    CustomID string `json:"custom_id"`
}

type Member struct {
    User  User     `json:"user"`
    Roles []string `json:"roles"`
}

type User struct {
    ID         string `json:"id"`
    Username   string `json:"username"`
    GlobalName string `json:"global_name"`
}

// Invoker returns the acting user whether the interaction came from a guild
// (member set) or a DM (user set).
func (i *Interaction) Invoker() User {
    if i.Member != nil {
        return i.Member.User
    }
    if i.User != nil {
        return *i.User
    }
    return User{}
}

// HasRole reports whether the invoking member carries the given role ID.
func (i *Interaction) HasRole(roleID string) bool {
    if i.Member == nil {
        return false
    }
    for _, r := range i.Member.Roles {
        if r == roleID {
            return true
        }
    }
    return false
}

// DisplayName returns the invoker's display name, falling back to username.
func (u User) DisplayName() string {
    if u.GlobalName != "" {
        return u.GlobalName
    }
    return u.Username
}

// Response is the JSON answer to one interaction webhook call.
type Response struct {
    Type int          `json:"type"`
    Data *MessageData `json:"data,omitempty"`
}

// MessageData is the renderable content of a message, shared by immediate
// responses, message updates, and follow-up edits.
type MessageData struct {
    Content     string         `json:"content,omitempty"`
    Embeds      []Embed        `json:"embeds,omitempty"`
    Components  []ComponentRow `json:"components,omitempty"`
    Attachments []Attachment   `json:"attachments,omitempty"`
    Flags       int            `json:"flags,omitempty"`
}

// Attachment declares an uploaded file slot in a multipart message.
type Attachment struct {
    ID       int    `json:"id"`
    Filename string `json:"filename"`
}

type Embed struct {
    Title       string       `json:"title,omitempty"`
    Description string       `json:"description,omitempty"`
    Color       int          `json:"color,omitempty"`
    Fields      []EmbedField `json:"fields,omitempty"`
    Image       *EmbedImage  `json:"image,omitempty"`
    Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedField struct {
    Name   string `json:"name"`
    Value  string `json:"value"`
    Inline bool   `json:"inline,omitempty"`
}

type EmbedImage struct {
    URL string `json:"url"`
}

type EmbedFooter struct {
    Text string `json:"text"`
}

// ComponentRow is an action row (type 1) holding up to five buttons.
type ComponentRow struct {
    Type       int      `json:"type"`
    Components []Button `json:"components"`
}

// Button styles used by this service.
const (
    StyleSecondary = 2
    StyleSuccess   = 3
    StyleDanger    = 4
    StyleLink      = 5
)

type Button struct {
    Type     int    `json:"type"`
    Style    int    `json:"style"`
    Label    string `json:"label,omitempty"`
    Emoji    *Emoji `json:"emoji,omitempty"`
    CustomID string `json:"custom_id,omitempty"`
    URL      string `json:"url,omitempty"`
    Disabled bool   `json:"disabled,omitempty"`
}

type Emoji struct {
    Name string `json:"name"`
}

// Row wraps buttons into an action row.
func Row(buttons ...Button) ComponentRow {
    return ComponentRow{Type: 1, Components: buttons}
}
