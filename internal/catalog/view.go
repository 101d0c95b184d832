package catalog

import (
    "fmt"

    "lojabot/internal/discord"
)

const embedColor = 0x5865F2

// PageView renders one catalog page. It is a pure function of (products,
// page): the initial command response and every later navigation update go
// through here, so both paths render identically. Out-of-range pages are
// clamped; an empty catalog is its own fixed state.
func (c *Catalog) PageView(page int) discord.MessageData {
    n := len(c.Products)
    if n == 0 {
        return discord.MessageData{
            Content: "ℹ️ Nenhum produto no catálogo no momento.",
            Flags:   discord.EphemeralFlag,
        }
    }
    page = ClampPage(page, n)
    p := c.Products[page]

    embed := discord.Embed{
        Title: p.Name,
        Color: embedColor,
        Fields: []discord.EmbedField{
            {Name: "💰 Preço", Value: fmt.Sprintf("**`%s`**", p.PriceDisplay), Inline: true},
            {Name: "📦 O que você recebe?", Value: "Código-fonte completo", Inline: true},
            {Name: "📄 Descrição", Value: p.Description},
        },
        Image:  &discord.EmbedImage{URL: p.ImageURL},
        Footer: &discord.EmbedFooter{Text: fmt.Sprintf("Página %d de %d", page+1, n)},
    }

    return discord.MessageData{
        Embeds: []discord.Embed{embed},
        Components: []discord.ComponentRow{
            discord.Row(discord.Button{
                Type:     2,
                Style:    discord.StyleSuccess,
                Label:    "Comprar este Item",
                Emoji:    &discord.Emoji{Name: "🛒"},
                CustomID: "buy_" + p.ID,
            }),
            discord.Row(
                discord.Button{
                    Type:     2,
                    Style:    discord.StyleSecondary,
                    Emoji:    &discord.Emoji{Name: "⬅️"},
                    CustomID: fmt.Sprintf("catalog_prev_%d", page),
                    Disabled: page == 0,
                },
                discord.Button{
                    Type:     2,
                    Style:    discord.StyleSecondary,
                    Emoji:    &discord.Emoji{Name: "➡️"},
                    CustomID: fmt.Sprintf("catalog_next_%d", page),
                    Disabled: page == n-1,
                },
            ),
        },
        Flags: discord.EphemeralFlag,
    }
}

// ClampPage forces page into [0, n-1]. n must be > 0.
func ClampPage(page, n int) int {
    if page < 0 {
        return 0
    }
    if page > n-1 {
        return n - 1
    }
    return page
}
