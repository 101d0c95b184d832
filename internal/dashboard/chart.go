// Package dashboard aggregates completed sales and renders the 30-day chart.
package dashboard

import (
    "bytes"
    "fmt"
    "strings"
    "time"

    chart "github.com/wcharczuk/go-chart/v2"
    "github.com/wcharczuk/go-chart/v2/drawing"

    "lojabot/internal/catalog"
    "lojabot/internal/model"
)

// Summary is the aggregation the chart and its caption are built from.
type Summary struct {
    Start        time.Time // first day of the window (UTC, midnight)
    Daily        [31]int   // sales per day, Start..Start+30
    TotalSales   int       // all completed orders, window-independent
    TotalRevenue float64   // revenue over all completed orders, by catalog price
}

// Aggregate buckets completed orders into the trailing 31-day window ending
// at now. Totals cover every completed order; orders for products no longer
// in the catalog count as sales with zero revenue.
func Aggregate(completed []model.Order, cat *catalog.Catalog, now time.Time) Summary {
    end := now.UTC()
    start := end.AddDate(0, 0, -30)
    s := Summary{
        Start:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
        TotalSales: len(completed),
    }
    for _, o := range completed {
        if p, ok := cat.Get(o.ProductID); ok {
            s.TotalRevenue += p.PriceValue
        }
        day := int(o.CreatedAt.UTC().Sub(s.Start).Hours() / 24)
        if day >= 0 && day < len(s.Daily) && !o.CreatedAt.After(end) {
            s.Daily[day]++
        }
    }
    return s
}

// Render draws the summary as a dark-theme PNG bar chart.
func Render(s Summary) ([]byte, error) {
    bg := drawing.ColorFromHex("23272A")
    panel := drawing.ColorFromHex("2C2F33")
    accent := drawing.ColorFromHex("5865F2")
    text := drawing.ColorWhite

    maxDay := 1
    bars := make([]chart.Value, len(s.Daily))
    for i, n := range s.Daily {
        if n > maxDay {
            maxDay = n
        }
        label := ""
        if i%5 == 0 {
            label = s.Start.AddDate(0, 0, i).Format("02/01")
        }
        bars[i] = chart.Value{
            Value: float64(n),
            Label: label,
            Style: chart.Style{FillColor: accent, StrokeColor: accent},
        }
    }

    c := chart.BarChart{
        Title:      fmt.Sprintf("Vendas nos últimos 30 dias — %d vendas, receita %s", s.TotalSales, FormatRevenue(s.TotalRevenue)),
        TitleStyle: chart.Style{FontColor: text, FontSize: 14},
        Background: chart.Style{FillColor: bg},
        Canvas:     chart.Style{FillColor: panel},
        Width:      1200,
        Height:     600,
        BarWidth:   24,
        BarSpacing: 8,
        XAxis:      chart.Style{FontColor: text},
        YAxis: chart.YAxis{
            Style:          chart.Style{FontColor: text},
            ValueFormatter: chart.IntValueFormatter,
            // explicit range: go-chart cannot infer one from an all-zero day
            Range: &chart.ContinuousRange{Min: 0, Max: float64(maxDay)},
        },
        Bars: bars,
    }

    var buf bytes.Buffer
    if err := c.Render(chart.PNG, &buf); err != nil {
        return nil, err
    }
    return buf.Bytes(), nil
}

// FormatRevenue renders a value as Brazilian currency ("R$ 1.234,56").
func FormatRevenue(v float64) string {
    s := fmt.Sprintf("%.2f", v)
    intPart, decPart, _ := strings.Cut(s, ".")
    var b strings.Builder
    for i, d := range intPart {
        if i > 0 && (len(intPart)-i)%3 == 0 {
            b.WriteByte('.')
        }
        b.WriteRune(d)
    }
    return "R$ " + b.String() + "," + decPart
}
