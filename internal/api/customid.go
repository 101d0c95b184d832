package api

import (
    "strconv"
    "strings"
)

// Custom IDs are the only state carried between component clicks. Each one
// encodes a namespace, an action, and numeric arguments joined by '_'.
// Anything that does not match a known shape parses as nothing and falls
// through to the generic unrecognized response.

type customKind int

const (
    kindUnknown customKind = iota
    kindCatalogPrev
    kindCatalogNext
    kindBuy
    kindPendingPrev
    kindPendingNext
    kindConfirm
    kindCancel
)

type customID struct {
    Kind      customKind
    Page      int
    OrderID   int64
    ProductID string
}

// parseCustomID decodes a component custom-identifier. Each shape tolerates
// exactly its documented field count; bad numerics reject, range issues are
// clamped later at render time.
func parseCustomID(s string) (customID, bool) {
    if rest, ok := strings.CutPrefix(s, "buy_"); ok && rest != "" {
        // product IDs may themselves contain underscores
        return customID{Kind: kindBuy, ProductID: rest}, true
    }
    parts := strings.Split(s, "_")
    switch {
    case len(parts) == 3 && parts[0] == "catalog":
        page, err := strconv.Atoi(parts[2])
        if err != nil {
            return customID{}, false
        }
        switch parts[1] {
        case "prev":
            return customID{Kind: kindCatalogPrev, Page: page}, true
        case "next":
            return customID{Kind: kindCatalogNext, Page: page}, true
        }
    case len(parts) == 3 && parts[0] == "pedidos":
        page, err := strconv.Atoi(parts[2])
        if err != nil {
            return customID{}, false
        }
        switch parts[1] {
        case "prev":
            return customID{Kind: kindPendingPrev, Page: page}, true
        case "next":
            return customID{Kind: kindPendingNext, Page: page}, true
        }
    case len(parts) == 4 && parts[0] == "pedidos":
        orderID, err := strconv.ParseInt(parts[2], 10, 64)
        if err != nil {
            return customID{}, false
        }
        page, err := strconv.Atoi(parts[3])
        if err != nil {
            return customID{}, false
        }
        switch parts[1] {
        case "confirm":
            return customID{Kind: kindConfirm, OrderID: orderID, Page: page}, true
        case "cancel":
            return customID{Kind: kindCancel, OrderID: orderID, Page: page}, true
        }
    }
    return customID{}, false
}
