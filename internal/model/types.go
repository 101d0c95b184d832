package model

import "time"

// Product is one sellable item from the static catalog. The catalog is loaded
// once at startup and never mutated; iteration order is the order products
// appear in the catalog file and defines paging order.
type Product struct {
    ID           string  `yaml:"id" json:"id"`
    Name         string  `yaml:"name" json:"name"`
    Description  string  `yaml:"description" json:"description"`
    PriceDisplay string  `yaml:"price_display" json:"priceDisplay"`
    PriceValue   float64 `yaml:"price_value" json:"priceValue"`
    ImageURL     string  `yaml:"image_url" json:"imageUrl"`
    PaymentLink  string  `yaml:"payment_link" json:"paymentLink"`
    DownloadLink string  `yaml:"download_link" json:"downloadLink"`
}

// OrderStatus is the order state machine. pending_payment is the only
// non-terminal state; completed and cancelled are terminal.
type OrderStatus string

const (
    StatusPendingPayment OrderStatus = "pending_payment"
    StatusCompleted      OrderStatus = "completed"
    StatusCancelled      OrderStatus = "cancelled"
)

// Terminal reports whether no transition may leave this status.
func (s OrderStatus) Terminal() bool {
    return s == StatusCompleted || s == StatusCancelled
}

// Order is one purchase. ProductName is denormalized at creation time so
// later catalog edits do not retroactively alter historical orders.
type Order struct {
    ID          int64       `json:"id"`
    BuyerID     string      `json:"buyerId"`
    BuyerName   string      `json:"buyerName"`
    ProductID   string      `json:"productId"`
    ProductName string      `json:"productName"`
    ThreadID    string      `json:"threadId"`
    Status      OrderStatus `json:"status"`
    CreatedAt   time.Time   `json:"createdAt"`
}
