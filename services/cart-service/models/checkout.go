package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventCheckoutRequested = "checkout.requested"

// ProductSnapshot is the part of a catalog product the cart needs.
type ProductSnapshot struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	PacketPrice   float64 `json:"packetPrice"`
	StockQuantity float64 `json:"stockQuantity"`
}

// CheckoutLine is one priced cart line. Totals are decimals so sums of
// packet prices do not drift.
type CheckoutLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type CheckoutSummary struct {
	CheckoutID string          `json:"checkoutId"`
	UserID     string          `json:"userId"`
	Lines      []CheckoutLine  `json:"lines"`
	ItemCount  int             `json:"itemCount"`
	Total      decimal.Decimal `json:"total"`
}

type CheckoutEvent struct {
	Event      string          `json:"event"`
	CheckoutID string          `json:"checkoutId"`
	UserID     string          `json:"userId"`
	Items      []CheckoutLine  `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Timestamp  time.Time       `json:"timestamp"`
}
