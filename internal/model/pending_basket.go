package model

import "time"

// PendingBasketStatus values for the pending_baskets.status column.
const (
    PendingBasketStatusPending   = "PENDING"
    PendingBasketStatusCompleted = "COMPLETED"
)

// PendingItem is one basket line inside a pending basket, annotated with
// how its price was split between credit and card at allocation time.
//
// Fields:
//  Item       – the booked slot.
//  CreditUsed – pence covered from the credit balance.
//  CardDue    – pence the card checkout must collect.
type PendingItem struct {
    Item       BookingItem `json:"item"`
    CreditUsed int64       `json:"credit_used"`
    CardDue    int64       `json:"card_due"`
}

// PendingBasket is the durable snapshot written before a card checkout is
// requested.  The external checkout redirects the browser away, so this
// record is the only thing the success path can read back to reconcile the
// basket into confirmed bookings.  It is keyed by a generated basket
// reference and tagged with the payment group so the card leg and any
// credit leg of the same attempt can be linked.
//
// Fields:
//  Ref            – pending_baskets.ref ("PB_" + uuid), the reconciliation key.
//  GroupID        – payment group id shared by every rail of the attempt.
//  ClientID       – counsellor the attempt belongs to.
//  ExternalID     – counsellor's booking-system id.
//  CounsellorName – display name, carried for the settlement description.
//  Items          – card-leg items with their credit/card split.
//  TotalPence     – sum of item prices in the card leg.
//  CreditPence    – credit already applied to the boundary item.
//  CardPence      – amount the checkout session must charge.
//  Status         – lifecycle status, PENDING until reconciled externally.
//  CreatedAt      – when the snapshot was written.
type PendingBasket struct {
    Ref            string        `json:"ref"`
    GroupID        string        `json:"payment_group_id"`
    ClientID       string        `json:"client_id"`
    ExternalID     string        `json:"external_id"`
    CounsellorName string        `json:"counsellor_name"`
    Items          []PendingItem `json:"items"`
    TotalPence     int64         `json:"total_pence"`
    CreditPence    int64         `json:"credit_pence"`
    CardPence      int64         `json:"card_pence"`
    Status         string        `json:"status"`
    CreatedAt      time.Time     `json:"created_at"`
}
