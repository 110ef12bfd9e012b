// Package payment implements the checkout side of the basket: the pure
// credit/card allocation split and the dispatcher that drives the external
// payment rails according to that split.
package payment

import "github.com/iliyamo/room-booking-basket/internal/model"

// AllocatedItem is one basket item annotated with how its price is split
// between the credit balance and a card charge.  CreditUsed + CardDue is
// always exactly the item price.
type AllocatedItem struct {
    Item       model.BookingItem
    CreditUsed int64
    CardDue    int64
}

// Allocation is the outcome of splitting an ordered basket against an
// available credit balance.  CreditItems are fully covered by credit
// (CardDue == 0); CardItems need some or all of their price from a card
// (CardDue > 0).  Both slices preserve the original basket order.
type Allocation struct {
    CreditItems []AllocatedItem
    CardItems   []AllocatedItem
}

// Allocate walks the items in basket order and spends the available credit
// greedily: each item is taken fully on credit while the remaining credit
// covers its whole price; the first item the credit cannot fully cover
// takes whatever credit is left, and the rest of its price (plus every
// item after it) goes to the card.  The split is deterministic: no reordering,
// no clock, no randomness.  A negative credit balance is treated as zero.
func Allocate(items []model.BookingItem, availableCredit int64) Allocation {
    remaining := availableCredit
    if remaining < 0 {
        remaining = 0
    }
    var alloc Allocation
    for _, item := range items {
        if remaining >= item.PricePence {
            alloc.CreditItems = append(alloc.CreditItems, AllocatedItem{
                Item:       item,
                CreditUsed: item.PricePence,
            })
            remaining -= item.PricePence
            continue
        }
        alloc.CardItems = append(alloc.CardItems, AllocatedItem{
            Item:       item,
            CreditUsed: remaining,
            CardDue:    item.PricePence - remaining,
        })
        remaining = 0
    }
    return alloc
}

// CreditUsed returns the total pence covered from credit across both buckets.
func (a Allocation) CreditUsed() int64 {
    var total int64
    for _, it := range a.CreditItems {
        total += it.CreditUsed
    }
    for _, it := range a.CardItems {
        total += it.CreditUsed
    }
    return total
}

// CardDue returns the total pence the card checkout must collect.
func (a Allocation) CardDue() int64 {
    var total int64
    for _, it := range a.CardItems {
        total += it.CardDue
    }
    return total
}

// Mode selects the settlement strategy the dispatcher runs for this split.
func (a Allocation) Mode() Mode {
    switch {
    case len(a.CardItems) == 0:
        return ModeCredit
    case len(a.CreditItems) == 0:
        return ModeCard
    default:
        return ModeMixed
    }
}
