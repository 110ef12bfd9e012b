// Package basket holds the in-memory booking baskets.  Each counsellor
// session owns exactly one basket: an ordered list of slots awaiting
// checkout.  Insertion order matters because it decides how the credit
// balance is allocated across items at checkout, so the basket never
// reorders and removal keeps the relative order of what remains.
//
// The basket is explicitly owned and mutex-guarded.  While a checkout
// attempt is in flight the basket refuses mutation, which keeps the
// snapshot handed to the payment dispatcher consistent with what the
// counsellor saw when they confirmed.
package basket

import (
    "errors"
    "sync"

    "github.com/iliyamo/room-booking-basket/internal/model"
)

// Sentinel errors returned by basket mutations.  Handlers translate these
// into HTTP statuses: duplicate and in-flight conflicts become 409, a bad
// index becomes 404.  They are rejected synchronously and never reach the
// network layer.
var (
    ErrDuplicateSlot    = errors.New("slot already in basket")
    ErrIndexOutOfRange  = errors.New("basket index out of range")
    ErrEmptyBasket      = errors.New("basket is empty")
    ErrCheckoutInFlight = errors.New("checkout in progress")
)

// Basket is an ordered collection of booking items for one counsellor.
// All methods are safe for concurrent use.  Totals and counts are derived
// from the item slice on demand so they can never drift from the contents.
type Basket struct {
    mu         sync.Mutex
    items      []model.BookingItem
    inCheckout bool
}

// New returns an empty basket.
func New() *Basket { return &Basket{} }

// Add appends an item to the end of the basket.  It fails with
// ErrDuplicateSlot when an item for the same room, date and start time is
// already present, and with ErrCheckoutInFlight while a checkout attempt
// holds the basket.  The basket is otherwise unchanged on failure.
func (b *Basket) Add(item model.BookingItem) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.inCheckout {
        return ErrCheckoutInFlight
    }
    key := item.SlotKey()
    for _, existing := range b.items {
        if existing.SlotKey() == key {
            return ErrDuplicateSlot
        }
    }
    b.items = append(b.items, item)
    return nil
}

// Remove deletes the item at the given zero-based index, preserving the
// relative order of the remaining items.  It fails with ErrIndexOutOfRange
// for an invalid index and ErrCheckoutInFlight during a checkout attempt.
func (b *Basket) Remove(index int) error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.inCheckout {
        return ErrCheckoutInFlight
    }
    if index < 0 || index >= len(b.items) {
        return ErrIndexOutOfRange
    }
    b.items = append(b.items[:index], b.items[index+1:]...)
    return nil
}

// Clear empties the basket.  Clearing an empty basket is a no-op.  Like
// Add and Remove it fails with ErrCheckoutInFlight while a checkout
// attempt holds the basket; a consumed attempt disposes of its items
// through EndCheckout instead, so a failed card leg can still report the
// basket kept for retry and mean it.
func (b *Basket) Clear() error {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.inCheckout {
        return ErrCheckoutInFlight
    }
    b.items = nil
    return nil
}

// Items returns a copy of the basket contents in insertion order.
func (b *Basket) Items() []model.BookingItem {
    b.mu.Lock()
    defer b.mu.Unlock()
    return b.snapshotLocked()
}

// Count returns the number of items in the basket.
func (b *Basket) Count() int {
    b.mu.Lock()
    defer b.mu.Unlock()
    return len(b.items)
}

// Total returns the sum of item prices in pence.
func (b *Basket) Total() int64 {
    b.mu.Lock()
    defer b.mu.Unlock()
    var total int64
    for _, item := range b.items {
        total += item.PricePence
    }
    return total
}

// BeginCheckout marks the basket as having a checkout attempt in flight
// and returns an immutable snapshot of its contents for the dispatcher.
// It fails with ErrEmptyBasket when there is nothing to check out and with
// ErrCheckoutInFlight when an attempt is already running.  The caller must
// invoke EndCheckout once the attempt reaches a terminal state.
func (b *Basket) BeginCheckout() ([]model.BookingItem, error) {
    b.mu.Lock()
    defer b.mu.Unlock()
    if b.inCheckout {
        return nil, ErrCheckoutInFlight
    }
    if len(b.items) == 0 {
        return nil, ErrEmptyBasket
    }
    b.inCheckout = true
    return b.snapshotLocked(), nil
}

// EndCheckout releases the in-flight marker set by BeginCheckout.  When
// cleared is true the attempt consumed the basket, and the items are
// dropped before the lock is released so no caller ever sees an unlocked
// basket still holding settled items.
func (b *Basket) EndCheckout(cleared bool) {
    b.mu.Lock()
    defer b.mu.Unlock()
    if cleared {
        b.items = nil
    }
    b.inCheckout = false
}

func (b *Basket) snapshotLocked() []model.BookingItem {
    out := make([]model.BookingItem, len(b.items))
    copy(out, b.items)
    return out
}

// Store keeps one basket per client id.  Baskets are created lazily on
// first use and live for the lifetime of the process, mirroring how each
// browser session used to own a single basket.
type Store struct {
    mu      sync.Mutex
    baskets map[string]*Basket
}

// NewStore returns an empty basket registry.
func NewStore() *Store {
    return &Store{baskets: make(map[string]*Basket)}
}

// Get returns the basket for the given client id, creating it if needed.
func (s *Store) Get(clientID string) *Basket {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.baskets[clientID]
    if !ok {
        b = New()
        s.baskets[clientID] = b
    }
    return b
}
