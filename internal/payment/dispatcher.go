package payment

import (
    "context"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/room-booking-basket/internal/model"
)

// Mode names the settlement strategy chosen from the allocation shape.
type Mode string

const (
    ModeCredit Mode = "CREDIT" // every item fully covered by credit
    ModeCard   Mode = "CARD"   // no item fully covered; one card checkout
    ModeMixed  Mode = "MIXED"  // credit prefix settled, remainder by card
)

// Status is the terminal state of a checkout attempt.
type Status string

const (
    StatusSuccess        Status = "SUCCESS"
    StatusPartialFailure Status = "PARTIAL_FAILURE"
    StatusFailure        Status = "FAILURE"
)

// SettlementRequest is one per-item call to the external credit-settlement
// rail.  Amounts are pence; CardAmount stays zero on this rail (card money
// moves through the checkout session instead).  GroupID, ItemIndex and
// ItemCount let the external reconciliation stitch the items of one
// attempt back together; ItemIndex is 1-based and ItemCount is the number
// of items in the whole attempt, not just the credit leg.
type SettlementRequest struct {
    Identity   model.Identity
    Item       model.BookingItem
    Amount     int64
    CreditUsed int64
    CardAmount int64
    GroupID    string
    ItemIndex  int
    ItemCount  int
    Timestamp  time.Time
}

// SettlementResult is the per-item answer from the settlement rail.  A
// non-OK result is an expected per-item failure, never an abort.  When the
// rail reports the authoritative balance after the deduction, NewBalance
// carries it and HasBalance is true.
type SettlementResult struct {
    OK         bool
    NewBalance int64
    HasBalance bool
}

// CheckoutRequest asks the external checkout provider for a hosted payment
// session covering the card leg of an attempt.  BasketRef keys the pending
// basket the success path reconciles; GroupID links the session to any
// credit leg settled under the same attempt.
type CheckoutRequest struct {
    Identity    model.Identity
    Amount      int64
    CreditUsed  int64
    Description string
    BasketRef   string
    GroupID     string
    SuccessURL  string
    CancelURL   string
}

// SettlementClient posts one item's settlement to the external rail.
type SettlementClient interface {
    Settle(ctx context.Context, req SettlementRequest) (SettlementResult, error)
}

// CheckoutClient creates an external checkout session and returns its URL.
type CheckoutClient interface {
    CreateSession(ctx context.Context, req CheckoutRequest) (string, error)
}

// PendingBasketStore durably persists the card-leg snapshot before the
// browser is handed to the external checkout.
type PendingBasketStore interface {
    Save(ctx context.Context, pb model.PendingBasket) error
}

// BalanceEcho receives optimistic balance overwrites when a settlement
// confirms a deduction and reports the fresh authoritative value.
type BalanceEcho interface {
    Overwrite(clientID string, balancePence int64)
}

// EventPublisher emits a booking-settled event per confirmed credit item.
// Publishing is a side rail: failures are logged by the implementation and
// never fail the attempt.
type EventPublisher interface {
    BookingSettled(ctx context.Context, ident model.Identity, item model.BookingItem, creditUsed int64, groupID string)
}

// Outcome reports the terminal state of one checkout attempt.  The caller
// owns the basket, so BasketCleared tells it whether the attempt consumed
// the snapshot (clear the basket) or aborted without effect (keep it for a
// retry).  Message is safe to surface to the counsellor as status text.
type Outcome struct {
    Mode          Mode
    Status        Status
    GroupID       string
    Settled       int
    Failed        int
    NewBalance    int64
    HasNewBalance bool
    CheckoutURL   string
    BasketRef     string
    BasketCleared bool
    Message       string
}

// Dispatcher executes checkout attempts.  Given a basket snapshot and the
// credit balance observed at attempt start, it computes the allocation,
// picks the mode and drives the external rails: sequential per-item credit
// settlements, a pending-basket write plus checkout session for the card
// leg, or both in order for a mixed attempt.  One Dispatcher is shared by
// all sessions; it holds no per-attempt state.
type Dispatcher struct {
    settlements SettlementClient
    checkouts   CheckoutClient
    pending     PendingBasketStore
    balances    BalanceEcho
    events      EventPublisher
    successURL  string
    cancelURL   string
    now         func() time.Time
    newRef      func() string
}

// NewDispatcher wires a Dispatcher.  events and balances may be nil when
// the corresponding side rail is not configured.
func NewDispatcher(settlements SettlementClient, checkouts CheckoutClient, pending PendingBasketStore, balances BalanceEcho, events EventPublisher, successURL, cancelURL string) *Dispatcher {
    return &Dispatcher{
        settlements: settlements,
        checkouts:   checkouts,
        pending:     pending,
        balances:    balances,
        events:      events,
        successURL:  successURL,
        cancelURL:   cancelURL,
        now:         func() time.Time { return time.Now().UTC() },
        newRef:      func() string { return uuid.NewString() },
    }
}

// Dispatch runs one checkout attempt to a terminal state.  The returned
// error is non-nil only for card/persistence aborts; per-item settlement
// failures are reported through the Outcome counts instead, because
// partial completion is an expected result of the credit rail, not a bug.
func (d *Dispatcher) Dispatch(ctx context.Context, ident model.Identity, items []model.BookingItem, availableCredit int64) (Outcome, error) {
    alloc := Allocate(items, availableCredit)
    groupID := "PG_" + d.newRef()
    outcome := Outcome{Mode: alloc.Mode(), GroupID: groupID}

    switch outcome.Mode {
    case ModeCredit:
        d.settleCreditLeg(ctx, ident, alloc.CreditItems, len(items), groupID, &outcome)
        outcome.BasketCleared = true // all items were attempted
        if outcome.Failed == 0 {
            outcome.Status = StatusSuccess
            outcome.Message = fmt.Sprintf("%d booking(s) confirmed", outcome.Settled)
        } else if outcome.Settled > 0 {
            outcome.Status = StatusPartialFailure
            outcome.Message = fmt.Sprintf("%d confirmed, %d failed", outcome.Settled, outcome.Failed)
        } else {
            outcome.Status = StatusFailure
            outcome.Message = fmt.Sprintf("all %d booking(s) failed", outcome.Failed)
        }
        return outcome, nil

    case ModeCard:
        if err := d.openCardLeg(ctx, ident, alloc, groupID, &outcome); err != nil {
            outcome.Status = StatusFailure
            outcome.Message = "payment could not be started"
            return outcome, err
        }
        outcome.BasketCleared = true
        outcome.Status = StatusSuccess
        outcome.Message = "redirecting to card payment"
        return outcome, nil

    default: // ModeMixed
        d.settleCreditLeg(ctx, ident, alloc.CreditItems, len(items), groupID, &outcome)
        if err := d.openCardLeg(ctx, ident, alloc, groupID, &outcome); err != nil {
            // The card leg aborted; already-settled credit items stay
            // settled (no compensating reversal) but the basket is kept so
            // the counsellor can retry the remainder.
            if outcome.Settled > 0 {
                outcome.Status = StatusPartialFailure
                outcome.Message = fmt.Sprintf("%d booking(s) confirmed by credit, card payment could not be started", outcome.Settled)
            } else {
                outcome.Status = StatusFailure
                outcome.Message = "payment could not be started"
            }
            return outcome, err
        }
        outcome.BasketCleared = true
        if outcome.Failed > 0 {
            outcome.Status = StatusPartialFailure
            outcome.Message = fmt.Sprintf("%d confirmed, %d failed, card payment started", outcome.Settled, outcome.Failed)
        } else {
            outcome.Status = StatusSuccess
            outcome.Message = "redirecting to card payment"
        }
        return outcome, nil
    }
}

// settleCreditLeg posts one settlement per fully-covered item, strictly in
// basket order and one at a time: the next request is only issued after
// the previous one resolved, so the running balance narrative on the rail
// matches the order the items were allocated in.  Failures are counted and
// the leg always attempts every item.
func (d *Dispatcher) settleCreditLeg(ctx context.Context, ident model.Identity, leg []AllocatedItem, itemCount int, groupID string, outcome *Outcome) {
    for i, allocated := range leg {
        req := SettlementRequest{
            Identity:   ident,
            Item:       allocated.Item,
            Amount:     allocated.Item.PricePence,
            CreditUsed: allocated.CreditUsed,
            CardAmount: 0,
            GroupID:    groupID,
            ItemIndex:  i + 1,
            ItemCount:  itemCount,
            Timestamp:  d.now(),
        }
        result, err := d.settlements.Settle(ctx, req)
        if err != nil || !result.OK {
            if err != nil {
                log.Printf("dispatcher: settlement %d/%d failed: %v", i+1, itemCount, err)
            } else {
                log.Printf("dispatcher: settlement %d/%d rejected by rail", i+1, itemCount)
            }
            outcome.Failed++
            continue
        }
        outcome.Settled++
        if result.HasBalance {
            outcome.NewBalance = result.NewBalance
            outcome.HasNewBalance = true
            if d.balances != nil {
                d.balances.Overwrite(ident.ClientID, result.NewBalance)
            }
        }
        if d.events != nil {
            d.events.BookingSettled(ctx, ident, allocated.Item, allocated.CreditUsed, groupID)
        }
    }
}

// openCardLeg persists the pending basket for the card items and requests
// an external checkout session for the amount still due.  Both steps must
// succeed before the attempt may clear the basket; either failure aborts
// with the matching sentinel and no basket mutation.  A mixed attempt
// whose card bucket is empty never reaches this point (Allocate would have
// put everything in the credit bucket).
func (d *Dispatcher) openCardLeg(ctx context.Context, ident model.Identity, alloc Allocation, groupID string, outcome *Outcome) error {
    ref := "PB_" + d.newRef()
    pb := model.PendingBasket{
        Ref:            ref,
        GroupID:        groupID,
        ClientID:       ident.ClientID,
        ExternalID:     ident.ExternalID,
        CounsellorName: ident.Name,
        Items:          make([]model.PendingItem, 0, len(alloc.CardItems)),
        Status:         model.PendingBasketStatusPending,
        CreatedAt:      d.now(),
    }
    for _, allocated := range alloc.CardItems {
        pb.Items = append(pb.Items, model.PendingItem{
            Item:       allocated.Item,
            CreditUsed: allocated.CreditUsed,
            CardDue:    allocated.CardDue,
        })
        pb.TotalPence += allocated.Item.PricePence
        pb.CreditPence += allocated.CreditUsed
        pb.CardPence += allocated.CardDue
    }

    if err := d.pending.Save(ctx, pb); err != nil {
        log.Printf("dispatcher: pending basket save failed: %v", err)
        return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
    }

    firstDate := ""
    if len(alloc.CardItems) > 0 {
        firstDate = alloc.CardItems[0].Item.Date
    }
    url, err := d.checkouts.CreateSession(ctx, CheckoutRequest{
        Identity:    ident,
        Amount:      pb.CardPence,
        CreditUsed:  pb.CreditPence,
        Description: describeCardLeg(alloc.CardItems, pb.CreditPence),
        BasketRef:   ref,
        GroupID:     groupID,
        SuccessURL:  d.successURL + "?basket=" + ref + "&date=" + firstDate,
        CancelURL:   d.cancelURL,
    })
    if err != nil {
        log.Printf("dispatcher: checkout session failed: %v", err)
        return fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
    }
    if url == "" {
        return fmt.Errorf("%w: no checkout URL returned", ErrCheckoutUnavailable)
    }
    outcome.CheckoutURL = url
    outcome.BasketRef = ref
    return nil
}

// describeCardLeg builds the human-readable payment description shown on
// the checkout page: up to three "Room date" entries, a "+N more" suffix,
// and a note of any credit already applied.
func describeCardLeg(items []AllocatedItem, creditUsed int64) string {
    parts := make([]string, 0, 3)
    for i, allocated := range items {
        if i == 3 {
            break
        }
        parts = append(parts, allocated.Item.RoomName+" "+allocated.Item.Date)
    }
    desc := strings.Join(parts, ", ")
    if extra := len(items) - 3; extra > 0 {
        desc = fmt.Sprintf("%s +%d more", desc, extra)
    }
    if creditUsed > 0 {
        desc = fmt.Sprintf("%s [credit: £%.2f]", desc, float64(creditUsed)/100)
    }
    return "Room booking: " + desc
}
