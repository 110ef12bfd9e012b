package payment

import (
    "context"
    "errors"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-booking-basket/internal/model"
)

type stubSettlements struct {
    requests []SettlementRequest
    results  []SettlementResult
    errs     []error
}

func (s *stubSettlements) Settle(_ context.Context, req SettlementRequest) (SettlementResult, error) {
    i := len(s.requests)
    s.requests = append(s.requests, req)
    var res SettlementResult
    if i < len(s.results) {
        res = s.results[i]
    }
    var err error
    if i < len(s.errs) {
        err = s.errs[i]
    }
    return res, err
}

type stubCheckouts struct {
    requests []CheckoutRequest
    url      string
    err      error
}

func (s *stubCheckouts) CreateSession(_ context.Context, req CheckoutRequest) (string, error) {
    s.requests = append(s.requests, req)
    return s.url, s.err
}

type stubPending struct {
    saved []model.PendingBasket
    err   error
}

func (s *stubPending) Save(_ context.Context, pb model.PendingBasket) error {
    if s.err != nil {
        return s.err
    }
    s.saved = append(s.saved, pb)
    return nil
}

type stubEcho struct {
    clientID string
    balance  int64
    calls    int
}

func (s *stubEcho) Overwrite(clientID string, balancePence int64) {
    s.clientID = clientID
    s.balance = balancePence
    s.calls++
}

func newTestDispatcher(settle *stubSettlements, checkout *stubCheckouts, pending *stubPending, echo *stubEcho) *Dispatcher {
    d := NewDispatcher(settle, checkout, pending, echo, nil, "https://example.org/success", "https://example.org/cancel")
    d.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
    refs := 0
    d.newRef = func() string {
        refs++
        return "ref-" + string(rune('0'+refs))
    }
    return d
}

func testIdentity() model.Identity {
    return model.Identity{ClientID: "42", ExternalID: "EXT-42", Name: "Jo Bloggs", Email: "jo@example.org"}
}

func TestDispatchCreditModeSequential(t *testing.T) {
    settle := &stubSettlements{results: []SettlementResult{
        {OK: true, NewBalance: 300, HasBalance: true},
        {OK: true, NewBalance: 0, HasBalance: true},
    }}
    echo := &stubEcho{}
    d := newTestDispatcher(settle, &stubCheckouts{}, &stubPending{}, echo)

    items := []model.BookingItem{
        item("Blue Room", "2026-09-01", 500),
        item("Green Room", "2026-09-02", 300),
    }
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 800)
    require.NoError(t, err)

    assert.Equal(t, ModeCredit, outcome.Mode)
    assert.Equal(t, StatusSuccess, outcome.Status)
    assert.Equal(t, 2, outcome.Settled)
    assert.Zero(t, outcome.Failed)
    assert.True(t, outcome.BasketCleared)
    assert.Empty(t, outcome.CheckoutURL)

    require.Len(t, settle.requests, 2)
    first, second := settle.requests[0], settle.requests[1]
    assert.Equal(t, first.GroupID, second.GroupID, "both items share one payment group")
    assert.True(t, strings.HasPrefix(first.GroupID, "PG_"))
    assert.Equal(t, 1, first.ItemIndex)
    assert.Equal(t, 2, second.ItemIndex)
    assert.Equal(t, 2, first.ItemCount)
    assert.Equal(t, "Blue Room", first.Item.RoomName)
    assert.Equal(t, int64(500), first.CreditUsed)
    assert.Zero(t, first.CardAmount)

    // Last reported balance wins the echo.
    assert.Equal(t, 2, echo.calls)
    assert.Equal(t, int64(0), echo.balance)
    assert.Equal(t, "42", echo.clientID)
    assert.True(t, outcome.HasNewBalance)
    assert.Equal(t, int64(0), outcome.NewBalance)
}

func TestDispatchCreditModePartialFailure(t *testing.T) {
    settle := &stubSettlements{
        results: []SettlementResult{{OK: true, NewBalance: 300, HasBalance: true}, {}},
        errs:    []error{nil, errors.New("rail down")},
    }
    d := newTestDispatcher(settle, &stubCheckouts{}, &stubPending{}, &stubEcho{})

    items := []model.BookingItem{
        item("Blue Room", "2026-09-01", 500),
        item("Green Room", "2026-09-02", 300),
    }
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 800)
    require.NoError(t, err)

    assert.Equal(t, StatusPartialFailure, outcome.Status)
    assert.Equal(t, 1, outcome.Settled)
    assert.Equal(t, 1, outcome.Failed)
    assert.True(t, outcome.BasketCleared, "every item was attempted, basket is consumed")
    require.Len(t, settle.requests, 2, "failure must not stop the remaining items")
}

func TestDispatchCreditModeAllFailed(t *testing.T) {
    settle := &stubSettlements{results: []SettlementResult{{OK: false}, {OK: false}}}
    d := newTestDispatcher(settle, &stubCheckouts{}, &stubPending{}, &stubEcho{})

    items := []model.BookingItem{
        item("Blue Room", "2026-09-01", 500),
        item("Green Room", "2026-09-02", 300),
    }
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 800)
    require.NoError(t, err)
    assert.Equal(t, StatusFailure, outcome.Status)
    assert.True(t, outcome.BasketCleared)
    assert.False(t, outcome.HasNewBalance)
}

// A basket of free slots never touches the card rail, even with a zero
// credit balance: every item lands in the credit leg and settles for
// nothing, one call per item.
func TestDispatchZeroTotalBasket(t *testing.T) {
    settle := &stubSettlements{results: []SettlementResult{{OK: true}, {OK: true}}}
    checkout := &stubCheckouts{url: "https://pay.example.org/s"}
    d := newTestDispatcher(settle, checkout, &stubPending{}, &stubEcho{})

    items := []model.BookingItem{
        item("Blue Room", "2026-09-01", 0),
        item("Green Room", "2026-09-02", 0),
    }
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 0)
    require.NoError(t, err)

    assert.Equal(t, ModeCredit, outcome.Mode)
    assert.Equal(t, StatusSuccess, outcome.Status)
    assert.Equal(t, 2, outcome.Settled)
    assert.True(t, outcome.BasketCleared)
    assert.Empty(t, outcome.CheckoutURL)
    assert.Empty(t, checkout.requests, "no checkout session for a free basket")

    require.Len(t, settle.requests, 2)
    for i, req := range settle.requests {
        assert.Zero(t, req.Amount)
        assert.Zero(t, req.CreditUsed)
        assert.Zero(t, req.CardAmount)
        assert.Equal(t, i+1, req.ItemIndex)
        assert.Equal(t, 2, req.ItemCount)
    }
}

func TestDispatchCardMode(t *testing.T) {
    checkout := &stubCheckouts{url: "https://pay.example.org/session/abc"}
    pending := &stubPending{}
    settle := &stubSettlements{}
    d := newTestDispatcher(settle, checkout, pending, &stubEcho{})

    items := []model.BookingItem{
        item("Blue Room", "2026-09-01", 500),
        item("Green Room", "2026-09-02", 300),
    }
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 0)
    require.NoError(t, err)

    assert.Equal(t, ModeCard, outcome.Mode)
    assert.Equal(t, StatusSuccess, outcome.Status)
    assert.Equal(t, "https://pay.example.org/session/abc", outcome.CheckoutURL)
    assert.True(t, outcome.BasketCleared)
    assert.Empty(t, settle.requests, "no credit settlements in card mode")

    require.Len(t, pending.saved, 1)
    pb := pending.saved[0]
    assert.True(t, strings.HasPrefix(pb.Ref, "PB_"))
    assert.Equal(t, model.PendingBasketStatusPending, pb.Status)
    assert.Equal(t, int64(800), pb.TotalPence)
    assert.Equal(t, int64(800), pb.CardPence)
    assert.Zero(t, pb.CreditPence)
    require.Len(t, pb.Items, 2)

    require.Len(t, checkout.requests, 1)
    req := checkout.requests[0]
    assert.Equal(t, int64(800), req.Amount)
    assert.Equal(t, pb.Ref, req.BasketRef)
    assert.Equal(t, pb.GroupID, req.GroupID)
    assert.Contains(t, req.SuccessURL, "basket="+pb.Ref)
    assert.Contains(t, req.Description, "Blue Room 2026-09-01")
}

func TestDispatchMixedMode(t *testing.T) {
    settle := &stubSettlements{results: []SettlementResult{{OK: true, NewBalance: 100, HasBalance: true}}}
    checkout := &stubCheckouts{url: "https://pay.example.org/session/xyz"}
    pending := &stubPending{}
    d := newTestDispatcher(settle, checkout, pending, &stubEcho{})

    items := []model.BookingItem{
        item("Blue Room", "2026-09-01", 200),
        item("Green Room", "2026-09-02", 400),
    }
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 300)
    require.NoError(t, err)

    assert.Equal(t, ModeMixed, outcome.Mode)
    assert.Equal(t, StatusSuccess, outcome.Status)
    assert.True(t, outcome.BasketCleared)
    assert.Equal(t, 1, outcome.Settled)

    require.Len(t, settle.requests, 1)
    assert.Equal(t, 2, settle.requests[0].ItemCount, "count covers the whole attempt, not just the credit leg")

    require.Len(t, pending.saved, 1)
    pb := pending.saved[0]
    assert.Equal(t, settle.requests[0].GroupID, pb.GroupID, "both legs share one payment group")
    assert.Equal(t, int64(400), pb.TotalPence)
    assert.Equal(t, int64(100), pb.CreditPence, "boundary item keeps the leftover credit")
    assert.Equal(t, int64(300), pb.CardPence)

    require.Len(t, checkout.requests, 1)
    assert.Equal(t, int64(300), checkout.requests[0].Amount)
    assert.Contains(t, checkout.requests[0].Description, "credit: £1.00")
}

func TestDispatchMixedCardFailureKeepsBasket(t *testing.T) {
    settle := &stubSettlements{results: []SettlementResult{{OK: true}}}
    checkout := &stubCheckouts{err: errors.New("provider 503")}
    d := newTestDispatcher(settle, checkout, &stubPending{}, &stubEcho{})

    items := []model.BookingItem{
        item("Blue Room", "2026-09-01", 200),
        item("Green Room", "2026-09-02", 400),
    }
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 300)
    require.Error(t, err)
    assert.ErrorIs(t, err, ErrCheckoutUnavailable)
    assert.Equal(t, StatusPartialFailure, outcome.Status, "credit leg already settled")
    assert.False(t, outcome.BasketCleared, "card failure must leave the basket for a retry")
    assert.Empty(t, outcome.CheckoutURL)
}

func TestDispatchCardModePersistenceFailure(t *testing.T) {
    pending := &stubPending{err: errors.New("db gone")}
    checkout := &stubCheckouts{url: "https://pay.example.org/never"}
    d := newTestDispatcher(&stubSettlements{}, checkout, pending, &stubEcho{})

    items := []model.BookingItem{item("Blue Room", "2026-09-01", 500)}
    outcome, err := d.Dispatch(context.Background(), testIdentity(), items, 0)
    require.Error(t, err)
    assert.ErrorIs(t, err, ErrPersistenceFailed)
    assert.Equal(t, StatusFailure, outcome.Status)
    assert.False(t, outcome.BasketCleared)
    assert.Empty(t, checkout.requests, "no session without a durable pending basket")
}

func TestDispatchCardModeEmptyURL(t *testing.T) {
    d := newTestDispatcher(&stubSettlements{}, &stubCheckouts{url: ""}, &stubPending{}, &stubEcho{})
    items := []model.BookingItem{item("Blue Room", "2026-09-01", 500)}
    _, err := d.Dispatch(context.Background(), testIdentity(), items, 0)
    assert.ErrorIs(t, err, ErrCheckoutUnavailable)
}
