package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-booking-basket/internal/basket"
    "github.com/iliyamo/room-booking-basket/internal/credit"
    "github.com/iliyamo/room-booking-basket/internal/model"
    "github.com/iliyamo/room-booking-basket/internal/payment"
)

func newContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, path, nil)
    } else {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("identity", model.Identity{ClientID: "42", ExternalID: "EXT-42", Name: "Jo Bloggs", Email: "jo@example.org"})
    return c, rec
}

const itemBody = `{"room_id":"r-7","room_name":"Blue Room","location_id":"1","date":"2026-09-01","start_time":"10:00","price_pence":500}`

func TestBasketAddAndList(t *testing.T) {
    h := NewBasketHandler(basket.NewStore())

    c, rec := newContext(t, http.MethodPost, "/v1/basket/items", itemBody)
    require.NoError(t, h.Add(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    var resp basketResp
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    require.Len(t, resp.Items, 1)
    assert.Equal(t, int64(500), resp.TotalPence)
    assert.Equal(t, "11:00", resp.Items[0].EndTime, "end time filled during normalization")
    assert.Equal(t, model.ServiceIDRoom, resp.Items[0].ServiceID)
}

func TestBasketAddDuplicateSlot(t *testing.T) {
    h := NewBasketHandler(basket.NewStore())

    c, _ := newContext(t, http.MethodPost, "/v1/basket/items", itemBody)
    require.NoError(t, h.Add(c))

    c2, rec2 := newContext(t, http.MethodPost, "/v1/basket/items", itemBody)
    require.NoError(t, h.Add(c2))
    assert.Equal(t, http.StatusConflict, rec2.Code)
}

func TestBasketAddCarParkNeedsComment(t *testing.T) {
    h := NewBasketHandler(basket.NewStore())
    body := `{"room_id":"cp","room_name":"Car_Park","location_id":"1","date":"2026-09-01","start_time":"10:00","price_pence":200}`
    c, rec := newContext(t, http.MethodPost, "/v1/basket/items", body)
    require.NoError(t, h.Add(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasketRemove(t *testing.T) {
    h := NewBasketHandler(basket.NewStore())
    c, _ := newContext(t, http.MethodPost, "/v1/basket/items", itemBody)
    require.NoError(t, h.Add(c))

    c2, rec2 := newContext(t, http.MethodDelete, "/v1/basket/items/0", "")
    c2.SetParamNames("index")
    c2.SetParamValues("0")
    require.NoError(t, h.Remove(c2))
    assert.Equal(t, http.StatusOK, rec2.Code)

    c3, rec3 := newContext(t, http.MethodDelete, "/v1/basket/items/5", "")
    c3.SetParamNames("index")
    c3.SetParamValues("5")
    require.NoError(t, h.Remove(c3))
    assert.Equal(t, http.StatusNotFound, rec3.Code)
}

func TestBasketRequiresIdentity(t *testing.T) {
    h := NewBasketHandler(basket.NewStore())
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/basket", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    // No identity in context, e.g. an admin token reached this route.
    require.NoError(t, h.List(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fixedBalance int64

func (f fixedBalance) Balance(context.Context, string) (int64, error) { return int64(f), nil }

type recordingSettlements struct {
    requests []payment.SettlementRequest
}

func (r *recordingSettlements) Settle(_ context.Context, req payment.SettlementRequest) (payment.SettlementResult, error) {
    r.requests = append(r.requests, req)
    return payment.SettlementResult{OK: true, NewBalance: 0, HasBalance: true}, nil
}

type noCheckout struct{}

func (noCheckout) CreateSession(context.Context, payment.CheckoutRequest) (string, error) {
    return "", nil
}

type noPending struct{}

func (noPending) Save(context.Context, model.PendingBasket) error { return nil }

func TestCheckoutCreditModeClearsBasket(t *testing.T) {
    store := basket.NewStore()
    bh := NewBasketHandler(store)
    c, _ := newContext(t, http.MethodPost, "/v1/basket/items", itemBody)
    require.NoError(t, bh.Add(c))

    settle := &recordingSettlements{}
    dispatcher := payment.NewDispatcher(settle, noCheckout{}, noPending{}, nil, nil, "https://example.org/s", "https://example.org/c")
    ch := NewCheckoutHandler(store, credit.NewProvider(fixedBalance(1000)), dispatcher)

    c2, rec2 := newContext(t, http.MethodPost, "/v1/basket/checkout", "")
    require.NoError(t, ch.Checkout(c2))
    require.Equal(t, http.StatusOK, rec2.Code)

    var resp checkoutResp
    require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
    assert.Equal(t, payment.ModeCredit, resp.Mode)
    assert.Equal(t, payment.StatusSuccess, resp.Status)
    assert.Equal(t, 1, resp.Settled)
    assert.True(t, resp.BasketCleared)
    require.Len(t, settle.requests, 1)
    assert.Equal(t, "EXT-42", settle.requests[0].Identity.ExternalID)

    assert.Zero(t, store.Get("42").Count(), "basket consumed by the attempt")
}

func TestCheckoutAlreadyInFlight(t *testing.T) {
    store := basket.NewStore()
    bh := NewBasketHandler(store)
    c, _ := newContext(t, http.MethodPost, "/v1/basket/items", itemBody)
    require.NoError(t, bh.Add(c))

    // Another request for the same client is mid-attempt.
    _, err := store.Get("42").BeginCheckout()
    require.NoError(t, err)

    dispatcher := payment.NewDispatcher(&recordingSettlements{}, noCheckout{}, noPending{}, nil, nil, "", "")
    ch := NewCheckoutHandler(store, credit.NewProvider(fixedBalance(0)), dispatcher)

    c2, rec2 := newContext(t, http.MethodPost, "/v1/basket/checkout", "")
    require.NoError(t, ch.Checkout(c2))
    assert.Equal(t, http.StatusConflict, rec2.Code)
    assert.Equal(t, 1, store.Get("42").Count(), "competing request must not touch the basket")
}

func TestBasketClearDuringCheckoutConflicts(t *testing.T) {
    store := basket.NewStore()
    bh := NewBasketHandler(store)
    c, _ := newContext(t, http.MethodPost, "/v1/basket/items", itemBody)
    require.NoError(t, bh.Add(c))

    _, err := store.Get("42").BeginCheckout()
    require.NoError(t, err)

    c2, rec2 := newContext(t, http.MethodDelete, "/v1/basket", "")
    require.NoError(t, bh.Clear(c2))
    assert.Equal(t, http.StatusConflict, rec2.Code)
    assert.Equal(t, 1, store.Get("42").Count())
}

func TestCheckoutEmptyBasket(t *testing.T) {
    store := basket.NewStore()
    dispatcher := payment.NewDispatcher(&recordingSettlements{}, noCheckout{}, noPending{}, nil, nil, "", "")
    ch := NewCheckoutHandler(store, credit.NewProvider(fixedBalance(0)), dispatcher)

    c, rec := newContext(t, http.MethodPost, "/v1/basket/checkout", "")
    require.NoError(t, ch.Checkout(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
