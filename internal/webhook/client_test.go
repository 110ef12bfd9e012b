package webhook

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-booking-basket/internal/model"
    "github.com/iliyamo/room-booking-basket/internal/payment"
)

func settlementRequest() payment.SettlementRequest {
    return payment.SettlementRequest{
        Identity: model.Identity{ClientID: "42", ExternalID: "EXT-42", Name: "Jo Bloggs", Email: "jo@example.org"},
        Item: model.BookingItem{
            RoomID:     "r-7",
            RoomName:   "Blue Room",
            LocationID: "1",
            ServiceID:  model.ServiceIDRoom,
            Date:       "2026-09-01",
            StartTime:  "10:00",
            EndTime:    "11:00",
            PricePence: 500,
        },
        Amount:     500,
        CreditUsed: 500,
        GroupID:    "PG_abc",
        ItemIndex:  1,
        ItemCount:  2,
        Timestamp:  time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
    }
}

func TestSettlementClientSuccess(t *testing.T) {
    var got map[string]any
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, http.MethodPost, r.Method)
        require.Equal(t, "application/json", r.Header.Get("Content-Type"))
        require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(`{"success":true,"newBalance":300}`))
    }))
    defer srv.Close()

    client := NewSettlementClient(srv.URL)
    result, err := client.Settle(context.Background(), settlementRequest())
    require.NoError(t, err)

    assert.True(t, result.OK)
    assert.True(t, result.HasBalance)
    assert.Equal(t, int64(300), result.NewBalance)

    assert.Equal(t, "PG_abc", got["payment_group_id"])
    assert.Equal(t, float64(1), got["item_index"])
    assert.Equal(t, float64(2), got["item_count"])
    assert.Equal(t, float64(500), got["credit_used"])
    assert.Equal(t, float64(0), got["card_amount"])
    assert.Equal(t, "2026-08-29T12:00:00Z", got["timestamp"])
    assert.Equal(t, "Blue Room", got["room_name"])
}

func TestSettlementClientRejection(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
        _, _ = w.Write([]byte(`{"success":false,"message":"slot taken"}`))
    }))
    defer srv.Close()

    result, err := NewSettlementClient(srv.URL).Settle(context.Background(), settlementRequest())
    require.NoError(t, err, "a clean rejection is not a transport error")
    assert.False(t, result.OK)
    assert.False(t, result.HasBalance)
}

func TestSettlementClientServerError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
        w.WriteHeader(http.StatusInternalServerError)
    }))
    defer srv.Close()

    _, err := NewSettlementClient(srv.URL).Settle(context.Background(), settlementRequest())
    assert.Error(t, err)
}

func TestSettlementClientUnconfigured(t *testing.T) {
    _, err := NewSettlementClient("").Settle(context.Background(), settlementRequest())
    assert.Error(t, err)
}

func TestCheckoutClientSuccess(t *testing.T) {
    var got map[string]any
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
        _, _ = w.Write([]byte(`{"url":"https://pay.example.org/session/abc"}`))
    }))
    defer srv.Close()

    url, err := NewCheckoutClient(srv.URL).CreateSession(context.Background(), payment.CheckoutRequest{
        Identity:   model.Identity{ClientID: "42", Name: "Jo Bloggs"},
        Amount:     300,
        CreditUsed: 100,
        BasketRef:  "PB_xyz",
        GroupID:    "PG_abc",
        SuccessURL: "https://example.org/success",
        CancelURL:  "https://example.org/cancel",
    })
    require.NoError(t, err)
    assert.Equal(t, "https://pay.example.org/session/abc", url)
    assert.Equal(t, "PB_xyz", got["basket_ref"])
    assert.Equal(t, float64(300), got["amount"])
}

func TestCheckoutClientEmptyURL(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
        _, _ = w.Write([]byte(`{"url":""}`))
    }))
    defer srv.Close()

    _, err := NewCheckoutClient(srv.URL).CreateSession(context.Background(), payment.CheckoutRequest{})
    assert.Error(t, err)
}
