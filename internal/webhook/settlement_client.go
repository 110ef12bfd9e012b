// Package webhook implements the outbound HTTP clients for the two
// external payment rails: the credit settlement endpoint that records a
// booking and deducts its price from the client's balance, and the card
// checkout endpoint that creates a hosted payment session.  Both speak
// plain JSON over POST; neither keeps a connection or any state between
// calls.
package webhook

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/iliyamo/room-booking-basket/internal/payment"
)

// SettlementClient posts per-item settlements to the external booking
// automation endpoint.
type SettlementClient struct {
    url        string
    httpClient *http.Client
}

// NewSettlementClient builds a client for the given settlement URL.  A
// short timeout keeps a stalled rail from hanging a checkout attempt.
func NewSettlementClient(url string) *SettlementClient {
    return &SettlementClient{
        url: strings.TrimRight(url, "/"),
        httpClient: &http.Client{
            Timeout: 10 * time.Second,
        },
    }
}

// settlementPayload is the wire shape the automation endpoint expects.
// Amounts travel as pence integers; the timestamp is RFC 3339 UTC.
type settlementPayload struct {
    ClientID       string `json:"client_id"`
    ExternalID     string `json:"external_id"`
    CounsellorName string `json:"counsellor_name"`
    Email          string `json:"email"`
    RoomID         string `json:"room_id"`
    RoomName       string `json:"room_name"`
    LocationID     string `json:"location_id"`
    ServiceID      string `json:"service_id"`
    Date           string `json:"date"`
    StartTime      string `json:"start_time"`
    EndTime        string `json:"end_time"`
    Comment        string `json:"comment,omitempty"`
    Amount         int64  `json:"amount"`
    CreditUsed     int64  `json:"credit_used"`
    CardAmount     int64  `json:"card_amount"`
    PaymentGroupID string `json:"payment_group_id"`
    ItemIndex      int    `json:"item_index"`
    ItemCount      int    `json:"item_count"`
    Timestamp      string `json:"timestamp"`
}

// settlementReply is what the endpoint answers per item.  NewBalance is
// optional: when present it is the authoritative balance after deduction.
type settlementReply struct {
    Success    bool   `json:"success"`
    NewBalance *int64 `json:"newBalance,omitempty"`
    Message    string `json:"message,omitempty"`
}

// Settle posts one item and interprets the reply.  A transport or decode
// error is returned as an error; an HTTP 200 with success=false is a
// clean per-item rejection and comes back as a non-OK result instead.
func (c *SettlementClient) Settle(ctx context.Context, req payment.SettlementRequest) (payment.SettlementResult, error) {
    if c == nil || c.url == "" {
        return payment.SettlementResult{}, fmt.Errorf("settlement client not configured")
    }

    payload := settlementPayload{
        ClientID:       req.Identity.ClientID,
        ExternalID:     req.Identity.ExternalID,
        CounsellorName: req.Identity.Name,
        Email:          req.Identity.Email,
        RoomID:         req.Item.RoomID,
        RoomName:       req.Item.RoomName,
        LocationID:     req.Item.LocationID,
        ServiceID:      req.Item.ServiceID,
        Date:           req.Item.Date,
        StartTime:      req.Item.StartTime,
        EndTime:        req.Item.EndTime,
        Comment:        req.Item.Comment,
        Amount:         req.Amount,
        CreditUsed:     req.CreditUsed,
        CardAmount:     req.CardAmount,
        PaymentGroupID: req.GroupID,
        ItemIndex:      req.ItemIndex,
        ItemCount:      req.ItemCount,
        Timestamp:      req.Timestamp.UTC().Format(time.RFC3339),
    }

    body, err := json.Marshal(payload)
    if err != nil {
        return payment.SettlementResult{}, fmt.Errorf("marshal settlement: %w", err)
    }

    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
    if err != nil {
        return payment.SettlementResult{}, fmt.Errorf("create request: %w", err)
    }
    httpReq.Header.Set("Content-Type", "application/json")

    resp, err := c.httpClient.Do(httpReq)
    if err != nil {
        return payment.SettlementResult{}, fmt.Errorf("do request: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        return payment.SettlementResult{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
    }

    var reply settlementReply
    if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
        return payment.SettlementResult{}, fmt.Errorf("decode response: %w", err)
    }

    result := payment.SettlementResult{OK: reply.Success}
    if reply.NewBalance != nil {
        result.NewBalance = *reply.NewBalance
        result.HasBalance = true
    }
    return result, nil
}
