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

// CheckoutClient asks the external payment provider bridge for a hosted
// card checkout session.  The bridge owns the provider credentials; this
// service only ever sees the resulting session URL.
type CheckoutClient struct {
    url        string
    httpClient *http.Client
}

// NewCheckoutClient builds a client for the given checkout bridge URL.
func NewCheckoutClient(url string) *CheckoutClient {
    return &CheckoutClient{
        url: strings.TrimRight(url, "/"),
        httpClient: &http.Client{
            Timeout: 10 * time.Second,
        },
    }
}

type checkoutPayload struct {
    ClientID       string `json:"client_id"`
    ExternalID     string `json:"external_id"`
    CounsellorName string `json:"counsellor_name"`
    Email          string `json:"email"`
    Amount         int64  `json:"amount"`
    CreditUsed     int64  `json:"credit_used"`
    Description    string `json:"description"`
    BasketRef      string `json:"basket_ref"`
    PaymentGroupID string `json:"payment_group_id"`
    SuccessURL     string `json:"success_url"`
    CancelURL      string `json:"cancel_url"`
}

type checkoutReply struct {
    URL     string `json:"url"`
    Message string `json:"message,omitempty"`
}

// CreateSession posts the card leg and returns the hosted session URL.
// Any non-200 answer or empty URL is an error: without a session there is
// nothing the counsellor can be redirected to.
func (c *CheckoutClient) CreateSession(ctx context.Context, req payment.CheckoutRequest) (string, error) {
    if c == nil || c.url == "" {
        return "", fmt.Errorf("checkout client not configured")
    }

    body, err := json.Marshal(checkoutPayload{
        ClientID:       req.Identity.ClientID,
        ExternalID:     req.Identity.ExternalID,
        CounsellorName: req.Identity.Name,
        Email:          req.Identity.Email,
        Amount:         req.Amount,
        CreditUsed:     req.CreditUsed,
        Description:    req.Description,
        BasketRef:      req.BasketRef,
        PaymentGroupID: req.GroupID,
        SuccessURL:     req.SuccessURL,
        CancelURL:      req.CancelURL,
    })
    if err != nil {
        return "", fmt.Errorf("marshal checkout: %w", err)
    }

    httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
    if err != nil {
        return "", fmt.Errorf("create request: %w", err)
    }
    httpReq.Header.Set("Content-Type", "application/json")

    resp, err := c.httpClient.Do(httpReq)
    if err != nil {
        return "", fmt.Errorf("do request: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
    }

    var reply checkoutReply
    if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
        return "", fmt.Errorf("decode response: %w", err)
    }
    if reply.URL == "" {
        return "", fmt.Errorf("checkout bridge returned no session url")
    }
    return reply.URL, nil
}
