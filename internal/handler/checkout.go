package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-booking-basket/internal/basket"
    "github.com/iliyamo/room-booking-basket/internal/credit"
    "github.com/iliyamo/room-booking-basket/internal/payment"
)

// CheckoutHandler runs checkout attempts: snapshot the basket, allocate
// the credit balance across it, and hand the split to the dispatcher.
// The basket stays locked for the whole attempt so a second tab cannot
// mutate it mid-flight; it is cleared only when the dispatcher says the
// attempt consumed it.
type CheckoutHandler struct {
    Baskets    *basket.Store
    Credits    *credit.Provider
    Dispatcher *payment.Dispatcher
}

func NewCheckoutHandler(store *basket.Store, credits *credit.Provider, d *payment.Dispatcher) *CheckoutHandler {
    return &CheckoutHandler{Baskets: store, Credits: credits, Dispatcher: d}
}

type checkoutResp struct {
    Mode          payment.Mode   `json:"mode"`
    Status        payment.Status `json:"status"`
    GroupID       string         `json:"payment_group_id"`
    Settled       int            `json:"settled"`
    Failed        int            `json:"failed"`
    BalancePence  *int64         `json:"balance_pence,omitempty"`
    CheckoutURL   string         `json:"checkout_url,omitempty"`
    BasketRef     string         `json:"basket_ref,omitempty"`
    BasketCleared bool           `json:"basket_cleared"`
    Message       string         `json:"message"`
}

func checkoutJSON(outcome payment.Outcome) checkoutResp {
    resp := checkoutResp{
        Mode:          outcome.Mode,
        Status:        outcome.Status,
        GroupID:       outcome.GroupID,
        Settled:       outcome.Settled,
        Failed:        outcome.Failed,
        CheckoutURL:   outcome.CheckoutURL,
        BasketRef:     outcome.BasketRef,
        BasketCleared: outcome.BasketCleared,
        Message:       outcome.Message,
    }
    if outcome.HasNewBalance {
        b := outcome.NewBalance
        resp.BalancePence = &b
    }
    return resp
}

// Checkout drives one attempt to a terminal state.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
    ident, err := currentIdentity(c)
    if err != nil {
        return err
    }
    b := h.Baskets.Get(ident.ClientID)

    items, err := b.BeginCheckout()
    if err != nil {
        switch err {
        case basket.ErrEmptyBasket:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "basket is empty"})
        case basket.ErrCheckoutInFlight:
            return c.JSON(http.StatusConflict, echo.Map{"error": "checkout already in progress"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
        }
    }
    cleared := false
    defer func() { b.EndCheckout(cleared) }()

    ctx := c.Request().Context()
    balance, err := h.Credits.Balance(ctx, ident.ClientID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "balance load failed"})
    }

    outcome, err := h.Dispatcher.Dispatch(ctx, ident, items, balance)
    cleared = outcome.BasketCleared
    if err != nil {
        // Rail failures abort with the basket intact; 502 because the
        // fault is on an upstream dependency, not this request.
        status := http.StatusBadGateway
        if errors.Is(err, payment.ErrPersistenceFailed) {
            status = http.StatusInternalServerError
        }
        return c.JSON(status, checkoutJSON(outcome))
    }
    return c.JSON(http.StatusOK, checkoutJSON(outcome))
}
