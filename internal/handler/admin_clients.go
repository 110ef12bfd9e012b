package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/room-booking-basket/internal/credit"
    "github.com/iliyamo/room-booking-basket/internal/model"
    "github.com/iliyamo/room-booking-basket/internal/repository"
    "github.com/iliyamo/room-booking-basket/internal/utils"
)

// AdminClientHandler manages the client directory and credit top-ups.
// All endpoints here sit behind the ADMIN role guard.
type AdminClientHandler struct {
    Clients *repository.ClientRepo
    Credits *repository.CreditRepo
    Pending *repository.PendingBasketRepo
    Rdb     *redis.Client
}

func NewAdminClientHandler(clients *repository.ClientRepo, credits *repository.CreditRepo, pending *repository.PendingBasketRepo, rdb *redis.Client) *AdminClientHandler {
    return &AdminClientHandler{Clients: clients, Credits: credits, Pending: pending, Rdb: rdb}
}

type provisionReq struct {
    Name       string `json:"name"`
    Email      string `json:"email"`
    ExternalID string `json:"external_id"`
}

type provisionResp struct {
    ClientID string `json:"client_id"`
    Token    string `json:"token"`
}

// Provision creates a client record with a fresh access token. The token
// is returned once here; afterwards it only exists as the directory row
// the counsellor's session lookups hit.
func (h *AdminClientHandler) Provision(c echo.Context) error {
    var req provisionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }

    token, err := utils.NewClientToken()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Clients.Create(ctx, model.Client{
        Token:      token,
        Name:       req.Name,
        Email:      req.Email,
        ExternalID: req.ExternalID,
        Active:     true,
    })
    if err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "token collision, retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create client failed"})
    }
    return c.JSON(http.StatusCreated, provisionResp{ClientID: id, Token: token})
}

type activeReq struct {
    Active bool `json:"active"`
}

// SetActive enables or disables a client's token.
func (h *AdminClientHandler) SetActive(c echo.Context) error {
    var req activeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Clients.SetActive(ctx, c.Param("id"), req.Active); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

type topUpReq struct {
    AmountPence int64 `json:"amount_pence"`
}

// TopUp adds credit to a client and broadcasts the new balance over the
// pub/sub channel so every running instance refreshes its cache at once.
func (h *AdminClientHandler) TopUp(c echo.Context) error {
    var req topUpReq
    if err := c.Bind(&req); err != nil || req.AmountPence <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "positive amount_pence required"})
    }
    clientID := c.Param("id")

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Clients.GetByID(ctx, clientID); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "client lookup failed"})
    }

    balance, err := h.Credits.TopUp(ctx, clientID, req.AmountPence)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "top up failed"})
    }
    if err := credit.Publish(ctx, h.Rdb, clientID, balance); err != nil {
        c.Logger().Warnf("admin: balance broadcast failed for client %s: %v", clientID, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"client_id": clientID, "balance_pence": balance})
}

// PendingBasket returns a stored card-leg snapshot for reconciliation.
func (h *AdminClientHandler) PendingBasket(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    pb, err := h.Pending.GetByRef(ctx, c.Param("ref"))
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "pending basket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load failed"})
    }
    return c.JSON(http.StatusOK, pb)
}

// CompletePendingBasket marks a snapshot COMPLETED once the payment
// bridge confirms the card charge went through.
func (h *AdminClientHandler) CompletePendingBasket(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Pending.MarkStatus(ctx, c.Param("ref"), model.PendingBasketStatusCompleted); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "pending basket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
