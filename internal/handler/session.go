package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-booking-basket/internal/config"
    "github.com/iliyamo/room-booking-basket/internal/credit"
    "github.com/iliyamo/room-booking-basket/internal/repository"
    "github.com/iliyamo/room-booking-basket/internal/utils"
)

// SessionHandler starts counsellor sessions. A counsellor presents the
// opaque access token issued for their organisation; it resolves to an
// active client record and comes back as a short-lived session JWT plus
// the identity and current credit balance the booking UI renders.
type SessionHandler struct {
    Cfg     config.Config
    Clients *repository.ClientRepo
    Credits *credit.Provider
}

func NewSessionHandler(cfg config.Config, clients *repository.ClientRepo, credits *credit.Provider) *SessionHandler {
    return &SessionHandler{Cfg: cfg, Clients: clients, Credits: credits}
}

type sessionReq struct {
    Token string `json:"token"`
}

type identityPart struct {
    ClientID   string `json:"client_id"`
    ExternalID string `json:"external_id"`
    Name       string `json:"name"`
    Email      string `json:"email"`
}

type sessionResp struct {
    Identity     identityPart `json:"identity"`
    Session      tokenPart    `json:"session"`
    BalancePence int64        `json:"balance_pence"`
}

// Start resolves the access token and issues a session JWT. Unknown and
// deactivated tokens both answer 401 with the same body.
func (h *SessionHandler) Start(c echo.Context) error {
    var req sessionReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    client, err := h.Clients.ResolveToken(ctx, req.Token)
    if err != nil {
        if err == repository.ErrTokenInvalid {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token lookup failed"})
    }

    ident := client.Identity()
    session, err := utils.NewSessionToken(h.Cfg.JWTSecret, ident, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
    }

    balance, err := h.Credits.Balance(ctx, ident.ClientID)
    if err != nil {
        // A session without a fresh balance is still usable; the UI will
        // fall back to zero credit and everything goes to card.
        c.Logger().Warnf("session: balance load failed for client %s: %v", ident.ClientID, err)
        balance = 0
    }

    return c.JSON(http.StatusOK, sessionResp{
        Identity: identityPart{
            ClientID:   ident.ClientID,
            ExternalID: ident.ExternalID,
            Name:       ident.Name,
            Email:      ident.Email,
        },
        Session:      tokenPart{Token: session.Token, Expires: session.Exp},
        BalancePence: balance,
    })
}

// Balance returns the live credit balance for the authenticated session.
// The UI polls this after returning from an external payment page.
func (h *SessionHandler) Balance(c echo.Context) error {
    ident, err := currentIdentity(c)
    if err != nil {
        return err
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    balance, err := h.Credits.Balance(ctx, ident.ClientID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "balance load failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"balance_pence": balance})
}
