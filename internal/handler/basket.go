package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-booking-basket/internal/basket"
    "github.com/iliyamo/room-booking-basket/internal/model"
)

// currentIdentity pulls the counsellor identity stored by the JWT
// middleware. Admin tokens do not carry one, so an admin calling a
// counsellor endpoint gets a 401 rather than a panic.
func currentIdentity(c echo.Context) (model.Identity, error) {
    ident, ok := c.Get("identity").(model.Identity)
    if !ok || ident.ClientID == "" {
        return model.Identity{}, c.JSON(http.StatusUnauthorized, echo.Map{"error": "counsellor session required"})
    }
    return ident, nil
}

// BasketHandler exposes the per-session booking basket. Baskets live in
// memory keyed by client ID; they are scratch state, not bookings, so
// nothing here touches the database.
type BasketHandler struct {
    Baskets *basket.Store
}

func NewBasketHandler(store *basket.Store) *BasketHandler {
    return &BasketHandler{Baskets: store}
}

type addItemReq struct {
    RoomID     string `json:"room_id"`
    RoomName   string `json:"room_name"`
    LocationID string `json:"location_id"`
    Date       string `json:"date"`
    StartTime  string `json:"start_time"`
    EndTime    string `json:"end_time"`
    PricePence int64  `json:"price_pence"`
    Comment    string `json:"comment"`
    ServiceID  string `json:"service_id"`
}

type basketResp struct {
    Items      []model.BookingItem `json:"items"`
    Count      int                 `json:"count"`
    TotalPence int64               `json:"total_pence"`
}

func (h *BasketHandler) basketOf(c echo.Context) (*basket.Basket, model.Identity, error) {
    ident, err := currentIdentity(c)
    if err != nil {
        return nil, model.Identity{}, err
    }
    return h.Baskets.Get(ident.ClientID), ident, nil
}

func basketJSON(b *basket.Basket) basketResp {
    items := b.Items()
    return basketResp{Items: items, Count: len(items), TotalPence: b.Total()}
}

// List returns the basket contents in insertion order.
func (h *BasketHandler) List(c echo.Context) error {
    b, _, err := h.basketOf(c)
    if err != nil {
        return err
    }
    return c.JSON(http.StatusOK, basketJSON(b))
}

// Add validates and appends one item. The same slot cannot be added
// twice, and nothing may be added while a checkout attempt is running.
func (h *BasketHandler) Add(c echo.Context) error {
    b, _, err := h.basketOf(c)
    if err != nil {
        return err
    }

    var req addItemReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    item := model.BookingItem{
        RoomID:     req.RoomID,
        RoomName:   req.RoomName,
        LocationID: req.LocationID,
        Date:       req.Date,
        StartTime:  req.StartTime,
        EndTime:    req.EndTime,
        PricePence: req.PricePence,
        Comment:    req.Comment,
        ServiceID:  req.ServiceID,
    }
    item.Normalize()
    if err := item.Validate(); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    if err := b.Add(item); err != nil {
        switch err {
        case basket.ErrDuplicateSlot:
            return c.JSON(http.StatusConflict, echo.Map{"error": "slot already in basket"})
        case basket.ErrCheckoutInFlight:
            return c.JSON(http.StatusConflict, echo.Map{"error": "checkout in progress"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add failed"})
        }
    }
    return c.JSON(http.StatusCreated, basketJSON(b))
}

// Remove drops the item at the given zero-based index.
func (h *BasketHandler) Remove(c echo.Context) error {
    b, _, err := h.basketOf(c)
    if err != nil {
        return err
    }
    idx, err := strconv.Atoi(c.Param("index"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid index"})
    }
    if err := b.Remove(idx); err != nil {
        switch err {
        case basket.ErrIndexOutOfRange:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no item at index"})
        case basket.ErrCheckoutInFlight:
            return c.JSON(http.StatusConflict, echo.Map{"error": "checkout in progress"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
        }
    }
    return c.JSON(http.StatusOK, basketJSON(b))
}

// Clear empties the basket. Clearing an empty basket is fine, but like
// the other mutations it conflicts with an in-flight checkout.
func (h *BasketHandler) Clear(c echo.Context) error {
    b, _, err := h.basketOf(c)
    if err != nil {
        return err
    }
    if err := b.Clear(); err != nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": "checkout in progress"})
    }
    return c.NoContent(http.StatusNoContent)
}
