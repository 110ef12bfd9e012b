package model

import (
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"
)

// Validation errors returned when a booking item fails its field checks.
// Handlers translate these into HTTP 400 responses before the item ever
// reaches the basket, so malformed slots never hit the network layer.
var (
    ErrInvalidPrice   = errors.New("price must be zero or positive")
    ErrInvalidDate    = errors.New("date must be in YYYY-MM-DD form")
    ErrInvalidTime    = errors.New("time must be in HH:MM 24-hour form")
    ErrMissingRoom    = errors.New("room name is required")
    ErrMissingComment = errors.New("car park bookings require a registration comment")
)

// Service identifiers used by the external booking system.  Car Park slots
// book under a dedicated service; every other room uses the default one.
const (
    ServiceIDRoom    = "1"
    ServiceIDCarPark = "9"
)

// BookingItem is one bookable slot waiting in a basket.  Prices are integer
// pence so money arithmetic never touches floating point.  Date and times
// are kept in the textual forms the external rails expect (YYYY-MM-DD and
// HH:MM) and validated on entry rather than parsed into time.Time, because
// they only ever travel outward again as strings.
//
// Fields:
//  RoomID     – provider identifier of the room in the booking system.
//  RoomName   – display name (e.g. "Room 4", "Car Park").
//  LocationID – identifier of the site the room belongs to.
//  Date       – calendar date of the slot, YYYY-MM-DD.
//  StartTime  – slot start, HH:MM 24-hour.
//  EndTime    – slot end, HH:MM 24-hour; defaults to start + 1h.
//  PricePence – slot price in pence; zero means a free booking.
//  Comment    – optional free text (car registration for Car Park slots).
//  ServiceID  – booking-system service id; derived from the room when empty.
type BookingItem struct {
    RoomID     string `json:"room_id"`
    RoomName   string `json:"room_name"`
    LocationID string `json:"location_id"`
    Date       string `json:"date"`
    StartTime  string `json:"start_time"`
    EndTime    string `json:"end_time"`
    PricePence int64  `json:"price_pence"`
    Comment    string `json:"comment,omitempty"`
    ServiceID  string `json:"service_id"`
}

// NormalizeRoomName collapses the spelling variants the calendar uses for
// the same room ("Car_Park" vs "Car Park", stray whitespace) so that
// duplicate detection and service-id derivation see one canonical form.
func NormalizeRoomName(name string) string {
    return strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
}

// IsCarPark reports whether the item books the car park rather than a room.
func (b BookingItem) IsCarPark() bool {
    return strings.EqualFold(NormalizeRoomName(b.RoomName), "Car Park")
}

// SlotKey identifies the slot an item occupies.  Two items with the same
// key would double-book the same room at the same moment, so the basket
// rejects the second one.
func (b BookingItem) SlotKey() string {
    return NormalizeRoomName(b.RoomName) + "|" + b.Date + "|" + b.StartTime
}

// Normalize fills derivable fields: the canonical room name, the service id
// for the room kind, and an end time one hour after the start when the
// caller omitted it.  It must run before Validate.
func (b *BookingItem) Normalize() {
    b.RoomName = NormalizeRoomName(b.RoomName)
    if b.ServiceID == "" {
        if b.IsCarPark() {
            b.ServiceID = ServiceIDCarPark
        } else {
            b.ServiceID = ServiceIDRoom
        }
    }
    if b.EndTime == "" {
        if hour, minute, err := parseClock(b.StartTime); err == nil {
            b.EndTime = fmt.Sprintf("%02d:%02d", (hour+1)%24, minute)
        }
    }
    b.Comment = strings.TrimSpace(b.Comment)
}

// Validate checks every field contract the basket and the payment rails
// rely on.  It returns the first violation found.
func (b BookingItem) Validate() error {
    if strings.TrimSpace(b.RoomName) == "" {
        return ErrMissingRoom
    }
    if b.PricePence < 0 {
        return ErrInvalidPrice
    }
    if _, err := time.Parse("2006-01-02", b.Date); err != nil {
        return ErrInvalidDate
    }
    if _, _, err := parseClock(b.StartTime); err != nil {
        return ErrInvalidTime
    }
    if _, _, err := parseClock(b.EndTime); err != nil {
        return ErrInvalidTime
    }
    if b.IsCarPark() && b.Comment == "" {
        return ErrMissingComment
    }
    return nil
}

// parseClock validates an HH:MM 24-hour string and returns its parts.
func parseClock(s string) (int, int, error) {
    parts := strings.Split(s, ":")
    if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
        return 0, 0, ErrInvalidTime
    }
    hour, err := strconv.Atoi(parts[0])
    if err != nil || hour < 0 || hour > 23 {
        return 0, 0, ErrInvalidTime
    }
    minute, err := strconv.Atoi(parts[1])
    if err != nil || minute < 0 || minute > 59 {
        return 0, 0, ErrInvalidTime
    }
    return hour, minute, nil
}
