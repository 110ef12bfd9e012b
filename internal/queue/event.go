// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingSettledEvent is published once per booking item confirmed on the
// credit rail. It carries enough for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type BookingSettledEvent struct {
    ClientID       string `json:"client_id"`
    ExternalID     string `json:"external_id"`
    CounsellorName string `json:"counsellor_name"`
    RoomID         string `json:"room_id"`
    RoomName       string `json:"room_name"`
    LocationID     string `json:"location_id"`
    ServiceID      string `json:"service_id"`
    Date           string `json:"date"`
    StartTime      string `json:"start_time"`
    EndTime        string `json:"end_time"`
    PricePence     int64  `json:"price_pence"`
    CreditUsed     int64  `json:"credit_used"`
    PaymentGroupID string `json:"payment_group_id"`
    SettledAt      string `json:"settled_at"`
}
