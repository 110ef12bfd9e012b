package model

// Identity is the resolved caller behind a counsellor session.  It is
// produced once, when an access token is exchanged against the clients
// directory, and from then on passed explicitly into every operation that
// stamps requests for the external rails.  Nothing re-resolves the token
// mid-session; the JWT carries these fields between requests.
//
// Fields:
//  ClientID   – directory key of the counsellor (e.g. "C004").
//  ExternalID – the counsellor's id in the external booking system.
//  Name       – display name used on payment descriptions.
//  Email      – contact address recorded on settlements.
type Identity struct {
    ClientID   string `json:"client_id"`
    ExternalID string `json:"external_id"`
    Name       string `json:"name"`
    Email      string `json:"email"`
}

// Client mirrors a row of the `clients` directory table.  The table is the
// single source of truth for who may open a session: lookups run against
// the indexed `token` column and an inactive row is treated the same as a
// missing one.
//
// Fields:
//  ID         – clients.id (directory key, e.g. "C004").
//  Token      – clients.token (opaque access token, indexed).
//  Name       – clients.name.
//  Email      – clients.email.
//  ExternalID – clients.external_id (booking-system id).
//  Active     – clients.active; inactive clients cannot start sessions.
type Client struct {
    ID         string
    Token      string
    Name       string
    Email      string
    ExternalID string
    Active     bool
}

// Identity converts a directory row into the session identity handed to
// handlers and the payment dispatcher.
func (c Client) Identity() Identity {
    return Identity{
        ClientID:   c.ID,
        ExternalID: c.ExternalID,
        Name:       c.Name,
        Email:      c.Email,
    }
}
