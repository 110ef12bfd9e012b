package repository

import (
    "context"
    "database/sql"
    "errors"
    "strconv"
    "strings"

    "github.com/iliyamo/room-booking-basket/internal/model"
)

// ClientRepo resolves counsellor access tokens against the 'clients'
// directory table. The token column is indexed and unique; resolution
// is a single point lookup on every session start.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

// ResolveToken returns the active client owning the given access token.
// An unknown token and a deactivated client both come back as
// ErrTokenInvalid so the caller cannot probe which one it was.
func (r *ClientRepo) ResolveToken(ctx context.Context, token string) (model.Client, error) {
    token = strings.TrimSpace(token)
    if token == "" {
        return model.Client{}, ErrTokenInvalid
    }
    var c model.Client
    err := r.DB.QueryRowContext(ctx,
        "SELECT id, token, name, email, external_id, active FROM clients WHERE token=? LIMIT 1",
        token).Scan(&c.ID, &c.Token, &c.Name, &c.Email, &c.ExternalID, &c.Active)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Client{}, ErrTokenInvalid
    }
    if err != nil {
        return model.Client{}, err
    }
    if !c.Active {
        return model.Client{}, ErrTokenInvalid
    }
    return c, nil
}

// GetByID fetches a client by id regardless of active flag. Admin
// screens need to see deactivated clients too.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (model.Client, error) {
    var c model.Client
    err := r.DB.QueryRowContext(ctx,
        "SELECT id, token, name, email, external_id, active FROM clients WHERE id=? LIMIT 1",
        id).Scan(&c.ID, &c.Token, &c.Name, &c.Email, &c.ExternalID, &c.Active)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Client{}, ErrNotFound
    }
    return c, err
}

// Create provisions a new client with its access token. Duplicate
// tokens are reported as ErrConflict via the unique index.
func (r *ClientRepo) Create(ctx context.Context, c model.Client) (string, error) {
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO clients (token, name, email, external_id, active) VALUES (?,?,?,?,?)",
        strings.TrimSpace(c.Token), c.Name, strings.ToLower(strings.TrimSpace(c.Email)), c.ExternalID, c.Active)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return "", ErrConflict
        }
        return "", err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return "", err
    }
    return strconv.FormatInt(id, 10), nil
}

// SetActive flips the active flag; deactivated clients can no longer
// start sessions but their history stays intact.
func (r *ClientRepo) SetActive(ctx context.Context, id string, active bool) error {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE clients SET active=? WHERE id=?", active, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}
