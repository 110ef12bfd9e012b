package repository

import (
    "context"
    "database/sql"
    "errors"
)

// CreditRepo reads and tops up the per-client credit balance stored in
// the 'credits' table (one row per client, amount in pence). Deductions
// happen on the external settlement rail; this service only seeds the
// in-memory balance cache from here and applies admin top-ups.
type CreditRepo struct{ DB *sql.DB }

func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{DB: db} }

// Balance returns the stored balance in pence. A client with no credit
// row simply has a zero balance, not an error.
func (r *CreditRepo) Balance(ctx context.Context, clientID string) (int64, error) {
    var pence int64
    err := r.DB.QueryRowContext(ctx,
        "SELECT balance_pence FROM credits WHERE client_id=? LIMIT 1",
        clientID).Scan(&pence)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, nil
    }
    if err != nil {
        return 0, err
    }
    return pence, nil
}

// TopUp adds amountPence to the client's balance, creating the credit
// row on first use, and returns the new balance. The add happens in a
// transaction so the returned value matches what was written even when
// two top-ups race.
func (r *CreditRepo) TopUp(ctx context.Context, clientID string, amountPence int64) (int64, error) {
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    defer tx.Rollback()

    _, err = tx.ExecContext(ctx,
        "INSERT INTO credits (client_id, balance_pence) VALUES (?,?) ON DUPLICATE KEY UPDATE balance_pence = balance_pence + VALUES(balance_pence)",
        clientID, amountPence)
    if err != nil {
        return 0, err
    }

    var pence int64
    if err := tx.QueryRowContext(ctx,
        "SELECT balance_pence FROM credits WHERE client_id=? LIMIT 1",
        clientID).Scan(&pence); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    return pence, nil
}
