package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/room-booking-basket/internal/model"
)

// PendingBasketRepo persists card-leg basket snapshots. A snapshot is
// written before the counsellor is handed to the external checkout so
// the payment success callback can reconcile exactly what was bought.
// Header and items land in one transaction; a half-written snapshot
// must never exist.
type PendingBasketRepo struct{ DB *sql.DB }

func NewPendingBasketRepo(db *sql.DB) *PendingBasketRepo { return &PendingBasketRepo{DB: db} }

// Save inserts the snapshot header and its items.
func (r *PendingBasketRepo) Save(ctx context.Context, pb model.PendingBasket) error {
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer tx.Rollback()

    _, err = tx.ExecContext(ctx,
        `INSERT INTO pending_baskets
            (ref, payment_group_id, client_id, external_id, counsellor_name,
             total_pence, credit_pence, card_pence, status, created_at)
         VALUES (?,?,?,?,?,?,?,?,?,?)`,
        pb.Ref, pb.GroupID, pb.ClientID, pb.ExternalID, pb.CounsellorName,
        pb.TotalPence, pb.CreditPence, pb.CardPence, pb.Status, pb.CreatedAt)
    if err != nil {
        return err
    }

    for i, it := range pb.Items {
        _, err = tx.ExecContext(ctx,
            `INSERT INTO pending_basket_items
                (basket_ref, position, room_id, room_name, location_id, service_id,
                 booking_date, start_time, end_time, comment, price_pence, credit_used, card_due)
             VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
            pb.Ref, i+1, it.Item.RoomID, it.Item.RoomName, it.Item.LocationID, it.Item.ServiceID,
            it.Item.Date, it.Item.StartTime, it.Item.EndTime, it.Item.Comment,
            it.Item.PricePence, it.CreditUsed, it.CardDue)
        if err != nil {
            return err
        }
    }

    return tx.Commit()
}

// GetByRef loads a snapshot with its items in stored order.
func (r *PendingBasketRepo) GetByRef(ctx context.Context, ref string) (model.PendingBasket, error) {
    var pb model.PendingBasket
    err := r.DB.QueryRowContext(ctx,
        `SELECT ref, payment_group_id, client_id, external_id, counsellor_name,
                total_pence, credit_pence, card_pence, status, created_at
         FROM pending_baskets WHERE ref=? LIMIT 1`, ref).
        Scan(&pb.Ref, &pb.GroupID, &pb.ClientID, &pb.ExternalID, &pb.CounsellorName,
            &pb.TotalPence, &pb.CreditPence, &pb.CardPence, &pb.Status, &pb.CreatedAt)
    if err == sql.ErrNoRows {
        return model.PendingBasket{}, ErrNotFound
    }
    if err != nil {
        return model.PendingBasket{}, err
    }

    rows, err := r.DB.QueryContext(ctx,
        `SELECT room_id, room_name, location_id, service_id, booking_date,
                start_time, end_time, comment, price_pence, credit_used, card_due
         FROM pending_basket_items WHERE basket_ref=? ORDER BY position`, ref)
    if err != nil {
        return model.PendingBasket{}, err
    }
    defer rows.Close()

    for rows.Next() {
        var it model.PendingItem
        if err := rows.Scan(&it.Item.RoomID, &it.Item.RoomName, &it.Item.LocationID,
            &it.Item.ServiceID, &it.Item.Date, &it.Item.StartTime, &it.Item.EndTime,
            &it.Item.Comment, &it.Item.PricePence, &it.CreditUsed, &it.CardDue); err != nil {
            return model.PendingBasket{}, err
        }
        pb.Items = append(pb.Items, it)
    }
    if err := rows.Err(); err != nil {
        return model.PendingBasket{}, err
    }
    return pb, nil
}

// MarkStatus moves a snapshot to a new status, e.g. COMPLETED once the
// payment callback confirmed the card charge.
func (r *PendingBasketRepo) MarkStatus(ctx context.Context, ref, status string) error {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE pending_baskets SET status=? WHERE ref=?", status, ref)
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
