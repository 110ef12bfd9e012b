package basket

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-booking-basket/internal/model"
)

func slot(room, date, start string, price int64) model.BookingItem {
    return model.BookingItem{
        RoomID:     "3",
        RoomName:   room,
        LocationID: "2",
        Date:       date,
        StartTime:  start,
        EndTime:    "11:00",
        PricePence: price,
    }
}

func TestAddAppendsInOrder(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))
    require.NoError(t, b.Add(slot("Room 2", "2026-03-02", "10:00", 300)))
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "11:00", 400)))

    items := b.Items()
    require.Len(t, items, 3)
    assert.Equal(t, "Room 1", items[0].RoomName)
    assert.Equal(t, "Room 2", items[1].RoomName)
    assert.Equal(t, "11:00", items[2].StartTime)
    assert.Equal(t, int64(1200), b.Total())
    assert.Equal(t, 3, b.Count())
}

func TestAddRejectsDuplicateSlot(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    err := b.Add(slot("Room 1", "2026-03-02", "10:00", 500))
    require.ErrorIs(t, err, ErrDuplicateSlot)
    assert.Equal(t, 1, b.Count(), "basket length must be unchanged after a rejected add")
}

func TestAddTreatsRoomSpellingVariantsAsSameSlot(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Car Park", "2026-03-02", "09:00", 200)))

    err := b.Add(slot("Car_Park", "2026-03-02", "09:00", 200))
    require.ErrorIs(t, err, ErrDuplicateSlot)
}

func TestRemovePreservesOrder(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))
    require.NoError(t, b.Add(slot("Room 2", "2026-03-02", "10:00", 300)))
    require.NoError(t, b.Add(slot("Room 4", "2026-03-02", "10:00", 400)))

    require.NoError(t, b.Remove(1))

    items := b.Items()
    require.Len(t, items, 2)
    assert.Equal(t, "Room 1", items[0].RoomName)
    assert.Equal(t, "Room 4", items[1].RoomName)
    assert.Equal(t, int64(900), b.Total())
}

func TestRemoveInvalidIndex(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    assert.ErrorIs(t, b.Remove(-1), ErrIndexOutOfRange)
    assert.ErrorIs(t, b.Remove(1), ErrIndexOutOfRange)
    assert.Equal(t, 1, b.Count())
}

func TestClearIsIdempotent(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    require.NoError(t, b.Clear())
    assert.Equal(t, 0, b.Count())
    assert.Equal(t, int64(0), b.Total())

    require.NoError(t, b.Clear()) // clearing an empty basket is a no-op
    assert.Equal(t, 0, b.Count())
}

func TestCheckoutLocksOutMutation(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    snapshot, err := b.BeginCheckout()
    require.NoError(t, err)
    require.Len(t, snapshot, 1)

    assert.ErrorIs(t, b.Add(slot("Room 2", "2026-03-02", "10:00", 300)), ErrCheckoutInFlight)
    assert.ErrorIs(t, b.Remove(0), ErrCheckoutInFlight)
    assert.ErrorIs(t, b.Clear(), ErrCheckoutInFlight)
    assert.Equal(t, 1, b.Count(), "items survive every rejected mutation")

    _, err = b.BeginCheckout()
    assert.ErrorIs(t, err, ErrCheckoutInFlight)

    b.EndCheckout(false)
    assert.NoError(t, b.Add(slot("Room 2", "2026-03-02", "10:00", 300)))
}

func TestEndCheckoutDisposesConsumedItems(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    _, err := b.BeginCheckout()
    require.NoError(t, err)
    b.EndCheckout(true)

    assert.Equal(t, 0, b.Count())
    assert.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))
}

func TestEndCheckoutKeepsItemsForRetry(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    _, err := b.BeginCheckout()
    require.NoError(t, err)
    b.EndCheckout(false)

    assert.Equal(t, 1, b.Count(), "a failed attempt leaves the basket intact")
}

func TestBeginCheckoutEmptyBasket(t *testing.T) {
    b := New()
    _, err := b.BeginCheckout()
    assert.ErrorIs(t, err, ErrEmptyBasket)
}

func TestSnapshotIsACopy(t *testing.T) {
    b := New()
    require.NoError(t, b.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    snapshot, err := b.BeginCheckout()
    require.NoError(t, err)
    snapshot[0].RoomName = "Tampered"
    b.EndCheckout(false)

    assert.Equal(t, "Room 1", b.Items()[0].RoomName)
}

func TestStoreReturnsSameBasketPerClient(t *testing.T) {
    s := NewStore()
    a := s.Get("C001")
    require.NoError(t, a.Add(slot("Room 1", "2026-03-02", "10:00", 500)))

    assert.Equal(t, 1, s.Get("C001").Count())
    assert.Equal(t, 0, s.Get("C002").Count())
}
