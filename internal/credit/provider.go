// Package credit keeps the per-client credit balance the checkout flow
// allocates against.  The balance is loaded from the database once per
// client and then kept fresh two ways: live updates pushed over a Redis
// pub/sub channel by whatever system grants or spends credit out of
// band, and optimistic overwrites echoed back by the settlement rail
// after each deduction.  Reads never touch the database on the hot path.
package credit

import (
    "context"
    "encoding/json"
    "log"
    "sync"

    "github.com/redis/go-redis/v9"
)

// UpdatesChannel is the pub/sub channel balance updates arrive on.
const UpdatesChannel = "credits.updates"

// Reader loads the stored balance for a client, in pence.
type Reader interface {
    Balance(ctx context.Context, clientID string) (int64, error)
}

// update is the wire shape published on the updates channel.
type update struct {
    ClientID     string `json:"client_id"`
    BalancePence int64  `json:"balance_pence"`
}

// Provider caches balances in memory.  Latest write wins; a negative
// balance from any source is clamped to zero because the allocator
// treats credit as non-negative.
type Provider struct {
    mu     sync.RWMutex
    cache  map[string]int64
    reader Reader
}

// NewProvider builds a Provider backed by the given store reader.
func NewProvider(reader Reader) *Provider {
    return &Provider{
        cache:  make(map[string]int64),
        reader: reader,
    }
}

// Balance returns the client's current credit in pence.  The first call
// per client loads from the store; later calls serve the cached value as
// maintained by updates and overwrites.
func (p *Provider) Balance(ctx context.Context, clientID string) (int64, error) {
    p.mu.RLock()
    pence, ok := p.cache[clientID]
    p.mu.RUnlock()
    if ok {
        return pence, nil
    }

    pence, err := p.reader.Balance(ctx, clientID)
    if err != nil {
        return 0, err
    }
    if pence < 0 {
        pence = 0
    }

    p.mu.Lock()
    // Another goroutine may have cached a fresher value while we were
    // reading the store; do not clobber it.
    if cached, ok := p.cache[clientID]; ok {
        pence = cached
    } else {
        p.cache[clientID] = pence
    }
    p.mu.Unlock()
    return pence, nil
}

// Overwrite replaces the cached balance with an authoritative value, as
// echoed by the settlement rail after a deduction.
func (p *Provider) Overwrite(clientID string, balancePence int64) {
    if balancePence < 0 {
        balancePence = 0
    }
    p.mu.Lock()
    p.cache[clientID] = balancePence
    p.mu.Unlock()
}

// apply handles one raw pub/sub payload.  Malformed payloads are logged
// and dropped; one bad publisher must not wedge the subscription.
func (p *Provider) apply(payload string) {
    var u update
    if err := json.Unmarshal([]byte(payload), &u); err != nil {
        log.Printf("credit: dropping malformed update: %v", err)
        return
    }
    if u.ClientID == "" {
        log.Printf("credit: dropping update without client_id")
        return
    }
    p.Overwrite(u.ClientID, u.BalancePence)
}

// Listen subscribes to the updates channel and applies messages until
// the context is cancelled.  Meant to run in its own goroutine; it
// returns once the subscription closes.
func (p *Provider) Listen(ctx context.Context, rdb *redis.Client) {
    if rdb == nil {
        log.Println("credit: redis unavailable, live balance updates disabled")
        return
    }
    sub := rdb.Subscribe(ctx, UpdatesChannel)
    defer sub.Close()

    ch := sub.Channel()
    for {
        select {
        case <-ctx.Done():
            return
        case msg, ok := <-ch:
            if !ok {
                return
            }
            p.apply(msg.Payload)
        }
    }
}

// Publish pushes a balance update onto the channel so every running
// instance (including this one) refreshes its cache.  Used by the admin
// top-up endpoint after writing the new balance to the store.
func Publish(ctx context.Context, rdb *redis.Client, clientID string, balancePence int64) error {
    if rdb == nil {
        return nil
    }
    body, err := json.Marshal(update{ClientID: clientID, BalancePence: balancePence})
    if err != nil {
        return err
    }
    return rdb.Publish(ctx, UpdatesChannel, body).Err()
}
