package credit

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

type stubReader struct {
    balances map[string]int64
    err      error
    loads    int
}

func (s *stubReader) Balance(_ context.Context, clientID string) (int64, error) {
    s.loads++
    if s.err != nil {
        return 0, s.err
    }
    return s.balances[clientID], nil
}

func TestBalanceLoadsOnceThenCaches(t *testing.T) {
    reader := &stubReader{balances: map[string]int64{"42": 800}}
    p := NewProvider(reader)

    pence, err := p.Balance(context.Background(), "42")
    require.NoError(t, err)
    assert.Equal(t, int64(800), pence)

    // Mutate the store; the cached value must win.
    reader.balances["42"] = 0
    pence, err = p.Balance(context.Background(), "42")
    require.NoError(t, err)
    assert.Equal(t, int64(800), pence)
    assert.Equal(t, 1, reader.loads)
}

func TestBalanceAbsentClientIsZero(t *testing.T) {
    p := NewProvider(&stubReader{balances: map[string]int64{}})
    pence, err := p.Balance(context.Background(), "nope")
    require.NoError(t, err)
    assert.Zero(t, pence)
}

func TestBalanceStoreError(t *testing.T) {
    p := NewProvider(&stubReader{err: errors.New("db down")})
    _, err := p.Balance(context.Background(), "42")
    assert.Error(t, err)
}

func TestOverwriteWinsOverStore(t *testing.T) {
    reader := &stubReader{balances: map[string]int64{"42": 800}}
    p := NewProvider(reader)

    p.Overwrite("42", 300)
    pence, err := p.Balance(context.Background(), "42")
    require.NoError(t, err)
    assert.Equal(t, int64(300), pence)
    assert.Zero(t, reader.loads, "overwrite seeds the cache, no store read needed")
}

func TestOverwriteClampsNegative(t *testing.T) {
    p := NewProvider(&stubReader{})
    p.Overwrite("42", -50)
    pence, err := p.Balance(context.Background(), "42")
    require.NoError(t, err)
    assert.Zero(t, pence)
}

func TestApplyUpdatePayloads(t *testing.T) {
    p := NewProvider(&stubReader{})

    p.apply(`{"client_id":"42","balance_pence":1200}`)
    pence, err := p.Balance(context.Background(), "42")
    require.NoError(t, err)
    assert.Equal(t, int64(1200), pence)

    // Latest wins.
    p.apply(`{"client_id":"42","balance_pence":700}`)
    pence, _ = p.Balance(context.Background(), "42")
    assert.Equal(t, int64(700), pence)

    // Malformed or anonymous payloads are dropped without effect.
    p.apply(`not json`)
    p.apply(`{"balance_pence":999}`)
    pence, _ = p.Balance(context.Background(), "42")
    assert.Equal(t, int64(700), pence)
}
