package position

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestManager_CreditDebit(t *testing.T) {
	m := NewManager()
	assert.True(t, m.Position("alice", "AAPL").IsZero())
	assert.ErrorIs(t, m.Debit("alice", "AAPL", d("1")), ErrInsufficientPosition)

	m.Credit("alice", "AAPL", d("10"))
	assert.ErrorIs(t, m.Debit("alice", "AAPL", d("10.00000001")), ErrInsufficientPosition)
	assert.True(t, m.Position("alice", "AAPL").Equal(d("10")))

	require.NoError(t, m.Debit("alice", "AAPL", d("4")))
	assert.True(t, m.Position("alice", "AAPL").Equal(d("6")))

	err := m.Debit("alice", "AAPL", d("7"))
	assert.ErrorIs(t, err, ErrInsufficientPosition)
	assert.True(t, m.Position("alice", "AAPL").Equal(d("6")))
}

func TestManager_SeedsAndPositions(t *testing.T) {
	m := NewManager(
		Seed{Owner: "bob", Symbol: "MSFT", Quantity: d("5")},
		Seed{Owner: "bob", Symbol: "AAPL", Quantity: d("1.5")},
		Seed{Owner: "bob", Symbol: "TSLA", Quantity: d("0")},
	)

	got := m.Positions("bob")
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.True(t, got[0].Quantity.Equal(d("1.5")))
	assert.Equal(t, "MSFT", got[1].Symbol)

	assert.Empty(t, m.Positions("nobody"))
	assert.NotNil(t, m.Positions("nobody"))
}

func TestManager_SetPositionAndReset(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetPosition("carol", "AAPL", d("3")))
	assert.True(t, m.Position("carol", "AAPL").Equal(d("3")))

	assert.ErrorIs(t, m.SetPosition("carol", "AAPL", d("-1")), ErrNegativeQuantity)
	assert.True(t, m.Position("carol", "AAPL").Equal(d("3")))

	m.Reset()
	assert.True(t, m.Position("carol", "AAPL").IsZero())
}

func TestManager_ConcurrentDebitNeverOverspends(t *testing.T) {
	m := NewManager(Seed{Owner: "dave", Symbol: "AAPL", Quantity: d("100")})

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Debit("dave", "AAPL", d("1")) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, ok)
	assert.True(t, m.Position("dave", "AAPL").IsZero())
}
