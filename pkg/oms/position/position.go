package position

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrNegativeQuantity     = errors.New("quantity must not be negative")
)

type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Seed is an opening balance loaded from config.
type Seed struct {
	Owner    string          `yaml:"owner"`
	Symbol   string          `yaml:"symbol"`
	Quantity decimal.Decimal `yaml:"quantity"`
}

// Manager tracks how much of each symbol an owner holds.
type Manager struct {
	mu        sync.RWMutex
	positions map[string]map[string]decimal.Decimal // owner -> symbol -> qty
}

func NewManager(seeds ...Seed) *Manager {
	m := &Manager{positions: make(map[string]map[string]decimal.Decimal)}
	for _, s := range seeds {
		m.set(s.Owner, s.Symbol, s.Quantity)
	}
	return m
}

func (m *Manager) Position(owner, symbol string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.positions[owner][symbol]
}

// Positions lists the non-zero holdings of owner sorted by symbol.
func (m *Manager) Positions(owner string) []Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Position{}
	for symbol, qty := range m.positions[owner] {
		if qty.IsPositive() {
			out = append(out, Position{Symbol: symbol, Quantity: qty})
		}
	}
	slices.SortFunc(out, func(a, b Position) int { return strings.Compare(a.Symbol, b.Symbol) })
	return out
}

// Credit adds qty to the holding.
func (m *Manager) Credit(owner, symbol string, qty decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.set(owner, symbol, m.positions[owner][symbol].Add(qty))
}

// Debit removes qty from the holding. The check and the update are atomic, so
// two concurrent sells cannot both spend the same balance.
func (m *Manager) Debit(owner, symbol string, qty decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.positions[owner][symbol]
	if current.LessThan(qty) {
		return ErrInsufficientPosition
	}
	m.set(owner, symbol, current.Sub(qty))
	return nil
}

// SetPosition overwrites the holding.
func (m *Manager) SetPosition(owner, symbol string, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return ErrNegativeQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.set(owner, symbol, qty)
	return nil
}

func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions = make(map[string]map[string]decimal.Decimal)
}

func (m *Manager) set(owner, symbol string, qty decimal.Decimal) {
	held, ok := m.positions[owner]
	if !ok {
		held = make(map[string]decimal.Decimal)
		m.positions[owner] = held
	}
	held[symbol] = qty
}
