// Package watchlist keeps the user's tracked symbols and their display names.
package watchlist

import (
	"sync"

	"go.uber.org/zap"

	"Bolsa/internal/model"
)

// EventKind says what changed in the watchlist.
type EventKind string

const (
	EventAdded   EventKind = "ADDED"
	EventRemoved EventKind = "REMOVED"
)

// Event describes one watchlist change.
type Event struct {
	Kind   EventKind
	Symbol model.Symbol
}

const subscriberBuffer = 16

// DefaultSymbols seeds the watchlist on first run.
var DefaultSymbols = []struct {
	Symbol model.Symbol
	Name   string
}{
	{"AAPL", "Apple Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"SNAP", "Snap Inc."},
	{"GOOG", "Alphabet"},
	{"AMZN", "Amazon.com, Inc."},
	{"WORK", "Slack Technologies"},
	{"FB", "Facebook Inc."},
	{"NVDA", "Nvidia Inc."},
	{"NKE", "Nike"},
	{"PINS", "Pinterest Inc."},
}

// Store handles watchlist operations with concurrency safety. Every mutation
// is persisted before it is published to subscribers.
type Store struct {
	mu      sync.Mutex
	state   *State
	backend Backend
	logger  *zap.Logger

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewStore creates a Store, loading state from the backend.
func NewStore(backend Backend, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	state, err := backend.Load()
	if err != nil {
		return nil, err
	}
	return &Store{
		state:   state,
		backend: backend,
		logger:  logger,
		subs:    make(map[int]chan Event),
	}, nil
}

// Symbols returns the watchlist. The first call on a fresh store seeds the
// default symbols and marks the store as onboarded.
func (s *Store) Symbols() []model.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.HasOnboarded {
		s.seedDefaults()
	}
	return append([]model.Symbol(nil), s.state.Symbols...)
}

// Contains reports whether symbol is on the watchlist.
func (s *Store) Contains(symbol model.Symbol) bool {
	for _, v := range s.Symbols() {
		if v == symbol {
			return true
		}
	}
	return false
}

// Add appends symbol with its display name. Adding a symbol already present
// only updates its name and publishes nothing. On a failed save the store is
// left unchanged.
func (s *Store) Add(symbol model.Symbol, companyName string) error {
	symbol = model.NewSymbol(string(symbol))
	s.mu.Lock()
	if !s.state.HasOnboarded {
		s.seedDefaults()
	}
	next := s.state.clone()
	exists := false
	for _, v := range next.Symbols {
		if v == symbol {
			exists = true
			break
		}
	}
	if !exists {
		next.Symbols = append(next.Symbols, symbol)
	}
	if companyName != "" {
		next.Names[symbol] = companyName
	}
	err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if !exists {
		s.logger.Info("watchlist symbol added", zap.String("symbol", string(symbol)))
		s.publish(Event{Kind: EventAdded, Symbol: symbol})
	}
	return nil
}

// Remove drops symbol and its display name. On a failed save the store is
// left unchanged.
func (s *Store) Remove(symbol model.Symbol) error {
	symbol = model.NewSymbol(string(symbol))
	s.mu.Lock()
	next := s.state.clone()
	kept := next.Symbols[:0:0]
	removed := false
	for _, v := range next.Symbols {
		if v == symbol {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	next.Symbols = kept
	delete(next.Names, symbol)
	err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if removed {
		s.logger.Info("watchlist symbol removed", zap.String("symbol", string(symbol)))
		s.publish(Event{Kind: EventRemoved, Symbol: symbol})
	}
	return nil
}

// CompanyName returns the stored display name for symbol.
func (s *Store) CompanyName(symbol model.Symbol) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.state.Names[symbol]
	return name, ok
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state.clone()
}

// Subscribe returns a channel of watchlist events and a cancel func that
// closes it. A subscriber that falls behind loses events.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) publish(evt Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			s.logger.Warn("watchlist subscriber full, dropping event",
				zap.Int("subscriber", id),
				zap.String("symbol", string(evt.Symbol)))
		}
	}
}

// seedDefaults must be called with mu held.
func (s *Store) seedDefaults() {
	s.state.HasOnboarded = true
	s.state.Symbols = s.state.Symbols[:0]
	for _, d := range DefaultSymbols {
		s.state.Symbols = append(s.state.Symbols, d.Symbol)
		s.state.Names[d.Symbol] = d.Name
	}
	if err := s.save(); err != nil {
		s.logger.Error("failed to save seeded watchlist", zap.Error(err))
	}
}

func (s *Store) save() error {
	return s.backend.Save(s.state)
}

// commit persists next and only then makes it current. Must be called with mu held.
func (s *Store) commit(next *State) error {
	if err := s.backend.Save(next); err != nil {
		return err
	}
	s.state = next
	return nil
}
