package watchlist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"Bolsa/internal/model"
)

const (
	keyOnboarded  = "hasOnboarded"
	keyWatchlist  = "watchlist"
	keyUpdatedAt  = "updatedAt"
	namePrefix    = "name:"
	preferenceDDL = `CREATE TABLE IF NOT EXISTS preferences (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
)

// SQLiteBackend stores State as flat key/value rows: the watchlist under one
// key, the onboarding flag under another, and one row per display name.
type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteBackend opens (or creates) the database and its table.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(preferenceDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load() (*State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.db.Query(`SELECT key, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	state := &State{Names: map[model.Symbol]string{}}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		switch {
		case key == keyOnboarded:
			state.HasOnboarded = value == "true"
		case key == keyWatchlist:
			if err := json.Unmarshal([]byte(value), &state.Symbols); err != nil {
				return nil, fmt.Errorf("decode watchlist: %w", err)
			}
		case key == keyUpdatedAt:
			if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
				state.UpdatedAt = ts
			}
		case strings.HasPrefix(key, namePrefix):
			state.Names[model.Symbol(strings.TrimPrefix(key, namePrefix))] = value
		}
	}
	return state, rows.Err()
}

// Save replaces every stored preference with state in one transaction.
func (b *SQLiteBackend) Save(state *State) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	state.UpdatedAt = time.Now()
	symbols, err := json.Marshal(state.Symbols)
	if err != nil {
		return err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM preferences`); err != nil {
		return fmt.Errorf("clear preferences: %w", err)
	}
	put := func(key, value string) error {
		_, err := tx.Exec(`INSERT INTO preferences (key, value) VALUES (?, ?)`, key, value)
		return err
	}
	onboarded := "false"
	if state.HasOnboarded {
		onboarded = "true"
	}
	if err := put(keyOnboarded, onboarded); err != nil {
		return fmt.Errorf("save onboarded flag: %w", err)
	}
	if err := put(keyWatchlist, string(symbols)); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	if err := put(keyUpdatedAt, state.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save timestamp: %w", err)
	}
	for sym, name := range state.Names {
		if err := put(namePrefix+string(sym), name); err != nil {
			return fmt.Errorf("save name %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
