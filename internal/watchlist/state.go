package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Bolsa/internal/model"
)

// State is the persisted preference set.
type State struct {
	HasOnboarded bool                    `json:"has_onboarded"`
	Symbols      []model.Symbol          `json:"watchlist"`
	Names        map[model.Symbol]string `json:"names"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

func (s *State) clone() *State {
	c := &State{
		HasOnboarded: s.HasOnboarded,
		Symbols:      append([]model.Symbol(nil), s.Symbols...),
		Names:        make(map[model.Symbol]string, len(s.Names)),
		UpdatedAt:    s.UpdatedAt,
	}
	for k, v := range s.Names {
		c.Names[k] = v
	}
	return c
}

// Backend persists State.
type Backend interface {
	Load() (*State, error)
	Save(state *State) error
	Close() error
}

// FileBackend stores State as a JSON file.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Load reads the state file. Returns a zero state if the file doesn't exist.
func (b *FileBackend) Load() (*State, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &State{Names: map[model.Symbol]string{}}, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	if state.Names == nil {
		state.Names = map[model.Symbol]string{}
	}
	return &state, nil
}

// Save writes the state file, creating its directory if needed.
func (b *FileBackend) Save(state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(b.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watchlist dir: %w", err)
		}
	}
	return os.WriteFile(b.Path, data, 0o644)
}

func (b *FileBackend) Close() error { return nil }
