package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Previous is the cross-cycle memory: the global identifiers seen on
// the last successful cycle. FirstRun is set when no usable state
// existed, which suppresses the new-alert notification storm.
type Previous struct {
	Identifiers []string  `json:"identifiers"`
	UpdatedAt   time.Time `json:"updated_at"`
	FirstRun    bool      `json:"-"`
}

// Contains reports whether id was seen on the previous cycle.
func (p Previous) Contains(id string) bool {
	for _, existing := range p.Identifiers {
		if existing == id {
			return true
		}
	}
	return false
}

// Store persists the previous-cycle identifier set to a user-scoped
// JSON file. Writes are atomic: temp file then rename, so a killed
// process never leaves truncated state behind.
type Store struct {
	path string
	log  zerolog.Logger
}

// NewStore creates a store writing to path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{
		path: path,
		log:  log.With().Str("component", "state").Logger(),
	}
}

// DefaultPath returns the state file location, honoring the
// ROBUSTABAR_STATE_PATH override.
func DefaultPath() (string, error) {
	if p := os.Getenv("ROBUSTABAR_STATE_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "robustabar", "state.json"), nil
}

// Load reads the previous-cycle state. It fails soft: a missing or
// corrupt file yields an empty first-run state, never an error that
// would block the cycle.
func (s *Store) Load() Previous {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("state unreadable, starting fresh")
		}
		return Previous{FirstRun: true}
	}

	var prev Previous
	if err := json.Unmarshal(data, &prev); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("state corrupt, starting fresh")
		return Previous{FirstRun: true}
	}
	return prev
}

// Save atomically replaces the state file with the given identifiers.
func (s *Store) Save(identifiers []string, now time.Time) error {
	if identifiers == nil {
		identifiers = []string{}
	}
	data, err := json.MarshalIndent(Previous{
		Identifiers: identifiers,
		UpdatedAt:   now.UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("swapping state: %w", err)
	}

	s.log.Debug().Int("identifiers", len(identifiers)).Str("path", s.path).Msg("state saved")
	return nil
}
