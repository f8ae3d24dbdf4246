package checkpoint

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/ports"
)

// Store persists one JSON market snapshot per category under a fixed
// directory. Losing a checkpoint only degrades resumability, so writes are
// best effort and corrupt files read as absent.
type Store struct {
	dir    string
	logger *slog.Logger
}

var _ ports.CheckpointStore = (*Store)(nil)

// NewStore builds a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Key derives the filesystem-safe checkpoint name for a category.
func Key(category string) string {
	key := strings.ToLower(category)
	key = strings.ReplaceAll(key, " & ", "_")
	key = strings.ReplaceAll(key, " ", "_")
	return key
}

// Save writes the category snapshot. Failures are logged and swallowed.
func (s *Store) Save(category string, markets []domain.Market) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.warn("cannot create checkpoint directory", "dir", s.dir, "error", err)
		return
	}

	data, err := json.MarshalIndent(markets, "", "  ")
	if err != nil {
		s.warn("cannot marshal checkpoint", "category", category, "error", err)
		return
	}

	path := s.path(category)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.warn("cannot write checkpoint", "path", path, "error", err)
		return
	}

	s.debug("checkpoint saved", "path", path, "markets", len(markets))
}

// Load reads the category snapshot. Missing and unparseable files both
// report absent; a load failure is never fatal to a run.
func (s *Store) Load(category string) ([]domain.Market, bool) {
	path := s.path(category)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.warn("cannot read checkpoint", "path", path, "error", err)
		}
		return nil, false
	}

	var markets []domain.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		s.warn("cannot parse checkpoint, category will be reprocessed", "path", path, "error", err)
		return nil, false
	}

	return markets, true
}

func (s *Store) path(category string) string {
	return filepath.Join(s.dir, Key(category)+".json")
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Store) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
