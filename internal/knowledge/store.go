package knowledge

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/campus-assistant/backend/pkg/logger"
)

// Store holds the current knowledge base. Reload swaps the whole snapshot,
// readers never see a partially loaded table.
type Store struct {
	dir     string
	current atomic.Pointer[Base]
}

func NewStore(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Base() *Base {
	return s.current.Load()
}

// ErrNoLocations is returned when no location survives pruning.
var ErrNoLocations = errors.New("knowledge base has no usable locations")

// Reload reads the knowledge base and drops broken records with a warning.
// It fails only on unreadable files or when no location is left; the
// previous snapshot then stays in place.
func (s *Store) Reload() (*Base, error) {
	base, err := LoadDir(s.dir)
	if err != nil {
		return nil, err
	}
	for _, problem := range base.Prune() {
		logger.Warn("Skipping knowledge record", zap.Error(problem))
	}
	if len(base.Locations) == 0 {
		return nil, fmt.Errorf("invalid knowledge base: %w", ErrNoLocations)
	}

	s.current.Store(base)
	logger.Info("Knowledge base loaded",
		zap.Int("locations", len(base.Locations)),
		zap.Int("routes", len(base.Routes)),
		zap.Int("qa_entries", len(base.QA)),
		zap.Int("faqs", len(base.FAQs)),
		zap.Int("categories", len(base.Categories)),
	)
	return base, nil
}
