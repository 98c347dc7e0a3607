package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flixtrack/flixtrack/internal/config"
	"github.com/flixtrack/flixtrack/internal/types"
)

// Store is the persistence facade handed to the run pipeline. It dials
// MongoDB on first use, so a run that fails before reaching storage
// never needs the database at all.
type Store struct {
	cfg    *config.MongoConfig
	logger *slog.Logger

	mu   sync.Mutex
	repo *Repository
}

// NewStore prepares a lazy MongoDB-backed store. No connection is made
// until the first write.
func NewStore(cfg *config.MongoConfig, logger *slog.Logger) *Store {
	return &Store{cfg: cfg, logger: logger}
}

func (s *Store) repository(ctx context.Context) (*Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		db, err := Acquire(ctx, s.cfg, s.logger)
		if err != nil {
			return nil, err
		}
		s.repo = NewRepository(db, s.cfg, s.logger)
	}
	return s.repo, nil
}

// EnsureIndexes connects if needed and creates the rankings indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	repo, err := s.repository(ctx)
	if err != nil {
		return err
	}
	return repo.EnsureIndexes(ctx)
}

// SaveRankings connects if needed and upserts the batch.
func (s *Store) SaveRankings(ctx context.Context, rankings []types.CountryRanking) (int64, error) {
	repo, err := s.repository(ctx)
	if err != nil {
		return 0, err
	}
	return repo.SaveRankings(ctx, rankings)
}

// SaveRun connects if needed and appends the audit record.
func (s *Store) SaveRun(ctx context.Context, run types.ScrapeRun) error {
	repo, err := s.repository(ctx)
	if err != nil {
		return err
	}
	return repo.SaveRun(ctx, run)
}
