package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flixtrack/flixtrack/internal/config"
	"github.com/flixtrack/flixtrack/internal/types"
)

// Repository wraps the two collections: weekly rankings, which are
// upserted, and scrape runs, which are only ever appended.
type Repository struct {
	rankings *mongo.Collection
	runs     *mongo.Collection
	logger   *slog.Logger
}

// NewRepository binds the repository to the configured collections.
func NewRepository(db *mongo.Database, cfg *config.MongoConfig, logger *slog.Logger) *Repository {
	return &Repository{
		rankings: db.Collection(cfg.RankingsCollection),
		runs:     db.Collection(cfg.RunsCollection),
		logger:   logger.With("component", "repository"),
	}
}

// EnsureIndexes creates the compound unique index that makes re-runs
// idempotent: one document per (week, country, category).
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "week", Value: 1},
			{Key: "country", Value: 1},
			{Key: "category", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetName("week_country_category_unique"),
	}

	if _, err := r.rankings.Indexes().CreateOne(ctx, index); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("create indexes: %w", err)}
	}
	r.logger.Info("ensured indexes on rankings collection")
	return nil
}

// SaveRankings upserts all rankings in one unordered bulk write. It
// returns how many documents were inserted or modified; a document
// rewritten with identical content counts as neither.
func (r *Repository) SaveRankings(ctx context.Context, rankings []types.CountryRanking) (int64, error) {
	if len(rankings) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, len(rankings))
	for i, ranking := range rankings {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.D{
				{Key: "week", Value: ranking.Week},
				{Key: "country", Value: ranking.Country},
				{Key: "category", Value: ranking.Category},
			}).
			SetUpdate(bson.M{"$set": ranking}).
			SetUpsert(true)
	}

	result, err := r.rankings.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("bulk write: %w", err)}
	}

	saved := result.UpsertedCount + result.ModifiedCount
	r.logger.Info("saved rankings",
		"saved", saved,
		"upserted", result.UpsertedCount,
		"modified", result.ModifiedCount,
	)
	return saved, nil
}

// SaveRun appends one audit record for this invocation.
func (r *Repository) SaveRun(ctx context.Context, run types.ScrapeRun) error {
	if _, err := r.runs.InsertOne(ctx, run); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert run: %w", err)}
	}
	r.logger.Info("saved scrape run", "run_id", run.RunID)
	return nil
}
