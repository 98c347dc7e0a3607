package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flixtrack/flixtrack/internal/types"
)

// ExportJSONL writes rankings as newline-delimited JSON, one document
// per line. Dry runs use this instead of MongoDB so a scheduled job
// can be rehearsed without database credentials.
func ExportJSONL(path string, rankings []types.CountryRanking, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, ranking := range rankings {
		if err := enc.Encode(ranking); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
	}

	logger.Info("JSONL written", "path", path, "rankings", len(rankings))
	return nil
}
