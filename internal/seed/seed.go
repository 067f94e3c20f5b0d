// Package seed loads commodity and market reference rows from a YAML file
// into the configured store.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/repository"
)

// File is the document layout of a seed file.
type File struct {
	Commodities []models.Commodity `yaml:"commodities"`
	Markets     []models.Market    `yaml:"markets"`
}

// Summary counts what one Apply call wrote and skipped.
type Summary struct {
	CommoditiesCreated int
	CommoditiesSkipped int
	MarketsCreated     int
	MarketsSkipped     int
}

// Load reads a seed file from path.
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a seed document and rejects entries without a name.
func Decode(r io.Reader) (File, error) {
	var doc File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}

	for i, c := range doc.Commodities {
		if strings.TrimSpace(c.Name) == "" {
			return File{}, fmt.Errorf("commodity #%d has no name", i+1)
		}
	}
	for i, m := range doc.Markets {
		if strings.TrimSpace(m.Name) == "" {
			return File{}, fmt.Errorf("market #%d has no name", i+1)
		}
	}
	return doc, nil
}

// Apply inserts every entry whose name is not already present. Names compare
// case-insensitively, so re-running a seed is a no-op.
func Apply(ctx context.Context, store repository.ReferenceStore, doc File, dryRun bool, logger *zap.Logger) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var sum Summary

	commodities, err := store.ListCommodities(ctx)
	if err != nil {
		return sum, fmt.Errorf("list commodities: %w", err)
	}
	seen := make(map[string]bool, len(commodities))
	for _, c := range commodities {
		seen[nameKey(c.Name)] = true
	}
	for _, c := range doc.Commodities {
		key := nameKey(c.Name)
		if seen[key] {
			sum.CommoditiesSkipped++
			continue
		}
		seen[key] = true
		if !dryRun {
			c.ID = ""
			if _, err := store.CreateCommodity(ctx, c); err != nil {
				return sum, fmt.Errorf("create commodity %q: %w", c.Name, err)
			}
		}
		logger.Info("commodity seeded", zap.String("name", c.Name), zap.Bool("dry_run", dryRun))
		sum.CommoditiesCreated++
	}

	markets, err := store.ListMarkets(ctx, false)
	if err != nil {
		return sum, fmt.Errorf("list markets: %w", err)
	}
	seen = make(map[string]bool, len(markets))
	for _, m := range markets {
		seen[nameKey(m.Name)] = true
	}
	for _, m := range doc.Markets {
		key := nameKey(m.Name)
		if seen[key] {
			sum.MarketsSkipped++
			continue
		}
		seen[key] = true
		if !dryRun {
			m.ID = ""
			if _, err := store.CreateMarket(ctx, m); err != nil {
				return sum, fmt.Errorf("create market %q: %w", m.Name, err)
			}
		}
		logger.Info("market seeded", zap.String("name", m.Name), zap.Bool("dry_run", dryRun))
		sum.MarketsCreated++
	}

	return sum, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
