// Package factory opens the survey store selected by configuration.
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/config"
	"github.com/mamadbah2/bapokting/internal/repository"
	"github.com/mamadbah2/bapokting/internal/repository/postgrest"
	"github.com/mamadbah2/bapokting/internal/repository/sqlstore"
	client "github.com/mamadbah2/bapokting/pkg/clients/postgrest"
)

// Open returns the store for cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverPostgREST:
		return postgrest.NewStore(client.NewClient(cfg), logger), nil
	case config.DriverPostgres, config.DriverSQLite:
		store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
