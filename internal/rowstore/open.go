package rowstore

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/gymtracker/internal/config"
	"github.com/2beens/gymtracker/internal/db"
	"github.com/2beens/gymtracker/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	htransport "google.golang.org/api/transport/http"
)

// Backend is an opened row store with the resources behind it.
type Backend struct {
	Store Store
	// Pool is set only for the postgres backend.
	Pool    *pgxpool.Pool
	closers []io.Closer
}

func (b *Backend) Close() error {
	var err error
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i].Close())
	}
	return err
}

type poolCloser struct {
	pool *pgxpool.Pool
}

func (c poolCloser) Close() error {
	c.pool.Close()
	return nil
}

// Open builds the row store selected by cfg.RowStore. Configuration tables are
// wrapped in a read-through cache.
func Open(ctx context.Context, cfg *config.Config, secrets *config.Secrets, tracingEnabled bool) (*Backend, error) {
	backend := &Backend{}

	var inner Store
	switch cfg.RowStore {
	case config.RowStoreSheets:
		opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
		if secrets.SheetsCredentialsJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(secrets.SheetsCredentialsJSON)))
		} else {
			exists, err := pkg.PathExists(secrets.SheetsCredentialsFile, false)
			if err != nil {
				return nil, fmt.Errorf("sheets credentials file: %w", err)
			}
			if !exists {
				return nil, fmt.Errorf("sheets credentials file %s not found", secrets.SheetsCredentialsFile)
			}
			opts = append(opts, option.WithCredentialsFile(secrets.SheetsCredentialsFile))
		}
		if tracingEnabled {
			transport, err := htransport.NewTransport(ctx, otelhttp.NewTransport(http.DefaultTransport), opts...)
			if err != nil {
				return nil, fmt.Errorf("sheets traced transport: %w", err)
			}
			opts = []option.ClientOption{option.WithHTTPClient(&http.Client{Transport: transport})}
		}
		s, err := NewSheetsStore(ctx, cfg.SheetsSpreadsheetID, opts...)
		if err != nil {
			return nil, err
		}
		inner = s
	case config.RowStorePostgres:
		pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     secrets.PostgresPassword,
			TracingEnabled: tracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnection, err)
		}
		backend.Pool = pool
		backend.closers = append(backend.closers, poolCloser{pool: pool})

		s := NewPsqlStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		inner = s
	case config.RowStoreBadger:
		s, err := NewBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		backend.closers = append(backend.closers, s)
		inner = s
	case config.RowStoreMemory:
		inner = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown row store: %s", cfg.RowStore)
	}

	log.Infof("row store backend: %s", cfg.RowStore)
	backend.Store = NewCachedStore(inner, cfg.ConfigCacheTTL(), TableExercises, TableRoutines)
	return backend, nil
}

// EnsureTables creates every table the service appends to. Failures are
// collected, so one missing permission does not hide the others.
func EnsureTables(ctx context.Context, s Store, logTable string) error {
	tables := []struct {
		name   string
		header []string
	}{
		{TableUsers, UsersHeader},
		{logTable, LogHeader},
		{TableExercises, ExercisesHeader},
		{TableRoutines, RoutinesHeader},
	}

	var err error
	for _, t := range tables {
		if ensureErr := s.EnsureTable(ctx, t.name, t.header); ensureErr != nil {
			err = multierr.Append(err, fmt.Errorf("ensure table %s: %w", t.name, ensureErr))
		}
	}
	return err
}
