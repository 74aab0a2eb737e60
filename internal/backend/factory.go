package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetdesk/internal/amqp"
	gsheet "budgetdesk/internal/sheets/google"
	sheetsmem "budgetdesk/internal/sheets/memory"
	"budgetdesk/internal/storage"
	"budgetdesk/internal/store"
	"budgetdesk/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the store and the optional broker and ledger. On error
// everything opened so far is closed.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	res := &BackendResult{Store: st}

	// The broker is optional: without it the sync worker's backfill still
	// delivers every change, only later.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
		} else {
			res.Broker = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	switch {
	case config.GoogleSpreadsheetID != "":
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			LedgerSheet:     config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			_ = res.close()
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		res.Ledger = cli
		res.Budgets = cli
		f.logger.Info("Initialized Google Sheets ledger", "spreadsheet_id", config.GoogleSpreadsheetID)
	case config.MemoryLedger:
		res.Ledger = sheetsmem.New()
		f.logger.Info("Using in-memory ledger")
	}

	res.Cleanup = res.close
	return res, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.OpenSQLiteRepository(config.SQLiteDBPath, config.AutoMigrate)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"auto_migrate", config.AutoMigrate)
		return repo, nil

	case MemoryBackend:
		if config.SeedFile == "" {
			f.logger.Info("Initialized empty memory backend")
			return memory.New(), nil
		}
		s, err := memory.NewFromFile(ctx, config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (r *BackendResult) close() error {
	var errs []error
	if r.Broker != nil {
		errs = append(errs, r.Broker.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}
