package backend

import (
	"context"
	"time"

	"budgetdesk/internal/amqp"
	"budgetdesk/internal/sheets"
	"budgetdesk/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the infrastructure a process runs on. Broker, Ledger
// and Budgets are nil when their integration is not configured.
type BackendResult struct {
	Store   store.Store
	Broker  *amqp.Client
	Ledger  sheets.Ledger
	Budgets sheets.BudgetReader
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AutoMigrate  bool

	// Memory specific
	SeedFile string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// MemoryLedger substitutes an in-process ledger when Google is not
	// configured, so the sync worker can run locally.
	MemoryLedger bool

	CacheTTL      time.Duration
	JWTSecret     string
	TokenLifetime time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
