package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budgetdesk/internal/config"
	"budgetdesk/internal/core"
	"budgetdesk/internal/storage"
)

const testSecret = "backend-test-secret-at-least-32-chars"

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    "/tmp/x.db",
		AutoMigrate:     true,
		JWTSecret:       testSecret,
		CacheTTL:        time.Minute,
		TokenLifetime:   time.Hour,
		GoogleSheetName: "Ledger",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/x.db" || !cfg.AutoMigrate || cfg.JWTSecret != testSecret {
		t.Errorf("unexpected backend config %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}, true},
		{"ledger without credentials", Config{Type: MemoryBackend, GoogleSpreadsheetID: "id"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if got := strings.Join(GetBackendTypeStrings(), ","); got != "sqlite,memory" {
		t.Errorf("GetBackendTypeStrings() = %s", got)
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	content := "suppliers:\n  - name: Northwind Media\n    category: Media\n"
	if err := os.WriteFile(seed, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: seed, MemoryLedger: true})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Broker != nil || res.Budgets != nil {
		t.Error("optional integrations should stay nil when unconfigured")
	}
	if res.Ledger == nil {
		t.Error("memory ledger requested but missing")
	}
	suppliers, err := res.Store.ListSuppliers(ctx)
	if err != nil || len(suppliers) != 1 || suppliers[0].Name != "Northwind Media" {
		t.Fatalf("seed not loaded: %+v %v", suppliers, err)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "budgetdesk.db")

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path, AutoMigrate: true})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if err := res.Store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if version, dirty, err := storage.MigrationVersion(path); err != nil || dirty || version == 0 {
		t.Fatalf("migrations not applied: %d %v %v", version, dirty, err)
	}
}

func TestNewServices(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	if _, err := NewServices(res, Config{JWTSecret: "short"}); err == nil {
		t.Fatal("short secret should be rejected")
	}

	svc, err := NewServices(res, Config{JWTSecret: testSecret, TokenLifetime: time.Hour})
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	svc.StartCacheCleanup(time.Hour)
	defer svc.Close()

	sup := core.Supplier{Name: "Acme Print", Active: true}
	if err := svc.Suppliers.Create(ctx, &sup); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	e := core.Expense{Date: core.NewDate(2025, 2, 3), Description: "Flyers", Amount: core.Cents(5000), Category: "Print", SupplierID: sup.ID}
	if err := svc.Expenses.CreateExpense(ctx, &e); err != nil {
		t.Fatalf("create expense without a broker: %v", err)
	}

	d, err := svc.Dashboard.Dashboard(ctx, 2025)
	if err != nil {
		t.Fatal(err)
	}
	if d.Actual.Cents != 5000 {
		t.Errorf("dashboard actual = %d, want 5000", d.Actual.Cents)
	}
}
