package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/comandapos/comanda-backend/pkg/migrate"
)

func TestMigrationsValidate(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migration validation failed: %v", err)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE orders",
		"CREATE UNIQUE INDEX ux_orders_open_table",
		"WHERE status NOT IN ('completed', 'cancelled')",
		"CREATE TABLE order_items",
		"DROP TABLE order_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestBillRequestsMigrationHasActiveIndex(t *testing.T) {
	content := readMigration(t, "*_create_bill_requests.sql")

	checks := []string{
		"CREATE TABLE bill_requests",
		"CREATE UNIQUE INDEX ux_bill_requests_active_table",
		"WHERE status IN ('pending', 'in_progress')",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_catalog.sql")

	if !strings.Contains(content, "ck_products_stock_non_negative CHECK (stock >= 0)") {
		t.Errorf("missing non-negative stock check")
	}
}
