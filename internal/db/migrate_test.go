package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesVendorTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{"vendors", "customers", "customer_rates", "billing_details", "invoices", "customer_payments", "services", "customer_vendor_services", "support_tickets", "usage_snapshots"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestMigrateSQLiteVendorColumns(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, column := range []string{"auth_type", "token_endpoint", "api_base_url", "credentials", "default_headers"} {
		if !conn.Migrator().HasColumn("vendors", column) {
			t.Fatalf("vendors missing column %s", column)
		}
	}
}

func TestMigrateBackfillsExistingCustomersTable(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errExec := conn.Exec(`
		CREATE TABLE customers (
			id integer primary key autoincrement,
			email text not null unique,
			customer_name text,
			created_at datetime,
			updated_at datetime
		)
	`).Error; errExec != nil {
		t.Fatalf("create legacy customers table: %v", errExec)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, column := range []string{"role", "password", "vendor_id", "subuser_id", "service"} {
		if !conn.Migrator().HasColumn("customers", column) {
			t.Fatalf("customers missing column %s after backfill migration", column)
		}
	}
}
