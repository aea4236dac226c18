package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
)

// Migrate runs auto-migration for all application models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	targets := []any{
		&models.Vendor{},
		&models.Customer{},
		&models.CustomerRate{},
		&models.BillingDetail{},
		&models.Invoice{},
		&models.CustomerPayment{},
		&models.Service{},
		&models.CustomerVendorService{},
		&models.SupportTicket{},
		&models.UsageSnapshot{},
	}
	if errMigrate := conn.AutoMigrate(targets...); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
