package models

import (
	"time"

	"gorm.io/datatypes"
)

// Vendor is a configured upstream proxy provider. Credentials and default
// headers are stored as JSON because their shape depends on the auth type.
type Vendor struct {
	ID string `gorm:"primaryKey;type:text"` // Opaque vendor identifier.

	Name    string `gorm:"type:text;not null"`        // Display name.
	Slug    string `gorm:"type:text;not null;index"`  // Adapter selector.
	Enabled bool   `gorm:"not null;default:true"`     // Participates in sync when true.

	AuthType       string         `gorm:"type:text;not null"` // Authentication strategy.
	TokenEndpoint  string         `gorm:"type:text"`          // Credential acquisition endpoint.
	APIBaseURL     string         `gorm:"type:text"`          // Usage API base URL.
	Credentials    datatypes.JSON `gorm:"type:jsonb"`         // Auth-type-specific secret bundle.
	DefaultHeaders datatypes.JSON `gorm:"type:jsonb"`         // Headers attached to every request.
	TokenTTLField  string         `gorm:"type:text"`          // Token response field carrying the TTL.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
