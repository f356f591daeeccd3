// Package models contains domain types for LaunchReady.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Project represents a founder's project. Projects are created by the web
// app; this service only reads them and flips DiscoveryCompleted.
type Project struct {
	ID                 uuid.UUID `json:"id"`
	OwnerID            string    `json:"owner_id"`
	Name               string    `json:"name"`
	DiscoveryCompleted bool      `json:"discovery_completed"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether userID owns the project.
// An empty userID means the caller is a trusted system integration.
func (p *Project) IsOwnedBy(userID string) bool {
	if userID == "" {
		return true
	}
	return p.OwnerID == userID
}

// JSONBMap is a map type that handles PostgreSQL JSONB serialization.
type JSONBMap map[string]interface{}

// Value implements driver.Valuer for database serialization.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for database deserialization.
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONBMap", value)
	}
}
