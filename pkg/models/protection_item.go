package models

import (
	"time"

	"github.com/google/uuid"
)

// ProtectionStatus is the state of one IP-protection task.
type ProtectionStatus string

// Protection status values. Lower priority numbers are more urgent.
const (
	StatusCritical   ProtectionStatus = "critical"
	StatusAtRisk     ProtectionStatus = "at_risk"
	StatusPending    ProtectionStatus = "pending"
	StatusInProgress ProtectionStatus = "in_progress"
	StatusProtected  ProtectionStatus = "protected"
	StatusRegistered ProtectionStatus = "registered"
	StatusNotStarted ProtectionStatus = "not_started"
)

// UnknownStatusPriority ranks values outside the enumeration below every known status.
const UnknownStatusPriority = 99

var statusPriority = map[ProtectionStatus]int{
	StatusCritical:   1,
	StatusAtRisk:     2,
	StatusPending:    3,
	StatusInProgress: 4,
	StatusProtected:  5,
	StatusRegistered: 5,
	StatusNotStarted: 6,
}

// AllStatuses lists the enumeration in priority order.
func AllStatuses() []ProtectionStatus {
	return []ProtectionStatus{
		StatusCritical,
		StatusAtRisk,
		StatusPending,
		StatusInProgress,
		StatusProtected,
		StatusRegistered,
		StatusNotStarted,
	}
}

// Priority returns the urgency rank of a status (1 = most urgent).
// Must stay in sync with protection_status_priority() in migrations.
func (s ProtectionStatus) Priority() int {
	if p, ok := statusPriority[s]; ok {
		return p
	}
	return UnknownStatusPriority
}

// IsValid returns true if the status is part of the enumeration.
func (s ProtectionStatus) IsValid() bool {
	_, ok := statusPriority[s]
	return ok
}

// String returns the string representation of a ProtectionStatus.
func (s ProtectionStatus) String() string {
	return string(s)
}

// ShouldUpgrade reports whether an automated pass may move an item from
// current to next. Status only ever moves toward more urgent.
func ShouldUpgrade(current, next ProtectionStatus) bool {
	return next.Priority() < current.Priority()
}

// ProtectionItem is one tracked IP-protection task for a project.
// Stored in the protection_items table, unique on (project_id, item_type).
type ProtectionItem struct {
	ID        uuid.UUID        `json:"id"`
	ProjectID uuid.UUID        `json:"project_id"`
	ItemType  string           `json:"item_type"` // stable key, e.g. "company_name_tm"
	ItemName  string           `json:"item_name"`
	Category  string           `json:"category"`
	Status    ProtectionStatus `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// UpsertOutcome describes what a conditional write did to a row.
type UpsertOutcome string

const (
	OutcomeCreated   UpsertOutcome = "created"
	OutcomeUpgraded  UpsertOutcome = "upgraded"
	OutcomeUnchanged UpsertOutcome = "unchanged"
)
