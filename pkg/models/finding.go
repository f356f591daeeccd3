package models

import "github.com/google/uuid"

// Finding is a classifier-produced candidate status for one protection-item
// category. Findings are never persisted directly.
type Finding struct {
	Key      string           `json:"item_key"`
	Name     string           `json:"item_name"`
	Category string           `json:"item_type"`
	Status   ProtectionStatus `json:"status"`
	Notes    string           `json:"notes,omitempty"`
}

// ToProtectionItem builds the row a Finding creates when no item exists yet.
func (f Finding) ToProtectionItem(projectID uuid.UUID) *ProtectionItem {
	return &ProtectionItem{
		ProjectID: projectID,
		ItemType:  f.Key,
		ItemName:  f.Name,
		Category:  f.Category,
		Status:    f.Status,
		Notes:     f.Notes,
	}
}

// AppliedItem is a Finding that created or upgraded a row.
type AppliedItem struct {
	Finding Finding         `json:"finding"`
	Item    *ProtectionItem `json:"item"`
	Outcome UpsertOutcome   `json:"outcome"`
}

// SkippedFinding is a Finding that was not more urgent than the stored status.
// Current carries the untouched row for context.
type SkippedFinding struct {
	Finding Finding         `json:"finding"`
	Current *ProtectionItem `json:"current,omitempty"`
}

// FailedFinding is a Finding whose write failed.
type FailedFinding struct {
	Finding Finding `json:"finding"`
	Err     error   `json:"-"`
}

// ReconcileResult collects per-Finding outcomes of one reconciliation pass.
type ReconcileResult struct {
	Applied []AppliedItem    `json:"applied"`
	Skipped []SkippedFinding `json:"skipped"`
	Failed  []FailedFinding  `json:"failed"`
}
