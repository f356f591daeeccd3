package models

import (
	"strings"

	"github.com/google/uuid"
)

// DiscoveryRequest is the inbound trigger shared by every entry point.
type DiscoveryRequest struct {
	ProjectID  uuid.UUID              `json:"project_id"`
	Transcript string                 `json:"transcript,omitempty"`
	Summary    string                 `json:"summary,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`

	// Source and UserID are filled by the adapter, never by the payload.
	Source ProvenanceSource `json:"-"`
	UserID string           `json:"-"`
}

// HasText reports whether the request carries any text to classify.
func (r *DiscoveryRequest) HasText() bool {
	return strings.TrimSpace(r.Transcript) != "" || strings.TrimSpace(r.Summary) != ""
}

// FindingSummary is the per-Finding entry of a discovery response.
// ID is the item key.
type FindingSummary struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Status ProtectionStatus `json:"status"`
}

// DiscoveryOutcome is returned to callers after a pass.
type DiscoveryOutcome struct {
	Success      bool             `json:"success"`
	ItemsUpdated int              `json:"items_updated"`
	ItemsSkipped int              `json:"items_skipped"`
	ItemsFailed  int              `json:"items_failed"`
	Findings     []FindingSummary `json:"findings"`

	EvidenceEventID *uuid.UUID `json:"evidence_event_id,omitempty"`
}

// NewDiscoveryOutcome summarizes a reconciliation result.
func NewDiscoveryOutcome(findings []Finding, result *ReconcileResult) *DiscoveryOutcome {
	out := &DiscoveryOutcome{
		Success:  true,
		Findings: make([]FindingSummary, 0, len(findings)),
	}
	for _, f := range findings {
		out.Findings = append(out.Findings, FindingSummary{ID: f.Key, Name: f.Name, Status: f.Status})
	}
	if result != nil {
		out.ItemsUpdated = len(result.Applied)
		out.ItemsSkipped = len(result.Skipped)
		out.ItemsFailed = len(result.Failed)
	}
	return out
}
