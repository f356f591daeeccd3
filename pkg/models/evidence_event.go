package models

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceEventTypeVoiceDiscovery is the event type written for every
// discovery pass regardless of entry point.
const EvidenceEventTypeVoiceDiscovery = "voice_discovery"

// EvidenceEvent is an append-only audit record of a discovery session.
// Stored in the evidence_events table.
type EvidenceEvent struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	EventType   string    `json:"event_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	Metadata    JSONBMap  `json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
}
