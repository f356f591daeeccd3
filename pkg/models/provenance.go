package models

import (
	"context"
)

// ProvenanceSource identifies which entry point triggered a discovery pass.
type ProvenanceSource string

const (
	SourceVoiceWebhook ProvenanceSource = "voice_webhook" // post-call callback from the voice provider
	SourceDiscoveryAPI ProvenanceSource = "discovery_api" // authenticated in-app save-discovery call
	SourceMCP          ProvenanceSource = "mcp"           // chat agent via MCP tools
	SourceCLI          ProvenanceSource = "cli"           // operator command line
)

// String returns the string representation of a ProvenanceSource.
func (s ProvenanceSource) String() string {
	return string(s)
}

// IsValid returns true if the source is a valid provenance source.
func (s ProvenanceSource) IsValid() bool {
	switch s {
	case SourceVoiceWebhook, SourceDiscoveryAPI, SourceMCP, SourceCLI:
		return true
	default:
		return false
	}
}

// ProvenanceContext carries source and actor information through operations.
type ProvenanceContext struct {
	Source ProvenanceSource

	// UserID is the JWT subject of the caller. Empty for webhook and CLI passes.
	UserID string
}

type provenanceKey struct{}

// WithProvenance returns a new context with provenance information attached.
func WithProvenance(ctx context.Context, p ProvenanceContext) context.Context {
	return context.WithValue(ctx, provenanceKey{}, p)
}

// GetProvenance retrieves provenance information from the context.
// Returns the provenance context and true if present, otherwise a zero value and false.
func GetProvenance(ctx context.Context) (ProvenanceContext, bool) {
	p, ok := ctx.Value(provenanceKey{}).(ProvenanceContext)
	return p, ok
}
