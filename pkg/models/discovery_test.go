package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryRequest_HasText(t *testing.T) {
	assert.False(t, (&DiscoveryRequest{}).HasText())
	assert.False(t, (&DiscoveryRequest{Transcript: "  \n", Summary: "\t"}).HasText())
	assert.True(t, (&DiscoveryRequest{Transcript: "hello"}).HasText())
	assert.True(t, (&DiscoveryRequest{Summary: "hello"}).HasText())
}

func TestNewDiscoveryOutcome(t *testing.T) {
	findings := []Finding{
		{Key: "domain", Name: "Domain Name", Status: StatusAtRisk},
		{Key: "nda", Name: "NDA Templates", Status: StatusProtected},
		{Key: "logo_tm", Name: "Logo Trademark", Status: StatusPending},
	}
	result := &ReconcileResult{
		Applied: []AppliedItem{{Finding: findings[0], Outcome: OutcomeCreated}},
		Skipped: []SkippedFinding{{Finding: findings[1]}},
		Failed:  []FailedFinding{{Finding: findings[2], Err: errors.New("boom")}},
	}

	out := NewDiscoveryOutcome(findings, result)

	assert.True(t, out.Success)
	assert.Equal(t, 1, out.ItemsUpdated)
	assert.Equal(t, 1, out.ItemsSkipped)
	assert.Equal(t, 1, out.ItemsFailed)
	require.Len(t, out.Findings, 3)
	assert.Equal(t, FindingSummary{ID: "domain", Name: "Domain Name", Status: StatusAtRisk}, out.Findings[0])
}

func TestNewDiscoveryOutcome_NoFindings(t *testing.T) {
	out := NewDiscoveryOutcome(nil, &ReconcileResult{})

	assert.True(t, out.Success)
	assert.Equal(t, 0, out.ItemsUpdated)
	assert.NotNil(t, out.Findings, "findings should encode as [] not null")
	assert.Empty(t, out.Findings)
}

func TestProject_IsOwnedBy_Discovery(t *testing.T) {
	p := &Project{OwnerID: "user-1"}
	assert.True(t, p.IsOwnedBy("user-1"))
	assert.False(t, p.IsOwnedBy("user-2"))
	assert.True(t, p.IsOwnedBy(""), "system callers bypass ownership")
}
