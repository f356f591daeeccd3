package discovery

import (
	"strings"

	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// Classifier maps conversational text to protection-item Findings.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	catalog *Catalog
}

// NewClassifier creates a classifier labelling Findings from catalog.
// A nil catalog uses the embedded default.
func NewClassifier(catalog *Catalog) *Classifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Classifier{catalog: catalog}
}

// Catalog returns the catalog used for labels.
func (c *Classifier) Catalog() *Catalog {
	return c.catalog
}

// Classify returns at most one Finding per category, in scan order.
// Text is lower-cased here; callers pass it as received.
func (c *Classifier) Classify(text string) []models.Finding {
	haystack := strings.ToLower(text)
	if strings.TrimSpace(haystack) == "" {
		return []models.Finding{}
	}

	findings := make([]models.Finding, 0, 4)
	for _, r := range rules {
		if !containsAny(haystack, r.triggers...) {
			continue
		}
		status, notes := r.decide(haystack)
		findings = append(findings, c.finding(r.key, status, notes))
	}
	return findings
}

func (c *Classifier) finding(key string, status models.ProtectionStatus, notes string) models.Finding {
	f := models.Finding{
		Key:      key,
		Name:     key,
		Category: key,
		Status:   status,
		Notes:    notes,
	}
	if item, ok := c.catalog.Lookup(key); ok {
		f.Name = item.Name
		f.Category = item.Category
	}
	return f
}

// BuildHaystack joins a transcript and a summary into one classifier input.
func BuildHaystack(transcript, summary string) string {
	parts := make([]string, 0, 2)
	if t := strings.TrimSpace(transcript); t != "" {
		parts = append(parts, t)
	}
	if s := strings.TrimSpace(summary); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}
