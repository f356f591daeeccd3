package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// want builds an expected Finding using the default catalog labels.
func want(t *testing.T, key string, status models.ProtectionStatus, notes string) models.Finding {
	t.Helper()
	item, ok := DefaultCatalog().Lookup(key)
	require.True(t, ok, "catalog missing %q", key)
	return models.Finding{
		Key:      key,
		Name:     item.Name,
		Category: item.Category,
		Status:   status,
		Notes:    notes,
	}
}

func TestClassify_ExampleScenarios(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name string
		text string
		want []models.Finding
	}{
		{
			name: "registered company name trademark",
			text: "We registered our company name trademark",
			want: []models.Finding{want(t, "company_name_tm", models.StatusProtected, "")},
		},
		{
			name: "domain still needs securing",
			text: "I think we need to secure the domain",
			want: []models.Finding{want(t, "domain", models.StatusAtRisk, "")},
		},
		{
			name: "contractor assignment signed",
			text: "We signed the IP assignment with our contractor",
			want: []models.Finding{want(t, "contractor_ip", models.StatusProtected, "")},
		},
		{
			name: "two month patent window",
			text: "Our patent idea has a 2 month window before the conference",
			want: []models.Finding{want(t, "provisional_patent", models.StatusCritical, "Patent window: 2 months remaining - ACT NOW")},
		},
		{
			name: "no recognized keywords",
			text: "Hello there, how are you today?",
			want: []models.Finding{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassify_CategoryRules(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name   string
		text   string
		key    string
		status models.ProtectionStatus
		notes  string
	}{
		{"company name taken", "Someone else already uses our company name", "company_name_tm", models.StatusCritical, ""},
		{"product name pending", "The app name trademark filing is pending", "product_name_tm", models.StatusPending, ""},
		{"social handles consistent", "We need consistent social handles on Instagram", "social_handles", models.StatusProtected, ""},
		{"patent five months", "The patent window closes in 5 months", "provisional_patent", models.StatusAtRisk, "Patent window: 5 months remaining"},
		{"patent twelve months", "Our patent has 12 months left", "provisional_patent", models.StatusPending, "Patent window: 12 months remaining"},
		{"patent deadline without number", "The patent deadline is a few months away", "provisional_patent", models.StatusAtRisk, NotePatentDeadlineApproaching},
		{"patent first number wins", "Patent window is 2 months, maybe 8 months", "provisional_patent", models.StatusCritical, "Patent window: 2 months remaining - ACT NOW"},
		{"patent public disclosure", "We launched our patent-worthy algorithm publicly", "provisional_patent", models.StatusAtRisk, NotePublicDisclosure},
		{"patent novelty", "Our matching algorithm is novel", "provisional_patent", models.StatusAtRisk, NotePatentableInnovation},
		{"patent filed", "We filed a provisional patent", "provisional_patent", models.StatusPending, ""},
		{"gpl in commercial product", "We use GPL code in our commercial product", "code_copyright", models.StatusCritical, NoteGPLDetected},
		{"mit licensed", "Everything is MIT licensed", "code_copyright", models.StatusProtected, ""},
		{"freelancer never signed", "Our freelancer never signed anything", "contractor_ip", models.StatusCritical, NoteContractorMissingAssignment},
		{"cofounder did not sign", "My cofounder didn't sign anything", "cofounder_ip", models.StatusCritical, NoteNoFounderAgreement},
		{"nda in use", "We always use an NDA", "nda", models.StatusProtected, ""},
		{"secret sauce undocumented", "Our secret sauce should be documented", "trade_secret_policy", models.StatusAtRisk, ""},
		{"employee agreements signed", "Every employee has signed an agreement", "employee_ip", models.StatusProtected, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			expected := []models.Finding{want(t, tt.key, tt.status, tt.notes)}
			if diff := cmp.Diff(expected, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestClassify_MultipleFindingsInScanOrder(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Classify("We bought the domain and our logo is designed, and our contractors signed assignments")

	expected := []models.Finding{
		want(t, "logo_tm", models.StatusPending, ""),
		want(t, "domain", models.StatusProtected, ""),
		want(t, "contractor_ip", models.StatusProtected, ""),
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := NewClassifier(nil)

	lower := c.Classify("we registered our company name trademark")
	upper := c.Classify("WE REGISTERED OUR COMPANY NAME TRADEMARK")

	if diff := cmp.Diff(lower, upper); diff != "" {
		t.Errorf("case should not matter (-lower +upper):\n%s", diff)
	}
}

func TestClassify_Pure(t *testing.T) {
	c := NewClassifier(nil)
	text := "We bought the domain, our co-founder has no agreement, and the patent has 4 months left"

	first := c.Classify(text)
	second := c.Classify(text)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Classify() is not deterministic (-first +second):\n%s", diff)
	}
	assert.NotEmpty(t, first)
}

func TestClassify_AtMostOneFindingPerCategory(t *testing.T) {
	c := NewClassifier(nil)

	got := c.Classify("patent patent algorithm invention unique novel innovative patent")

	seen := make(map[string]bool)
	for _, f := range got {
		assert.False(t, seen[f.Key], "duplicate finding for %q", f.Key)
		seen[f.Key] = true
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	c := NewClassifier(nil)

	assert.Empty(t, c.Classify(""))
	assert.Empty(t, c.Classify("   \n\t"))
	assert.NotNil(t, c.Classify(""))
}

func TestClassify_UnknownCatalogKeyFallsBackToKey(t *testing.T) {
	catalog, err := ParseCatalog([]byte("items:\n  - key: domain\n    name: Web Address\n    category: web\n"))
	require.NoError(t, err)
	c := NewClassifier(catalog)

	got := c.Classify("we bought the domain and registered the company name trademark")
	require.Len(t, got, 2)

	assert.Equal(t, "company_name_tm", got[0].Key)
	assert.Equal(t, "company_name_tm", got[0].Name)
	assert.Equal(t, "Web Address", got[1].Name)
	assert.Equal(t, "web", got[1].Category)
}

func TestBuildHaystack(t *testing.T) {
	assert.Equal(t, "", BuildHaystack("", ""))
	assert.Equal(t, "transcript", BuildHaystack("  transcript ", ""))
	assert.Equal(t, "summary", BuildHaystack("", "summary"))
	assert.Equal(t, "transcript\nsummary", BuildHaystack("transcript", "summary"))
}
