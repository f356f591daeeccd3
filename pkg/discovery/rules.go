package discovery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dennissolver/LaunchReady-sub000/pkg/models"
)

// Notes attached by the rules. Exported so callers and tests can match them.
const (
	NoteContractorMissingAssignment = "URGENT: Missing IP assignments from contractors"
	NoteNoFounderAgreement          = "URGENT: No founder agreement in place"
	NoteGPLDetected                 = "GPL license detected - review compatibility"
	NotePatentDeadlineApproaching   = "Patent deadline approaching"
	NotePublicDisclosure            = "Public disclosure detected"
	NotePatentableInnovation        = "Potential patentable innovation"
)

// rule decides the status of one category from a lower-cased haystack.
// It only runs when one of its triggers is present.
type rule struct {
	key      string
	triggers []string
	decide   func(text string) (models.ProtectionStatus, string)
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// monthsPattern finds "N month" / "N months" / "N-month"; only the first match counts.
var monthsPattern = regexp.MustCompile(`(\d+)\s*-?\s*months?`)

// rules in scan order: brand, patents, copyright/contracts, trade secrets.
var rules = []rule{
	{
		key:      "company_name_tm",
		triggers: []string{"company name", "business name"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case strings.Contains(t, "trademark") && containsAny(t, "registered", "filed"):
				return models.StatusProtected, ""
			case containsAny(t, "someone else", "taken"):
				return models.StatusCritical, ""
			case containsAny(t, "should", "need to"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
	{
		key:      "product_name_tm",
		triggers: []string{"product name", "app name", "brand name"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case containsAny(t, "registered", "trademarked"):
				return models.StatusProtected, ""
			case containsAny(t, "filed", "pending"):
				return models.StatusPending, ""
			case containsAny(t, "critical", "urgent"):
				return models.StatusCritical, ""
			case containsAny(t, "should", "need"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
	{
		key:      "logo_tm",
		triggers: []string{"logo"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case containsAny(t, "registered", "trademarked"):
				return models.StatusProtected, ""
			case containsAny(t, "designed", "have a logo"):
				return models.StatusPending, ""
			case strings.Contains(t, "need"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
	{
		key:      "domain",
		triggers: []string{"domain"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case containsAny(t, "secured", "registered", "own", "bought"):
				return models.StatusProtected, ""
			case containsAny(t, "need", "should"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
	{
		key:      "social_handles",
		triggers: []string{"social", "handle", "instagram", "twitter"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case containsAny(t, "secured", "have", "consistent"):
				return models.StatusProtected, ""
			case containsAny(t, "need", "should"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
	{
		key:      "provisional_patent",
		triggers: []string{"patent", "algorithm", "invention", "unique", "novel", "innovative"},
		decide:   decidePatent,
	},
	{
		key:      "contractor_ip",
		triggers: []string{"contractor", "freelancer", "outsource"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case strings.Contains(t, "assignment") && containsAny(t, "signed", "have", "yes"):
				return models.StatusProtected, ""
			case explicitNegative(t, "assignment"):
				return models.StatusCritical, NoteContractorMissingAssignment
			}
			return models.StatusAtRisk, ""
		},
	},
	{
		key:      "employee_ip",
		triggers: []string{"employee"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case strings.Contains(t, "agreement") && containsAny(t, "sign", "have"):
				return models.StatusProtected, ""
			case containsAny(t, "no agreement", "don't"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
	{
		key:      "cofounder_ip",
		triggers: []string{"co-founder", "cofounder", "founder agreement", "partner"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case strings.Contains(t, "agreement") && containsAny(t, "have", "signed", "yes"):
				return models.StatusProtected, ""
			case explicitNegative(t, "agreement"):
				return models.StatusCritical, NoteNoFounderAgreement
			}
			return models.StatusAtRisk, ""
		},
	},
	{
		key:      "nda",
		triggers: []string{"nda", "non-disclosure", "confidential"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case containsAny(t, "have", "use", "signed", "yes"):
				return models.StatusProtected, ""
			case containsAny(t, "no", "don't"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
	{
		key:      "code_copyright",
		triggers: []string{"open source", "gpl", "license", "mit", "apache"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case strings.Contains(t, "gpl") && containsAny(t, "proprietary", "commercial"):
				return models.StatusCritical, NoteGPLDetected
			case containsAny(t, "mit", "apache", "permissive"):
				return models.StatusProtected, ""
			case containsAny(t, "not sure", "don't know"):
				return models.StatusAtRisk, ""
			}
			return models.StatusPending, ""
		},
	},
	{
		key:      "trade_secret_policy",
		triggers: []string{"trade secret", "secret sauce", "proprietary", "confidential"},
		decide: func(t string) (models.ProtectionStatus, string) {
			switch {
			case containsAny(t, "policy", "protected", "secure"):
				return models.StatusProtected, ""
			case containsAny(t, "should", "need"):
				return models.StatusAtRisk, ""
			}
			return models.StatusNotStarted, ""
		},
	},
}

// explicitNegative matches "no ... <subject>", "didn't", "don't have" and "never signed".
func explicitNegative(t, subject string) bool {
	return (strings.Contains(t, "no") && strings.Contains(t, subject)) ||
		containsAny(t, "didn't", "don't have", "never signed")
}

func decidePatent(t string) (models.ProtectionStatus, string) {
	switch {
	case containsAny(t, "filed", "provisional"):
		return models.StatusPending, ""
	case containsAny(t, "granted", "patented"):
		return models.StatusProtected, ""
	case strings.Contains(t, "month") && containsAny(t, "window", "deadline", "left"):
		return decidePatentWindow(t)
	case containsAny(t, "disclosed", "public", "launched"):
		return models.StatusAtRisk, NotePublicDisclosure
	case containsAny(t, "unique", "novel", "invented"):
		return models.StatusAtRisk, NotePatentableInnovation
	}
	return models.StatusNotStarted, ""
}

func decidePatentWindow(t string) (models.ProtectionStatus, string) {
	m := monthsPattern.FindStringSubmatch(t)
	if m == nil {
		return models.StatusAtRisk, NotePatentDeadlineApproaching
	}
	months, err := strconv.Atoi(m[1])
	if err != nil {
		return models.StatusAtRisk, NotePatentDeadlineApproaching
	}

	note := fmt.Sprintf("Patent window: %d months remaining", months)
	switch {
	case months <= 3:
		return models.StatusCritical, note + " - ACT NOW"
	case months <= 6:
		return models.StatusAtRisk, note
	}
	return models.StatusPending, note
}
