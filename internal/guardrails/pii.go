package guardrails

import (
	"fmt"
	"regexp"
	"strings"
)

// piiPattern pairs a category name with its detection regex. Matched text is
// never echoed back; only the category appears in messages.
type piiPattern struct {
	category string
	re       *regexp.Regexp
}

var piiPatterns = []piiPattern{
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"email", regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`)},
	{"phone", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
	{"credit_card", regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)},
	{"bank_account", regexp.MustCompile(`\b\d{10,12}\b`)},
	{"ssn_alt", regexp.MustCompile(`\b\d{9}\b`)},
}

// ScanPII returns the categories of personal information found in text,
// in pattern-table order, deduplicated.
func ScanPII(text string) []string {
	var found []string
	seen := map[string]bool{}
	for _, p := range piiPatterns {
		if p.re.MatchString(text) && !seen[p.category] {
			found = append(found, p.category)
			seen[p.category] = true
		}
	}
	return found
}

// ContainsPII reports whether any known personal-information pattern matches.
func ContainsPII(text string) bool {
	for _, p := range piiPatterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// PIIWarning builds a user-facing warning naming the matched categories
// without repeating the matched content.
func PIIWarning(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return fmt.Sprintf("⚠️ Your message appears to contain personal information (%s). For your security, please avoid sharing sensitive details like account numbers, SSN, or contact information.", strings.Join(categories, ", "))
}

// RedactionNotice is returned in place of any generated text that trips the
// output-side scan. Generated text is replaced wholesale, never partially.
const RedactionNotice = "I noticed the response may have contained sensitive information, so it has been withheld. Please rephrase your question without including personal details."
