package guardrails

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/advisor/config"
)

// Input validation bounds mirror the config defaults.
const (
	DefaultMaxQueryLength = 5000
	DefaultMinQueryLength = 3
)

var (
	allowedCharset = regexp.MustCompile(`^[a-zA-Z0-9\s\-\$\%\(\)\,\.\?\!\'\"]+$`)
	tickerPattern  = regexp.MustCompile(`^[A-Z]{1,5}$`)

	sqlInjectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bdrop\s+table\b`),
		regexp.MustCompile(`(?i)\bdelete\s+from\b`),
		regexp.MustCompile(`(?i)\binsert\s+into\b`),
		regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`),
		regexp.MustCompile(`--`),
		regexp.MustCompile(`/\*`),
	}
)

// InputValidator checks raw user queries before they reach the pipeline.
type InputValidator struct {
	cfg    config.GuardrailsConfig
	logger *log.Logger
}

func NewInputValidator(cfg config.GuardrailsConfig, logger *log.Logger) *InputValidator {
	if logger == nil {
		logger = log.New(log.Writer(), "[GUARD] ", log.LstdFlags)
	}
	return &InputValidator{cfg: cfg.Normalize(), logger: logger}
}

// ValidateQuery returns a rejection error for unsafe or malformed queries.
// The error text is safe to show to the user.
func (v *InputValidator) ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < v.cfg.MinQueryLength {
		return fmt.Errorf("query too short: minimum %d characters", v.cfg.MinQueryLength)
	}
	if len(trimmed) > v.cfg.MaxQueryLength {
		return fmt.Errorf("query too long: maximum %d characters", v.cfg.MaxQueryLength)
	}
	for _, p := range sqlInjectionPatterns {
		if p.MatchString(trimmed) {
			return fmt.Errorf("query contains disallowed pattern")
		}
	}
	if specialCharRatio(trimmed) > 0.3 {
		return fmt.Errorf("query contains too many special characters")
	}
	if !allowedCharset.MatchString(trimmed) {
		return fmt.Errorf("query contains unsupported characters")
	}
	return nil
}

func specialCharRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	special := 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
		default:
			special++
		}
	}
	return float64(special) / float64(len(s))
}

// ValidateTicker checks a stock symbol: 1-5 uppercase letters.
func ValidateTicker(symbol string) error {
	if !tickerPattern.MatchString(strings.ToUpper(strings.TrimSpace(symbol))) {
		return fmt.Errorf("invalid ticker symbol")
	}
	return nil
}

// ValidateAmount checks a dollar amount against the configured bounds.
// Amounts above the large-amount threshold are flagged but not rejected.
func (v *InputValidator) ValidateAmount(amount float64) error {
	if amount < v.cfg.MinAmount {
		return fmt.Errorf("amount must be at least $%.2f", v.cfg.MinAmount)
	}
	if amount > v.cfg.MaxAmount {
		return fmt.Errorf("amount exceeds maximum of $%.0f", v.cfg.MaxAmount)
	}
	v.FlagLargeAmount(amount)
	return nil
}

// FlagLargeAmount logs amounts above the large-amount threshold and reports
// whether the amount was flagged. Flagging never rejects.
func (v *InputValidator) FlagLargeAmount(amount float64) bool {
	if amount > v.cfg.LargeAmount {
		v.logger.Printf("large amount flagged: $%.2f", amount)
		return true
	}
	return false
}

// ValidateYears checks a planning horizon in whole years.
func (v *InputValidator) ValidateYears(years int) error {
	if years < v.cfg.MinYears || years > v.cfg.MaxYears {
		return fmt.Errorf("time horizon must be between %d and %d years", v.cfg.MinYears, v.cfg.MaxYears)
	}
	return nil
}
