package guardrails

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/advisor/config"
)

func testCfg() config.GuardrailsConfig {
	return config.GuardrailsConfig{}.Normalize()
}

func TestValidateQuery(t *testing.T) {
	v := NewInputValidator(testCfg(), nil)

	cases := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid question", "What is diversification?", false},
		{"valid with amount", "How much should I save to reach $500,000 in 20 years?", false},
		{"too short", "hi", true},
		{"exactly min length", "why", false},
		{"too long", strings.Repeat("a", 5001), true},
		{"exactly max length", strings.Repeat("a", 5000), false},
		{"sql drop table", "DROP TABLE users", true},
		{"sql comment", "what is a bond -- comment", true},
		{"sql block comment", "tell me /* about */ stocks", true},
		{"delete from", "delete from accounts", true},
		{"whitespace only", "    ", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateQuery(tc.query)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateQuery(%q) err=%v, wantErr=%v", tc.query, err, tc.wantErr)
			}
		})
	}
}

func TestValidateQuerySpecialCharRatio(t *testing.T) {
	v := NewInputValidator(testCfg(), nil)
	// Over 30% of characters are non-alphanumeric.
	if err := v.ValidateQuery("$$$ %%% ((( ))) ???"); err == nil {
		t.Fatal("expected rejection for heavy special-character query")
	}
}

func TestValidateTicker(t *testing.T) {
	for _, ok := range []string{"AAPL", "V", "GOOGL", "msft"} {
		if err := ValidateTicker(ok); err != nil {
			t.Errorf("ValidateTicker(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "TOOLONG", "AB1", "A-B"} {
		if err := ValidateTicker(bad); err == nil {
			t.Errorf("ValidateTicker(%q) = nil, want error", bad)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	v := NewInputValidator(testCfg(), nil)
	if err := v.ValidateAmount(100); err != nil {
		t.Fatalf("ValidateAmount(100) = %v", err)
	}
	if err := v.ValidateAmount(0.5); err == nil {
		t.Fatal("expected error below minimum amount")
	}
	if err := v.ValidateAmount(20_000_000); err == nil {
		t.Fatal("expected error above maximum amount")
	}
}

func TestLargeAmountFlaggedNotRejected(t *testing.T) {
	var buf bytes.Buffer
	v := NewInputValidator(testCfg(), log.New(&buf, "", 0))

	if err := v.ValidateAmount(2_000_000); err != nil {
		t.Fatalf("large amount must not be rejected: %v", err)
	}
	if !strings.Contains(buf.String(), "large amount flagged") {
		t.Fatalf("expected large amount log, got %q", buf.String())
	}

	buf.Reset()
	if v.FlagLargeAmount(500_000) {
		t.Fatal("amount under the threshold should not flag")
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}

func TestValidateYears(t *testing.T) {
	v := NewInputValidator(testCfg(), nil)
	if err := v.ValidateYears(30); err != nil {
		t.Fatalf("ValidateYears(30) = %v", err)
	}
	if err := v.ValidateYears(0); err == nil {
		t.Fatal("expected error for zero years")
	}
	if err := v.ValidateYears(51); err == nil {
		t.Fatal("expected error above maximum years")
	}
}
