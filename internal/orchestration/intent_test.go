package orchestration

import (
	"testing"
)

func TestClassifyIntentEducation(t *testing.T) {
	res := ClassifyIntent("What is diversification?")
	if res.Primary != IntentEducation && res.Primary != IntentPortfolio {
		t.Fatalf("primary = %s, want education or portfolio", res.Primary)
	}
	found := false
	for _, in := range res.Intents {
		if in == IntentEducation {
			found = true
		}
	}
	if !found {
		t.Fatalf("education missing from %v", res.Intents)
	}
	if res.Confidence < 0.5 {
		t.Fatalf("confidence = %.2f, want >= 0.5 for keyword match", res.Confidence)
	}
}

func TestClassifyIntentUnknown(t *testing.T) {
	res := ClassifyIntent("purple elephants dance")
	if res.Primary != IntentUnknown {
		t.Fatalf("primary = %s, want unknown", res.Primary)
	}
	if res.Confidence != 0.3 {
		t.Fatalf("confidence = %.2f, want 0.3 floor for unknown", res.Confidence)
	}
}

func TestClassifyIntentGoalPlanning(t *testing.T) {
	res := ClassifyIntent("How much do I need to save monthly to reach my goal of $500,000 in 20 years?")
	if res.Primary != IntentGoalPlanning {
		t.Fatalf("primary = %s, want goal_planning", res.Primary)
	}
	if len(res.Amounts) == 0 || res.Amounts[0] != 500000 {
		t.Fatalf("amounts = %v, want [500000]", res.Amounts)
	}
	if res.Timeframe == "" {
		t.Fatal("expected extracted timeframe")
	}
}

func TestClassifyIntentConfidenceBounds(t *testing.T) {
	// Many keyword matches plus all three extractors: still capped at 1.0.
	res := ClassifyIntent("Analyze my portfolio allocation and diversification, goal to save $10,000 for AAPL in 5 years")
	if res.Confidence > 1.0 {
		t.Fatalf("confidence = %.2f, want <= 1.0", res.Confidence)
	}
	if res.Confidence < 0.3 {
		t.Fatalf("confidence = %.2f, want >= 0.3", res.Confidence)
	}
}

func TestExtractTickers(t *testing.T) {
	got := ExtractTickers("Compare AAPL and MSFT against VTI")
	want := map[string]bool{"AAPL": true, "MSFT": true, "VTI": true}
	if len(got) != len(want) {
		t.Fatalf("tickers = %v, want 3 symbols", got)
	}
	for _, g := range got {
		if !want[g] {
			t.Fatalf("unexpected ticker %q in %v", g, got)
		}
	}
}

func TestExtractTickersDropsStopWords(t *testing.T) {
	got := ExtractTickers("WHAT SHOULD I DO ABOUT THE MARKET")
	for _, g := range got {
		switch g {
		case "WHAT", "SHOULD", "ABOUT", "THE":
			t.Fatalf("stop word %q leaked into %v", g, got)
		}
	}
}

func TestExtractTickersDedupes(t *testing.T) {
	got := ExtractTickers("AAPL versus AAPL and more AAPL")
	if len(got) != 1 || got[0] != "AAPL" {
		t.Fatalf("tickers = %v, want single AAPL", got)
	}
}

func TestExtractAmounts(t *testing.T) {
	got := ExtractAmounts("I have $50,000 and want to save 2000 monthly toward a goal of 500000")
	if len(got) == 0 {
		t.Fatal("expected amounts")
	}
	if got[0] != 50000 {
		t.Fatalf("first amount = %v, want 50000", got[0])
	}
}

func TestExtractTimeframePriority(t *testing.T) {
	if got := ExtractTimeframe("in 5 years or maybe 6 months"); got != "5 years" {
		t.Fatalf("timeframe = %q, want years to win", got)
	}
	if got := ExtractTimeframe("over 18 months"); got != "18 months" {
		t.Fatalf("timeframe = %q, want 18 months", got)
	}
	if got := ExtractTimeframe("no horizon here"); got != "" {
		t.Fatalf("timeframe = %q, want empty", got)
	}
}
