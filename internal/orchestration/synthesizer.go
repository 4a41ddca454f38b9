package orchestration

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/advisor/internal/guardrails"
)

// Synthesis is the synthesizer's combined output before the workflow wraps
// it into a Result.
type Synthesis struct {
	Response        string
	Structure       map[string]string
	Citations       []Citation
	KeyInsights     []string
	Recommendations []string
	Redacted        bool
	AllFailed       bool
}

// Synthesizer folds agent execution records into one response.
type Synthesizer struct{}

func NewSynthesizer() *Synthesizer { return &Synthesizer{} }

// sectionLabels names the structured-response sections per agent.
var sectionLabels = map[AgentKind]string{
	AgentFinanceQA: "Educational Content",
	AgentPortfolio: "Portfolio Analysis",
	AgentMarket:    "Market Data",
	AgentGoal:      "Financial Projections",
	AgentTax:       "Tax Information",
	AgentNews:      "Market News & Sentiment",
}

// Synthesize combines records into a final response: single-agent
// passthrough or multi-agent sectioned assembly, then output-side PII
// redaction and the topical disclaimer.
func (s *Synthesizer) Synthesize(records []ExecutionRecord, userQuery string) Synthesis {
	var out Synthesis
	if len(records) == 1 {
		out.Response = s.singleAgent(records[0])
	} else {
		out.Response = s.multiAgent(records)
	}

	out.AllFailed = len(records) > 0
	for _, rec := range records {
		if rec.Status == StatusSuccess {
			out.AllFailed = false
			break
		}
	}

	out.Structure = s.buildStructure(records)
	out.Citations = dedupeCitations(records)
	out.KeyInsights = extractInsights(records)
	out.Recommendations = extractRecommendations(records)

	// Redaction substitutes the whole response; nothing is appended to it.
	if guardrails.ContainsPII(out.Response) {
		out.Response = guardrails.RedactionNotice
		out.Redacted = true
		out.Citations = nil
		return out
	}
	out.Response = guardrails.AppendDisclaimer(out.Response, userQuery)
	return out
}

func (s *Synthesizer) singleAgent(rec ExecutionRecord) string {
	if rec.Status != StatusSuccess {
		errText := rec.Err
		if errText == "" {
			errText = "Unknown error"
		}
		return fmt.Sprintf("I encountered an error while processing your request: %s. Please try rephrasing your question.", errText)
	}
	if rec.Output.AnswerText == "" {
		return "I was unable to generate a response for your query. Please try rephrasing or provide more specific information."
	}
	return rec.Output.AnswerText
}

func (s *Synthesizer) multiAgent(records []ExecutionRecord) string {
	var sections []string
	appendSection := func(label, text string) {
		if text != "" {
			sections = append(sections, fmt.Sprintf("**%s:**\n%s", label, text))
		}
	}

	// Fixed bucket order: portfolio, market, planning, education/tax.
	for _, rec := range records {
		if rec.Kind == AgentPortfolio && rec.Status == StatusSuccess {
			appendSection("Portfolio Analysis", rec.Output.AnswerText)
		}
	}
	for _, rec := range records {
		if rec.Kind == AgentMarket && rec.Status == StatusSuccess {
			appendSection("Market Data", rec.Output.AnswerText)
		}
	}
	for _, rec := range records {
		if rec.Kind == AgentGoal && rec.Status == StatusSuccess {
			appendSection("Financial Projections", rec.Output.AnswerText)
		}
	}
	for _, rec := range records {
		switch rec.Kind {
		case AgentPortfolio, AgentMarket, AgentGoal:
			continue
		}
		if rec.Status != StatusSuccess {
			continue
		}
		label := "Information"
		if rec.Kind == AgentTax {
			label = "Tax Information"
		}
		appendSection(label, rec.Output.AnswerText)
	}

	if len(sections) > 0 {
		return strings.Join(sections, "\n\n")
	}

	// Every agent failed: apologize and list what went wrong.
	var lines []string
	for _, rec := range records {
		errText := rec.Err
		if errText == "" {
			errText = "Unknown error"
		}
		lines = append(lines, "- "+errText)
	}
	return "I encountered errors while processing your request:\n" +
		strings.Join(lines, "\n") +
		"\n\nPlease try rephrasing your question."
}

func (s *Synthesizer) buildStructure(records []ExecutionRecord) map[string]string {
	structure := make(map[string]string)
	for _, rec := range records {
		if rec.Status != StatusSuccess || rec.Output.AnswerText == "" {
			continue
		}
		label, ok := sectionLabels[rec.Kind]
		if !ok {
			label = "Analysis"
		}
		structure[label] = rec.Output.AnswerText
	}
	return structure
}

// dedupeCitations merges citations across agents, keeping the first
// occurrence of each source URL.
func dedupeCitations(records []ExecutionRecord) []Citation {
	var out []Citation
	seen := map[string]bool{}
	for _, rec := range records {
		if rec.Status != StatusSuccess {
			continue
		}
		for _, c := range rec.Output.Citations {
			if c.SourceURL != "" && seen[c.SourceURL] {
				continue
			}
			seen[c.SourceURL] = true
			out = append(out, c)
		}
	}
	return out
}

func extractInsights(records []ExecutionRecord) []string {
	var insights []string
	for _, rec := range records {
		if rec.Status != StatusSuccess || rec.Output.StructuredData == nil {
			continue
		}
		if v, ok := rec.Output.StructuredData["diversification"]; ok {
			if score, ok := toFloat(v); ok {
				insights = append(insights, fmt.Sprintf("Diversification score: %.0f/100", score))
			}
		}
		if v, ok := rec.Output.StructuredData["total_value"]; ok {
			if total, ok := toFloat(v); ok {
				insights = append(insights, fmt.Sprintf("Portfolio value: $%.2f", total))
			}
		}
	}
	if len(insights) > 5 {
		insights = insights[:5]
	}
	return insights
}

func extractRecommendations(records []ExecutionRecord) []string {
	var recs []string
	for _, rec := range records {
		if rec.Status != StatusSuccess {
			continue
		}
		lower := strings.ToLower(rec.Output.AnswerText)
		if !strings.Contains(lower, "recommend") && !strings.Contains(lower, "should") {
			continue
		}
		for _, sentence := range strings.Split(rec.Output.AnswerText, ".") {
			l := strings.ToLower(sentence)
			if strings.Contains(l, "recommend") || strings.Contains(l, "should") {
				clean := strings.TrimSpace(sentence)
				if len(clean) > 10 {
					recs = append(recs, clean)
					break
				}
			}
		}
	}
	if len(recs) > 3 {
		recs = recs[:3]
	}
	return recs
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
