package orchestration

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// intentKeywords drives the fast keyword classifier. Substring matches on
// the lowercased input.
var intentKeywords = map[Intent][]string{
	IntentEducation: {
		"what is", "how does", "explain", "define", "understand",
		"tell me about", "describe", "difference between", "concept",
		"meaning of", "why is",
	},
	IntentTax: {
		"tax", "capital gains", "ira", "401k", "roth",
		"deductible", "harvesting", "dividend tax", "tax strategy",
		"tax loss", "tax efficient",
	},
	IntentPortfolio: {
		"analyze portfolio", "portfolio allocation", "diversification",
		"my holdings", "my portfolio", "concentration", "rebalance", "position",
		"allocation percentage", "analyze", "my stocks", "my shares",
	},
	IntentMarket: {
		"price of", "quote", "stock price", "market data",
		"historical", "trend", "fundamentals", "compare",
		"current price", "trading at", "what is the price",
		"market analysis", "stock analysis", "ticker", "symbol",
	},
	IntentNews: {
		"news", "sentiment", "headlines", "market condition",
		"what's happening", "latest", "recent", "market movement",
		"events affecting", "market outlook",
	},
	IntentGoalPlanning: {
		"goal", "reach", "save", "monthly contribution", "timeline",
		"projection", "when will i", "how much do i need",
		"years to goal", "financial plan", "achieve", "target",
		"path to", "years until",
	},
	IntentInvestmentPlan: {
		"plan", "strategy", "comprehensive", "full analysis",
		"complete picture", "what should i do", "recommendation",
		"overall strategy", "investment approach",
	},
}

// intentOrder fixes tie-breaking so classification is deterministic.
var intentOrder = []Intent{
	IntentEducation, IntentTax, IntentPortfolio, IntentMarket,
	IntentNews, IntentGoalPlanning, IntentInvestmentPlan,
}

var (
	tickerWord    = regexp.MustCompile(`\b([A-Z]{2,5})\b`)
	tickerQuoted  = regexp.MustCompile(`['"]([A-Z]{2,5})['"]`)
	tickerPrefix  = regexp.MustCompile(`(?i)(?:ticker|symbol|holding)[\s:]*([A-Z]{2,5})`)
	dollarAmount  = regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?`)
	contextAmount = regexp.MustCompile(`(?i)(?:goal|save|contribute|amount|total|have|worth|portfolio)[\s:]*\$?([\d,]+(?:\.\d{2})?)`)

	timeframePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*years?`),
		regexp.MustCompile(`(?i)(\d+)\s*months?`),
		regexp.MustCompile(`(?i)(\d+)\s*(?:business\s+)?days?`),
		regexp.MustCompile(`(?i)(\d+)[-/]year`),
	}

	// All-caps English words that look like tickers but are not.
	tickerStopWords = map[string]bool{
		"THE": true, "AND": true, "FOR": true, "WITH": true, "FROM": true,
		"THAT": true, "THIS": true, "WHAT": true, "WHEN": true, "WHERE": true,
		"HOW": true, "WHY": true, "IS": true, "IT": true, "MY": true,
		"YOUR": true, "PORTFOLIO": true, "STOCK": true, "PRICE": true,
		"SHARE": true, "DIVIDEND": true, "ANNUAL": true, "ALSO": true,
		"SOME": true, "EACH": true, "MANY": true, "MORE": true, "HAVE": true,
		"WILL": true, "CAN": true, "ABOUT": true, "BEEN": true, "THAN": true,
		"JUST": true, "INTO": true, "OVER": true, "ONLY": true, "WHICH": true,
		"WOULD": true, "COULD": true, "SHOULD": true, "IN": true, "ON": true,
		"AT": true, "BY": true, "TO": true, "OF": true, "OR": true, "UP": true,
	}
)

// ClassifyIntent runs keyword detection, entity extraction and the
// confidence score over one user message.
func ClassifyIntent(userInput string) IntentResult {
	lower := strings.ToLower(userInput)

	type scored struct {
		intent Intent
		hits   int
		order  int
	}
	var candidates []scored
	totalMatches := 0
	for i, intent := range intentOrder {
		hits := 0
		for _, kw := range intentKeywords[intent] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > 0 {
			candidates = append(candidates, scored{intent, hits, i})
			totalMatches += hits
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].hits != candidates[b].hits {
			return candidates[a].hits > candidates[b].hits
		}
		return candidates[a].order < candidates[b].order
	})

	intents := make([]Intent, 0, len(candidates))
	for _, c := range candidates {
		intents = append(intents, c.intent)
	}

	res := IntentResult{
		Tickers:   ExtractTickers(userInput),
		Amounts:   ExtractAmounts(userInput),
		Timeframe: ExtractTimeframe(userInput),
	}

	if len(intents) == 0 {
		res.Primary = IntentUnknown
		res.Intents = []Intent{IntentUnknown}
		res.Confidence = 0.3
		return res
	}

	res.Primary = intents[0]
	res.Intents = intents

	score := 0.5
	bonus := float64(totalMatches) * 0.1
	if bonus > 0.3 {
		bonus = 0.3
	}
	score += bonus
	if len(res.Tickers) > 0 {
		score += 0.1
	}
	if len(res.Amounts) > 0 {
		score += 0.1
	}
	if res.Timeframe != "" {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.3 {
		score = 0.3
	}
	res.Confidence = score
	return res
}

// ExtractTickers pulls likely stock symbols: bare uppercase 2-5 letter
// words, quoted symbols, and symbols after ticker/symbol/holding. Stop
// words are dropped; order of first appearance is preserved.
func ExtractTickers(userInput string) []string {
	var all []string
	for _, m := range tickerWord.FindAllStringSubmatch(userInput, -1) {
		all = append(all, m[1])
	}
	for _, m := range tickerQuoted.FindAllStringSubmatch(userInput, -1) {
		all = append(all, m[1])
	}
	for _, m := range tickerPrefix.FindAllStringSubmatch(userInput, -1) {
		all = append(all, strings.ToUpper(m[1]))
	}

	var out []string
	seen := map[string]bool{}
	for _, t := range all {
		if tickerStopWords[t] || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ExtractAmounts pulls dollar figures: $-prefixed numbers plus bare numbers
// following goal/save/contribute style context words.
func ExtractAmounts(userInput string) []float64 {
	var out []float64
	for _, m := range dollarAmount.FindAllString(userInput, -1) {
		clean := strings.NewReplacer("$", "", ",", "").Replace(m)
		if v, err := strconv.ParseFloat(clean, 64); err == nil {
			out = append(out, v)
		}
	}
	for _, m := range contextAmount.FindAllStringSubmatch(userInput, -1) {
		clean := strings.ReplaceAll(m[1], ",", "")
		if v, err := strconv.ParseFloat(clean, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// ExtractTimeframe returns the first matching horizon phrase, checking
// years before months before days.
func ExtractTimeframe(userInput string) string {
	for _, p := range timeframePatterns {
		if m := p.FindString(userInput); m != "" {
			return m
		}
	}
	return ""
}
