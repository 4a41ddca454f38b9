package guardrails

import "strings"

// Disclaimers are appended to generated answers, never prepended or
// interleaved. Exactly one fires per response; tax wins over investment
// topics, which win over the general fallback.
const (
	disclaimerTax = "\n\n⚠️ **Tax Disclaimer**: This is general educational information about taxes, not tax advice. Tax situations vary significantly by individual circumstances. Please consult a qualified tax professional or CPA for advice specific to your situation."

	disclaimerInvestment = "\n\n⚠️ **Investment Disclaimer**: This information is for educational purposes only and does not constitute financial advice. Past performance does not guarantee future results. All investments carry risk, including potential loss of principal. Consult a licensed financial advisor before making investment decisions."

	disclaimerGeneral = "\n\n⚠️ **Disclaimer**: This information is for educational purposes only and should not be considered professional financial advice. Please consult a qualified financial advisor for guidance specific to your situation."
)

var (
	taxTopics        = []string{"tax", "taxes", "irs", "deduction", "capital gains", "401k", "ira", "roth"}
	investmentTopics = []string{"invest", "portfolio", "stock", "bond", "etf", "fund", "retirement", "goal", "saving", "allocation", "market"}
)

// AppendDisclaimer selects the disclaimer matching the query topic and
// appends it to the response text.
func AppendDisclaimer(response, query string) string {
	lower := strings.ToLower(query)
	for _, t := range taxTopics {
		if strings.Contains(lower, t) {
			return response + disclaimerTax
		}
	}
	for _, t := range investmentTopics {
		if strings.Contains(lower, t) {
			return response + disclaimerInvestment
		}
	}
	return response + disclaimerGeneral
}
