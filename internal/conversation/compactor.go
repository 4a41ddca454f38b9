package conversation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/advisor/config"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

// Summary condenses evicted history. A new summary supersedes the previous
// one; summaries are never merged.
type Summary struct {
	Text             string   `json:"text"`
	Topics           []string `json:"topics,omitempty"`
	MessagesIncluded int      `json:"messages_included"`
}

// topicKeywords maps a keyword found in evicted messages to the topic label
// used in the summary narrative.
var topicKeywords = map[string]string{
	"portfolio":       "Portfolio Analysis",
	"stock":           "Stock Market",
	"bond":            "Bonds",
	"etf":             "ETFs",
	"diversification": "Diversification",
	"rebalance":       "Rebalancing",
	"goal":            "Financial Goals",
	"retirement":      "Retirement Planning",
	"tax":             "Taxes",
	"risk":            "Risk Management",
	"allocation":      "Asset Allocation",
	"dividend":        "Dividends",
	"yield":           "Yields",
	"market":          "Market Conditions",
}

const (
	maxSummaryTopics   = 5
	lastQuestionLength = 150
)

// Compactor bounds conversation history, replacing evicted messages with a
// deterministic keyword summary. No model call is involved.
type Compactor struct {
	maxHistory    int
	threshold     int
	summaryLength int
}

func NewCompactor(cfg config.ConversationConfig) *Compactor {
	cfg = cfg.Normalize()
	return &Compactor{
		maxHistory:    cfg.MaxHistory,
		threshold:     cfg.SummaryThreshold,
		summaryLength: cfg.SummaryLength,
	}
}

// Trim returns the retained tail of history and, when messages were evicted,
// a summary of the evicted prefix. Histories at or under the maximum pass
// through untouched. Trim never mutates its input.
func (c *Compactor) Trim(history []Message) ([]Message, *Summary) {
	if len(history) <= c.maxHistory {
		return history, nil
	}
	evicted := history[:len(history)-c.maxHistory]
	tail := history[len(history)-c.maxHistory:]
	return tail, c.summarize(evicted)
}

func (c *Compactor) summarize(evicted []Message) *Summary {
	topicSet := map[string]bool{}
	lastQuestion := ""
	for _, m := range evicted {
		lower := strings.ToLower(m.Content)
		for kw, topic := range topicKeywords {
			if strings.Contains(lower, kw) {
				topicSet[topic] = true
			}
		}
		if m.Role == "user" {
			lastQuestion = m.Content
			if len(lastQuestion) > lastQuestionLength {
				lastQuestion = lastQuestion[:lastQuestionLength]
			}
		}
	}

	topics := make([]string, 0, len(topicSet))
	for t := range topicSet {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	if len(topics) > maxSummaryTopics {
		topics = topics[:maxSummaryTopics]
	}

	text := fmt.Sprintf("Conversation with %d messages.", len(evicted))
	if len(topics) > 0 {
		text += fmt.Sprintf(" Main topics: %s.", strings.Join(topics, ", "))
	}
	if lastQuestion != "" {
		text += fmt.Sprintf(" Last question: %s", lastQuestion)
	}
	if len(text) > c.summaryLength {
		text = text[:c.summaryLength] + "..."
	}

	return &Summary{Text: text, Topics: topics, MessagesIncluded: len(evicted)}
}

// NeedsSummary reports whether a history of the given length has grown past
// the summary threshold.
func (c *Compactor) NeedsSummary(length int) bool {
	return length >= c.threshold
}
