package conversation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/advisor/config"
)

func newTestCompactor() *Compactor {
	return NewCompactor(config.ConversationConfig{MaxHistory: 5, SummaryThreshold: 5, SummaryLength: 500})
}

func turns(n int) []Message {
	var out []Message
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, Message{Role: "user", Content: fmt.Sprintf("question %d about my portfolio", i)})
		} else {
			out = append(out, Message{Role: "assistant", Content: fmt.Sprintf("answer %d", i)})
		}
	}
	return out
}

func TestTrimUnderThresholdPassesThrough(t *testing.T) {
	c := newTestCompactor()
	history := turns(4)
	tail, summary := c.Trim(history)
	if summary != nil {
		t.Fatal("no summary expected under threshold")
	}
	if len(tail) != 4 {
		t.Fatalf("tail length = %d, want 4", len(tail))
	}
}

func TestTrimEvictsAndSummarizes(t *testing.T) {
	c := newTestCompactor()
	history := turns(15)
	tail, summary := c.Trim(history)
	if len(tail) != 5 {
		t.Fatalf("tail length = %d, want max history 5", len(tail))
	}
	if summary == nil {
		t.Fatal("expected summary of evicted prefix")
	}
	if summary.MessagesIncluded != 10 {
		t.Fatalf("MessagesIncluded = %d, want 10", summary.MessagesIncluded)
	}
	// Retained tail is exactly the original suffix, order preserved.
	for i, m := range tail {
		if m.Content != history[10+i].Content {
			t.Fatalf("tail[%d] = %q, want %q", i, m.Content, history[10+i].Content)
		}
	}
	if !strings.Contains(summary.Text, "10 messages") {
		t.Fatalf("summary narrative missing count: %q", summary.Text)
	}
	if !strings.Contains(summary.Text, "Portfolio Analysis") {
		t.Fatalf("summary should pick up portfolio topic: %q", summary.Text)
	}
}

func TestTrimEvictsAboveMaxEvenUnderThreshold(t *testing.T) {
	c := NewCompactor(config.ConversationConfig{MaxHistory: 5, SummaryThreshold: 20, SummaryLength: 500})
	tail, summary := c.Trim(turns(8))
	if len(tail) != 5 {
		t.Fatalf("tail length = %d, want max history 5", len(tail))
	}
	if summary == nil || summary.MessagesIncluded != 3 {
		t.Fatalf("summary = %+v, want 3 evicted messages", summary)
	}
}

func TestNeedsSummary(t *testing.T) {
	c := NewCompactor(config.ConversationConfig{MaxHistory: 20, SummaryThreshold: 10, SummaryLength: 500})
	if c.NeedsSummary(9) {
		t.Fatal("9 messages should not need a summary at threshold 10")
	}
	if !c.NeedsSummary(10) {
		t.Fatal("10 messages should need a summary at threshold 10")
	}
}

func TestTrimIsIdempotent(t *testing.T) {
	c := newTestCompactor()
	tail, _ := c.Trim(turns(15))
	again, summary := c.Trim(tail)
	if summary != nil {
		t.Fatal("second trim must not evict again")
	}
	if len(again) != len(tail) {
		t.Fatalf("second trim changed length: %d != %d", len(again), len(tail))
	}
}

func TestSummaryTopicsCappedAtFive(t *testing.T) {
	c := NewCompactor(config.ConversationConfig{MaxHistory: 2, SummaryThreshold: 2, SummaryLength: 500})
	history := []Message{
		{Role: "user", Content: "portfolio stock bond etf diversification rebalance goal"},
		{Role: "assistant", Content: "tax risk allocation dividend yield market"},
		{Role: "user", Content: "more"},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "latest"},
	}
	_, summary := c.Trim(history)
	if summary == nil {
		t.Fatal("expected summary")
	}
	if !strings.Contains(summary.Text, "Main topics: ") {
		t.Fatalf("no topics in %q", summary.Text)
	}
	if len(summary.Topics) == 0 || len(summary.Topics) > 5 {
		t.Fatalf("topics = %v, want 1..5", summary.Topics)
	}
}

func TestSummaryTruncatedToLength(t *testing.T) {
	c := NewCompactor(config.ConversationConfig{MaxHistory: 2, SummaryThreshold: 2, SummaryLength: 60})
	history := []Message{
		{Role: "user", Content: strings.Repeat("portfolio diversification question ", 10)},
		{Role: "assistant", Content: "answer"},
		{Role: "user", Content: "next"},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "latest"},
	}
	_, summary := c.Trim(history)
	if summary == nil {
		t.Fatal("expected summary")
	}
	if len(summary.Text) > 60+len("...") {
		t.Fatalf("summary length %d exceeds cap", len(summary.Text))
	}
	if !strings.HasSuffix(summary.Text, "...") {
		t.Fatalf("truncated summary should end with ellipsis: %q", summary.Text)
	}
}

func TestTrimDoesNotMutateInput(t *testing.T) {
	c := newTestCompactor()
	history := turns(15)
	before := make([]Message, len(history))
	copy(before, history)
	c.Trim(history)
	for i := range history {
		if history[i] != before[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
}
