package agents

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/advisor/internal/orchestration"
)

func TestBuildGoalPlanMath(t *testing.T) {
	plan := BuildGoalPlan(500000, 50000, 20, 6.0)

	// 50k at 0.5% monthly over 240 months.
	wantFV := 50000 * math.Pow(1.005, 240)
	assert.InDelta(t, wantFV, plan.FutureValueCurrent, 0.01)

	// Remaining gap spread over the annuity factor.
	gap := 500000 - wantFV
	annuity := (math.Pow(1.005, 240) - 1) / 0.005
	assert.InDelta(t, gap/annuity, plan.RequiredMonthly, 0.01)
	assert.Greater(t, plan.RequiredMonthly, 0.0)
}

func TestBuildGoalPlanAlreadyFunded(t *testing.T) {
	plan := BuildGoalPlan(100000, 90000, 10, 6.0)
	assert.Equal(t, 0.0, plan.RequiredMonthly, "no contribution needed when savings outgrow the goal")
}

func TestFutureValueZeroRate(t *testing.T) {
	got := FutureValue(1000, 100, 1, 0)
	assert.InDelta(t, 1000+100*12, got, 0.01)
}

func TestMonthsToGoal(t *testing.T) {
	months := MonthsToGoal(20000, 10000, 500, 6.0)
	require.Greater(t, months, 0)
	require.LessOrEqual(t, months, 600)

	// Verify the returned month actually reaches the target.
	r := 6.0 / 100 / 12
	balance := 10000.0
	for m := 0; m < months; m++ {
		balance = balance*(1+r) + 500
	}
	assert.GreaterOrEqual(t, balance, 20000.0-100)
}

func TestMonthsToGoalUnreachable(t *testing.T) {
	assert.Equal(t, -1, MonthsToGoal(100_000_000, 0, 1, 0))
}

func TestSuggestAllocationSumsTo100(t *testing.T) {
	for _, years := range []int{1, 3, 5, 7, 10, 30} {
		a := SuggestAllocation(years)
		assert.InDelta(t, 100.0, a.Stocks+a.Bonds+a.Cash, 0.001, "years=%d", years)
	}
}

func TestSuggestAllocationHorizons(t *testing.T) {
	assert.Equal(t, Allocation{Stocks: 85, Bonds: 10, Cash: 5}, SuggestAllocation(15))
	assert.Equal(t, Allocation{Stocks: 80, Bonds: 15, Cash: 5}, SuggestAllocation(8))
	assert.Equal(t, Allocation{Stocks: 70, Bonds: 25, Cash: 5}, SuggestAllocation(5))
	assert.Equal(t, Allocation{Stocks: 60, Bonds: 35, Cash: 5}, SuggestAllocation(3))
	assert.Equal(t, Allocation{Stocks: 40, Bonds: 45, Cash: 15}, SuggestAllocation(2))
}

func TestGoalAgentExecute(t *testing.T) {
	agent := NewGoalAgent(Deps{Logger: quietLogger()})
	out, err := agent.Execute(context.Background(),
		"I want to reach $500,000 in 20 years, I have $50,000 saved",
		orchestration.RequestContext{Intent: orchestration.IntentResult{
			Amounts:   []float64{500000, 50000},
			Timeframe: "20 years",
		}})
	require.NoError(t, err)
	assert.Contains(t, out.AnswerText, "$500000")
	assert.Contains(t, out.AnswerText, "Suggested allocation")
	require.NotNil(t, out.StructuredData)
	alloc, ok := out.StructuredData["allocation"].(map[string]float64)
	require.True(t, ok)
	assert.InDelta(t, 100.0, alloc["stocks"]+alloc["bonds"]+alloc["cash"], 0.001)
}

func TestReturnForRisk(t *testing.T) {
	assert.Equal(t, ReturnLow, ReturnForRisk("low"))
	assert.Equal(t, ReturnLow, ReturnForRisk("Conservative"))
	assert.Equal(t, ReturnModerate, ReturnForRisk("moderate"))
	assert.Equal(t, ReturnModerate, ReturnForRisk(""))
	assert.Equal(t, ReturnHigh, ReturnForRisk("high"))
	assert.Equal(t, ReturnHigh, ReturnForRisk("aggressive"))
}

func TestGoalAgentUsesStructuredParams(t *testing.T) {
	agent := NewGoalAgent(Deps{Logger: quietLogger()})
	out, err := agent.Execute(context.Background(), "can I retire on time?",
		orchestration.RequestContext{Shared: map[string]interface{}{
			"goal_params": &orchestration.GoalParams{
				TargetAmount:        500000,
				CurrentValue:        100000,
				MonthlyContribution: 1000,
				TimeHorizonYears:    20,
				RiskAppetite:        "high",
			},
		}})
	require.NoError(t, err)
	require.NotNil(t, out.StructuredData)
	assert.Equal(t, ReturnHigh, out.StructuredData["annual_return_pct"])
	assert.Contains(t, out.AnswerText, "8.5% annual return")
	assert.Contains(t, out.AnswerText, "per month")
}

func TestGoalAgentMissingInputsDegrades(t *testing.T) {
	agent := NewGoalAgent(Deps{Logger: quietLogger()})
	out, err := agent.Execute(context.Background(), "help me plan", orchestration.RequestContext{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out.AnswerText, "target amount"), "should ask for missing inputs")
}
