package agents

import (
	"context"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/advisor/internal/orchestration"
)

// GoalAgent projects savings goals: future value of current savings plus
// contributions, the monthly amount needed to close a gap, time to goal and
// a horizon-based allocation suggestion.
type GoalAgent struct {
	logger *log.Logger
}

func NewGoalAgent(deps Deps) *GoalAgent {
	return &GoalAgent{logger: deps.Logger}
}

func (a *GoalAgent) Kind() orchestration.AgentKind { return orchestration.AgentGoal }

// Default expected annual returns by risk appetite, percent.
const (
	ReturnLow      = 3.0
	ReturnModerate = 6.0
	ReturnHigh     = 8.5
)

var yearsPattern = regexp.MustCompile(`(?i)(\d+)\s*years?`)

// ReturnForRisk maps a risk appetite onto an expected annual return.
func ReturnForRisk(risk string) float64 {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "low", "conservative":
		return ReturnLow
	case "high", "aggressive":
		return ReturnHigh
	default:
		return ReturnModerate
	}
}

func (a *GoalAgent) Execute(_ context.Context, userMessage string, reqCtx orchestration.RequestContext) (orchestration.AgentOutput, error) {
	var (
		target, current, monthly float64
		years                    int
		expectedReturn           = ReturnModerate
	)

	if gp, ok := reqCtx.Shared["goal_params"].(*orchestration.GoalParams); ok && gp != nil {
		target, current, monthly = gp.TargetAmount, gp.CurrentValue, gp.MonthlyContribution
		years = gp.TimeHorizonYears
		expectedReturn = ReturnForRisk(gp.RiskAppetite)
	} else {
		amounts := reqCtx.Intent.Amounts
		years = extractYears(reqCtx.Intent.Timeframe, userMessage)
		if len(amounts) > 0 {
			// Largest amount is the target; the next one, if present, is
			// current savings.
			target = amounts[0]
			for _, v := range amounts[1:] {
				if v > target {
					current, target = target, v
				} else if v > current {
					current = v
				}
			}
		}
	}

	if target <= 0 || years <= 0 {
		return orchestration.AgentOutput{
			AnswerText: "To build a projection I need a target amount and a time horizon, for example: 'I want to reach $500,000 in 20 years, starting from $50,000'.",
		}, nil
	}

	plan := BuildGoalPlan(target, current, years, expectedReturn)

	var b strings.Builder
	fmt.Fprintf(&b, "To reach $%.0f in %d years starting from $%.0f (assuming %.1f%% annual return):\n\n", target, years, current, expectedReturn)
	fmt.Fprintf(&b, "- Your current savings alone would grow to $%.2f.\n", plan.FutureValueCurrent)
	if monthly > 0 {
		fmt.Fprintf(&b, "- Contributing $%.2f per month, you would have about $%.2f.\n",
			monthly, FutureValue(current, monthly, years, expectedReturn))
		if m := MonthsToGoal(target, current, monthly, expectedReturn); m > 0 {
			fmt.Fprintf(&b, "- At that pace you would reach the goal in about %d months.\n", m)
		}
	}
	if plan.RequiredMonthly > 0 {
		fmt.Fprintf(&b, "- You would need to contribute about $%.2f per month to close the gap.\n", plan.RequiredMonthly)
	} else {
		b.WriteString("- Your current savings already cover the goal; no additional monthly contribution is required.\n")
	}
	fmt.Fprintf(&b, "\nSuggested allocation for a %d-year horizon: %.0f%% stocks, %.0f%% bonds, %.0f%% cash.",
		years, plan.Allocation.Stocks, plan.Allocation.Bonds, plan.Allocation.Cash)

	return orchestration.AgentOutput{
		AnswerText: b.String(),
		StructuredData: map[string]interface{}{
			"target":               target,
			"current":              current,
			"monthly":              monthly,
			"years":                years,
			"annual_return_pct":    expectedReturn,
			"future_value_current": plan.FutureValueCurrent,
			"required_monthly":     plan.RequiredMonthly,
			"allocation": map[string]float64{
				"stocks": plan.Allocation.Stocks,
				"bonds":  plan.Allocation.Bonds,
				"cash":   plan.Allocation.Cash,
			},
		},
	}, nil
}

// Allocation is a stocks/bonds/cash split in percent, summing to 100.
type Allocation struct {
	Stocks float64
	Bonds  float64
	Cash   float64
}

// GoalPlan is the numeric core of a projection.
type GoalPlan struct {
	FutureValueCurrent float64
	RequiredMonthly    float64
	Allocation         Allocation
}

// BuildGoalPlan runs the compound-interest math for one goal.
func BuildGoalPlan(target, current float64, years int, annualReturnPct float64) GoalPlan {
	months := years * 12
	r := annualReturnPct / 100 / 12

	fvCurrent := current * math.Pow(1+r, float64(months))

	gap := target - fvCurrent
	required := 0.0
	if gap > 0 {
		if r == 0 {
			required = gap / float64(months)
		} else {
			annuity := (math.Pow(1+r, float64(months)) - 1) / r
			required = gap / annuity
		}
	}

	return GoalPlan{
		FutureValueCurrent: fvCurrent,
		RequiredMonthly:    required,
		Allocation:         SuggestAllocation(years),
	}
}

// FutureValue projects current savings plus steady monthly contributions.
func FutureValue(current, monthly float64, years int, annualReturnPct float64) float64 {
	months := years * 12
	r := annualReturnPct / 100 / 12
	fv := current * math.Pow(1+r, float64(months))
	if r == 0 {
		return fv + monthly*float64(months)
	}
	return fv + monthly*((math.Pow(1+r, float64(months))-1)/r)
}

// MonthsToGoal searches month by month for when the balance first reaches
// the target, within a $100 tolerance. Returns -1 when the goal is not
// reachable inside 50 years.
func MonthsToGoal(target, current, monthly float64, annualReturnPct float64) int {
	const maxMonths = 600
	r := annualReturnPct / 100 / 12
	balance := current
	for m := 1; m <= maxMonths; m++ {
		balance = balance*(1+r) + monthly
		if balance >= target-100 {
			return m
		}
	}
	return -1
}

// SuggestAllocation maps the horizon onto a stocks/bonds/cash split.
func SuggestAllocation(years int) Allocation {
	switch {
	case years >= 10:
		return Allocation{Stocks: 85, Bonds: 10, Cash: 5}
	case years >= 7:
		return Allocation{Stocks: 80, Bonds: 15, Cash: 5}
	case years >= 5:
		return Allocation{Stocks: 70, Bonds: 25, Cash: 5}
	case years >= 3:
		return Allocation{Stocks: 60, Bonds: 35, Cash: 5}
	default:
		return Allocation{Stocks: 40, Bonds: 45, Cash: 15}
	}
}

func extractYears(timeframe, message string) int {
	for _, candidate := range []string{timeframe, message} {
		if m := yearsPattern.FindStringSubmatch(candidate); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	return 0
}
