package guardrails

import (
	"fmt"
	"math"

	"github.com/mohammad-safakhou/advisor/config"
)

// Holding is a single portfolio position as supplied by the user.
type Holding struct {
	Symbol string
	Value  float64
}

// FinancialValidation carries hard errors and soft warnings separately.
// Errors block the request; warnings ride along with the answer.
type FinancialValidation struct {
	Errors   []string
	Warnings []string
}

func (v FinancialValidation) OK() bool { return len(v.Errors) == 0 }

// FinancialValidator applies domain sanity checks to portfolio and goal
// parameters before any math runs on them.
type FinancialValidator struct {
	cfg config.GuardrailsConfig
}

func NewFinancialValidator(cfg config.GuardrailsConfig) *FinancialValidator {
	return &FinancialValidator{cfg: cfg.Normalize()}
}

// ValidatePortfolio checks holding count, total value, per-position values
// and concentration. Concentration above the warning threshold produces a
// warning; above the error threshold it blocks.
func (f *FinancialValidator) ValidatePortfolio(holdings []Holding) FinancialValidation {
	var out FinancialValidation
	if len(holdings) == 0 {
		out.Errors = append(out.Errors, "portfolio has no holdings")
		return out
	}
	if len(holdings) > f.cfg.MaxHoldings {
		out.Errors = append(out.Errors, fmt.Sprintf("portfolio exceeds maximum of %d holdings", f.cfg.MaxHoldings))
	}

	total := 0.0
	for _, h := range holdings {
		if h.Value < 0 {
			out.Errors = append(out.Errors, fmt.Sprintf("holding %s has negative value", h.Symbol))
		}
		total += h.Value
	}
	if total > f.cfg.MaxPortfolioValue {
		out.Errors = append(out.Errors, fmt.Sprintf("portfolio value exceeds maximum of $%.0f", f.cfg.MaxPortfolioValue))
	}
	if total <= 0 {
		out.Errors = append(out.Errors, "portfolio total value must be positive")
		return out
	}

	for _, h := range holdings {
		pct := h.Value / total * 100
		switch {
		case pct >= f.cfg.ConcentrationError:
			out.Errors = append(out.Errors, fmt.Sprintf("holding %s is %.1f%% of the portfolio, above the %.0f%% limit", h.Symbol, pct, f.cfg.ConcentrationError))
		case pct >= f.cfg.ConcentrationWarning:
			out.Warnings = append(out.Warnings, fmt.Sprintf("holding %s is %.1f%% of the portfolio; consider diversifying", h.Symbol, pct))
		}
	}
	return out
}

// ValidateGoal checks goal-planning inputs: target amount, current savings,
// monthly contribution and horizon. Savings above the target are a hard
// error (the goal is already achieved; equality is fine), and the growth
// rate the goal implies is checked for realism.
func (f *FinancialValidator) ValidateGoal(target, current, monthly float64, years int) FinancialValidation {
	var out FinancialValidation
	if target < f.cfg.MinAmount || target > f.cfg.MaxAmount {
		out.Errors = append(out.Errors, fmt.Sprintf("target amount must be between $%.0f and $%.0f", f.cfg.MinAmount, f.cfg.MaxAmount))
	}
	if current < 0 || current > f.cfg.MaxAmount {
		out.Errors = append(out.Errors, fmt.Sprintf("current savings must be between $0 and $%.0f", f.cfg.MaxAmount))
	}
	if monthly < 0 {
		out.Errors = append(out.Errors, "monthly contribution cannot be negative")
	}
	if years < f.cfg.MinYears || years > f.cfg.MaxYears {
		out.Errors = append(out.Errors, fmt.Sprintf("time horizon must be between %d and %d years", f.cfg.MinYears, f.cfg.MaxYears))
	}
	if current > target {
		out.Errors = append(out.Errors, "current savings exceed the target; the goal is already achieved")
	}
	if current > 0 && years > 0 && target > current {
		impliedGrowth := (math.Pow(target/current, 1/float64(years)) - 1) * 100
		if impliedGrowth > f.cfg.GrowthRateWarning {
			out.Warnings = append(out.Warnings, fmt.Sprintf("goal requires %.1f%% annual growth, which is very ambitious", impliedGrowth))
		}
	}
	return out
}
