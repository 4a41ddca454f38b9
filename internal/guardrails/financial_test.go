package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePortfolioConcentration(t *testing.T) {
	f := NewFinancialValidator(testCfg())

	// 60% in one holding: warning, not error.
	v := f.ValidatePortfolio([]Holding{{"AAPL", 60000}, {"VTI", 40000}})
	assert.True(t, v.OK())
	assert.Len(t, v.Warnings, 1)

	// 96% in one holding: hard error.
	v = f.ValidatePortfolio([]Holding{{"TSLA", 96000}, {"VTI", 4000}})
	assert.False(t, v.OK())

	// Balanced portfolio passes clean.
	v = f.ValidatePortfolio([]Holding{{"VTI", 40000}, {"BND", 30000}, {"VXUS", 30000}})
	assert.True(t, v.OK())
	assert.Empty(t, v.Warnings)
}

func TestValidatePortfolioBounds(t *testing.T) {
	f := NewFinancialValidator(testCfg())

	v := f.ValidatePortfolio(nil)
	assert.False(t, v.OK())

	v = f.ValidatePortfolio([]Holding{{"VTI", 150_000_000}})
	assert.False(t, v.OK())

	v = f.ValidatePortfolio([]Holding{{"VTI", -5}, {"BND", 100}})
	assert.False(t, v.OK())
}

func TestValidateGoal(t *testing.T) {
	f := NewFinancialValidator(testCfg())

	v := f.ValidateGoal(500000, 50000, 1000, 20)
	assert.True(t, v.OK())
	assert.Empty(t, v.Warnings)

	v = f.ValidateGoal(500000, -1, 1000, 20)
	assert.False(t, v.OK())

	v = f.ValidateGoal(500000, 0, 0, 60)
	assert.False(t, v.OK(), "horizon over the max should block")
}

func TestValidateGoalAlreadyAchieved(t *testing.T) {
	f := NewFinancialValidator(testCfg())

	v := f.ValidateGoal(50_000, 100_000, 0, 5)
	assert.False(t, v.OK(), "savings above the target must be a hard error")

	// Equal savings and target are not an error.
	v = f.ValidateGoal(50_000, 50_000, 0, 5)
	assert.True(t, v.OK())
}

func TestValidateGoalImpliedGrowthWarning(t *testing.T) {
	f := NewFinancialValidator(testCfg())

	// $1k to $1M over 2 years implies roughly 3000% annual growth.
	v := f.ValidateGoal(1_000_000, 1_000, 0, 2)
	assert.True(t, v.OK(), "ambitious growth warns, never blocks")
	assert.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "annual growth")

	// Modest implied growth stays quiet.
	v = f.ValidateGoal(120_000, 100_000, 0, 5)
	assert.True(t, v.OK())
	assert.Empty(t, v.Warnings)
}
