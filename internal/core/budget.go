package core

// AlertLevel classifies budget utilization.
type AlertLevel string

const (
	AlertNormal   AlertLevel = "normal"
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
)

const warningThreshold = 80.0

// BudgetStatus reports utilization of one budget (overall or per-category).
type BudgetStatus struct {
	CategoryID  string // empty for the overall budget
	Name        string
	Icon        string
	Budget      float64
	Spent       float64
	Utilization float64 // percent, unclamped (151.2 means 51.2% over)
	Level       AlertLevel
	Overage     float64 // spent - budget, only set when exceeded
}

// BudgetReport is the full evaluation of the configured budgets.
type BudgetReport struct {
	Overall    BudgetStatus
	Categories []BudgetStatus // only categories with a positive budget
}

// Utilization returns spent as a percentage of budget. A zero or negative
// budget means no limit is configured, reported as 0 rather than a division
// error.
func Utilization(spent, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	return spent / budget * 100
}

// Classify maps a utilization percentage to its alert level: Exceeded at or
// above 100, Warning in [80, 100), Normal below 80.
func Classify(utilization float64) AlertLevel {
	switch {
	case utilization >= 100:
		return AlertExceeded
	case utilization >= warningThreshold:
		return AlertWarning
	default:
		return AlertNormal
	}
}

// ProgressValue clamps utilization to [0, 100] for progress bars. The numeric
// percentage shown next to the bar stays unclamped.
func ProgressValue(utilization float64) float64 {
	if utilization > 100 {
		return 100
	}
	if utilization < 0 {
		return 0
	}
	return utilization
}

func evaluate(spent, budget float64) (float64, AlertLevel, float64) {
	pct := Utilization(spent, budget)
	level := Classify(pct)
	var overage float64
	if level == AlertExceeded {
		overage = spent - budget
	}
	return pct, level, overage
}

// EvaluateBudgets computes the overall status plus one status per category
// budget. Categories without a positive budget entry are excluded.
func EvaluateBudgets(expenses []Expense, categories []Category, overallBudget float64, budgets []Budget) BudgetReport {
	report := BudgetReport{}

	spent := TotalSpent(expenses)
	pct, level, overage := evaluate(spent, overallBudget)
	report.Overall = BudgetStatus{
		Budget:      overallBudget,
		Spent:       spent,
		Utilization: pct,
		Level:       level,
		Overage:     overage,
	}

	amounts := make(map[string]float64, len(budgets))
	for _, b := range budgets {
		amounts[b.CategoryID] = b.Amount
	}
	for _, c := range categories {
		budget, ok := amounts[c.ID]
		if !ok || budget <= 0 {
			continue
		}
		catSpent := CategorySpent(expenses, c.ID)
		pct, level, overage := evaluate(catSpent, budget)
		report.Categories = append(report.Categories, BudgetStatus{
			CategoryID:  c.ID,
			Name:        c.Name,
			Icon:        c.Icon,
			Budget:      budget,
			Spent:       catSpent,
			Utilization: pct,
			Level:       level,
			Overage:     overage,
		})
	}
	return report
}
