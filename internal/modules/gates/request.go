package gates

import "github.com/aristath/gatekeeper/internal/domain"

// EvaluationRequest is everything one gate run needs. Beta is either supplied
// pre-computed or estimated from the two return series.
type EvaluationRequest struct {
	Holdings          map[string]float64          `json:"holdings" validate:"required,min=1"`
	RiskIntent        string                      `json:"risk_intent" validate:"required"`
	DataQuality       domain.DataQuality          `json:"data_quality"`
	Beta              *domain.BetaEstimate        `json:"beta,omitempty"`
	PortfolioReturns  []float64                   `json:"portfolio_returns,omitempty"`
	BenchmarkReturns  []float64                   `json:"benchmark_returns,omitempty"`
	PortfolioDrawdown *float64                    `json:"portfolio_drawdown,omitempty" validate:"omitempty,lte=0"`
	BenchmarkDrawdown *float64                    `json:"benchmark_drawdown,omitempty" validate:"omitempty,lte=0"`
	RiskContributions []domain.ComponentRisk      `json:"risk_contributions,omitempty"`
	StructuralIssues  []string                    `json:"structural_issues,omitempty"`
	Benchmark         *domain.BenchmarkComparison `json:"benchmark,omitempty"`
}
