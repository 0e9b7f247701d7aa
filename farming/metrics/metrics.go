// Package metrics defines the prometheus vectors the farming engine
// increments as farms and farmers move through it; cmd/farmd serves them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Metrics names.
	MetricNameOperations   = "farming_operations_total"
	MetricNameSnapshots    = "farming_snapshots_total"
	MetricNameAccrued      = "farming_accrued_tokens_total"
	MetricNameClaimed      = "farming_claimed_tokens_total"
	MetricNameStakedTokens = "farming_staked_tokens"

	// Labels.
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelFarm      = "farm"
	LabelMint      = "mint"

	// Outcomes.
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOperations,
			Help: "Number of lifecycle operations invoked on the farming engine, by operation and outcome",
		},
		[]string{LabelOperation, LabelOutcome},
	)

	Snapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSnapshots,
			Help: "Number of snapshots taken, by farm",
		},
		[]string{LabelFarm},
	)

	Accrued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAccrued,
			Help: "Cumulative harvest tokens accrued to farmers, by farm and mint",
		},
		[]string{LabelFarm, LabelMint},
	)

	Claimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameClaimed,
			Help: "Cumulative harvest tokens claimed out of farm vaults, by farm and mint",
		},
		[]string{LabelFarm, LabelMint},
	)

	StakedTokens = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameStakedTokens,
			Help: "Current total staked balance, by farm",
		},
		[]string{LabelFarm},
	)
)
