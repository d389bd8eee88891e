package marketseed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	MetricNameSpace = "marketseed"
)

var (
	itemsListed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "items_listed_total",
			Help:      "items accepted into the registry",
		},
	)
	itemsBought = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "items_bought_total",
			Help:      "purchases settled",
		},
	)
	batchesCommitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "batches_committed_total",
			Help:      "atomic batches committed",
		},
	)
	batchesAborted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "batches_aborted_total",
			Help:      "atomic batches discarded on first failing intent",
		},
		[]string{"reason"},
	)
	tradeVolume = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "trade_volume",
			Help:      "settled volume of the current day, fee included",
		},
	)
)

func init() {
	prometheus.MustRegister(
		itemsListed,
		itemsBought,
		batchesCommitted,
		batchesAborted,
		tradeVolume,
	)
}

func metricTradeVolume(volume decimal.Decimal) {
	amount, _ := volume.Float64()
	tradeVolume.Set(amount)
}
