package ledgersync

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "ledgersync"
)

var (
	blockHeightGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "block_height",
			Help:      "latest observed chain height",
		},
		[]string{"account"},
	)

	highestTxHeightGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "highest_tx_height",
			Help:      "transaction history watermark",
		},
		[]string{"account"},
	)

	endpointFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "endpoint_failures_total",
			Help:      "transport failures per endpoint",
		},
		[]string{"capability", "endpoint"},
	)

	taskErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "task_errors_total",
			Help:      "failed polling task runs",
		},
		[]string{"task"},
	)
)

func init() {
	prometheus.MustRegister(
		blockHeightGauge,
		highestTxHeightGauge,
		endpointFailures,
		taskErrors,
	)
}

func metricBlockHeight(account string, height int64) {
	blockHeightGauge.WithLabelValues(account).Set(float64(height))
}

func metricHighestTxHeight(account string, height int64) {
	highestTxHeightGauge.WithLabelValues(account).Set(float64(height))
}

func metricEndpointFailure(capability, endpoint string) {
	endpointFailures.WithLabelValues(capability, endpoint).Inc()
}

func metricTaskError(task string) {
	taskErrors.WithLabelValues(task).Inc()
}
