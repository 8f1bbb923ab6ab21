package notifytimer

import (
	"errors"

	"go.k6.io/k6/js/modules"
	"go.k6.io/k6/metrics"
)

type notifyMetrics struct {
	Sent      *metrics.Metric
	Unmatched *metrics.Metric
	WaitTime  *metrics.Metric
	Pending   *metrics.Metric
}

// registerMetrics registers the notification metrics in the metrics registry
func registerMetrics(vu modules.VU) (notifyMetrics, error) {
	var err error
	registry := vu.InitEnv().Registry
	notifyMetrics := notifyMetrics{}

	if notifyMetrics.Sent, err = registry.NewMetric(
		"notify_sent_count", metrics.Counter); err != nil {
		return notifyMetrics, errors.Unwrap(err)
	}

	if notifyMetrics.Unmatched, err = registry.NewMetric(
		"notify_unmatched_count", metrics.Rate); err != nil {
		return notifyMetrics, errors.Unwrap(err)
	}

	if notifyMetrics.Pending, err = registry.NewMetric(
		"notify_pending_count", metrics.Counter); err != nil {
		return notifyMetrics, errors.Unwrap(err)
	}

	if notifyMetrics.WaitTime, err = registry.NewMetric(
		"notify_wait_time", metrics.Trend, metrics.Time); err != nil {
		return notifyMetrics, errors.Unwrap(err)
	}

	return notifyMetrics, nil
}
