// internal/metrics/metrics.go
// @tag metrics, emit
package metrics

import (
	"context"
	"time"

	"optionflow/logger"
)

// Count emits a counter metric: logged, dispatched to registered
// handlers and, when configured, published to CloudWatch.
func Count(component, name string, value float64, fields logger.Fields) {
	emit(component, name, value, "counter", fields)
}

// Gauge emits a gauge metric.
func Gauge(component, name string, value float64, fields logger.Fields) {
	emit(component, name, value, "gauge", fields)
}

// Timing emits a duration metric in milliseconds.
func Timing(component, name string, d time.Duration, fields logger.Fields) {
	cloned := cloneFields(fields)
	cloned["unit"] = "Milliseconds"
	emit(component, name, float64(d.Nanoseconds())/1e6, "timing", cloned)
}

func emit(component, name string, value float64, metricType string, fields logger.Fields) {
	if name == "" {
		return
	}
	userFields := cloneFields(fields)

	logFields := make(logger.Fields, len(userFields)+3)
	for k, v := range userFields {
		logFields[k] = v
	}
	logFields["metric"] = name
	logFields["metric_type"] = metricType
	logFields["value"] = value

	logger.GetLogger().WithComponent(component).WithFields(logFields).Debug("metric")

	metric := Metric{
		Timestamp: time.Now(),
		Component: component,
		Name:      name,
		Value:     value,
		Type:      metricType,
		Fields:    userFields,
	}

	dispatchMetric(metric)
	publishMetricDatum(context.Background(), metric)
}
