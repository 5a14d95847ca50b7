package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Value gathers g and returns the value of the series named fqName whose
// labels include every pair in labels. Counters, gauges and untyped metrics
// report their value; histograms report their sample count.
func Value(g prometheus.Gatherer, fqName string, labels map[string]string) (float64, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, fmt.Errorf("gather: %w", err)
	}
	for _, mf := range families {
		if mf.GetName() != fqName {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if !hasLabels(metric, labels) {
				continue
			}
			switch {
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue(), nil
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue(), nil
			case metric.GetHistogram() != nil:
				return float64(metric.GetHistogram().GetSampleCount()), nil
			case metric.GetUntyped() != nil:
				return metric.GetUntyped().GetValue(), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s %v", ErrMetricNotFound, fqName, labels)
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, lp := range metric.GetLabel() {
		if v, ok := want[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}
