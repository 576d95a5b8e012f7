package commands

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/hupe1980/colormatch"
	"github.com/hupe1980/colormatch/telemetry"
)

// metricsSink collects one invocation's metrics when --metrics is set.
type metricsSink struct {
	reg *prometheus.Registry
}

func (a *app) newMetricsSink() *metricsSink {
	if !a.metrics {
		return &metricsSink{}
	}
	return &metricsSink{reg: prometheus.NewRegistry()}
}

// options returns the Open options that report into the sink.
func (s *metricsSink) options() []colormatch.Option {
	if s.reg == nil {
		return nil
	}
	return []colormatch.Option{colormatch.WithMetricsCollector(telemetry.NewCollector(s.reg))}
}

// watch exports m's diagnostics.
func (s *metricsSink) watch(m *colormatch.Matcher) error {
	if s.reg == nil {
		return nil
	}
	return telemetry.RegisterDiagnostics(s.reg, m)
}

// dump writes the collected metrics in the Prometheus text format.
func (s *metricsSink) dump(w io.Writer) error {
	if s.reg == nil {
		return nil
	}
	families, err := s.reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
