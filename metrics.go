package samlidp

import (
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/metrics"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Re-export the metrics port and its adapters.
type MetricsRecorder = ports.MetricsRecorder
type NoopMetricsRecorder = metrics.NoopRecorder
type PrometheusMetricsRecorder = metrics.PrometheusRecorder

var (
	NewNoopMetricsRecorder               = metrics.NewNoopRecorder
	NewPrometheusMetricsRecorder         = metrics.NewPrometheusRecorder
	NewPrometheusMetricsRecorderRegistry = metrics.NewPrometheusRecorderWithRegistry
)
