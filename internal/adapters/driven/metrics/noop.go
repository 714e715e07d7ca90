// Package metrics provides MetricsRecorder adapters: Prometheus for
// production and a noop for disabled/testing.
package metrics

import "github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"

// NoopRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopRecorder struct{}

// NewNoopRecorder creates a new no-op metrics recorder.
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

// RecordAuthnRequest is a no-op.
func (n *NoopRecorder) RecordAuthnRequest(spEntityID, outcome string) {}

// RecordResponseIssued is a no-op.
func (n *NoopRecorder) RecordResponseIssued(spEntityID string) {}

// RecordSigningFailure is a no-op.
func (n *NoopRecorder) RecordSigningFailure() {}

// RecordSessionExpired is a no-op.
func (n *NoopRecorder) RecordSessionExpired() {}

var _ ports.MetricsRecorder = (*NoopRecorder)(nil)
