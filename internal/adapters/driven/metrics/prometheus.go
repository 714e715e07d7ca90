package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// PrometheusRecorder records IdP flow metrics using Prometheus.
type PrometheusRecorder struct {
	authnRequestsTotal   *prometheus.CounterVec
	responsesIssuedTotal *prometheus.CounterVec
	signingFailuresTotal prometheus.Counter
	sessionsExpiredTotal prometheus.Counter
}

// NewPrometheusRecorder creates a recorder using the default Prometheus
// registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWithRegistry creates a recorder with a custom
// registry. Use this for testing.
func NewPrometheusRecorderWithRegistry(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		authnRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saml_idp_authn_requests_total",
			Help: "Inbound SAML AuthnRequests by service provider and outcome.",
		}, []string{"sp", "outcome"}),
		responsesIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saml_idp_responses_issued_total",
			Help: "Signed SAML responses issued by service provider.",
		}, []string{"sp"}),
		signingFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saml_idp_signing_failures_total",
			Help: "Failed XML signing operations.",
		}),
		sessionsExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saml_idp_sessions_expired_total",
			Help: "Pending authentications consumed past expiry.",
		}),
	}

	reg.MustRegister(
		r.authnRequestsTotal,
		r.responsesIssuedTotal,
		r.signingFailuresTotal,
		r.sessionsExpiredTotal,
	)
	return r
}

// RecordAuthnRequest records an inbound AuthnRequest and its outcome.
func (r *PrometheusRecorder) RecordAuthnRequest(spEntityID, outcome string) {
	r.authnRequestsTotal.WithLabelValues(spEntityID, outcome).Inc()
}

// RecordResponseIssued records a successfully signed response.
func (r *PrometheusRecorder) RecordResponseIssued(spEntityID string) {
	r.responsesIssuedTotal.WithLabelValues(spEntityID).Inc()
}

// RecordSigningFailure records a failed signing operation.
func (r *PrometheusRecorder) RecordSigningFailure() {
	r.signingFailuresTotal.Inc()
}

// RecordSessionExpired records a pending authentication consumed past
// its expiry.
func (r *PrometheusRecorder) RecordSessionExpired() {
	r.sessionsExpiredTotal.Inc()
}

var _ ports.MetricsRecorder = (*PrometheusRecorder)(nil)
