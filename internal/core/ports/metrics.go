package ports

// Authn request outcomes recorded by MetricsRecorder.
const (
	OutcomeAccepted  = "accepted"
	OutcomeMalformed = "malformed"
	OutcomeUntrusted = "untrusted"
)

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (Prometheus for production, noop for
// disabled/testing).
type MetricsRecorder interface {
	// RecordAuthnRequest records an inbound AuthnRequest and its outcome.
	RecordAuthnRequest(spEntityID, outcome string)

	// RecordResponseIssued records a successfully signed response.
	RecordResponseIssued(spEntityID string)

	// RecordSigningFailure records a failed signing operation.
	RecordSigningFailure()

	// RecordSessionExpired records a pending authentication consumed
	// past its expiry.
	RecordSessionExpired()
}
