// Package session tracks pending authentications between the arrival
// of an AuthnRequest and the emission of the signed response.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Correlator is an in-memory pending-authentication store keyed by an
// opaque per-browser session key. Records are single-use and expire
// after domain.PendingAuthnTTL. Safe for concurrent use.
type Correlator struct {
	mu      sync.Mutex
	entries map[string]*domain.PendingAuthentication
	clock   ports.Clock
	logger  *zap.Logger
}

// NewCorrelator creates a correlator. A nil clock selects the system
// clock.
func NewCorrelator(clock ports.Clock, logger *zap.Logger) *Correlator {
	if clock == nil {
		clock = ports.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Correlator{
		entries: make(map[string]*domain.PendingAuthentication),
		clock:   clock,
		logger:  logger,
	}
}

// Create stores a pending record for the session key. Any prior pending
// state for the key is discarded first: a new authentication attempt
// always invalidates an older one. Expired records under other keys are
// reclaimed here too; abandoned logins never reach Consume, so Create
// is the only place they can be swept.
func (c *Correlator) Create(sessionKey string, req *domain.AuthnRequest, relayState string) *domain.PendingAuthentication {
	now := c.clock.Now()
	pending := &domain.PendingAuthentication{
		RequestID:  req.ID,
		SPEntityID: req.Issuer,
		ACSURL:     req.ACSURL,
		RelayState: relayState,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.PendingAuthnTTL),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
		}
	}

	if _, exists := c.entries[sessionKey]; exists {
		c.logger.Debug("replacing pending authentication", zap.String("request_id", req.ID))
	}
	delete(c.entries, sessionKey)
	c.entries[sessionKey] = pending

	copied := *pending
	return &copied
}

// Consume returns and deletes the record if it has not expired. Expired
// and unknown records yield a session_expired error; stale records are
// deleted regardless.
func (c *Correlator) Consume(sessionKey string) (*domain.PendingAuthentication, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending, exists := c.entries[sessionKey]
	if !exists {
		return nil, domain.SessionExpiredError()
	}
	delete(c.entries, sessionKey)

	if pending.Expired(c.clock.Now()) {
		c.logger.Debug("pending authentication expired",
			zap.String("request_id", pending.RequestID),
			zap.String("sp_entity_id", pending.SPEntityID),
		)
		return nil, domain.SessionExpiredError()
	}

	return pending, nil
}

var _ ports.Correlator = (*Correlator)(nil)
