// Package truststore holds the registered service providers. Reads are
// lock-free against an immutable snapshot swapped atomically; writes
// are serialized and rebuild the snapshot, so concurrent readers never
// observe a partial mutation.
package truststore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

type snapshot struct {
	byEntityID map[string]*domain.TrustedSP
	order      []string
}

// Store is the in-memory trust store. An optional persistence hook is
// invoked after each committed mutation.
type Store struct {
	mu      sync.Mutex
	snap    atomic.Pointer[snapshot]
	persist func([]*domain.TrustedSP) error
	clock   ports.Clock
	logger  *zap.Logger
}

// NewStore creates an empty in-memory store.
func NewStore(clock ports.Clock, logger *zap.Logger) *Store {
	if clock == nil {
		clock = ports.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{clock: clock, logger: logger}
	s.snap.Store(&snapshot{byEntityID: map[string]*domain.TrustedSP{}})
	return s
}

// Validate reports whether a TrustedSP with the entity ID exists.
func (s *Store) Validate(entityID string) bool {
	_, ok := s.snap.Load().byEntityID[entityID]
	return ok
}

// Lookup returns a copy of the record for the entity ID.
func (s *Store) Lookup(entityID string) (*domain.TrustedSP, error) {
	sp, ok := s.snap.Load().byEntityID[entityID]
	if !ok {
		return nil, domain.SPNotFoundError(entityID)
	}
	return sp.Clone(), nil
}

// All returns copies of the registered SPs in registration order.
func (s *Store) All() []*domain.TrustedSP {
	snap := s.snap.Load()
	sps := make([]*domain.TrustedSP, 0, len(snap.order))
	for _, id := range snap.order {
		sps = append(sps, snap.byEntityID[id].Clone())
	}
	return sps
}

// Register adds a new record. EntityID must be unique; Name, when set,
// must be unique as well. Uniqueness is enforced before the write
// commits.
func (s *Store) Register(sp *domain.TrustedSP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap.Load()
	if _, exists := snap.byEntityID[sp.EntityID]; exists {
		return domain.BadRequestError(fmt.Sprintf("A service provider with entity ID %q is already registered", sp.EntityID))
	}
	if err := checkNameUnique(snap, sp); err != nil {
		return err
	}

	record := sp.Clone()
	now := s.clock.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	next := cloneSnapshot(snap)
	next.byEntityID[record.EntityID] = record
	next.order = append(next.order, record.EntityID)
	return s.commit(next, "registered", record.EntityID)
}

// Update replaces an existing record, keyed by EntityID.
func (s *Store) Update(sp *domain.TrustedSP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap.Load()
	current, exists := snap.byEntityID[sp.EntityID]
	if !exists {
		return domain.SPNotFoundError(sp.EntityID)
	}
	if err := checkNameUnique(snap, sp); err != nil {
		return err
	}

	record := sp.Clone()
	record.CreatedAt = current.CreatedAt
	record.UpdatedAt = s.clock.Now().UTC()

	next := cloneSnapshot(snap)
	next.byEntityID[record.EntityID] = record
	return s.commit(next, "updated", record.EntityID)
}

// Remove deletes a record.
func (s *Store) Remove(entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap.Load()
	if _, exists := snap.byEntityID[entityID]; !exists {
		return domain.SPNotFoundError(entityID)
	}

	next := &snapshot{byEntityID: map[string]*domain.TrustedSP{}}
	for _, id := range snap.order {
		if id == entityID {
			continue
		}
		next.byEntityID[id] = snap.byEntityID[id]
		next.order = append(next.order, id)
	}
	return s.commit(next, "removed", entityID)
}

// commit persists (when configured) and swaps the snapshot in. The swap
// happens only after persistence succeeds so readers never see a state
// that failed to commit.
func (s *Store) commit(next *snapshot, action, entityID string) error {
	if s.persist != nil {
		sps := make([]*domain.TrustedSP, 0, len(next.order))
		for _, id := range next.order {
			sps = append(sps, next.byEntityID[id])
		}
		if err := s.persist(sps); err != nil {
			return domain.ServiceError("Failed to persist service provider registry", err)
		}
	}
	s.snap.Store(next)
	s.logger.Info("trusted SP "+action, zap.String("entity_id", entityID))
	return nil
}

func checkNameUnique(snap *snapshot, sp *domain.TrustedSP) error {
	if sp.Name == "" {
		return nil
	}
	for _, other := range snap.byEntityID {
		if other.EntityID != sp.EntityID && other.Name == sp.Name {
			return domain.BadRequestError(fmt.Sprintf("A service provider named %q is already registered", sp.Name))
		}
	}
	return nil
}

func cloneSnapshot(snap *snapshot) *snapshot {
	next := &snapshot{
		byEntityID: make(map[string]*domain.TrustedSP, len(snap.byEntityID)),
		order:      append([]string(nil), snap.order...),
	}
	for id, sp := range snap.byEntityID {
		next.byEntityID[id] = sp
	}
	return next
}

var _ ports.TrustStore = (*Store)(nil)
