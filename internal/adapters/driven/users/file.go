// Package users is the authentication collaborator: it stores accounts
// and turns valid credentials into Principals. Credential mechanics
// stay here, behind the UserStore port.
package users

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// FileStore is a YAML-file backed user store with bcrypt password
// hashes. Safe for concurrent use.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	users  map[string]*domain.User
	order  []string
	logger *zap.Logger
}

type usersFile struct {
	Users []*domain.User `yaml:"users"`
}

// NewFileStore loads the user file; a missing file starts empty.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &FileStore{
		path:   path,
		users:  make(map[string]*domain.User),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, domain.ServiceError("Failed to read user store", err)
		}
		return store, nil
	}

	var file usersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.ServiceError("Failed to parse user store", err)
	}
	for _, u := range file.Users {
		if _, exists := store.users[u.Username]; exists {
			return nil, domain.BadRequestError(fmt.Sprintf("Duplicate username %q in user store", u.Username))
		}
		store.users[u.Username] = u
		store.order = append(store.order, u.Username)
	}

	logger.Info("user store loaded", zap.String("path", path), zap.Int("count", len(file.Users)))
	return store, nil
}

// Authenticate verifies the credentials and returns the principal.
// Unknown users and wrong passwords are indistinguishable to callers.
func (s *FileStore) Authenticate(username, password string) (*domain.Principal, error) {
	s.mu.RLock()
	user, exists := s.users[username]
	s.mu.RUnlock()

	if !exists {
		// Burn a comparison so unknown users cost the same as bad
		// passwords.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGyyRZqRAcqMBkCyd7c0krsolOsUQSKS"), []byte(password))
		return nil, domain.AuthFailedError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.AuthFailedError()
	}
	return user.Principal(), nil
}

// Put creates or replaces an account, hashing the plaintext password.
// The file is rewritten before memory changes: a persistence failure
// leaves the store exactly as it was.
func (s *FileStore) Put(user *domain.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.ServiceError("Failed to hash password", err)
	}

	record := *user
	record.PasswordHash = string(hash)

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.order
	if _, exists := s.users[record.Username]; !exists {
		order = append(append([]string(nil), s.order...), record.Username)
	}
	list := make([]*domain.User, 0, len(order))
	for _, name := range order {
		if name == record.Username {
			list = append(list, &record)
			continue
		}
		list = append(list, s.users[name])
	}

	if err := s.persist(list); err != nil {
		return err
	}
	s.order = order
	s.users[record.Username] = &record
	s.logger.Info("user stored", zap.String("username", record.Username))
	return nil
}

// Remove deletes an account. As with Put, the file is rewritten before
// the in-memory state is touched.
func (s *FileStore) Remove(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; !exists {
		return domain.BadRequestError(fmt.Sprintf("Unknown user %q", username))
	}

	order := make([]string, 0, len(s.order)-1)
	list := make([]*domain.User, 0, len(s.order)-1)
	for _, name := range s.order {
		if name == username {
			continue
		}
		order = append(order, name)
		list = append(list, s.users[name])
	}

	if err := s.persist(list); err != nil {
		return err
	}
	s.order = order
	delete(s.users, username)
	return nil
}

// persist rewrites the user file atomically. Callers hold the write
// lock and commit their in-memory change only after persist succeeds.
func (s *FileStore) persist(list []*domain.User) error {
	data, err := yaml.Marshal(usersFile{Users: list})
	if err != nil {
		return domain.ServiceError("Failed to persist user store", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.yaml")
	if err != nil {
		return domain.ServiceError("Failed to persist user store", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return domain.ServiceError("Failed to persist user store", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return domain.ServiceError("Failed to persist user store", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return domain.ServiceError("Failed to persist user store", err)
	}
	return nil
}

var _ ports.UserStore = (*FileStore)(nil)
