package truststore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// registryFile is the on-disk YAML document.
type registryFile struct {
	TrustedSPs []*domain.TrustedSP `yaml:"trusted_sp"`
}

// NewFileStore creates a store backed by a YAML registry file. The file
// is loaded at startup (a missing file starts empty) and rewritten
// after every committed mutation.
func NewFileStore(path string, clock ports.Clock, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := NewStore(clock, logger)
	store.persist = func(sps []*domain.TrustedSP) error {
		return writeRegistry(path, sps)
	}

	sps, err := readRegistry(path)
	if err != nil {
		return nil, err
	}
	for _, sp := range sps {
		record := sp.Clone()
		snap := store.snap.Load()
		if _, exists := snap.byEntityID[record.EntityID]; exists {
			return nil, domain.BadRequestError(fmt.Sprintf("Duplicate entity ID %q in registry file", record.EntityID))
		}
		next := cloneSnapshot(snap)
		next.byEntityID[record.EntityID] = record
		next.order = append(next.order, record.EntityID)
		store.snap.Store(next)
	}

	logger.Info("service provider registry loaded",
		zap.String("path", path),
		zap.Int("count", len(sps)),
	)
	return store, nil
}

func readRegistry(path string) ([]*domain.TrustedSP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.ServiceError("Failed to read service provider registry", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.ServiceError("Failed to parse service provider registry", err)
	}
	return file.TrustedSPs, nil
}

// writeRegistry rewrites the registry atomically: write to a temp file
// in the same directory, then rename over the target.
func writeRegistry(path string, sps []*domain.TrustedSP) error {
	data, err := yaml.Marshal(registryFile{TrustedSPs: sps})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".registry-*.yaml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
