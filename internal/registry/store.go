// Package registry holds the ordered list of bank format descriptors the
// classifier scores against, and persists it as a YAML file.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/models"
	"fjacquet/ekstre-csv/internal/parsererror"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the registry file name used when none is configured.
const DefaultFile = "formats.yaml"

// Source yields the descriptors of one classification run. Each call returns
// a fresh copy in registry order; callers may keep it without locking.
type Source interface {
	Snapshot() ([]models.FormatDescriptor, error)
}

type staticSource []models.FormatDescriptor

// Static returns a Source over a fixed list. Inactive descriptors are
// skipped, like Store.Snapshot does.
func Static(formats ...models.FormatDescriptor) Source {
	return staticSource(formats)
}

func (s staticSource) Snapshot() ([]models.FormatDescriptor, error) {
	out := make([]models.FormatDescriptor, 0, len(s))
	for _, f := range s {
		if f.Active {
			out = append(out, withDefaults(f.Clone()))
		}
	}
	return out, nil
}

// formatsFile is the on-disk layout.
type formatsFile struct {
	Formats []models.FormatDescriptor `yaml:"formats"`
}

// Store is a YAML backed registry. It is safe for concurrent use; every
// mutation is written to disk before it returns.
type Store struct {
	path   string
	logger logging.Logger

	mu      sync.RWMutex
	formats []models.FormatDescriptor
	modTime time.Time
	loaded  bool
}

// NewStore creates a store for the given file. Relative names are looked up
// with FindConfigFile; when no existing file is found the name is used as
// is and the file is created with DefaultFormats on first load.
func NewStore(path string, logger logging.Logger) *Store {
	if path == "" {
		path = DefaultFile
	}
	if found, err := FindConfigFile(path); err == nil {
		path = found
	}
	return &Store{path: path, logger: logging.OrDiscard(logger)}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// FindConfigFile looks for filename in the current directory, ./config and
// ~/.config/ekstre-csv, in that order.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "ekstre-csv", filename))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// Load reads the registry file, creating it with the built-in formats when
// it does not exist yet.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Reload discards the in-memory list and reads the file again.
func (s *Store) Reload() error {
	return s.Load()
}

func (s *Store) loadLocked() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("Registry file not found, writing built-in formats",
			logging.F(logging.FieldFile, s.path))
		return s.saveLocked(DefaultFormats())
	}
	if err != nil {
		return fmt.Errorf("error checking registry file: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("error reading registry file: %w", err)
	}

	formats, err := decodeFormats(data)
	if err != nil {
		return fmt.Errorf("error parsing registry file %s: %w", s.path, err)
	}

	s.formats = s.sanitize(formats)
	s.modTime = info.ModTime()
	s.loaded = true
	s.logger.Debug("Loaded format registry",
		logging.F(logging.FieldFile, s.path),
		logging.F(logging.FieldCount, len(s.formats)))
	return nil
}

// decodeFormats accepts both the "formats:" wrapper and a bare list.
func decodeFormats(data []byte) ([]models.FormatDescriptor, error) {
	var wrapped formatsFile
	if err := yaml.Unmarshal(data, &wrapped); err == nil && len(wrapped.Formats) > 0 {
		return wrapped.Formats, nil
	}

	var list []models.FormatDescriptor
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// sanitize drops descriptors that fail validation or repeat an earlier id.
func (s *Store) sanitize(in []models.FormatDescriptor) []models.FormatDescriptor {
	seen := make(map[string]bool, len(in))
	out := make([]models.FormatDescriptor, 0, len(in))
	for _, f := range in {
		if err := f.Validate(); err != nil {
			s.logger.WithError(err).Warn("Skipping invalid format descriptor",
				logging.F(logging.FieldFormat, f.ID))
			continue
		}
		if seen[f.ID] {
			s.logger.Warn("Skipping duplicate format descriptor",
				logging.F(logging.FieldFormat, f.ID))
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}

// saveLocked writes formats to a temp file next to the registry and renames
// it into place.
func (s *Store) saveLocked(formats []models.FormatDescriptor) error {
	data, err := yaml.Marshal(formatsFile{Formats: formats})
	if err != nil {
		return fmt.Errorf("error marshaling formats: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".formats-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temp registry file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("error writing temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error closing temp registry file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error replacing registry file: %w", err)
	}

	s.formats = formats
	s.loaded = true
	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
	}
	return nil
}

// ensureFresh loads the file on first use and again whenever its
// modification time moved since the last read.
func (s *Store) ensureFresh() error {
	info, statErr := os.Stat(s.path)

	s.mu.RLock()
	fresh := s.loaded && (statErr != nil || info.ModTime().Equal(s.modTime))
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && statErr == nil && info.ModTime().Equal(s.modTime) {
		return nil
	}
	return s.loadLocked()
}

// Snapshot returns the active descriptors in registry order, with aliases
// and date separators filled from the built-in tables when empty.
func (s *Store) Snapshot() ([]models.FormatDescriptor, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FormatDescriptor, 0, len(s.formats))
	for _, f := range s.formats {
		if f.Active {
			out = append(out, withDefaults(f.Clone()))
		}
	}
	return out, nil
}

// All returns every descriptor, active or not, as stored.
func (s *Store) All() ([]models.FormatDescriptor, error) {
	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FormatDescriptor, len(s.formats))
	for i, f := range s.formats {
		out[i] = f.Clone()
	}
	return out, nil
}

// Get returns the descriptor with the given id.
func (s *Store) Get(id string) (models.FormatDescriptor, error) {
	if err := s.ensureFresh(); err != nil {
		return models.FormatDescriptor{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.formats[i].Clone(), nil
	}
	return models.FormatDescriptor{}, fmt.Errorf("%w: %s", parsererror.ErrFormatNotFound, id)
}

func (s *Store) indexLocked(id string) int {
	for i, f := range s.formats {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// mutate runs fn on a copy of the list under the write lock and persists
// the result when fn succeeds.
func (s *Store) mutate(fn func([]models.FormatDescriptor) ([]models.FormatDescriptor, error)) error {
	if err := s.ensureFresh(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := make([]models.FormatDescriptor, len(s.formats))
	for i, f := range s.formats {
		working[i] = f.Clone()
	}
	next, err := fn(working)
	if err != nil {
		return err
	}
	return s.saveLocked(next)
}

// Add appends a new descriptor. The id must not exist yet.
func (s *Store) Add(f models.FormatDescriptor) error {
	if err := f.Validate(); err != nil {
		return err
	}
	err := s.mutate(func(list []models.FormatDescriptor) ([]models.FormatDescriptor, error) {
		for _, existing := range list {
			if existing.ID == f.ID {
				return nil, fmt.Errorf("%w: %s", parsererror.ErrDuplicateFormat, f.ID)
			}
		}
		added := f.Clone()
		added.CreatedAt = time.Now().UTC().Truncate(time.Second)
		return append(list, added), nil
	})
	if err == nil {
		s.logger.Info("Added format", logging.F(logging.FieldFormat, f.ID))
	}
	return err
}

// Update replaces the descriptor with the given id, keeping its position
// and creation time.
func (s *Store) Update(id string, f models.FormatDescriptor) error {
	f.ID = id
	if err := f.Validate(); err != nil {
		return err
	}
	err := s.mutate(func(list []models.FormatDescriptor) ([]models.FormatDescriptor, error) {
		for i := range list {
			if list[i].ID == id {
				updated := f.Clone()
				updated.CreatedAt = list[i].CreatedAt
				list[i] = updated
				return list, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", parsererror.ErrFormatNotFound, id)
	})
	if err == nil {
		s.logger.Info("Updated format", logging.F(logging.FieldFormat, id))
	}
	return err
}

// Delete removes the descriptor with the given id.
func (s *Store) Delete(id string) error {
	err := s.mutate(func(list []models.FormatDescriptor) ([]models.FormatDescriptor, error) {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", parsererror.ErrFormatNotFound, id)
	})
	if err == nil {
		s.logger.Info("Deleted format", logging.F(logging.FieldFormat, id))
	}
	return err
}

// SetActive toggles whether a descriptor takes part in classification.
func (s *Store) SetActive(id string, active bool) error {
	return s.mutate(func(list []models.FormatDescriptor) ([]models.FormatDescriptor, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Active = active
				return list, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", parsererror.ErrFormatNotFound, id)
	})
}

// ResetDefaults overwrites the registry with DefaultFormats.
func (s *Store) ResetDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(DefaultFormats())
}
