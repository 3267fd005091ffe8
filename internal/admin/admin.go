// Package admin keeps the administrator password and the retention and
// upload limits in a small YAML settings file.
package admin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/parsererror"
	"fjacquet/ekstre-csv/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Defaults written on first run.
const (
	DefaultFile          = "admin.yaml"
	DefaultPassword      = "admin123"
	DefaultRetentionDays = 90
	DefaultMaxUploadMB   = 10
)

// ErrInvalidPassword is returned when a password check fails.
var ErrInvalidPassword = errors.New("invalid admin password")

// Settings is the on-disk document.
type Settings struct {
	PasswordHash       string    `yaml:"admin_password" json:"-"`
	FileRetentionDays  int       `yaml:"file_retention_days" json:"file_retention_days"`
	MaxUploadSizeMB    int       `yaml:"max_upload_size_mb" json:"max_upload_size_mb"`
	LastSettingsUpdate time.Time `yaml:"last_settings_update" json:"last_settings_update"`
}

// MaxUploadBytes is the upload limit in bytes.
func (s Settings) MaxUploadBytes() int64 {
	return int64(s.MaxUploadSizeMB) << 20
}

// Manager loads and updates Settings. It is safe for concurrent use.
type Manager struct {
	path   string
	logger logging.Logger
	cost   int

	defaultRetention int
	defaultUploadMB  int

	mu       sync.RWMutex
	settings Settings
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaults sets the limits written on first run and used when the file
// leaves them unset. Non-positive values keep the package defaults.
func WithDefaults(retentionDays, maxUploadMB int) Option {
	return func(m *Manager) {
		if retentionDays > 0 {
			m.defaultRetention = retentionDays
		}
		if maxUploadMB > 0 {
			m.defaultUploadMB = maxUploadMB
		}
	}
}

// NewManager creates a Manager for path and loads it, writing defaults
// when the file does not exist.
func NewManager(path string, logger logging.Logger, opts ...Option) (*Manager, error) {
	return newManager(path, logger, bcrypt.DefaultCost, opts...)
}

func newManager(path string, logger logging.Logger, cost int, opts ...Option) (*Manager, error) {
	if path == "" {
		path = DefaultFile
	}
	m := &Manager{
		path:             path,
		logger:           logging.OrDiscard(logger),
		cost:             cost,
		defaultRetention: DefaultRetentionDays,
		defaultUploadMB:  DefaultMaxUploadMB,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		m.logger.Info("Creating admin settings with default password",
			logging.F(logging.FieldFile, m.path))
		return m.resetLocked()
	}
	if err != nil {
		return fmt.Errorf("error reading admin settings: %w", err)
	}

	if info, err := os.Stat(m.path); err == nil {
		if err := validation.IsValidFilePermissions(info.Mode().Perm()); err != nil {
			m.logger.Warn("Admin settings file is readable by other users",
				logging.F(logging.FieldFile, m.path),
				logging.F(logging.FieldError, err.Error()))
		}
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("error parsing admin settings %s: %w", m.path, err)
	}
	if s.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), m.cost)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		s.PasswordHash = string(hash)
	}
	if s.FileRetentionDays < 1 {
		s.FileRetentionDays = m.defaultRetention
	}
	if s.MaxUploadSizeMB < 1 {
		s.MaxUploadSizeMB = m.defaultUploadMB
	}
	m.settings = s
	return nil
}

func (m *Manager) resetLocked() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), m.cost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	return m.saveLocked(Settings{
		PasswordHash:       string(hash),
		FileRetentionDays:  m.defaultRetention,
		MaxUploadSizeMB:    m.defaultUploadMB,
		LastSettingsUpdate: time.Now().UTC().Truncate(time.Second),
	})
}

func (m *Manager) saveLocked(s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("error marshaling admin settings: %w", err)
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("error creating settings directory: %w", err)
		}
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("error writing admin settings: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("error replacing admin settings: %w", err)
	}
	m.settings = s
	return nil
}

// Path returns the settings file.
func (m *Manager) Path() string {
	return m.path
}

// Settings returns a copy of the current settings.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Authenticate reports whether password matches the stored hash.
func (m *Manager) Authenticate(password string) bool {
	m.mu.RLock()
	hash := m.settings.PasswordHash
	m.mu.RUnlock()
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SetPassword replaces the password without checking the current one.
func (m *Manager) SetPassword(password string) error {
	if password == "" {
		return &parsererror.ValidationError{Subject: "admin password", Reason: "must not be empty"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settings
	s.PasswordHash = string(hash)
	s.LastSettingsUpdate = time.Now().UTC().Truncate(time.Second)
	if err := m.saveLocked(s); err != nil {
		return err
	}
	m.logger.Info("Admin password changed")
	return nil
}

// ChangePassword checks current and that next was typed twice the same
// before replacing the password.
func (m *Manager) ChangePassword(current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return &parsererror.ValidationError{Subject: "admin password", Reason: "all fields are required"}
	}
	if next != confirm {
		return &parsererror.ValidationError{Subject: "admin password", Reason: "new passwords do not match"}
	}
	if !m.Authenticate(current) {
		return ErrInvalidPassword
	}
	return m.SetPassword(next)
}

// UpdateSettings changes the retention period and upload limit. Both must
// be at least 1.
func (m *Manager) UpdateSettings(retentionDays, maxUploadMB int) error {
	if retentionDays < 1 {
		return &parsererror.ValidationError{Subject: "file_retention_days", Reason: "must be at least 1"}
	}
	if maxUploadMB < 1 {
		return &parsererror.ValidationError{Subject: "max_upload_size_mb", Reason: "must be at least 1"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.settings
	s.FileRetentionDays = retentionDays
	s.MaxUploadSizeMB = maxUploadMB
	s.LastSettingsUpdate = time.Now().UTC().Truncate(time.Second)
	if err := m.saveLocked(s); err != nil {
		return err
	}
	m.logger.Info("Admin settings updated",
		logging.F("file_retention_days", retentionDays),
		logging.F("max_upload_size_mb", maxUploadMB))
	return nil
}

// Reset restores the default password and limits.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Warn("Resetting admin settings to defaults")
	return m.resetLocked()
}
