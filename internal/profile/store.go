package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a named profile does not exist.
var ErrNotFound = errors.New("profile not found")

// ErrCorrupt is returned when the profiles file cannot be parsed.
var ErrCorrupt = errors.New("corrupted profiles file")

// Store persists profiles in a keyed JSON file with owner-only permissions.
// The containing directory is created 0700 and the files 0600.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// storeConfig is the shape of the store's own config file, which currently
// only tracks the default profile.
type storeConfig struct {
	DefaultProfile string `json:"default_profile,omitempty"`
}

// NewStore creates a store rooted at dir. An empty dir places the store at
// ~/.kore.
func NewStore(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".kore")
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("module", "profile").Logger(),
	}, nil
}

func (s *Store) profilesPath() string {
	return filepath.Join(s.dir, "profiles")
}

func (s *Store) configPath() string {
	return filepath.Join(s.dir, "config")
}

// ensureDir creates the store directory with owner-only access, tightening
// permissions on an existing directory if needed.
func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create profiles directory: %w", err)
	}
	return os.Chmod(s.dir, 0700)
}

// load reads all profiles. A missing file is an empty store.
func (s *Store) load() (map[string]*Profile, error) {
	data, err := os.ReadFile(s.profilesPath())
	if os.IsNotExist(err) {
		return map[string]*Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	profiles := map[string]*Profile{}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrCorrupt, s.profilesPath(), err)
	}
	for name, p := range profiles {
		p.Name = name
	}
	return profiles, nil
}

// save writes all profiles atomically with owner-only permissions.
func (s *Store) save(profiles map[string]*Profile) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}

	tmp := s.profilesPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write profiles file: %w", err)
	}
	if err := os.Rename(tmp, s.profilesPath()); err != nil {
		return fmt.Errorf("failed to replace profiles file: %w", err)
	}

	s.logger.Debug().Int("count", len(profiles)).Msg("Saved profiles")
	return nil
}

// Lookup returns the named profile.
func (s *Store) Lookup(name string) (*Profile, error) {
	profiles, err := s.load()
	if err != nil {
		return nil, err
	}
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// DefaultProfile returns the profile marked as default, or nil when none is
// set. A default pointing at a deleted profile is treated as unset.
func (s *Store) DefaultProfile() (*Profile, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DefaultProfile == "" {
		return nil, nil
	}
	p, err := s.Lookup(cfg.DefaultProfile)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// List returns all profiles sorted by name.
func (s *Store) List() ([]*Profile, error) {
	profiles, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]*Profile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save adds or replaces a profile.
func (s *Store) Save(p Profile) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New("profile name cannot be empty")
	}
	p.Name = name

	profiles, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := profiles[name]; exists {
		s.logger.Warn().Str("name", name).Msg("Overwriting existing profile")
	}
	profiles[name] = &p
	return s.save(profiles)
}

// Delete removes a profile, clearing the default marker if it pointed at it.
func (s *Store) Delete(name string) error {
	profiles, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := profiles[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(profiles, name)
	if err := s.save(profiles); err != nil {
		return err
	}

	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if cfg.DefaultProfile == name {
		cfg.DefaultProfile = ""
		return s.saveConfig(cfg)
	}
	return nil
}

// SetDefault marks an existing profile as the default.
func (s *Store) SetDefault(name string) error {
	if _, err := s.Lookup(name); err != nil {
		return err
	}
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	cfg.DefaultProfile = name
	return s.saveConfig(cfg)
}

// DefaultName returns the name of the default profile, empty when unset.
func (s *Store) DefaultName() (string, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.DefaultProfile, nil
}

func (s *Store) loadConfig() (*storeConfig, error) {
	data, err := os.ReadFile(s.configPath())
	if os.IsNotExist(err) {
		return &storeConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile config: %w", err)
	}

	cfg := &storeConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrCorrupt, s.configPath(), err)
	}
	return cfg, nil
}

func (s *Store) saveConfig(cfg *storeConfig) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile config: %w", err)
	}
	tmp := s.configPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile config: %w", err)
	}
	if err := os.Rename(tmp, s.configPath()); err != nil {
		return fmt.Errorf("failed to replace profile config: %w", err)
	}
	return nil
}
