package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Manager loads client profiles from JSON files in a directory and caches
// them.
type Manager struct {
	configDir      string
	defaultProfile *Profile
	profiles       map[string]*Profile
	mu             sync.RWMutex
}

// NewManager creates a profile manager over configDir.
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		profiles:  make(map[string]*Profile),
	}

	if err := m.loadDefaultProfile(); err != nil {
		return nil, fmt.Errorf("failed to load default profile: %w", err)
	}

	return m, nil
}

// NewStaticManager returns a manager without a directory that only knows the
// built-in default profile.
func NewStaticManager() *Manager {
	return &Manager{
		defaultProfile: DefaultProfile(),
		profiles:       make(map[string]*Profile),
	}
}

func profileKey(name string) string {
	return strings.TrimSuffix(name, ".json")
}

// LoadProfile loads a profile by name, with or without the .json extension.
func (m *Manager) LoadProfile(name string) (*Profile, error) {
	key := profileKey(name)
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	if p, ok := m.profiles[key]; ok {
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(key)
}

func (m *Manager) loadLocked(key string) (*Profile, error) {
	if p, ok := m.profiles[key]; ok {
		return p, nil
	}
	if m.configDir == "" {
		return nil, ErrConfigNotFound
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m.profiles[key] = &p
	return &p, nil
}

// ListProfiles describes every valid profile in the directory, sorted by
// file name. Invalid files are skipped.
func (m *Manager) ListProfiles() ([]*ProfileInfo, error) {
	if m.configDir == "" {
		p := m.GetDefault()
		return []*ProfileInfo{infoFor("", "default", p)}, nil
	}

	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var infos []*ProfileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		key := profileKey(entry.Name())
		p, err := m.LoadProfile(key)
		if err != nil {
			continue
		}
		infos = append(infos, infoFor(entry.Name(), key, p))
	}
	return infos, nil
}

func infoFor(filename, key string, p *Profile) *ProfileInfo {
	return &ProfileInfo{
		Filename:    filename,
		ProfileID:   key,
		Name:        p.Name,
		Description: p.Description,
		Rows:        p.Editor.Rows,
		Cols:        p.Editor.Cols,
	}
}

// GetDefault returns the default profile.
func (m *Manager) GetDefault() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProfile
}

// SetDefault makes the named profile the default.
func (m *Manager) SetDefault(name string) error {
	p, err := m.LoadProfile(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultProfile = p
	return nil
}

// Resolve returns the named profile, or the default when name is empty.
func (m *Manager) Resolve(name string) (*Profile, error) {
	if name == "" {
		return m.GetDefault(), nil
	}
	return m.LoadProfile(name)
}

// ReloadProfile drops a cached profile and reads it again.
func (m *Manager) ReloadProfile(name string) error {
	key := profileKey(name)
	m.mu.Lock()
	delete(m.profiles, key)
	m.mu.Unlock()

	_, err := m.LoadProfile(key)
	return err
}

// SaveProfile validates p and writes it to the directory.
func (m *Manager) SaveProfile(name string, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if m.configDir == "" {
		return fmt.Errorf("no config directory configured")
	}
	key := profileKey(name)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.configDir, key+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	m.mu.Lock()
	m.profiles[key] = p
	m.mu.Unlock()
	return nil
}

// Count returns the number of cached profiles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

// loadDefaultProfile uses default.json, else the first valid profile, else
// the built-in profile.
func (m *Manager) loadDefaultProfile() error {
	m.mu.Lock()
	p, err := m.loadLocked("default")
	m.mu.Unlock()
	if err == nil {
		m.defaultProfile = p
		return nil
	}

	infos, listErr := m.ListProfiles()
	if listErr != nil || len(infos) == 0 {
		m.defaultProfile = DefaultProfile()
		return nil
	}

	p, err = m.LoadProfile(infos[0].ProfileID)
	if err != nil {
		m.defaultProfile = DefaultProfile()
		return nil
	}
	m.defaultProfile = p
	return nil
}

// DefaultProfile is the built-in profile: a 15x15 editor on a 600px canvas.
func DefaultProfile() *Profile {
	p := &Profile{
		Name:        "default",
		Description: "Built-in profile",
	}
	p.Editor.Rows = 15
	p.Editor.Cols = 15
	p.Canvas.Width = 620
	p.Canvas.DPR = 1
	p.Playback.SpeedMS = 20
	return p
}
