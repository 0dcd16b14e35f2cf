package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	profileFile = "profile.json"
)

// Profile is the persisted CLI identity.
type Profile struct {
	// UserID is the owner the CLI saves, lists and searches links as.
	UserID string `json:"userId"`
}

// LoadProfile loads the profile from a target .linkrecall/profile.json.
// Returns nil, nil if no profile exists.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadProfile(overrideDir string) (*Profile, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, profileFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	profile := &Profile{}
	if err := json.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	return profile, nil
}

// SaveProfile persists the profile, creating ~/.linkrecall/ when needed.
func (m *Manager) SaveProfile(profile *Profile, overrideDir string) error {
	if profile == nil {
		return errors.New("cannot save nil profile")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, profileFile), data, 0o600); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	return nil
}

// ClearProfile removes the profile file.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearProfile(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, profileFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing profile: %w", err)
	}

	return nil
}
