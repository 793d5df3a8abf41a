package core

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultProfileFile is the profile read when no other is given
const DefaultProfileFile = "profile.toml"

// Profile stores what the game is launched with, usually in profile.toml
type Profile struct {
	Name     string `toml:"name,omitempty"`
	Username string `toml:"username"`
	Version  string `toml:"version"`
	// Memory is the heap requested for the game, in MB
	Memory uint64 `toml:"memory"`
	// Java overrides runtime discovery
	Java string `toml:"java,omitempty"`
	// GameDir is stored relative to the profile file, in forward slash format
	GameDir string `toml:"game-dir,omitempty"`
	Window  struct {
		Width  int `toml:"width,omitempty"`
		Height int `toml:"height,omitempty"`
	} `toml:"window,omitempty"`
	path string
}

// NewProfile creates a profile that will be saved to path
func NewProfile(path string) Profile {
	return Profile{Memory: 2048, path: path}
}

// LoadProfile loads a profile file
func LoadProfile(path string) (Profile, error) {
	var profile Profile
	if _, err := toml.DecodeFile(path, &profile); err != nil {
		return Profile{}, err
	}
	profile.path = path
	return profile, nil
}

// Validate checks the profile can be launched
func (p Profile) Validate() error {
	if p.Username == "" {
		return errors.New("no username specified in profile")
	}
	if p.Version == "" {
		return errors.New("no version specified in profile")
	}
	if p.Memory == 0 {
		return errors.New("no memory specified in profile")
	}
	return nil
}

// GetGameDir returns the directory the game runs in: the game-dir setting, or the directory of the profile
func (p Profile) GetGameDir() string {
	base := filepath.Dir(p.path)
	if p.GameDir == "" {
		return base
	}
	dir := filepath.FromSlash(p.GameDir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// Path returns the file the profile is saved to
func (p Profile) Path() string {
	return p.path
}

// Write saves the profile file
func (p Profile) Write() error {
	f, err := os.Create(p.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	// Disable indentation
	enc.Indent = ""
	return enc.Encode(p)
}
