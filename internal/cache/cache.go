// Package cache snapshots the tracker state to a directory of yaml files.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"boxwatch/internal/fighters"
	"boxwatch/internal/tracker"

	"gopkg.in/yaml.v3"
)

const (
	FightersFile = "fighters.yml"
	MatchupsFile = "matchups.yml"
)

var ErrCachePathConflict = errors.New("cache: path exists and is not a directory")

// DeserializationError means a snapshot file exists but could not be read
// back, the cache has to be fixed or removed by hand.
type DeserializationError struct {
	Path string
	Err  error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("cache: deserialize %s: %v", e.Path, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrCachePathConflict, dir)
	}
	return nil
}

// readFile decodes path into out, a missing or empty file leaves out as is.
func readFile(path string, out any) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(content, out)
	if err != nil {
		return &DeserializationError{Path: path, Err: err}
	}
	return nil
}

// Load reads the snapshot in dir, creating dir if it does not exist yet.
func Load(dir string) (tracker.State, error) {
	err := ensureDir(dir)
	if err != nil {
		return tracker.State{}, err
	}

	var identities []fighters.Identity
	err = readFile(filepath.Join(dir, FightersFile), &identities)
	if err != nil {
		return tracker.State{}, err
	}
	var matchups []tracker.Record
	err = readFile(filepath.Join(dir, MatchupsFile), &matchups)
	if err != nil {
		return tracker.State{}, err
	}

	return tracker.State{
		Fighters: fighters.NewIndex(identities...),
		Matchups: matchups,
	}, nil
}

func writeFile(path string, value any) error {
	content, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: serialize %s: %w", path, err)
	}
	return os.WriteFile(path, content, 0o644)
}

// Save overwrites both snapshot files in dir.
func Save(dir string, state tracker.State) error {
	err := ensureDir(dir)
	if err != nil {
		return err
	}

	identities := []fighters.Identity{}
	if state.Fighters != nil {
		identities = state.Fighters.All()
	}
	matchups := state.Matchups
	if matchups == nil {
		matchups = []tracker.Record{}
	}

	err = writeFile(filepath.Join(dir, FightersFile), identities)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, MatchupsFile), matchups)
}
