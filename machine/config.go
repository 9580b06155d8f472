package machine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a profile from path. A missing file yields the default
// profile; a corrupt or invalid file is an error.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("machine: parsing %s: %w", path, err)
	}
	migrate(p)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("machine: %s: %w", path, err)
	}
	return p, nil
}

// Save writes the profile atomically: marshal to a temp file in the
// same directory, then rename over the target.
func Save(p *Profile, path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".machine-*.yaml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// CreateIfMissing writes the default profile unless path exists.
func CreateIfMissing(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Save(Default(), path)
	}
	return nil
}

// migrate upgrades older profile versions in place.
func migrate(p *Profile) {
	if p.Version == 0 {
		// Pre-versioned files predate the axis field.
		if p.Axes == 0 {
			p.Axes = 4
		}
		p.Version = profileVersion
	}
}
