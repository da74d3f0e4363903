package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/sheetmark-cli/internal/utils"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const presetExt = ".yaml"

// ErrPresetNotFound is returned when no preset file exists for a name.
var ErrPresetNotFound = errors.New("preset not found")

var presetName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Preset is a named Rule persisted on disk.
type Preset struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Rule        Rule      `yaml:"rule"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// Store keeps presets as one YAML file per name under a directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Dir returns the on-disk preset directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) (string, error) {
	if !presetName.MatchString(name) {
		return "", fmt.Errorf("invalid preset name %q: use letters, digits, '.', '_' or '-'", name)
	}
	return filepath.Join(s.dir, name+presetExt), nil
}

// Save validates and writes p. A new preset gets an ID and CreatedAt;
// overwriting an existing name keeps its ID and CreatedAt.
func (s *Store) Save(p *Preset) error {
	if p == nil {
		return errors.New("preset is nil")
	}
	path, err := s.path(p.Name)
	if err != nil {
		return err
	}
	p.Rule = p.Rule.Normalize()
	if err := p.Rule.Validate(); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	if prev, err := s.Load(p.Name); err == nil {
		p.ID = prev.ID
		p.CreatedAt = prev.CreatedAt
	} else if !errors.Is(err, ErrPresetNotFound) {
		return err
	}
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// Load reads the named preset.
func (s *Store) Load(name string) (*Preset, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return nil, fmt.Errorf("read preset: %w", err)
	}
	var p Preset
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse preset %s: %w", name, err)
	}
	p.Name = name
	return &p, nil
}

// List returns every preset sorted by name. A missing directory yields none.
func (s *Store) List() ([]*Preset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets dir: %w", err)
	}
	var out []*Preset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), presetExt) {
			continue
		}
		p, err := s.Load(strings.TrimSuffix(e.Name(), presetExt))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the named preset.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}
		return fmt.Errorf("remove preset: %w", err)
	}
	return nil
}
