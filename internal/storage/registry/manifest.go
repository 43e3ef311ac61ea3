package registry

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the optional YAML override of the default store layout.
//
//	base_dir: /mnt/stores
//	default_pragmas: ["cache_size=-64000"]
//	stores:
//	  - name: SRS_CONTATOS
//	    target: postgres://reader@db/contacts
//	    capacity: 20
//	    pragmas: ["statement_timeout=5000"]
type Manifest struct {
	BaseDir        string          `yaml:"base_dir"`
	DefaultPragmas []string        `yaml:"default_pragmas"`
	Stores         []ManifestStore `yaml:"stores"`
}

// ManifestStore overrides a single store. Unset fields keep their defaults.
type ManifestStore struct {
	Name     string   `yaml:"name"`
	Target   string   `yaml:"target"`
	Driver   string   `yaml:"driver"`
	Capacity int      `yaml:"capacity"`
	Pragmas  []string `yaml:"pragmas"`
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store manifest: %w", err)
	}
	defer f.Close()
	return ParseManifest(f)
}

// ParseManifest decodes a manifest, rejecting unknown keys.
func ParseManifest(r io.Reader) (*Manifest, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read store manifest: %w", err)
	}
	var m Manifest
	if len(bytes.TrimSpace(raw)) == 0 {
		return &m, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode store manifest: %w", err)
	}
	return &m, nil
}

// Descriptors merges the manifest over the default layout rooted at
// fallbackBaseDir (the manifest's base_dir wins when set). Stores named in
// the manifest but not known by default are added.
func (m *Manifest) Descriptors(fallbackBaseDir string, extra ...string) ([]StoreDescriptor, error) {
	baseDir := fallbackBaseDir
	if m.BaseDir != "" {
		baseDir = m.BaseDir
	}

	defaults := DefaultSQLitePragmas()
	if len(m.DefaultPragmas) > 0 {
		parsed, err := parsePragmas(m.DefaultPragmas)
		if err != nil {
			return nil, err
		}
		defaults = parsed
	}

	descs := ForBaseDir(baseDir, extra...)
	index := make(map[string]int, len(descs))
	for i := range descs {
		descs[i].Pragmas = append([]Pragma(nil), defaults...)
		index[descs[i].Name] = i
	}

	for _, s := range m.Stores {
		if s.Name == "" {
			return nil, fmt.Errorf("store manifest: entry without name")
		}
		i, ok := index[s.Name]
		if !ok {
			descs = append(descs, StoreDescriptor{
				Name:    s.Name,
				Target:  FileTarget(baseDir, s.Name),
				Driver:  DriverSQLite,
				Pragmas: append([]Pragma(nil), defaults...),
			})
			i = len(descs) - 1
			index[s.Name] = i
		}
		d := &descs[i]
		if s.Target != "" {
			d.Target = s.Target
			d.Driver = DriverFor(s.Target)
			// sqlite pragmas make no sense on a server target
			if d.Driver != DriverSQLite {
				d.Pragmas = nil
			}
		}
		if s.Driver != "" {
			switch Driver(s.Driver) {
			case DriverSQLite, DriverPostgres:
				d.Driver = Driver(s.Driver)
			default:
				return nil, fmt.Errorf("store %s: unknown driver %q", s.Name, s.Driver)
			}
		}
		if s.Capacity != 0 {
			d.Capacity = s.Capacity
		}
		if s.Pragmas != nil {
			parsed, err := parsePragmas(s.Pragmas)
			if err != nil {
				return nil, fmt.Errorf("store %s: %w", s.Name, err)
			}
			d.Pragmas = parsed
		}
	}
	return descs, nil
}

func parsePragmas(raw []string) ([]Pragma, error) {
	out := make([]Pragma, 0, len(raw))
	for _, s := range raw {
		p, err := ParsePragma(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
