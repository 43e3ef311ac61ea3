// Package registry maps logical store names to their connection targets and
// per-connection initialization settings. The registry is built once at
// startup and is read-only afterwards, so it needs no locking.
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Logical store names. Each holds one table of the same name.
const (
	StoreContacts        = "SRS_CONTATOS"
	StoreEmails          = "SRS_EMAIL"
	StorePhoneHistory    = "SRS_HISTORICO_TELEFONES"
	StoreAddresses       = "SRS_TB_ENDERECOS"
	StoreScore           = "SRS_TB_MODELOS_ANALYTICS_SCORE"
	StoreIncomeTax       = "SRS_TB_IRPF"
	StorePIS             = "SRS_TB_PIS"
	StoreProfession      = "SRS_TB_PROFISSAO"
	StoreElectoral       = "SRS_TB_TSE"
	StoreUniversity      = "SRS_TB_UNIVERSITARIOS"
	StoreRelatives       = "SRS_MAPA_PARENTES_ANALYTICS"
	StorePurchasingPower = "SRS_TB_PODER_AQUISITIVO"
)

// KnownStores lists every store the dossier reads, primary first.
var KnownStores = []string{
	StoreContacts,
	StoreEmails,
	StorePhoneHistory,
	StoreAddresses,
	StoreScore,
	StoreIncomeTax,
	StorePIS,
	StoreProfession,
	StoreElectoral,
	StoreUniversity,
	StoreRelatives,
	StorePurchasingPower,
}

// Driver selects how connections to a target are opened.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Pragma is one per-connection setting applied when a connection is created.
// SQLite renders it as PRAGMA name=value, PostgreSQL as SET name = value.
type Pragma struct {
	Name  string
	Value string
}

func (p Pragma) String() string {
	return p.Name + "=" + p.Value
}

// ParsePragma parses "name=value".
func ParsePragma(s string) (Pragma, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		return Pragma{}, fmt.Errorf("pragma %q: want name=value", s)
	}
	return Pragma{Name: name, Value: value}, nil
}

// DefaultSQLitePragmas tune read-mostly bulk stores: no journal, no fsync,
// a large page cache, in-memory temporaries.
func DefaultSQLitePragmas() []Pragma {
	return []Pragma{
		{Name: "temp_store", Value: "MEMORY"},
		{Name: "cache_size", Value: "-2000000"},
		{Name: "page_size", Value: "4096"},
		{Name: "journal_mode", Value: "OFF"},
		{Name: "synchronous", Value: "OFF"},
		{Name: "locking_mode", Value: "NORMAL"},
		{Name: "read_uncommitted", Value: "1"},
	}
}

// StoreDescriptor describes one store. Values are immutable once the
// registry is built; Lookup hands out copies.
type StoreDescriptor struct {
	Name     string
	Target   string
	Driver   Driver
	Pragmas  []Pragma
	Capacity int // 0 means the pool manager default
}

func (d StoreDescriptor) clone() StoreDescriptor {
	d.Pragmas = append([]Pragma(nil), d.Pragmas...)
	return d
}

// DriverFor infers the driver from a target: PostgreSQL URLs use pgx,
// anything else is a SQLite file path.
func DriverFor(target string) Driver {
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// FileTarget returns the conventional location of a file-backed store:
// {baseDir}/{NAME}.db/{NAME}.db.
func FileTarget(baseDir, name string) string {
	return filepath.Join(baseDir, name+".db", name+".db")
}

// ForBaseDir builds descriptors for every known store plus any extra store
// names (such as shard instances), all laid out under baseDir with the
// default SQLite pragmas.
func ForBaseDir(baseDir string, extra ...string) []StoreDescriptor {
	names := append(append([]string(nil), KnownStores...), extra...)
	descs := make([]StoreDescriptor, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		descs = append(descs, StoreDescriptor{
			Name:    name,
			Target:  FileTarget(baseDir, name),
			Driver:  DriverSQLite,
			Pragmas: DefaultSQLitePragmas(),
		})
	}
	return descs
}

// Registry is the static name → descriptor table.
type Registry struct {
	stores map[string]StoreDescriptor
}

// New validates descriptors and builds a registry. Names must be unique and
// targets non-empty; a missing driver is inferred from the target.
func New(descs ...StoreDescriptor) (*Registry, error) {
	stores := make(map[string]StoreDescriptor, len(descs))
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("store descriptor without name")
		}
		if d.Target == "" {
			return nil, fmt.Errorf("store %s: target is required", d.Name)
		}
		if _, exists := stores[d.Name]; exists {
			return nil, fmt.Errorf("store %s registered twice", d.Name)
		}
		if d.Capacity < 0 {
			return nil, fmt.Errorf("store %s: negative capacity", d.Name)
		}
		if d.Driver == "" {
			d.Driver = DriverFor(d.Target)
		}
		stores[d.Name] = d.clone()
	}
	return &Registry{stores: stores}, nil
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (StoreDescriptor, bool) {
	d, ok := r.stores[name]
	if !ok {
		return StoreDescriptor{}, false
	}
	return d.clone(), true
}

// Names returns all registered store names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
