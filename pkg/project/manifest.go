// Package project reads and rewrites Julia project files (Project.toml).
//
// A Manifest keeps the whole decoded document so that sections this package
// does not model survive a rewrite. Helpers expose the sections the
// downgrade pipeline needs: deps, compat, extras, sources, weakdeps and
// workspace.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/fsutil"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// Section names of a project file.
const (
	SectionDeps      = "deps"
	SectionCompat    = "compat"
	SectionExtras    = "extras"
	SectionSources   = "sources"
	SectionWeakDeps  = "weakdeps"
	SectionWorkspace = "workspace"
)

// FileNames lists the accepted project file names in lookup order.
var FileNames = []string{"JuliaProject.toml", "Project.toml"}

// Manifest is a decoded project file.
type Manifest struct {
	Path string
	Doc  map[string]any
}

// Find returns the path of the project file in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", pkgerrors.ErrProjectNotFoundInDir(dir)
}

// Load reads and decodes the project file at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a project file chosen by the caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, pkgerrors.ErrProjectNotFound)
		}
		return nil, pkgerrors.Wrapf(err, "reading %s", path)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, pkgerrors.Wrap(err, path)
	}
	m.Path = path
	return m, nil
}

// Parse decodes project file content.
func Parse(data []byte) (*Manifest, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrManifestParse, err)
	}
	return &Manifest{Doc: doc}, nil
}

// Marshal encodes the manifest back to TOML.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := toml.Marshal(m.Doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrManifestWrite, err)
	}
	return data, nil
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrManifestWrite, err)
	}
	return nil
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	return &Manifest{Path: m.Path, Doc: deepCopyMap(m.Doc)}
}

// Name returns the package name, or "" for an unnamed environment.
func (m *Manifest) Name() string { return m.stringField("name") }

// UUID returns the package UUID, or "".
func (m *Manifest) UUID() string { return m.stringField("uuid") }

// Version returns the package version, or "".
func (m *Manifest) Version() string { return m.stringField("version") }

func (m *Manifest) stringField(key string) string {
	s, _ := m.Doc[key].(string)
	return s
}

// Section returns the named top-level table, or nil if it is absent or not a table.
func (m *Manifest) Section(name string) map[string]any {
	sec, _ := m.Doc[name].(map[string]any)
	return sec
}

// ensureSection returns the named table, creating it if needed.
func (m *Manifest) ensureSection(name string) map[string]any {
	if sec := m.Section(name); sec != nil {
		return sec
	}
	sec := map[string]any{}
	m.Doc[name] = sec
	return sec
}

// Deps returns the [deps] section as name → UUID.
func (m *Manifest) Deps() map[string]string { return m.stringSection(SectionDeps) }

// Extras returns the [extras] section as name → UUID.
func (m *Manifest) Extras() map[string]string { return m.stringSection(SectionExtras) }

// WeakDeps returns the [weakdeps] section as name → UUID.
func (m *Manifest) WeakDeps() map[string]string { return m.stringSection(SectionWeakDeps) }

// Compat returns the [compat] section as name → constraint expression.
// Entries whose value is not a string are skipped with a warning.
func (m *Manifest) Compat() map[string]string { return m.stringSection(SectionCompat) }

func (m *Manifest) stringSection(name string) map[string]string {
	sec := m.Section(name)
	out := make(map[string]string, len(sec))
	for key, raw := range sec {
		s, ok := raw.(string)
		if !ok {
			logger.Warn("ignoring non-string entry", logger.Fields{
				"project": m.Path,
				"section": name,
				"package": key,
			})
			continue
		}
		out[key] = s
	}
	return out
}

// WorkspaceProjects returns workspace.projects in declaration order.
func (m *Manifest) WorkspaceProjects() []string {
	ws := m.Section(SectionWorkspace)
	if ws == nil {
		return nil
	}
	raw, _ := ws["projects"].([]any)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// HasWorkspace reports whether the manifest declares a [workspace] section.
func (m *Manifest) HasWorkspace() bool {
	return m.Section(SectionWorkspace) != nil
}

// Validate checks the structural invariants the pipeline relies on: every
// [deps] value is a UUID and every package in [sources] is declared in
// [deps] or [extras].
func (m *Manifest) Validate() error {
	if id := m.UUID(); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%s: invalid project uuid %q: %w", m.Path, id, pkgerrors.ErrManifestParse)
		}
	}
	deps := m.Deps()
	for _, name := range sortedKeys(deps) {
		if _, err := uuid.Parse(deps[name]); err != nil {
			return fmt.Errorf("%s: dependency %s has invalid uuid %q: %w", m.Path, name, deps[name], pkgerrors.ErrManifestParse)
		}
	}
	extras := m.Extras()
	for _, name := range sortedKeys(m.Section(SectionSources)) {
		_, inDeps := deps[name]
		_, inExtras := extras[name]
		if !inDeps && !inExtras {
			return fmt.Errorf("%s: source %s is not listed in [deps] or [extras]: %w", m.Path, name, pkgerrors.ErrManifestParse)
		}
	}
	return nil
}

// Remove deletes every entry of the given packages from deps, extras,
// compat and sources. An emptied [sources] section is dropped.
func (m *Manifest) Remove(pkgs PackageSet) {
	for _, section := range []string{SectionDeps, SectionExtras, SectionCompat, SectionSources} {
		sec := m.Section(section)
		if sec == nil {
			continue
		}
		for name := range pkgs {
			delete(sec, name)
		}
	}
	if sources, ok := m.Doc[SectionSources].(map[string]any); ok && len(sources) == 0 {
		delete(m.Doc, SectionSources)
	}
}

func deepCopyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = deepCopyMap(e)
		}
		return out
	default:
		return v
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
