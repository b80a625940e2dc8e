// Package lockfile reads the Manifest.toml files written by the resolver and
// applies the post-merge add-back of the main package.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/hashicorp/go-version"
	"github.com/pelletier/go-toml/v2"
)

// DepsSection holds the package records of a format 2 lock file.
const DepsSection = "deps"

// FileNames lists the accepted lock file names in lookup order.
var FileNames = []string{"JuliaManifest.toml", "Manifest.toml"}

// bookkeeping keys live at the top level next to the package records.
var bookkeeping = map[string]struct{}{
	"julia_version":   {},
	"manifest_format": {},
	"project_hash":    {},
}

// Record is one resolved package entry.
type Record struct {
	UUID    string
	Version string
	Path    string
}

// File is a decoded lock file.
type File struct {
	Path string
	// Format is the manifest_format value, or "1.0" for the legacy layout.
	Format string
	// JuliaVersion is the runtime the lock file was resolved for, if recorded.
	JuliaVersion string
	// Records maps a package to its candidate records in file order.
	Records map[string][]Record
}

// Find returns the path of the lock file in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", pkgerrors.ErrLockfileNotFound, dir)
}

// NameFor returns the lock file name paired with the given project file.
func NameFor(projectPath string) string {
	if filepath.Base(projectPath) == "JuliaProject.toml" {
		return "JuliaManifest.toml"
	}
	return "Manifest.toml"
}

// Read loads and decodes the lock file at path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // lock file produced for a project chosen by the caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, pkgerrors.ErrLockfileNotFound)
		}
		return nil, pkgerrors.Wrapf(err, "reading %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, pkgerrors.Wrap(err, path)
	}
	f.Path = path
	return f, nil
}

// Parse decodes lock file content in either the current layout (records
// under [deps]) or the legacy one (records at the top level).
func Parse(data []byte) (*File, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrManifestParse, err)
	}

	f := &File{Format: "1.0", Records: map[string][]Record{}}
	f.JuliaVersion, _ = doc["julia_version"].(string)

	entries := doc
	if format, ok := doc["manifest_format"].(string); ok {
		f.Format = format
		entries, _ = doc[DepsSection].(map[string]any)
	}

	for name, raw := range entries {
		if _, skip := bookkeeping[name]; skip {
			continue
		}
		if records := decodeRecords(raw); len(records) > 0 {
			f.Records[name] = records
		}
	}
	return f, nil
}

func decodeRecords(raw any) []Record {
	var tables []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, e := range v {
			if t, ok := e.(map[string]any); ok {
				tables = append(tables, t)
			}
		}
	case []map[string]any:
		tables = v
	case map[string]any:
		tables = []map[string]any{v}
	}

	records := make([]Record, 0, len(tables))
	for _, t := range tables {
		var r Record
		r.UUID, _ = t["uuid"].(string)
		r.Version, _ = t["version"].(string)
		r.Path, _ = t["path"].(string)
		records = append(records, r)
	}
	return records
}

// IsV2 reports whether records live under [deps].
func (f *File) IsV2() bool {
	return f.Format != "1.0"
}

// Has reports whether the lock file holds a record for name.
func (f *File) Has(name string) bool {
	_, ok := f.Records[name]
	return ok
}

// Packages returns the recorded package names in lexical order.
func (f *File) Packages() []string {
	names := make([]string, 0, len(f.Records))
	for name := range f.Records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvedVersions maps every package to the version of its first record.
// Records without a parseable version are left out.
func (f *File) ResolvedVersions() map[string]*version.Version {
	out := make(map[string]*version.Version, len(f.Records))
	for name, records := range f.Records {
		if len(records) == 0 || records[0].Version == "" {
			continue
		}
		v, err := version.NewVersion(records[0].Version)
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out
}
