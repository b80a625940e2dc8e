package project

import "sort"

// Source is an entry of the [sources] section.
type Source struct {
	Path   string
	URL    string
	Rev    string
	Subdir string
}

// IsLocal reports whether the source pins the package outside the registry.
func (s Source) IsLocal() bool {
	return s.Path != "" || s.URL != ""
}

// Sources returns the decoded [sources] section.
func (m *Manifest) Sources() map[string]Source {
	sec := m.Section(SectionSources)
	out := make(map[string]Source, len(sec))
	for name, raw := range sec {
		tbl, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		var src Source
		src.Path, _ = tbl["path"].(string)
		src.URL, _ = tbl["url"].(string)
		src.Rev, _ = tbl["rev"].(string)
		src.Subdir, _ = tbl["subdir"].(string)
		out[name] = src
	}
	return out
}

// SourcePackages returns the packages whose [sources] entry carries a path
// or url. Such packages cannot be resolved from a registry.
func SourcePackages(m *Manifest) PackageSet {
	set := PackageSet{}
	for name, src := range m.Sources() {
		if src.IsLocal() {
			set.Add(name)
		}
	}
	return set
}

// PackageSet is a set of package names.
type PackageSet map[string]struct{}

// NewPackageSet builds a set from names, skipping empty strings.
func NewPackageSet(names ...string) PackageSet {
	set := make(PackageSet, len(names))
	for _, n := range names {
		if n != "" {
			set.Add(n)
		}
	}
	return set
}

// Add inserts name into the set.
func (s PackageSet) Add(name string) { s[name] = struct{}{} }

// Has reports whether name is in the set.
func (s PackageSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union returns a new set holding the members of s and all others.
func (s PackageSet) Union(others ...PackageSet) PackageSet {
	out := make(PackageSet, len(s))
	for n := range s {
		out.Add(n)
	}
	for _, o := range others {
		for n := range o {
			out.Add(n)
		}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s PackageSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
