package project

import (
	"os"
	"path/filepath"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/logger"
)

// Merged is a synthetic project combining a main project and its test
// project, written to its own directory for joint resolution.
type Merged struct {
	// Dir is the isolated directory holding the merged project file.
	Dir string
	// Path is the merged project file inside Dir.
	Path     string
	Manifest *Manifest
	// Sources are the test project's path/url packages, excluded from the merge.
	Sources PackageSet
	// MainSources are the main project's path/url packages, removed from the merged copy.
	MainSources PackageSet
}

// Cleanup removes the merged project's directory.
func (m *Merged) Cleanup() error {
	if m == nil || m.Dir == "" {
		return nil
	}
	return os.RemoveAll(m.Dir)
}

// Merge combines main and test into one project and persists it into a fresh
// directory under tempRoot ("" uses the system temp directory). Neither input
// is modified.
//
// Test deps and weakdeps are added when main lacks them. For compat the main
// project's entry always wins; the two constraints are not intersected, a
// conflict surfaces when the resolver runs.
func Merge(main, test *Manifest, tempRoot string) (*Merged, error) {
	sources := SourcePackages(test)
	mainSources := SourcePackages(main)

	merged := main.Clone()
	delete(merged.Doc, SectionWorkspace)
	merged.Remove(mainSources)

	mergeMissing(merged, SectionDeps, test.Deps(), sources)
	mergeCompat(merged, test, sources)
	mergeMissing(merged, SectionWeakDeps, test.WeakDeps(), sources)

	dir, err := os.MkdirTemp(tempRoot, "downgrade-merge-*")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "creating merge directory")
	}
	path := filepath.Join(dir, "Project.toml")
	merged.Path = path
	if err := merged.Save(path); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	logger.Debug("wrote merged project", logger.Fields{
		"path":    path,
		"sources": sources.Union(mainSources).Sorted(),
	})
	return &Merged{
		Dir:         dir,
		Path:        path,
		Manifest:    merged,
		Sources:     sources,
		MainSources: mainSources,
	}, nil
}

func mergeMissing(merged *Manifest, section string, entries map[string]string, skip PackageSet) {
	if len(entries) == 0 {
		return
	}
	target := merged.ensureSection(section)
	for _, name := range sortedKeys(entries) {
		if skip.Has(name) {
			continue
		}
		if _, ok := target[name]; ok {
			continue
		}
		target[name] = entries[name]
	}
}

func mergeCompat(merged, test *Manifest, skip PackageSet) {
	entries := test.Compat()
	if len(entries) == 0 {
		return
	}
	target := merged.ensureSection(SectionCompat)
	for _, name := range sortedKeys(entries) {
		if skip.Has(name) {
			continue
		}
		if existing, ok := target[name]; ok {
			if existing != entries[name] {
				logger.Info("compat entry declared by both projects, keeping main project's", logger.Fields{
					"package": name,
					"main":    existing,
					"test":    entries[name],
				})
			}
			continue
		}
		target[name] = entries[name]
	}
}
