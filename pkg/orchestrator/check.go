package orchestrator

import (
	"path/filepath"

	"github.com/glorpus-work/downgrade/pkg/compat"
	"github.com/glorpus-work/downgrade/pkg/lockfile"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/glorpus-work/downgrade/pkg/project"
	"github.com/glorpus-work/downgrade/pkg/verify"
	"github.com/hashicorp/go-version"
)

// ProjectBounds loads the project in dir and returns its lower bounds. Its
// own source packages are ignored along with ignore.
func ProjectBounds(dir string, ignore project.PackageSet) (compat.Bounds, error) {
	m, err := loadProject(dir)
	if err != nil {
		return nil, err
	}
	return compat.LowerBoundsFromManifest(m, ignore.Union(project.SourcePackages(m))), nil
}

// VerifyProject checks the lower bounds of the project in dir against the
// lock file next to it without resolving anything.
func VerifyProject(dir string, ignore project.PackageSet) (*verify.Report, error) {
	m, err := loadProject(dir)
	if err != nil {
		return nil, err
	}
	lf, err := lockfile.Read(filepath.Join(dir, lockfile.NameFor(m.Path)))
	if err != nil {
		return nil, err
	}
	return checkManifest(m, ignore.Union(project.SourcePackages(m)), lf.ResolvedVersions()), nil
}

func checkManifest(m *project.Manifest, ignore project.PackageSet, resolved map[string]*version.Version) *verify.Report {
	bounds := compat.LowerBoundsFromManifest(m, ignore)
	logger.Debug("checking lower bounds", logger.Fields{
		"project":  m.Path,
		"bounds":   len(bounds),
		"resolved": len(resolved),
	})
	return verify.Check(bounds, resolved)
}

func loadProject(dir string) (*project.Manifest, error) {
	path, err := project.Find(dir)
	if err != nil {
		return nil, err
	}
	m, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !project.SupportedWorkspace(m) {
		logger.Warn("unsupported workspace layout, only a single \"test\" project is merged", logger.Fields{
			"project":    path,
			"workspaces": m.WorkspaceProjects(),
		})
	}
	return m, nil
}
