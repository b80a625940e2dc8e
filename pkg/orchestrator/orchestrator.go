// Package orchestrator sequences source stripping, merging, resolution and
// bound verification for one invocation.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/glorpus-work/downgrade/pkg/errors"
	"github.com/glorpus-work/downgrade/pkg/fsutil"
	"github.com/glorpus-work/downgrade/pkg/hook"
	"github.com/glorpus-work/downgrade/pkg/lockfile"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/glorpus-work/downgrade/pkg/project"
	"github.com/glorpus-work/downgrade/pkg/resolver"
	"github.com/glorpus-work/downgrade/pkg/verify"
)

// Directories that request a merged main and test resolution.
const (
	MainDir = "."
	TestDir = project.TestProject
)

// New returns an orchestrator resolving through r.
func New(r Resolver, scripts HookRunner) *Orchestrator {
	return &Orchestrator{Resolver: r, Scripts: scripts}
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Run resolves every requested directory with the mode's directive and, in
// forcedeps mode, verifies the declared lower bounds against each lock file.
// When both "." and "test" are requested they are merged and resolved
// together first; any other directory is resolved on its own afterwards.
// The first failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if o.Resolver == nil {
		return nil, fmt.Errorf("resolver is not configured")
	}
	dirs := cleanList(opts.Projects)
	if len(dirs) == 0 {
		return nil, pkgerrors.ErrNoProjects
	}
	ignore := project.NewPackageSet(cleanList(opts.Skip)...)
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	opts.Root = root

	res := &Result{Mode: mode}
	if mode.Verifies() {
		res.Report = &verify.Report{}
	}

	rest := dirs
	if mergeRequested(dirs) {
		report, err := o.runMerged(ctx, mode, opts, ignore)
		res.Report.Merge(report)
		if err != nil {
			emit(o.Hooks, Event{Phase: "error", ID: MainDir, Msg: err.Error()})
			return res, err
		}
		res.Resolved = append(res.Resolved, MainDir, TestDir)
		rest = without(dirs, MainDir, TestDir)
	}

	for _, dir := range rest {
		report, err := o.runSingle(ctx, filepath.Join(opts.Root, dir), mode, opts, ignore)
		res.Report.Merge(report)
		if err != nil {
			emit(o.Hooks, Event{Phase: "error", ID: dir, Msg: err.Error()})
			return res, err
		}
		res.Resolved = append(res.Resolved, dir)
	}

	emit(o.Hooks, Event{Phase: "done", Msg: string(mode)})
	return res, nil
}

// runSingle resolves one directory with its source packages stripped for the
// duration of the resolver call.
func (o *Orchestrator) runSingle(ctx context.Context, dir string, mode Mode, opts Options, ignore project.PackageSet) (*verify.Report, error) {
	m, err := loadProject(dir)
	if err != nil {
		return nil, err
	}
	sources := project.SourcePackages(m)
	if len(sources) > 0 {
		logger.Info("excluding source packages from resolution", logger.Fields{
			"project":  dir,
			"packages": sources.Sorted(),
		})
	}

	err = project.WithStripped(m.Path, sources, func() error {
		return o.resolve(ctx, dir, mode, opts)
	})
	if err != nil {
		return nil, err
	}

	if !mode.Verifies() {
		return nil, nil
	}
	lf, err := lockfile.Read(filepath.Join(dir, lockfile.NameFor(m.Path)))
	if err != nil {
		return nil, err
	}
	emit(o.Hooks, Event{Phase: "verifying", ID: dir})
	report := checkManifest(m, ignore.Union(sources), lf.ResolvedVersions())
	return report, o.finishVerify(dir, mode, opts, report)
}

// runMerged resolves the main and test projects as one synthetic project,
// installs the resulting lock file in the main directory and verifies both
// projects' bounds against it.
func (o *Orchestrator) runMerged(ctx context.Context, mode Mode, opts Options, ignore project.PackageSet) (*verify.Report, error) {
	mainDir := filepath.Join(opts.Root, MainDir)
	main, err := loadProject(mainDir)
	if err != nil {
		return nil, err
	}
	test, err := loadProject(filepath.Join(opts.Root, TestDir))
	if err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "merging", ID: MainDir, Msg: TestDir})
	merged, err := project.Merge(main, test, opts.TempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := merged.Cleanup(); cerr != nil {
			logger.Warn("failed to remove merged project", logger.Fields{"dir": merged.Dir, "error": cerr.Error()})
		}
	}()

	if err := o.resolve(ctx, merged.Dir, mode, opts); err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "patching", ID: MainDir})
	mainLock := filepath.Join(mainDir, lockfile.NameFor(main.Path))
	mergedLock := filepath.Join(merged.Dir, lockfile.NameFor(merged.Path))
	if err := installLock(mergedLock, mainLock); err != nil {
		return nil, err
	}
	if _, err := lockfile.AddMainPackage(mainLock, main); err != nil {
		return nil, err
	}

	if !mode.Verifies() {
		return nil, nil
	}
	lf, err := lockfile.Read(mainLock)
	if err != nil {
		return nil, err
	}
	resolved := lf.ResolvedVersions()
	skip := ignore.Union(merged.Sources, merged.MainSources)

	emit(o.Hooks, Event{Phase: "verifying", ID: MainDir})
	report := checkManifest(main, skip, resolved)
	report.Merge(checkManifest(test, skip, resolved))
	return report, o.finishVerify(mainDir, mode, opts, report)
}

func (o *Orchestrator) resolve(ctx context.Context, dir string, mode Mode, opts Options) error {
	hctx := hook.HookContext{Project: dir, Mode: string(mode), JuliaVersion: opts.JuliaVersion}
	if err := o.runScript(hook.PreResolve, hctx); err != nil {
		return err
	}

	emit(o.Hooks, Event{Phase: "resolving", ID: dir, Msg: string(mode.Directive())})
	err := o.Resolver.Resolve(ctx, resolver.Request{
		Dir:          dir,
		Directive:    mode.Directive(),
		JuliaVersion: opts.JuliaVersion,
	})
	if err != nil {
		return err
	}
	logger.Success("resolved", logger.Fields{"project": dir, "directive": string(mode.Directive())})

	return o.runScript(hook.PostResolve, hctx)
}

func (o *Orchestrator) finishVerify(dir string, mode Mode, opts Options, report *verify.Report) error {
	err := o.runScript(hook.PostVerify, hook.HookContext{
		Project:      dir,
		Mode:         string(mode),
		JuliaVersion: opts.JuliaVersion,
		Vars: map[string]interface{}{
			"ok":         report.OK(),
			"mismatches": report.Strings(),
		},
	})
	if err != nil {
		return err
	}
	if report.OK() {
		logger.Success("lower bounds verified", logger.Fields{"project": dir, "checked": len(report.Checked)})
	}
	return report.Err()
}

func (o *Orchestrator) runScript(t hook.HookType, hctx hook.HookContext) error {
	if o.Scripts == nil {
		return nil
	}
	return o.Scripts.Execute(t, hctx)
}

// installLock copies the merged lock file into the main project. A missing
// merged lock file is left for AddMainPackage to report.
func installLock(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			logger.Warn("resolver produced no lock file", logger.Fields{"lockfile": src})
			return nil
		}
		return pkgerrors.Wrapf(err, "checking %s", src)
	}
	if err := fsutil.Copy(src, dst); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrManifestWrite, err)
	}
	return nil
}

func mergeRequested(dirs []string) bool {
	var main, test bool
	for _, d := range dirs {
		switch d {
		case MainDir:
			main = true
		case TestDir:
			test = true
		}
	}
	return main && test
}

func without(dirs []string, drop ...string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		keep := true
		for _, x := range drop {
			if d == x {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, d)
		}
	}
	return out
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
