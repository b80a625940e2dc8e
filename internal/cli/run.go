package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/glorpus-work/downgrade/pkg/archive"
	"github.com/glorpus-work/downgrade/pkg/config"
	"github.com/glorpus-work/downgrade/pkg/download"
	"github.com/glorpus-work/downgrade/pkg/hook"
	"github.com/glorpus-work/downgrade/pkg/logger"
	"github.com/glorpus-work/downgrade/pkg/orchestrator"
	"github.com/glorpus-work/downgrade/pkg/resolver"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve projects to their lowest compatible versions",
		Long: `Resolve each project directory to the lowest versions its compat bounds allow.

Packages pinned through [sources] are removed from the project while the
resolver runs and restored afterwards. When both "." and "test" are given the
two projects are merged and resolved together. In forcedeps mode every
declared lower bound must be exactly what the resolver picked.

Inputs can also be set with DOWNGRADE_SKIP, DOWNGRADE_PROJECTS, DOWNGRADE_MODE
and DOWNGRADE_JULIA_VERSION.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	addSkipFlag(cmd)
	cmd.Flags().String("projects", DefaultProjects, "Comma-separated project directories ('.' is the main project)")
	cmd.Flags().String("mode", DefaultMode, "Resolution mode: deps, alldeps, weakdeps or forcedeps")
	cmd.Flags().String("julia-version", "", "Target julia version; \"1\" uses the installed julia (default from config)")

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	inv, err := readInvocation(cmd, cfg)
	if err != nil {
		return err
	}

	// An invalid mode must fail before anything is installed.
	mode, err := orchestrator.ParseMode(inv.Mode)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	julia, err := resolver.NewJulia(cfg.Julia.Command, cfg.Resolver.Dir, resolver.NewExecRunner())
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "downgrade-resolver-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	if _, err := newInstaller(cfg, julia, workDir).Install(ctx); err != nil {
		return err
	}

	target, err := resolver.TargetJuliaVersion(ctx, julia, inv.JuliaVersion)
	if err != nil {
		return err
	}

	hooks, err := loadHooks(cfg)
	if err != nil {
		return err
	}

	orch := orchestrator.New(julia, hooks)
	orch.Hooks.OnEvent = func(e orchestrator.Event) {
		logger.Debug("progress", logger.Fields{"phase": e.Phase, "project": e.ID, "msg": e.Msg})
	}

	logger.Info("starting run", logger.Fields{
		"mode":     string(mode),
		"projects": inv.Projects,
		"skip":     inv.Skip,
		"julia":    target,
	})
	res, err := orch.Run(ctx, orchestrator.Options{
		Mode:         mode,
		Projects:     inv.Projects,
		Skip:         inv.Skip,
		JuliaVersion: target,
	})
	if res != nil && cfg.Settings.OutputFormat == outputJSON {
		if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}
	if cfg.Settings.OutputFormat != outputJSON {
		printRunSummary(cmd.OutOrStdout(), res)
	}
	return nil
}

func newInstaller(cfg *config.Config, julia *resolver.Julia, workDir string) *resolver.Installer {
	return &resolver.Installer{
		Source: resolver.Source{
			Dir:        cfg.Resolver.Dir,
			Archive:    cfg.Resolver.Archive,
			Checksum:   cfg.Resolver.Checksum,
			Repository: cfg.Resolver.Repository,
			Revision:   cfg.Resolver.Revision,
		},
		Julia:       julia,
		Downloader:  download.NewManager(DownloadTimeout, "downgrade/"+Version),
		Extractor:   archive.NewManager(),
		RootDirFunc: archive.RootDir,
		WorkDir:     workDir,
	}
}

// loadHooks registers the configured inline scripts, then the scripts found
// in the hooks directory, which replace inline ones of the same type.
func loadHooks(cfg *config.Config) (*hook.DefaultHookManager, error) {
	manager := hook.NewHookManager()
	if err := manager.AddHooks(cfg.Hooks.Scripts()); err != nil {
		return nil, err
	}
	if cfg.Hooks.Dir != "" {
		if err := hook.LoadHooksFromDir(manager, cfg.Hooks.Dir); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

func printRunSummary(w io.Writer, res *orchestrator.Result) {
	_, _ = fmt.Fprintf(w, "Resolved %d project(s) with mode %s\n", len(res.Resolved), res.Mode)
	for _, dir := range res.Resolved {
		_, _ = fmt.Fprintf(w, "  %s\n", dir)
	}
	if res.Report != nil {
		_, _ = fmt.Fprintf(w, "Verified %d lower bound(s)\n", len(res.Report.Checked))
	}
}
