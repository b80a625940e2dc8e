package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/glorpus-work/downgrade/pkg/orchestrator"
	"github.com/glorpus-work/downgrade/pkg/project"
	"github.com/spf13/cobra"
)

// NewBoundsCmd creates the bounds command.
func NewBoundsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "Print the declared lower bounds",
		Long: `Print the lower bound asserted by each [compat] entry of the project in --dir.
Only the first alternative of a comma list counts; julia, source-pinned and
skipped packages are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBounds(cmd, dir)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory")
	addSkipFlag(cmd)

	return cmd
}

func runBounds(cmd *cobra.Command, dir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	inv, err := readInvocation(cmd, cfg)
	if err != nil {
		return err
	}

	bounds, err := orchestrator.ProjectBounds(dir, project.NewPackageSet(inv.Skip...))
	if err != nil {
		return err
	}

	names := bounds.Names()
	if cfg.Settings.OutputFormat == outputJSON {
		out := make(map[string]string, len(names))
		for _, name := range names {
			out[name] = bounds[name].String()
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "PACKAGE\tLOWER BOUND")
	for _, name := range names {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", name, bounds[name].String())
	}
	return tabWriter.Flush()
}
