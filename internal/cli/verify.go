package cli

import (
	"fmt"
	"io"

	"github.com/glorpus-work/downgrade/pkg/orchestrator"
	"github.com/glorpus-work/downgrade/pkg/project"
	"github.com/glorpus-work/downgrade/pkg/verify"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check lower bounds against an existing lock file",
		Long: `Compare every declared compat lower bound of the project in --dir with the
version recorded in its lock file, without running the resolver.

Exits non-zero and lists every mismatched package when a bound is not met.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, dir)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory")
	addSkipFlag(cmd)

	return cmd
}

func runVerify(cmd *cobra.Command, dir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	inv, err := readInvocation(cmd, cfg)
	if err != nil {
		return err
	}

	report, err := orchestrator.VerifyProject(dir, project.NewPackageSet(inv.Skip...))
	if err != nil {
		return err
	}

	if cfg.Settings.OutputFormat == outputJSON {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report)
	}
	return report.Err()
}

func printReport(w io.Writer, report *verify.Report) {
	for _, name := range report.Missing {
		_, _ = fmt.Fprintf(w, "%s: not in lock file\n", name)
	}
	if report.OK() {
		_, _ = fmt.Fprintf(w, "All %d lower bound(s) met\n", len(report.Checked))
		return
	}
	_, _ = fmt.Fprintf(w, "%d of %d lower bound(s) not met\n", len(report.Mismatches), len(report.Checked))
}
