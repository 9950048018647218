// Package reconcilecmder provides the reconcile command for folding the
// memory log into the persona domains.
package reconcilecmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/app"
	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/domain"
)

const reconcileLongDesc string = `Fold the memory log into the user and self domains.

Reconciliation normally runs between chat turns once domain.reconcile_interval
has elapsed since the last pass. This command runs it on demand: without
--force it only reconciles when the interval is due, with --force it always
does. An empty memory log is skipped and leaves the schedule untouched.

Examples:
  mnemo reconcile
  mnemo reconcile --force`

const reconcileShortDesc string = "Fold the memory log into the persona domains"

type reconcileCommander struct {
	force bool

	oracleProvider string
	oracleModel    string
	oracleBaseURL  string
	memoryLog      string
}

func NewReconcileCmd() *cobra.Command {
	cmder := &reconcileCommander{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: reconcileShortDesc,
		Long:  reconcileLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVarP(&cmder.force, "force", "f", false, "Reconcile even when the interval has not elapsed")
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagOracleProvider, &cmder.oracleProvider)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagOracleModel, &cmder.oracleModel)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagOracleBaseURL, &cmder.oracleBaseURL)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagMemoryLog, &cmder.memoryLog)

	return cmd
}

func (c *reconcileCommander) run(cmd *cobra.Command) error {
	a, err := app.OpenCommand(cmd, []string{
		config.FlagOracleProvider,
		config.FlagOracleModel,
		config.FlagOracleBaseURL,
		config.FlagMemoryLog,
	}, nil)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	now := time.Now()
	last := a.Domains.LastReconcile()
	if !c.force && !a.Domains.DueForReconcile(now) {
		next := last.Add(a.Config.ReconcileInterval())
		fmt.Printf("\n  %s Not due yet %s\n\n",
			cliui.DimStyle.Render("●"),
			cliui.DimStyle.Render(fmt.Sprintf("(last %s, next %s; use --force)",
				last.Format(time.DateTime), next.Format(time.DateTime))),
		)
		return nil
	}

	var report domain.Report
	fmt.Println()
	err = cliui.Step(os.Stdout, "Reconciling domains", func() error {
		var rerr error
		report, rerr = a.Session.Reconcile(cmd.Context())
		return rerr
	})
	if err != nil {
		return fmt.Errorf("reconciling domains: %w", err)
	}

	printReport(report)
	return nil
}

func printReport(r domain.Report) {
	if r.Skipped {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Memory log is empty. Nothing to reconcile."))
		return
	}

	fmt.Printf("\n  %s %s\n",
		cliui.KeyStyle.Render("Records:"),
		cliui.ValueStyle.Render(fmt.Sprint(r.Records)),
	)
	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("User layers:"),
		cliui.ValueStyle.Render(layers(r.UserLayers)),
	)
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Self layers:"),
		cliui.ValueStyle.Render(layers(r.SelfLayers)),
	)
}

func layers(names []string) string {
	if len(names) == 0 {
		return "unchanged"
	}
	return strings.Join(names, ", ")
}
