package memoriescmder

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/memory"
)

const showLongDesc string = `Render one memory as markdown.

The argument is "latest", a full memory id, or a unique id prefix as shown
by "mnemo memories list". Use --raw to print the stored JSON line instead.

Examples:
  mnemo memories show latest
  mnemo memories show 3f2a9c1e`

const showShortDesc string = "Render one memory"

func newShowCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id|latest>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
	}
	flagKeys := logFlags(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the record as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore(cmd, flagKeys)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if raw {
			return printJSON(cmd.OutOrStdout(), rec)
		}

		// On a render failure out is the plain markdown.
		out, _ := cliui.RenderMarkdown(recordMarkdown(rec))
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	}

	return cmd
}

// recordMarkdown lays a record out for glamour.
func recordMarkdown(r memory.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Topic)
	fmt.Fprintf(&b, "`%s` · created %s · updated %s\n\n",
		r.ID,
		r.CreateTime.Local().Format(time.DateTime),
		r.UpdateTime.Local().Format(time.DateTime),
	)

	if r.Info == nil {
		fmt.Fprintf(&b, "## Content\n\n%s\n\n", r.Content)
	} else {
		b.WriteString("## Key information\n\n")
		b.WriteString(cliui.Bullets(r.Info.Key))
		b.WriteString("\n## Details\n\n")
		b.WriteString(cliui.Bullets(r.Info.Aux))
		if n := len(r.Info.Noise); n > 0 {
			fmt.Fprintf(&b, "\n_%d small-talk rounds folded in._\n", n)
		}
	}

	if len(r.Keywords) > 0 {
		fmt.Fprintf(&b, "\n## Keywords\n\n%s\n", strings.Join(r.Keywords, ", "))
	}
	return b.String()
}
