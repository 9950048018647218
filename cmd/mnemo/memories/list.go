package memoriescmder

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/utils"
)

const listLongDesc string = `List stored memories, oldest first.

Examples:
  mnemo memories list
  mnemo memories list --limit 5`

const listShortDesc string = "List stored memories"

func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
	}
	flagKeys := logFlags(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Only show the most recent n memories")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		store, _, err := openStore(cmd, flagKeys)
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := store.LoadAll(cmd.Context())
		if err != nil {
			return err
		}

		printList(recs, limit)
		return nil
	}

	return cmd
}

func printList(recs []memory.Record, limit int) {
	if len(recs) == 0 {
		fmt.Printf("\n  %s No memories stored yet.\n\n", cliui.DimStyle.Render("●"))
		return
	}

	shown := recs
	if limit > 0 && limit < len(recs) {
		shown = recs[len(recs)-limit:]
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Memories"),
		cliui.DimStyle.Render(fmt.Sprintf("(%d of %d)", len(shown), len(recs))),
	)
	width := cliui.TerminalWidth()
	for _, r := range shown {
		fmt.Println(cliui.Fit(listLine(r), width))
	}
	fmt.Println()
}

func listLine(r memory.Record) string {
	line := fmt.Sprintf("  %s  %s  %s",
		cliui.IDStyle.Render(shortID(r.ID)),
		cliui.DimStyle.Render(r.UpdateTime.Local().Format(time.DateTime)),
		cliui.NameStyle.Render(r.Topic),
	)
	if len(r.Keywords) > 0 {
		line += "  " + cliui.DimStyle.Render(utils.Truncate(strings.Join(r.Keywords, ", "), 60))
	}
	return line
}
