package memoriescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/cliui"
)

const clearLongDesc string = `Empty the memory log and its vector index.

Persona domains keep whatever was already reconciled into them. The command
asks for confirmation unless --yes is given.

Examples:
  mnemo memories clear
  mnemo memories clear --yes`

const clearShortDesc string = "Empty the memory log"

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
	}
	flagKeys := append(logFlags(cmd), retrievalFlags(cmd)...)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

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
		if len(recs) == 0 {
			fmt.Printf("\n  %s Memory log is already empty.\n\n", cliui.DimStyle.Render("●"))
			return nil
		}

		if !yes && !cliui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %d memories?", len(recs))) {
			fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Aborted."))
			return nil
		}

		if err := store.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("\n  %s Cleared %d memories.\n\n", cliui.SuccessMark, len(recs))
		return nil
	}

	return cmd
}
