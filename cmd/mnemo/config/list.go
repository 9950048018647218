package configcmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/config"
)

const listLongDesc string = `List all configuration values.

Shows every key with its value from config.toml in the .mnemo/
directory. Values that match the built-in default are marked.

Examples:
  mnemo config list
  mnemo config list --json`

func newListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newCommander(cmd)
			if err != nil {
				return err
			}

			values, err := c.cfger.ConfigValues()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(values)
			}

			keys := config.ValidConfigKeys()
			width := 0
			for _, k := range keys {
				width = max(width, len(k))
			}

			c.header()
			for _, k := range keys {
				fmt.Fprintln(c.out, line(k, values[k], width))
			}
			fmt.Fprintln(c.out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print values as a JSON object")
	return cmd
}
