package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from config.toml in the .mnemo/
directory, falling back to the default. Keys use dotted notation matching
the TOML section structure. --raw prints only the value, for scripts.

Examples:
  mnemo config get oracle.provider
  mnemo config get --raw memory.dsn`

func newGetCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:               "get <key>",
		Short:             "Get a configuration value",
		Long:              getLongDesc,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkKey(key); err != nil {
				return err
			}
			c, err := newCommander(cmd)
			if err != nil {
				return err
			}

			value, err := c.cfger.GetConfigValue(key)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprintln(c.out, value)
				return nil
			}

			c.header()
			fmt.Fprintf(c.out, "%s\n\n", line(key, value, len(key)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the value")
	return cmd
}
