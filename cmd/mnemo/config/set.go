package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/cliui"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .mnemo/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  oracle.provider, oracle.model, oracle.base_url, oracle.timeout,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  vector_store.provider, vector_store.path, vector_store.target,
  memory.driver, memory.log_path, memory.dsn, memory.similarity_floor,
  memory.top_k, memory.overlap_threshold,
  domain.user_path, domain.self_path, domain.reconcile_interval, domain.activation_timeout,
  trust.enabled, trust.log_path,
  events.provider, events.brokers, events.topic,
  server.listen

Examples:
  mnemo config set oracle.provider anthropic
  mnemo config set oracle.model claude-3-5-haiku-latest
  mnemo config set memory.similarity_floor 0.4
  mnemo config set trust.enabled false`

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a configuration value",
		Long:              setLongDesc,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := checkKey(key); err != nil {
				return err
			}
			c, err := newCommander(cmd)
			if err != nil {
				return err
			}

			c.header()
			if err := c.cfger.SetConfigValue(key, value); err != nil {
				return err
			}

			fmt.Fprintf(c.out, "  %s Set %s = %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(key),
				cliui.ValueStyle.Render(value),
			)
			return nil
		},
	}
}
