// Package configcmder provides the config command for managing persistent
// mnemo configuration stored in the .mnemo/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent mnemo configuration.

Configuration is stored as config.toml in the .mnemo/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  oracle.provider, oracle.model, oracle.base_url, oracle.timeout,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  vector_store.provider, vector_store.path, vector_store.target,
  memory.driver, memory.log_path, memory.dsn, memory.similarity_floor,
  memory.top_k, memory.overlap_threshold,
  domain.user_path, domain.self_path, domain.reconcile_interval, domain.activation_timeout,
  trust.enabled, trust.log_path,
  events.provider, events.brokers, events.topic,
  server.listen

Use subcommands to get, set, or list configuration values:
  mnemo config set <key> <value>    Set a configuration value
  mnemo config get <key>            Get a configuration value
  mnemo config list                 List all configuration values

Examples:
  mnemo config set oracle.provider anthropic
  mnemo config set domain.reconcile_interval 12h
  mnemo config get oracle.provider
  mnemo config list`

const configShortDesc string = "Manage persistent mnemo configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
