package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/logger"
)

// CommandFlags reads the persistent root flags every command inherits.
func CommandFlags(cmd *cobra.Command) (configDir string, debug bool) {
	configDir, _ = cmd.Flags().GetString("config-dir")
	debug, _ = cmd.Flags().GetBool("debug")
	return configDir, debug
}

// ResolveConfig runs the viper chain for cmd (flag > env > config file >
// default), binding the registered flags named by flagKeys.
func ResolveConfig(cmd *cobra.Command, flagKeys []string) (*config.Config, error) {
	configDir, _ := CommandFlags(cmd)

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.CommonFlags, flagKeys)

	return config.FromViper(v), nil
}

// OpenCommand resolves configuration for cmd and opens the App. A nil log
// gets a terminal logger honoring --debug.
func OpenCommand(cmd *cobra.Command, flagKeys []string, log *slog.Logger) (*App, error) {
	configDir, debug := CommandFlags(cmd)
	if log == nil {
		log = logger.ForTerminal(debug)
	}

	cfg, err := ResolveConfig(cmd, flagKeys)
	if err != nil {
		return nil, fmt.Errorf("resolving config: %w", err)
	}

	return Open(Options{
		ConfigDir: configDir,
		Config:    cfg,
		Logger:    log,
	})
}
