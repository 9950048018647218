package configcmder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/config"
)

// configCommander carries what every config subcommand needs.
type configCommander struct {
	cfger *config.Configer
	out   io.Writer
}

func newCommander(cmd *cobra.Command) (*configCommander, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &configCommander{cfger: cfger, out: cmd.OutOrStdout()}, nil
}

func checkKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func (c *configCommander) header() {
	if target := c.cfger.GetTarget(); target != "" && fileExists(target) {
		fmt.Fprintf(c.out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
		return
	}
	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// line renders key and value, marking values that match the default.
func line(key, value string, width int) string {
	out := cliui.KeyValue(key, value, width)
	if def, err := config.DefaultConfigValue(key); err == nil && value != "" && value == def {
		out += "  " + cliui.DimStyle.Render("(default)")
	}
	return out
}
