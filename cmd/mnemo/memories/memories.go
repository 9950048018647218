// Package memoriescmder provides the memories command for inspecting and
// managing the durable memory log.
package memoriescmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/app"
	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
)

const memoriesLongDesc string = `Inspect and manage the memory log.

Every retired topic is appended to the memory log: a JSONL file by default
(memory.log_path, relative to the .mnemo/ directory), or a sqlite or
postgres table selected with memory.driver. These commands read it directly
and need no oracle provider.

Use subcommands:
  mnemo memories list              List stored memories
  mnemo memories show <id|latest>  Render one memory
  mnemo memories search <query>    Rank memories by similarity
  mnemo memories clear             Empty the log
  mnemo memories watch             Print memories as they are persisted`

const memoriesShortDesc string = "Inspect and manage the memory log"

func NewMemoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memories",
		Aliases: []string{"memory", "mem"},
		Short:   memoriesShortDesc,
		Long:    memoriesLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// logFlags registers the flags every subcommand reads the log with.
func logFlags(cmd *cobra.Command) []string {
	var driver, memoryLog, dsn string
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagMemoryDriver, &driver)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagMemoryLog, &memoryLog)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagMemoryDSN, &dsn)
	return []string{config.FlagMemoryDriver, config.FlagMemoryLog, config.FlagMemoryDSN}
}

// retrievalFlags registers the flags that configure the vector index.
func retrievalFlags(cmd *cobra.Command) []string {
	var (
		provider, target, model string
		vectorProvider, path    string
		dims                    uint
	)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagEmbeddingProv, &provider)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagEmbeddingTgt, &target)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagEmbeddingModel, &model)
	config.AddUintFlag(cmd, config.CommonFlags, config.FlagEmbeddingDims, &dims)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagVectorStoreProv, &vectorProvider)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagVectorStorePath, &path)
	return []string{
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingModel,
		config.FlagEmbeddingDims,
		config.FlagVectorStoreProv,
		config.FlagVectorStorePath,
	}
}

func openStore(cmd *cobra.Command, flagKeys []string) (*memory.Store, *config.Config, error) {
	configDir, debug := app.CommandFlags(cmd)

	cfg, err := app.ResolveConfig(cmd, flagKeys)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving config: %w", err)
	}

	store, err := app.OpenStore(configDir, cfg, logger.ForTerminal(debug))
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
