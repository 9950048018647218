// Package chatcmder provides the chat command, an interactive conversation
// backed by the mnemo memory pipeline.
package chatcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/app"
	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/logger"
)

// logFileName is the JSON log kept in the dot dir for every chat.
const logFileName = "mnemo.log"

const chatLongDesc string = `Start an interactive chat with long-term memory.

Every exchange is folded into the active topic. When the conversation moves
on, the finished topic is written to the memory log, and later turns recall
related memories and the persona domains before replying.

Type a message and press Enter. Slash commands:
  /memory          Show the active topic
  /history         List stored memories
  /related <text>  Rank stored memories against text
  /flush           Save the active topic now
  /reset           Drop the active topic without saving
  /clear           Empty the memory log
  /help            Show this list
  /exit            Save the active topic and quit

Ctrl+C and Ctrl+D also save the active topic before quitting. Logs are
written as JSON to .mnemo/mnemo.log; --debug mirrors them to the terminal.

Examples:
  mnemo chat
  mnemo chat --oracle-provider openai --oracle-model gpt-4o-mini`

const chatShortDesc string = "Interactive chat with long-term memory"

type chatCommander struct {
	flags config.SessionFlags
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.flags.Register(cmd)
	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	configDir, debug := app.CommandFlags(cmd)

	log, closeLog, err := chatLogger(configDir, debug)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := app.OpenCommand(cmd, config.SessionFlagKeys, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := NewREPL(a, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)

	// The session is flushed on every exit path, so use a fresh context.
	closeErr := a.Close(context.Background())
	if closeErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s %v\n", cliui.FailMark, closeErr)
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// chatLogger writes JSON records to the dot dir log, mirrored to the
// terminal with --debug.
func chatLogger(configDir string, debug bool) (*slog.Logger, func(), error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving config dir: %w", err)
	}

	log, f, err := logger.OpenFile(filepath.Join(cfger.Dir(), logFileName), logger.WithDebug(debug))
	if err != nil {
		return nil, nil, err
	}
	if debug {
		log = logger.Multi(log, logger.ForTerminal(true))
	}
	return log, func() { _ = f.Close() }, nil
}
