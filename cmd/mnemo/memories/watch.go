package memoriescmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/app"
	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/memory"
)

const watchLongDesc string = `Print memories as they are persisted.

Follows the memory log and prints each record appended to it by a running
chat or API server. Press Ctrl+C to stop.

Examples:
  mnemo memories watch`

const watchShortDesc string = "Print memories as they are persisted"

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.NoArgs,
	}
	flagKeys := logFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		store, cfg, err := openStore(cmd, flagKeys)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.Memory.Driver != "" && cfg.Memory.Driver != "jsonl" {
			return fmt.Errorf("watch follows the jsonl log only; memory.driver is %s", cfg.Memory.Driver)
		}

		configDir, _ := app.CommandFlags(cmd)
		path, err := app.LogPath(configDir, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("\n  %s Watching %s\n\n", cliui.DimStyle.Render("●"), cliui.DimStyle.Render(path))
		err = Follow(ctx, store, path, cmd.OutOrStdout())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	return cmd
}

// Follow prints every record appended to the log at path until ctx ends.
// Records already present when it starts are skipped.
func Follow(ctx context.Context, store *memory.Store, path string, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating log watcher: %w", err)
	}
	defer watcher.Close()

	// The log file may not exist yet, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching log dir: %w", err)
	}

	recs, err := store.LoadAll(ctx)
	if err != nil {
		return err
	}
	seen := len(recs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			recs, err := store.LoadAll(ctx)
			if err != nil {
				return err
			}
			if len(recs) < seen {
				fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("memory log cleared"))
			}
			for _, r := range recs[min(seen, len(recs)):] {
				fmt.Fprintln(out, listLine(r))
			}
			seen = len(recs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher error: %w", err)
		}
	}
}
