// Package servecmder provides the serve command for running the mnemo API.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/mnemo/api"
	"github.com/papercomputeco/mnemo/pkg/app"
	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/logger"
)

type serveCommander struct {
	flags      config.SessionFlags
	listen     string
	disableMCP bool
}

const serveLongDesc string = `Run the mnemo HTTP API.

The server exposes one shared session over REST under /v1 (commit turns,
prepare reply context, browse and clear memories, reconcile domains) and a
memory_recall and memory_show tools over MCP at /mcp. The active topic is saved on shutdown.

Examples:
  mnemo serve
  mnemo serve --listen :9000
  mnemo serve --no-mcp`

const serveShortDesc string = "Run the mnemo HTTP API"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.flags.Register(cmd)
	config.AddStringFlag(cmd, config.CommonFlags, config.FlagListen, &cmder.listen)
	cmd.Flags().BoolVar(&cmder.disableMCP, "no-mcp", false, "Do not serve the MCP endpoint")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	_, debug := app.CommandFlags(cmd)
	log := logger.New(logger.WithDebug(debug), logger.WithJSON(true))

	a, err := app.OpenCommand(cmd, append([]string{config.FlagListen}, config.SessionFlagKeys...), log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Error("closing session", "error", err)
		}
	}()

	server, err := api.NewServer(api.Config{
		ListenAddr: a.Config.Server.Listen,
		DisableMCP: c.disableMCP,
	}, a.Session, log)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down API server", "cause", context.Cause(ctx))
		return server.Shutdown()
	})
	return g.Wait()
}
