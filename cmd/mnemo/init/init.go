// Package initcmder provides the init command for initializing a local .mnemo
// directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/buildinfo"
	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/config"
	"github.com/papercomputeco/mnemo/pkg/domain"
)

const (
	dirName    = ".mnemo"
	configFile = "config.toml"

	fetchTimeout = 15 * time.Second
	maxConfigLen = 1 << 20
)

const initLongDesc string = `Initialize a new .mnemo/ directory in the current working directory.

Creates a local .mnemo/ directory that takes precedence over the default
~/.mnemo/ directory for the memory log, persona domains, trust log and
configuration. It writes a config.toml and the default user and self
domain documents, leaving any file that already exists untouched.

The --preset flag picks the oracle provider (ollama, openai, anthropic) or
fetches a config.toml from an http(s) URL. An explicit preset replaces an
existing config.toml; domain documents are never replaced.

Examples:
  mnemo init
  mnemo init --preset anthropic
  mnemo init --preset https://example.com/mnemo/config.toml`

const initShortDesc string = "Initialize a local .mnemo/ directory"

type initCommander struct {
	preset string
	out    io.Writer
	client *http.Client
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{client: http.DefaultClient}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			return cmder.run(cmd.Context(), filepath.Join(cwd, dirName))
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Provider preset ("+strings.Join(config.PresetNames(), ", ")+") or config URL")

	return cmd
}

func (c *initCommander) run(ctx context.Context, dir string) error {
	// A bad preset must leave nothing behind.
	data, err := c.configData(ctx)
	if err != nil {
		return err
	}
	if _, err := config.ParseConfigTOML(data); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .mnemo directory: %w", err)
	}
	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))

	if err := c.place(filepath.Join(dir, configFile), data, 0o600, c.preset != ""); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	docs := map[domain.Kind]string{
		domain.KindUser: cfg.Domain.UserPath,
		domain.KindSelf: cfg.Domain.SelfPath,
	}
	for _, kind := range []domain.Kind{domain.KindUser, domain.KindSelf} {
		if err := c.place(cfger.ResolvePath(docs[kind]), domain.DefaultDocument(kind), 0o644, false); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Oracle:"),
		cliui.NameStyle.Render(cfg.Oracle.Provider+"/"+cfg.Oracle.Model),
	)
	return nil
}

// configData returns the TOML to write: a named preset, a fetched URL, or
// the ollama preset when none is given.
func (c *initCommander) configData(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(c.preset, "http://") || strings.HasPrefix(c.preset, "https://") {
		return c.fetch(ctx, c.preset)
	}

	name := c.preset
	if name == "" {
		name = "ollama"
	}
	cfg, err := config.Preset(name)
	if err != nil {
		return nil, err
	}
	return config.EncodeTOML(cfg)
}

func (c *initCommander) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building config request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigLen))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}
	return data, nil
}

// place writes data to path. An existing file is kept unless replace is set.
func (c *initCommander) place(path string, data []byte, perm os.FileMode, replace bool) error {
	if !replace {
		_, err := os.Stat(path)
		if err == nil {
			fmt.Fprintf(c.out, "  %s %s %s\n", cliui.DimStyle.Render("●"), filepath.Base(path), cliui.DimStyle.Render("(kept)"))
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(c.out, "  %s %s\n", cliui.SuccessMark, filepath.Base(path))
	return nil
}
