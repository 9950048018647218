// Package authcmder provides the auth command for storing API credentials.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/mnemo/pkg/cliui"
	"github.com/papercomputeco/mnemo/pkg/credentials"
)

const authLongDesc string = `Store API credentials for oracle and vector store providers.

Keys live in credentials.toml in the .mnemo/ directory. When a session
starts, the key for the configured oracle.provider is taken from there
first, then from the provider's environment variable. A qdrant key is
only needed for a secured cluster.

Ollama runs locally and needs no key.

Examples:
  mnemo auth openai              Prompt for an OpenAI API key
  mnemo auth anthropic           Prompt for an Anthropic API key
  mnemo auth qdrant              Prompt for a Qdrant Cloud API key
  mnemo auth --list              List stored credentials
  mnemo auth --remove openai     Remove stored OpenAI credentials
  echo $KEY | mnemo auth openai  Pipe an API key from stdin`

type authCommander struct {
	list   bool
	remove string

	in  io.Reader
	out io.Writer
}

func NewAuthCmd() *cobra.Command {
	cmder := &authCommander{}

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: "Store API credentials for providers",
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()

			configDir, _ := cmd.Flags().GetString("config-dir")
			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			switch {
			case cmder.list:
				return cmder.runList(mgr)
			case cmder.remove != "":
				return cmder.runRemove(mgr, cmder.remove)
			case len(args) == 0:
				return fmt.Errorf("provider argument required\n\nSupported providers: %s", supported())
			default:
				return cmder.runStore(mgr, args[0])
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&cmder.list, "list", false, "List stored credentials")
	cmd.Flags().StringVar(&cmder.remove, "remove", "", "Remove stored credentials for a provider")

	return cmd
}

func supported() string {
	return strings.Join(credentials.SupportedProviders(), ", ")
}

func (c *authCommander) runStore(mgr *credentials.Manager, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := credentials.Lookup(name)
	if !ok {
		return fmt.Errorf("unsupported provider: %q\n\nSupported providers: %s", name, supported())
	}

	key, err := c.readKey(p)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	if err := mgr.SetKey(p.Name, key); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s Stored %s %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(p.Name),
		cliui.IDStyle.Render(credentials.Mask(key)),
		cliui.DimStyle.Render("(overrides "+p.EnvVar+")"),
	)
	if p.Name == "openai" && strings.HasPrefix(key, "sk-proj-") {
		fmt.Fprintf(c.out, "\n  %s Project keys (sk-proj-...) need the chat completions scope.\n",
			cliui.WarnStyle.Render("!"))
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *authCommander) runList(mgr *credentials.Manager) error {
	creds, err := mgr.Load()
	if err != nil {
		return err
	}
	names, err := mgr.ListProviders()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Fprintf(c.out, "\n  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(c.out, "  Use 'mnemo auth <provider>' to store one. Supported providers: %s\n\n", supported())
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored credentials"))
	for _, name := range names {
		line := fmt.Sprintf("  %s  %-10s %s", cliui.SuccessMark, cliui.NameStyle.Render(name),
			cliui.IDStyle.Render(credentials.Mask(creds.Providers[name].APIKey)))
		if p, ok := credentials.Lookup(name); ok {
			line += "  " + cliui.DimStyle.Render(p.Use+", overrides "+p.EnvVar)
		}
		fmt.Fprintln(c.out, line)
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *authCommander) runRemove(mgr *credentials.Manager, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if err := mgr.RemoveKey(name); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n  %s Removed %s credentials.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(name))
	return nil
}

// readKey prompts with hidden input on a terminal and otherwise takes the
// first line of input.
func (c *authCommander) readKey(p credentials.Provider) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(c.out, "Enter API key for %s (%s): ", p.Name, p.EnvVar)
		key, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return string(key), nil
	}

	scanner := bufio.NewScanner(c.in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
