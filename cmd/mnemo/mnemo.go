// Package mnemocmder
package mnemocmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/mnemo/cmd/mnemo/auth"
	chatcmder "github.com/papercomputeco/mnemo/cmd/mnemo/chat"
	configcmder "github.com/papercomputeco/mnemo/cmd/mnemo/config"
	initcmder "github.com/papercomputeco/mnemo/cmd/mnemo/init"
	memoriescmder "github.com/papercomputeco/mnemo/cmd/mnemo/memories"
	reconcilecmder "github.com/papercomputeco/mnemo/cmd/mnemo/reconcile"
	servecmder "github.com/papercomputeco/mnemo/cmd/mnemo/serve"
	versioncmder "github.com/papercomputeco/mnemo/cmd/version"
)

const mnemoLongDesc string = `mnemo is topic-based long-term memory for conversational agents.

Each round of a conversation is folded into an active topic. When the
conversation moves on, the topic is retired into a durable memory log that
later turns can recall, and that periodically reshapes two persona
documents: what the agent knows about the user, and how the agent should
present itself.

Get started:
  mnemo init           Create a local .mnemo/ directory
  mnemo chat           Talk to the agent
  mnemo memories list  Inspect what it remembered
  mnemo serve          Run the HTTP and MCP API`

const mnemoShortDesc string = "mnemo - topic memory for agents"

func NewMnemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mnemo",
		Short: mnemoShortDesc,
		Long:  mnemoLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .mnemo/ config directory")

	// Add subcommands
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(memoriescmder.NewMemoriesCmd())
	cmd.AddCommand(reconcilecmder.NewReconcileCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
