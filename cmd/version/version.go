// Package versioncmder reports the build of the mnemo binary.
package versioncmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/mnemo/pkg/buildinfo"
)

type versionCommander struct {
	asJSON bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the mnemo build",
		Long:  "Print the version, commit and build time of this mnemo binary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the build info as JSON")
	return cmd
}

func (c *versionCommander) run(out io.Writer) error {
	info := buildinfo.Current()
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(out, "mnemo %s (%s)\nbuilt %s with %s for %s\n",
		info.Version, info.Sha, info.BuiltAt, info.GoVersion, info.Platform)
	return nil
}
