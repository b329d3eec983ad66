package commands

import "github.com/spf13/cobra"

// NewRootCmd builds the configure CLI over the given backend opener.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "codemate-configure",
		Short:         "Configuration tool for the Codemate API",
		Long:          "CLI tool for schema migration, runtime settings and tag maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		NewMigrateCmd(open),
		NewListCmd(open),
		NewRatelimitCmd(open),
		NewCorsCmd(open),
		NewTagsCmd(open),
	)
	return root
}
