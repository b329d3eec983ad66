package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTagsCmd groups tag maintenance commands.
func NewTagsCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete tags that no question uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b Backend) error {
				n, err := b.PruneEmpty(cmd.Context())
				if err != nil {
					return fmt.Errorf("prune tags: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d unused tags.\n", n)
				return nil
			})
		},
	})
	return cmd
}
