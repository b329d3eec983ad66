package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCmd prints every runtime setting stored in the database.
func NewListCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runtime settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b Backend) error {
				rate, err := b.RateLimit(cmd.Context())
				if err != nil {
					return fmt.Errorf("get rate limit: %w", err)
				}
				cors, err := b.CORS(cmd.Context())
				if err != nil {
					return fmt.Errorf("get cors setting: %w", err)
				}

				out := cmd.OutOrStdout()
				if rate == nil {
					fmt.Fprintln(out, "Rate limit: (default)")
				} else {
					fmt.Fprintf(out, "Rate limit: %s\n", rate.Rate)
				}
				printCORS(cmd, cors)
				return nil
			})
		},
	}
}
