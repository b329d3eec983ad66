package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/codemate/internal/database"
	"github.com/benvon/codemate/internal/models"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update the origins allowed to call the API. The server reloads this setting periodically.",
	}
	cmd.AddCommand(newCorsListCmd(open))
	cmd.AddCommand(newCorsSetCmd(open))
	return cmd
}

func newCorsListCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd.Context(), open, func(b Backend) error {
				c, err := b.CORS(cmd.Context())
				if err != nil {
					return fmt.Errorf("get cors setting: %w", err)
				}
				printCORS(cmd, c)
				return nil
			})
		},
	}
}

func printCORS(cmd *cobra.Command, c *models.CORSSetting) {
	out := cmd.OutOrStdout()
	if c == nil {
		fmt.Fprintln(out, "No CORS configuration in database; the server falls back to FRONTEND_URL. Use 'cors set' to add one.")
		return
	}
	fmt.Fprintln(out, "CORS configuration:")
	fmt.Fprintf(out, "  Allowed origins: %s\n", strings.Join(c.AllowedOrigins, ", "))
	fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
	fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
}

func newCorsSetCmd(open Opener) *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := database.SplitOrigins(origins)
			if len(list) == 0 {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			return withBackend(cmd.Context(), open, func(b Backend) error {
				err := b.SetCORS(cmd.Context(), &models.CORSSetting{
					AllowedOrigins:   list,
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				})
				if err != nil {
					return fmt.Errorf("set cors setting: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
