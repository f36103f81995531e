package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/break-my-assignment/internal/config"
	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins and options (stored in database). The API picks up changes within a minute.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, cfg *config.Config, db *database.DB) error {
				c, err := database.NewCorsConfigRepository(db).Get(ctx)
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				if c == nil {
					fmt.Printf("No CORS configuration in database; the API allows %s. Use 'cors set' to change it.\n", cfg.FrontendURL)
					return nil
				}
				fmt.Println("CORS configuration:")
				for _, origin := range database.AllowedOriginsSlice(c.AllowedOrigins) {
					fmt.Printf("  Allowed origin: %s\n", origin)
				}
				fmt.Printf("  Allow credentials: %v\n", c.AllowCredentials)
				fmt.Printf("  Max-Age: %d\n", c.MaxAge)
				return nil
			})
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		Long:  "Update CORS allowed origins (comma-separated). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := database.ValidateOrigins(origins)
			if err != nil {
				return fmt.Errorf("--origins: %w", err)
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age cannot be negative")
			}
			return withDatabase(func(ctx context.Context, _ *config.Config, db *database.DB) error {
				c := &models.CorsConfig{
					AllowedOrigins:   strings.Join(parsed, ","),
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				}
				if err := database.NewCorsConfigRepository(db).Set(ctx, c); err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				fmt.Println("CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
