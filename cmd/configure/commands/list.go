package commands

import (
	"context"
	"fmt"

	"github.com/benvon/break-my-assignment/internal/config"
	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured OIDC providers",
		Long:  "List all configured OIDC providers. The provider selected by OIDC_PROVIDER is marked active.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, cfg *config.Config, db *database.DB) error {
				configs, err := database.NewOIDCConfigRepository(db).GetAll(ctx)
				if err != nil {
					return fmt.Errorf("failed to list OIDC configs: %w", err)
				}

				if len(configs) == 0 {
					fmt.Println("No OIDC providers configured")
					return nil
				}

				fmt.Println("Configured OIDC providers:")
				for _, c := range configs {
					marker := ""
					if c.Provider == cfg.OIDCProvider {
						marker = " (active)"
					}
					fmt.Printf("  - Provider: %s%s\n", c.Provider, marker)
					fmt.Printf("    Issuer: %s\n", c.Issuer)
					if c.Domain != nil {
						fmt.Printf("    Domain: %s\n", *c.Domain)
					}
					fmt.Printf("    Client ID: %s\n", c.ClientID)
					fmt.Printf("    Redirect URI: %s\n", c.RedirectURI)
					if c.JWKSUrl != nil {
						fmt.Printf("    JWKS URL: %s\n", *c.JWKSUrl)
					}
					fmt.Println()
				}
				return nil
			})
		},
	}
}
