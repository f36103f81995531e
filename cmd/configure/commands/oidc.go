package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/benvon/break-my-assignment/internal/config"
	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type oidcFlags struct {
	issuer       string
	domain       string
	clientID     string
	clientSecret string
	redirectURI  string
	jwksURL      string
}

// NewOIDCCmd creates the OIDC configuration command
func NewOIDCCmd() *cobra.Command {
	var f oidcFlags

	cmd := &cobra.Command{
		Use:   "oidc <provider-name>",
		Short: "Configure OIDC provider",
		Long:  "Create or update an OIDC provider used for sign-in. Provider name can be any identifier (e.g., 'cognito', 'okta', 'auth0')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.TrimSpace(args[0])
			if provider == "" {
				return fmt.Errorf("provider name cannot be empty")
			}
			if err := f.validate(); err != nil {
				return err
			}

			return withDatabase(func(ctx context.Context, _ *config.Config, db *database.DB) error {
				repo := database.NewOIDCConfigRepository(db)

				existing, err := repo.GetByProvider(ctx, provider)
				if err == nil && existing != nil {
					f.apply(existing)
					if err := repo.Update(ctx, existing); err != nil {
						return fmt.Errorf("failed to update OIDC config: %w", err)
					}
					fmt.Printf("Updated OIDC configuration for provider: %s\n", provider)
					return nil
				}

				created := &models.OIDCConfig{ID: uuid.New(), Provider: provider}
				f.apply(created)
				if err := repo.Create(ctx, created); err != nil {
					return fmt.Errorf("failed to create OIDC config: %w", err)
				}
				fmt.Printf("Created OIDC configuration for provider: %s\n", provider)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&f.issuer, "issuer", "", "OIDC issuer URL (required)")
	cmd.Flags().StringVar(&f.domain, "domain", "", "OAuth2 hosted domain (optional, e.g. a Cognito custom domain)")
	cmd.Flags().StringVar(&f.clientID, "client-id", "", "OAuth2 client ID (required)")
	cmd.Flags().StringVar(&f.clientSecret, "client-secret", "", "OAuth2 client secret (optional for public clients)")
	cmd.Flags().StringVar(&f.redirectURI, "redirect-uri", "", "OAuth2 redirect URI (required)")
	cmd.Flags().StringVar(&f.jwksURL, "jwks-url", "", "JWKS URL (defaults to <issuer>/.well-known/jwks.json)")

	return cmd
}

func (f *oidcFlags) validate() error {
	if f.issuer == "" || f.clientID == "" || f.redirectURI == "" {
		return fmt.Errorf("required flags: --issuer, --client-id, --redirect-uri (--client-secret is optional for public clients)")
	}
	for name, raw := range map[string]string{"issuer": f.issuer, "redirect-uri": f.redirectURI} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("--%s must be an absolute URL", name)
		}
	}
	return nil
}

func (f *oidcFlags) apply(c *models.OIDCConfig) {
	c.Issuer = strings.TrimSuffix(f.issuer, "/")
	c.ClientID = f.clientID
	c.RedirectURI = f.redirectURI

	c.Domain = nil
	if f.domain != "" {
		domain := f.domain
		c.Domain = &domain
	}

	c.ClientSecret = nil
	if f.clientSecret != "" {
		secret := f.clientSecret
		c.ClientSecret = &secret
	}

	jwksURL := f.jwksURL
	if jwksURL == "" {
		jwksURL = c.Issuer + "/.well-known/jwks.json"
	}
	c.JWKSUrl = &jwksURL
}

// NewRemoveCmd creates the command that deletes an OIDC provider
func NewRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <provider-name>",
		Short: "Remove an OIDC provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.TrimSpace(args[0])
			return withDatabase(func(ctx context.Context, cfg *config.Config, db *database.DB) error {
				if provider == cfg.OIDCProvider {
					fmt.Printf("Warning: %s is the active provider (OIDC_PROVIDER); sign-in will fail until another is configured\n", provider)
				}
				if err := database.NewOIDCConfigRepository(db).Delete(ctx, provider); err != nil {
					return err
				}
				fmt.Printf("Removed OIDC configuration for provider: %s\n", provider)
				return nil
			})
		},
	}
}
