package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/break-my-assignment/internal/config"
	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/benvon/break-my-assignment/internal/middleware"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// ratelimitGroups maps each configurable group to the rate used when the database has none
var ratelimitGroups = []struct {
	key         string
	defaultRate string
}{
	{database.RatelimitKeyDefault, middleware.DefaultRatelimitRate},
	{database.RatelimitKeyAnalysis, middleware.DefaultAnalysisRatelimitRate},
}

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update per-group rate limits (e.g. 5-S, 100-M). Stored in database.",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(ctx context.Context, _ *config.Config, db *database.DB) error {
				repo := database.NewRatelimitConfigRepository(db)
				fmt.Println("Rate limit configuration:")
				for _, g := range ratelimitGroups {
					c, err := repo.Get(ctx, g.key)
					if err != nil {
						return fmt.Errorf("get ratelimit config: %w", err)
					}
					if c == nil {
						fmt.Printf("  %s: %s (built-in default)\n", g.key, g.defaultRate)
						continue
					}
					fmt.Printf("  %s: %s (updated %s)\n", g.key, c.Rate, c.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func newRatelimitSetCmd() *cobra.Command {
	var rate, group string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		Long:  "Update a group's rate limit (e.g. 5-S, 100-M, 1000-H). Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
			}
			if _, err := limiter.NewRateFromFormatted(rate); err != nil {
				return fmt.Errorf("invalid --rate %q: %w", rate, err)
			}
			if !knownRatelimitGroup(group) {
				return fmt.Errorf("--group must be %q or %q", database.RatelimitKeyDefault, database.RatelimitKeyAnalysis)
			}
			return withDatabase(func(ctx context.Context, _ *config.Config, db *database.DB) error {
				c := &models.RatelimitConfig{ConfigKey: group, Rate: rate}
				if err := database.NewRatelimitConfigRepository(db).Set(ctx, c); err != nil {
					return fmt.Errorf("set ratelimit config: %w", err)
				}
				fmt.Printf("Rate limit for group %s updated.\n", group)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	cmd.Flags().StringVar(&group, "group", database.RatelimitKeyDefault, "Limiter group: default or analysis")
	return cmd
}

func knownRatelimitGroup(group string) bool {
	for _, g := range ratelimitGroups {
		if g.key == group {
			return true
		}
	}
	return false
}
