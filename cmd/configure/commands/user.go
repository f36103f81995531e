package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/break-my-assignment/internal/config"
	"github.com/benvon/break-my-assignment/internal/database"
	"github.com/benvon/break-my-assignment/internal/services/quota"
	"github.com/spf13/cobra"
)

const recentUploadsShown = 10

// NewUserCmd creates the user command for plan management and quota inspection
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user plans",
		Long:  "Grant or revoke the paid plan and inspect a user's upload allowance.",
	}
	cmd.AddCommand(newUserProCmd("set-pro", "Grant the paid plan (no upload limit)", true))
	cmd.AddCommand(newUserProCmd("unset-pro", "Revoke the paid plan (free-tier limit applies)", false))
	cmd.AddCommand(newUserQuotaCmd())
	return cmd
}

func newUserProCmd(use, short string, isPro bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			if email == "" {
				return fmt.Errorf("email cannot be empty")
			}
			return withDatabase(func(ctx context.Context, _ *config.Config, db *database.DB) error {
				if err := database.NewUserRepository(db).SetPro(ctx, email, isPro); err != nil {
					return fmt.Errorf("failed to update %s: %w", email, err)
				}
				fmt.Printf("User %s is_pro=%v\n", email, isPro)
				return nil
			})
		},
	}
}

func newUserQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota <email>",
		Short: "Show a user's upload allowance and recent uploads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			return withDatabase(func(ctx context.Context, cfg *config.Config, db *database.DB) error {
				uploads := database.NewUploadRepository(db)
				tracker := quota.NewTracker(database.NewUserRepository(db), uploads, nil, quota.WithLimit(cfg.FreeTierLimit))

				status, err := tracker.Status(ctx, email)
				if err != nil {
					return fmt.Errorf("failed to get quota for %s: %w", email, err)
				}

				fmt.Printf("User: %s\n", email)
				if status.IsPro {
					fmt.Println("  Plan: pro (unlimited)")
				} else {
					fmt.Println("  Plan: free")
					fmt.Printf("  Used: %d of %d in the last %d days\n", status.RecentUploads, status.Limit, status.WindowDays)
					fmt.Printf("  Remaining: %d\n", status.Remaining)
				}

				records, err := uploads.ListByUser(ctx, email, recentUploadsShown)
				if err != nil {
					return fmt.Errorf("failed to list uploads: %w", err)
				}
				if len(records) == 0 {
					return nil
				}
				fmt.Println("  Recent uploads:")
				for _, rec := range records {
					fmt.Printf("    %s  %-5s %s (%s)\n", rec.Timestamp.Format("2006-01-02 15:04"), rec.FileType, rec.FileName, rec.AssignmentID)
				}
				return nil
			})
		},
	}
}
