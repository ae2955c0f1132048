package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/config"
	"github.com/sagepath-app/sagepath/internal/repository"
	"github.com/sagepath-app/sagepath/internal/service"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and sessions",
		Long:  "Create users and issue session tokens",
	}

	cmd.AddCommand(UserCreateCmd())
	cmd.AddCommand(UserSessionCmd())

	return cmd
}

func UserCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserCreate,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	email := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	authSvc := newAuthService(pool, cfg)

	user, err := authSvc.CreateUser(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         user.ID,
			"email":      user.Email,
			"created_at": user.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("User created: %s (%s)\n", user.Email, user.ID)
	}

	return nil
}

func UserSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session <user-id>",
		Short: "Issue a session token pair for a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserSession,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runUserSession(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	userID := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	authSvc := newAuthService(pool, cfg)

	pair, err := authSvc.IssueSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to issue session: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Access token:  %s\n", pair.AccessToken)
		fmt.Printf("Refresh token: %s\n", pair.RefreshToken)
	}

	return nil
}

func newAuthService(pool *pgxpool.Pool, cfg *config.Config) *service.AuthService {
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	uuidGen := &service.DefaultUUIDGenerator{}
	return service.NewAuthService(userRepo, sessionRepo, uuidGen, cfg.SessionTTL)
}
