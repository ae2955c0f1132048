package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AuthCmd creates the auth parent command
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication credentials",
		Long:  "Login, logout, and check authentication status for the sagepath CLI",
	}

	cmd.AddCommand(AuthLoginCmd())
	cmd.AddCommand(AuthLogoutCmd())
	cmd.AddCommand(AuthStatusCmd())

	return cmd
}

// AuthLoginCmd creates the auth login command
func AuthLoginCmd() *cobra.Command {
	var accessToken string
	var refreshToken string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with a session token pair",
		Long:  "Store the session token pair in the global config (~/.config/sagepath/config.json)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(accessToken, refreshToken, apiURL)
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "Access token (sgp_...)")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Refresh token (sgp_...)")
	cmd.Flags().StringVar(&apiURL, "url", "http://localhost:8080", "API URL")

	return cmd
}

// AuthLogoutCmd creates the auth logout command
func AuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Logout and clear credentials",
		Long:  "Remove stored credentials from global config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout()
		},
	}

	return cmd
}

// AuthStatusCmd creates the auth status command
func AuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display current authentication source and API URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAuthStatus(outputJSON)
		},
	}

	cmd.Flags().Bool("output", false, "Output as JSON")

	return cmd
}

func runAuthLogin(accessToken, refreshToken, apiURL string) error {
	if accessToken == "" {
		return fmt.Errorf("--access-token is required")
	}
	if !IsValidSessionToken(accessToken) {
		return fmt.Errorf("invalid access token format (expected 'sgp_<64 hex chars>')")
	}
	if refreshToken != "" && !IsValidSessionToken(refreshToken) {
		return fmt.Errorf("invalid refresh token format (expected 'sgp_<64 hex chars>')")
	}

	cfg := &GlobalConfig{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		APIURL:       apiURL,
	}
	if err := SaveGlobalConfig(cfg); err != nil {
		return err
	}

	configPath, _ := GetConfigPath()
	fmt.Printf("Credentials saved to %s\n", configPath)
	return nil
}

func runAuthLogout() error {
	if err := DeleteGlobalConfig(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func runAuthStatus(outputJSON bool) error {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return err
	}

	loggedIn := cfg != nil && cfg.AccessToken != ""
	apiURL := defaultAPIURL
	if cfg != nil && cfg.APIURL != "" {
		apiURL = cfg.APIURL
	}

	if outputJSON {
		data := map[string]interface{}{
			"logged_in":         loggedIn,
			"api_url":           apiURL,
			"has_refresh_token": cfg != nil && cfg.RefreshToken != "",
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if !loggedIn {
		fmt.Println("Not logged in (run 'sagepath auth login')")
		return nil
	}

	fmt.Printf("Logged in (API: %s)\n", apiURL)
	if cfg.RefreshToken == "" {
		fmt.Println("Warning: no refresh token stored; session cannot auto-renew")
	}
	return nil
}
