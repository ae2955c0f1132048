package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ProfileResponse represents the profile API response.
type ProfileResponse struct {
	Goal      string `json:"goal"`
	Summary   string `json:"summary"`
	UpdatedAt string `json:"updated_at"`
}

// ProfileCmd creates the profile parent command.
func ProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your coaching profile",
		Long:  "Show or update the goal and summary used for recommendations",
	}

	cmd.AddCommand(ProfileShowCmd())
	cmd.AddCommand(ProfileSetCmd())

	return cmd
}

// ProfileShowCmd creates the profile show command.
func ProfileShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runProfileShow(outputJSON)
		},
	}

	return cmd
}

// ProfileSetCmd creates the profile set command.
func ProfileSetCmd() *cobra.Command {
	var goal string
	var summary string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update your goal and summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(cmd, goal, summary)
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "Your current goal")
	cmd.Flags().StringVar(&summary, "summary", "", "Running summary of your progress")

	return cmd
}

func runProfileShow(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/api/profile")
	if err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.StatusCode == 404 {
			fmt.Println("No profile set yet (run 'sagepath profile set --goal ...')")
			return nil
		}
		return fmt.Errorf("failed to load profile: %w", err)
	}

	var profile ProfileResponse
	if err := json.Unmarshal(resp.Data, &profile); err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(profile, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Goal:    %s\n", profile.Goal)
	fmt.Printf("Summary: %s\n", profile.Summary)
	fmt.Printf("Updated: %s\n", profile.UpdatedAt)
	return nil
}

func runProfileSet(cmd *cobra.Command, goal, summary string) error {
	if goal == "" && summary == "" {
		return fmt.Errorf("at least one of --goal or --summary is required")
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	// Merge with the stored profile so setting one field does not clear
	// the other.
	if goal == "" || summary == "" {
		if resp, err := api.Get("/api/profile"); err == nil {
			var existing ProfileResponse
			if json.Unmarshal(resp.Data, &existing) == nil {
				if goal == "" {
					goal = existing.Goal
				}
				if summary == "" {
					summary = existing.Summary
				}
			}
		}
	}

	resp, err := api.Put("/api/profile", map[string]string{
		"goal":    goal,
		"summary": summary,
	})
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	var profile ProfileResponse
	if err := json.Unmarshal(resp.Data, &profile); err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}

	fmt.Println("Profile updated")
	return nil
}
