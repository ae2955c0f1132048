package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/domain"
)

// RecommendationResponse represents the recommendations API response.
type RecommendationResponse struct {
	Matches  []domain.SimilarityMatch `json:"matches"`
	Fallback bool                     `json:"fallback"`
}

// RecommendCmd creates the recommend command.
func RecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Get personalized question recommendations",
		Long:  "Recommends questions based on your stored goal and summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runRecommend(outputJSON)
		},
	}

	return cmd
}

func runRecommend(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/api/recommendations")
	if err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.Code == "MISSING_CONTEXT" {
			return fmt.Errorf("no goal set yet; run 'sagepath profile set --goal ...' first")
		}
		return fmt.Errorf("recommendations failed: %w", err)
	}

	var recResp RecommendationResponse
	if err := json.Unmarshal(resp.Data, &recResp); err != nil {
		return fmt.Errorf("failed to parse recommendations: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(recResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printMatches(recResp.Matches, recResp.Fallback)
	return nil
}
