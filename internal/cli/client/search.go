package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/domain"
)

// SimilaritySearchRequest represents the similarity search API request.
type SimilaritySearchRequest struct {
	Query      string `json:"query"`
	MatchCount int    `json:"match_count,omitempty"`
}

// SimilaritySearchResponse represents the similarity search API response.
type SimilaritySearchResponse struct {
	Matches []domain.SimilarityMatch `json:"matches"`
	Count   int                      `json:"count"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var matchCount int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the question bank",
		Long:  "Searches the coaching question bank using semantic similarity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(args[0], matchCount, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&matchCount, "limit", "n", 0, "Maximum number of matches")

	return cmd
}

func runSearch(query string, matchCount int, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := SimilaritySearchRequest{
		Query:      query,
		MatchCount: matchCount,
	}

	resp, err := api.Post("/api/similarity-search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SimilaritySearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printMatches(searchResp.Matches, false)
	return nil
}

func printMatches(matches []domain.SimilarityMatch, fallback bool) {
	if len(matches) == 0 {
		fmt.Println("No results found.")
		return
	}

	if fallback {
		fmt.Printf("No similar questions found; showing %d random questions instead:\n\n", len(matches))
	} else {
		fmt.Printf("Found %d matches:\n\n", len(matches))
	}

	for i, match := range matches {
		if fallback {
			fmt.Printf("%d. %s\n", i+1, match.Question)
		} else {
			fmt.Printf("%d. %s (%.2f)\n", i+1, match.Question, match.Similarity)
		}
		if match.Learning != "" {
			learning := match.Learning
			if len(learning) > 100 {
				learning = learning[:97] + "..."
			}
			fmt.Printf("   %s\n", learning)
		}
		if match.Book != "" {
			source := match.Book
			if match.Chapter != "" {
				source += ", " + match.Chapter
			}
			fmt.Printf("   Source: %s\n", source)
		}
		fmt.Printf("   ID: %s\n", match.ID)
		if i < len(matches)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}
}
