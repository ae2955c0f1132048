package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/browse"
	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/service"
)

// QuestionItem represents one question in the list API response.
type QuestionItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Learning string `json:"learning"`
	Quote    string `json:"quote,omitempty"`
	Book     string `json:"book,omitempty"`
	Chapter  string `json:"chapter,omitempty"`
	Category string `json:"category,omitempty"`
}

// QuestionListResponse represents the paginated list API response.
type QuestionListResponse struct {
	Items   []QuestionItem `json:"items"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	HasMore bool           `json:"has_more"`
}

// QuestionsCmd creates the questions command.
func QuestionsCmd() *cobra.Command {
	var (
		category string
		book     string
		keyword  string
		query    string
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Browse the question bank",
		Long:  "Pages through the question bank by keyword filters, or ranked by a semantic query with --query.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runQuestions(category, book, keyword, query, pageSize, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVarP(&book, "book", "b", "", "Filter by book")
	cmd.Flags().StringVarP(&keyword, "search", "s", "", "Keyword filter on question text")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Semantic query (switches to similarity ranking)")
	cmd.Flags().IntVarP(&pageSize, "limit", "n", 10, "Page size")

	return cmd
}

func runQuestions(category, book, keyword, query string, pageSize int, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	session := browse.NewSession(&apiFetcher{api: api}, pageSize)
	if query != "" {
		session.SetSemanticMode(query)
	} else {
		session.SetKeywordMode(service.QuestionFilter{
			Category: category,
			Book:     book,
			Search:   keyword,
		})
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)
	shown := 0

	for {
		page, err := session.LoadMore(ctx)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}

		if outputJSON {
			output, _ := json.MarshalIndent(page, "", "  ")
			fmt.Println(string(output))
		} else {
			for _, item := range page {
				shown++
				fmt.Printf("%d. %s\n", shown, item.Question)
				if item.Category != "" {
					fmt.Printf("   Category: %s\n", item.Category)
				}
				fmt.Printf("   ID: %s\n", item.ID)
			}
			if len(page) == 0 && shown == 0 {
				fmt.Println("No questions found.")
			}
		}

		if !session.HasMore() {
			return nil
		}

		fmt.Print("Load more? [y/N] ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			return nil
		}
	}
}

// apiFetcher adapts the HTTP API to the browse.Fetcher interface.
type apiFetcher struct {
	api *APIClient
}

func (f *apiFetcher) FetchKeyword(ctx context.Context, filter service.QuestionFilter, offset, limit int) ([]*domain.SimilarityMatch, int, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	if filter.Category != "" {
		params.Set("category", filter.Category)
	}
	if filter.Book != "" {
		params.Set("book", filter.Book)
	}
	if filter.Search != "" {
		params.Set("search", filter.Search)
	}

	resp, err := f.api.Get("/api/questions?" + params.Encode())
	if err != nil {
		return nil, 0, err
	}

	var listResp QuestionListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return nil, 0, fmt.Errorf("failed to parse question list: %w", err)
	}

	items := make([]*domain.SimilarityMatch, 0, len(listResp.Items))
	for _, q := range listResp.Items {
		items = append(items, &domain.SimilarityMatch{
			ID:       q.ID,
			Question: q.Question,
			Learning: q.Learning,
			Quote:    q.Quote,
			Category: q.Category,
			Book:     q.Book,
			Chapter:  q.Chapter,
		})
	}

	return items, listResp.Total, nil
}

func (f *apiFetcher) FetchSemantic(ctx context.Context, query string, limit int) ([]*domain.SimilarityMatch, error) {
	resp, err := f.api.Post("/api/similarity-search", SimilaritySearchRequest{
		Query:      query,
		MatchCount: limit,
	})
	if err != nil {
		return nil, err
	}

	var searchResp SimilaritySearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	matches := make([]*domain.SimilarityMatch, 0, len(searchResp.Matches))
	for i := range searchResp.Matches {
		match := searchResp.Matches[i]
		matches = append(matches, &match)
	}

	return matches, nil
}
