package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/config"
	"github.com/sagepath-app/sagepath/internal/openai"
	"github.com/sagepath-app/sagepath/internal/repository"
	"github.com/sagepath-app/sagepath/internal/service"
)

// BackfillCmd returns the backfill command
func BackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill missing question embeddings",
		Long:  "Scan the question bank for rows without embeddings and generate them in batches",
		RunE:  runBackfill,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().Int("batch-size", 0, "Override batch size")

	return cmd
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
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

	questionRepo := repository.NewQuestionRepository(pool, cfg.MatchThreshold)
	embeddingClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		Timeout:             cfg.UpstreamTimeout,
	})

	backfillCfg := service.BackfillConfig{
		BatchSize:    cfg.BackfillBatchSize,
		BatchDelay:   cfg.BackfillBatchDelay,
		MaxRetries:   cfg.BackfillMaxRetries,
		RetryBackoff: 500 * time.Millisecond,
	}
	if batchSize, _ := cmd.Flags().GetInt("batch-size"); batchSize > 0 {
		backfillCfg.BatchSize = batchSize
	}

	backfillSvc := service.NewBackfillServiceWithConfig(questionRepo, embeddingClient, backfillCfg)

	report, err := backfillSvc.Run(ctx)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"scanned":   report.Scanned,
			"succeeded": report.Succeeded,
			"failed":    report.Failed,
			"failures":  report.Failures,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Backfill complete: %d scanned, %d succeeded, %d failed\n", report.Scanned, report.Succeeded, report.Failed)
	for _, failure := range report.Failures {
		fmt.Printf("  %s: %s\n", failure.QuestionID, failure.Err)
	}

	return nil
}

func getDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
