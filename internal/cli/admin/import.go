package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/config"
	"github.com/sagepath-app/sagepath/internal/domain"
	"github.com/sagepath-app/sagepath/internal/repository"
	"github.com/sagepath-app/sagepath/internal/service"
)

// questionImport is the JSON shape of one question bank entry.
type questionImport struct {
	Question string `json:"question"`
	Learning string `json:"learning"`
	Quote    string `json:"quote"`
	Book     string `json:"book"`
	Chapter  string `json:"chapter"`
	Category string `json:"category"`
}

// ImportCmd returns the import command
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a question bank from a JSON file",
		Long:  "Import questions from a JSON array; embeddings are filled in later by the backfill job",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read question bank: %w", err)
	}

	var entries []questionImport
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("failed to parse question bank: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("question bank is empty")
	}

	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool, cfg.MatchThreshold)
	uuidGen := &service.DefaultUUIDGenerator{}

	imported := 0
	for i, entry := range entries {
		now := time.Now().UTC()
		q := &domain.Question{
			ID:        uuidGen.NewString(),
			Question:  entry.Question,
			Learning:  entry.Learning,
			Quote:     entry.Quote,
			Book:      entry.Book,
			Chapter:   entry.Chapter,
			Category:  entry.Category,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := domain.ValidateQuestion(q); err != nil {
			log.Printf("import: skipping entry %d: %v", i, err)
			continue
		}

		if err := questionRepo.Create(ctx, q); err != nil {
			return fmt.Errorf("failed to insert question %d: %w", i, err)
		}
		imported++
	}

	fmt.Printf("Imported %d of %d questions\n", imported, len(entries))
	return nil
}
