package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/sagepath-app/sagepath/internal/service"
)

// BackfillRunner runs one embedding backfill pass.
type BackfillRunner interface {
	Run(ctx context.Context) (*service.BackfillReport, error)
}

// BackfillWorker periodically scans for questions missing embeddings and
// fills them in. It satisfies JobProcessor so the generic Worker can drive it.
type BackfillWorker struct {
	backfill BackfillRunner
}

// NewBackfillWorker creates a new BackfillWorker instance
func NewBackfillWorker(backfill BackfillRunner) *BackfillWorker {
	return &BackfillWorker{backfill: backfill}
}

// ProcessJobs implements the JobProcessor interface
func (w *BackfillWorker) ProcessJobs(ctx context.Context) error {
	report, err := w.backfill.Run(ctx)
	if err != nil {
		return fmt.Errorf("backfill run failed: %w", err)
	}

	if report.Scanned > 0 {
		log.Printf("Backfill pass: scanned=%d succeeded=%d failed=%d", report.Scanned, report.Succeeded, report.Failed)
	}

	return nil
}
