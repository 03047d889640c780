package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pocketbook/internal/amqp"
	"pocketbook/internal/storage"
)

// WorkerConfig holds configuration for the export worker.
type WorkerConfig struct {
	// PollInterval is how often the catch-up sweep runs (default: 1m)
	PollInterval time.Duration

	// BatchSize is the max number of entries per catch-up sweep (default: 25)
	BatchSize int
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: time.Minute,
		BatchSize:    25,
	}
}

// Worker drains export messages into the spreadsheet. It listens to the
// AMQP queue for freshly created entries and periodically sweeps for
// unexported rows left behind by lost messages or downtime.
type Worker struct {
	storage *storage.SQLiteRepository
	writer  RowWriter
	config  WorkerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewWorker(storage *storage.SQLiteRepository, writer RowWriter, config WorkerConfig) *Worker {
	return &Worker{
		storage: storage,
		writer:  writer,
		config:  config,
	}
}

// HandleMessage exports the entry named by one queue message. A missing
// entry was deleted before export and is dropped without error. An already
// exported entry is a redelivery and is skipped.
func (w *Worker) HandleMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	exported, err := w.storage.IsExported(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Entry deleted before export, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("check export state: %w", err)
	}
	if exported {
		slog.InfoContext(ctx, "Entry already exported, skipping redelivery", "id", msg.ID)
		return nil
	}

	entry, err := w.storage.GetTransaction(ctx, msg.UserID, msg.ID)
	if err != nil {
		return fmt.Errorf("load entry %d: %w", msg.ID, err)
	}

	rowRef, err := w.writer.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append entry %d: %w", msg.ID, err)
	}

	if err := w.storage.MarkExported(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Entry exported", "id", msg.ID, "row_ref", rowRef)
	return nil
}

// Sweep exports up to BatchSize unexported entries, oldest first. The first
// append failure stops the sweep; the remaining rows are retried next cycle.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	pending, err := w.storage.ListUnexported(ctx, w.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unexported: %w", err)
	}

	exported := 0
	for _, entry := range pending {
		rowRef, err := w.writer.Append(ctx, entry)
		if err != nil {
			return exported, fmt.Errorf("append entry %d: %w", entry.ID, err)
		}
		if err := w.storage.MarkExported(ctx, entry.ID); err != nil {
			return exported, fmt.Errorf("mark exported: %w", err)
		}
		exported++
		slog.InfoContext(ctx, "Entry exported by sweep", "id", entry.ID, "row_ref", rowRef)
	}
	return exported, nil
}

// Start launches the periodic catch-up sweep. Returns an error if already
// running.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Export worker started",
		"poll_interval", w.config.PollInterval,
		"batch_size", w.config.BatchSize)
	return nil
}

// Stop gracefully stops the sweep loop and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Export worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *Worker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if n, err := w.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "Export sweep failed", "exported", n, "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "Export sweep complete", "exported", n)
			}
		}
	}
}
