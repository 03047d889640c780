// Package services holds the business operations between the HTTP layer and
// storage: ledger writes with export fan-out, goal lifecycle with offsetting
// entries, monthly budgets, and the month-end savings rollover.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"pocketbook/internal/amqp"
	"pocketbook/internal/core"
	"pocketbook/internal/storage"
)

// LedgerService orchestrates transaction writes across SQLite and AMQP.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Add validates and saves a transaction, then queues it for spreadsheet
// export. Export failures do not fail the request; the entry is saved
// locally and the export worker drains unexported rows on its own.
func (s *LedgerService) Add(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.InsertTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishExport(ctx, id, t.UserID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", id, "error", err)
	}

	return id, nil
}

// Update rewrites an entry's editable fields and returns the stored result.
// The goal link always carries over from the stored row; an edit can never
// detach an offsetting entry from its goal.
func (s *LedgerService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	existing, err := s.storage.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.LinkedGoalID = existing.LinkedGoalID

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

func (s *LedgerService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *LedgerService) publishExport(ctx context.Context, id int64, userID string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}
	return s.amqpClient.PublishExport(ctx, id, userID)
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
