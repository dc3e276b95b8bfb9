package services

import (
	"context"
	"fmt"
	"time"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/storage"
)

// maxOccurrencesPerRun bounds the catch-up of a single template in one run.
const maxOccurrencesPerRun = 366

// RecurringProcessor turns due recurring templates into transactions.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
	ledger  *LedgerService
	logger  *log.Logger
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, ledger *LedgerService, logger *log.Logger) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		ledger:  ledger,
		logger:  logger.WithComponent(log.ComponentRecurring),
	}
}

// ProcessDue materializes every occurrence due on or before now's date and
// returns how many transactions were created. A failing template is logged
// and skipped; its watermark stays put so the next run retries it.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	templates, err := p.storage.ListActiveRecurring(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	p.logger.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		log.FieldDate, today.String())

	processed := 0
	for _, r := range templates {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		days, err := DueDates(r, today, maxOccurrencesPerRun)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to compute due dates",
				log.FieldRecurringID, r.ID, log.FieldError, err)
			continue
		}
		if len(days) == 0 {
			continue
		}

		created, err := p.ledger.MaterializeRecurring(ctx, r, days)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to create transactions from recurring template",
				log.FieldRecurringID, r.ID,
				"description", r.Description,
				log.FieldError, err)
			continue
		}

		processed += len(created)
		p.logger.InfoContext(ctx, "Created transactions from recurring template",
			log.FieldRecurringID, r.ID,
			log.FieldOwner, r.Owner,
			"count", len(created),
			"through", days[len(days)-1].String(),
			"frequency", r.Frequency)
	}

	p.logger.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}
