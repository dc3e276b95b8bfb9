package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/sheets"
	"conti/internal/storage"
)

// MirrorWorker keeps a TransactionMirror in line with the ledger. Events
// drive it; Backfill catches up on anything the events missed.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.TransactionMirror
	batchSize int
	logger    *log.Logger

	mu         sync.Mutex
	checkpoint time.Time
	lastID     int64
}

func NewMirrorWorker(storage *storage.SQLiteRepository, mirror sheets.TransactionMirror, batchSize int, logger *log.Logger) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &MirrorWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentMirror),
	}
}

// HandleTransactionEvent applies one ledger event to the mirror. It matches
// the amqp consumer handler signature.
func (w *MirrorWorker) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEventKind, ev.Kind,
		log.FieldTransactionID, ev.TransactionID)

	if ev.Kind == amqp.TransactionDeleted {
		return w.remove(ctx, ev.TransactionID)
	}

	view, err := w.storage.GetTransactionView(ctx, ev.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before this event was consumed; the delete event will follow.
		return w.remove(ctx, ev.TransactionID)
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	return w.upsert(ctx, view)
}

// Backfill mirrors every transaction changed since the last checkpoint, in
// batches, and advances the checkpoint. The first call mirrors everything.
// Deletions are only propagated by events.
func (w *MirrorWorker) Backfill(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	synced := 0
	for {
		views, err := w.storage.ListTransactionViewsUpdatedSince(ctx, w.checkpoint, w.lastID, w.batchSize)
		if err != nil {
			return fmt.Errorf("list changed transactions: %w", err)
		}
		for _, v := range views {
			if err := w.upsert(ctx, v); err != nil {
				return err
			}
			w.checkpoint, w.lastID = v.UpdatedAt, v.ID
			synced++
		}
		if len(views) < w.batchSize {
			break
		}
	}

	if synced > 0 {
		w.logger.InfoContext(ctx, "Mirror backfill completed",
			"synced", synced,
			"checkpoint", w.checkpoint.Format(time.RFC3339))
	}
	return nil
}

func (w *MirrorWorker) upsert(ctx context.Context, v core.TransactionView) error {
	ref, err := w.mirror.Upsert(ctx, v)
	if err != nil {
		return fmt.Errorf("mirror transaction %d: %w", v.ID, err)
	}
	w.logger.DebugContext(ctx, "Transaction mirrored",
		log.FieldTransactionID, v.ID,
		"row_ref", ref)
	return nil
}

func (w *MirrorWorker) remove(ctx context.Context, id int64) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove mirrored transaction %d: %w", id, err)
	}
	w.logger.DebugContext(ctx, "Mirrored transaction removed", log.FieldTransactionID, id)
	return nil
}
