// Package worker reconciles the local ledger with the remote mirror.
// Messages only carry record IDs; the worker re-reads the record from
// SQLite so the mirror always receives the latest state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"brisa/internal/amqp"
	"brisa/internal/core"
	"brisa/internal/mirror"
	"brisa/internal/storage"
)

// RecordSource is the slice of storage the worker needs.
type RecordSource interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UnmirroredTransactions(ctx context.Context) ([]core.Transaction, error)
	MarkMirrored(ctx context.Context, id string) error
}

type SyncWorker struct {
	records RecordSource
	mirror  mirror.RemoteMirror
}

func NewSyncWorker(records RecordSource, remote mirror.RemoteMirror) *SyncWorker {
	return &SyncWorker{
		records: records,
		mirror:  remote,
	}
}

// HandleSyncMessage reconciles one record with the mirror. Upserts for
// records deleted in the meantime degrade into deletes so the mirror
// never resurrects rows.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"record_id", msg.RecordID,
		"action", msg.Action)

	switch msg.Action {
	case amqp.ActionDelete:
		return w.deleteRecord(ctx, msg.RecordID)
	case amqp.ActionUpsert:
		tx, err := w.records.GetTransaction(ctx, msg.RecordID)
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Record gone locally, deleting from mirror",
				"record_id", msg.RecordID)
			return w.deleteRecord(ctx, msg.RecordID)
		}
		if err != nil {
			return fmt.Errorf("get transaction from storage: %w", err)
		}
		if err := w.mirror.PushRecord(ctx, tx); err != nil {
			return fmt.Errorf("push record to mirror: %w", err)
		}
		w.markMirrored(ctx, tx.ID)
		slog.InfoContext(ctx, "Record mirrored",
			"record_id", tx.ID,
			"type", tx.Type,
			"amount", tx.Amount)
		return nil
	default:
		return fmt.Errorf("unknown sync action %q", msg.Action)
	}
}

// Reconcile pushes every transaction the mirror has not confirmed yet.
// It backs the periodic sweep that catches broker messages lost while
// the worker was down. Per-record failures are logged and retried on
// the next sweep.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	txs, err := w.records.UnmirroredTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list unmirrored transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Reconciling unmirrored records", "count", len(txs))

	pushed := 0
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror.PushRecord(ctx, tx); err != nil {
			slog.WarnContext(ctx, "Reconcile push failed, will retry next sweep",
				"record_id", tx.ID, "error", err)
			continue
		}
		w.markMirrored(ctx, tx.ID)
		pushed++
	}

	slog.InfoContext(ctx, "Reconcile sweep finished",
		"pushed", pushed, "remaining", len(txs)-pushed)
	return nil
}

// markMirrored flags the local row after a successful push. A failure
// here only means the next sweep re-pushes an up-to-date record, so it
// is logged and swallowed.
func (w *SyncWorker) markMirrored(ctx context.Context, id string) {
	if err := w.records.MarkMirrored(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to mark record as mirrored",
			"record_id", id, "error", err)
	}
}

func (w *SyncWorker) deleteRecord(ctx context.Context, id string) error {
	if err := w.mirror.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record from mirror: %w", err)
	}
	slog.InfoContext(ctx, "Record removed from mirror", "record_id", id)
	return nil
}
