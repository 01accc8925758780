// Package chatsync writes platform messages and threads to storage exactly once.
package chatsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chatsync/internal/metrics"
	"chatsync/internal/storage"
)

// ErrThreadRequired is returned when a message is synced as thread-sourced
// without thread attributes.
var ErrThreadRequired = errors.New("thread-sourced message has no thread")

// Syncer records messages and threads in a Store
type Syncer struct {
	store storage.Store
}

// NewSyncer creates a syncer writing to store
func NewSyncer(store storage.Store) *Syncer {
	return &Syncer{store: store}
}

// InsertThread creates a thread row. It does not check for an existing row:
// calling it twice for the same thread ID fails with storage.ErrDuplicate.
// SyncMessage is the guarded path.
func (s *Syncer) InsertThread(ctx context.Context, thread Thread) error {
	if err := s.store.CreateThread(ctx, thread.record()); err != nil {
		return fmt.Errorf("failed to insert thread: %w", err)
	}

	metrics.ThreadsInserted.Inc()
	return nil
}

// ThreadExists reports whether a thread row with the given ID is stored
func (s *Syncer) ThreadExists(ctx context.Context, id string) (bool, error) {
	thread, err := s.store.GetThread(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to look up thread: %w", err)
	}
	return thread != nil, nil
}

// SyncMessage stores msg unless a message with the same ID is already stored.
// When fromThread is set the message is filed under its thread's parent
// channel and the thread row is created first if missing.
func (s *Syncer) SyncMessage(ctx context.Context, msg Message, fromThread bool) (err error) {
	defer func() {
		if err != nil {
			metrics.MessagesSynced.WithLabelValues("error").Inc()
		}
	}()

	existing, err := s.store.GetMessage(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("failed to look up message: %w", err)
	}
	if existing != nil {
		metrics.MessagesSynced.WithLabelValues("skipped").Inc()
		return nil
	}

	record := msg.record()

	if fromThread {
		if msg.Thread == nil {
			return fmt.Errorf("message %s: %w", msg.ID, ErrThreadRequired)
		}
		thread := msg.Thread
		record.ChannelID = thread.ParentChannelID
		threadID := thread.ID
		record.ThreadID = &threadID

		created, err := s.store.CreateThreadIfAbsent(ctx, thread.record())
		if err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}
		if created {
			metrics.ThreadsInserted.Inc()
			slog.Debug("Inserted thread", "thread_id", thread.ID, "parent_channel_id", thread.ParentChannelID)
		}
	}

	created, err := s.store.CreateMessageIfAbsent(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if !created {
		// Another sync committed the same message after our lookup
		metrics.MessagesSynced.WithLabelValues("skipped").Inc()
		return nil
	}

	metrics.MessagesSynced.WithLabelValues("inserted").Inc()
	slog.Debug("Synced message", "message_id", record.ID, "channel_id", record.ChannelID, "from_thread", fromThread)
	return nil
}
