package storage

import (
	"context"
	"errors"

	"chatsync/internal/timestamp"
)

// ErrDuplicate is returned by strict inserts when a row with the same ID exists.
var ErrDuplicate = errors.New("duplicate key")

// Message is a synced chat message row
type Message struct {
	ID        string        `db:"id"`
	ChannelID string        `db:"channel_id"`
	AuthorID  string        `db:"author_id"`
	CreatedAt timestamp.UTC `db:"created_at"`
	ThreadID  *string       `db:"thread_id"` // nil for top-level channel messages
}

// Thread is a synced chat thread row
type Thread struct {
	ID                  string `db:"id"`
	ParentChannelID     string `db:"parent_channel_id"`
	Name                string `db:"name"`
	Archived            bool   `db:"archived"`
	AutoArchiveDuration int    `db:"auto_archive_duration"`
	Locked              bool   `db:"locked"`
	Type                string `db:"type"`
}

// Store persists messages and threads. Get methods return nil, nil when no row exists.
type Store interface {
	GetMessage(ctx context.Context, id string) (*Message, error)
	GetThread(ctx context.Context, id string) (*Thread, error)
	CreateMessage(ctx context.Context, msg *Message) error
	CreateThread(ctx context.Context, thread *Thread) error
	CreateMessageIfAbsent(ctx context.Context, msg *Message) (bool, error)
	CreateThreadIfAbsent(ctx context.Context, thread *Thread) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
