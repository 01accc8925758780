package chatsync

import (
	"time"

	"chatsync/internal/storage"
	"chatsync/internal/timestamp"
)

// Thread carries the attributes of a platform thread that are persisted.
// IDs are already in their text form.
type Thread struct {
	ID                  string
	ParentChannelID     string
	Name                string
	Archived            bool
	AutoArchiveDuration int
	Locked              bool
	Type                string
}

// Message carries the attributes of a platform message that are persisted.
// Thread is set when the message was posted inside a thread; ChannelID is
// then the thread's own channel reference and is replaced on sync by the
// thread's parent channel.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	CreatedAt time.Time
	Thread    *Thread
}

func (t Thread) record() *storage.Thread {
	return &storage.Thread{
		ID:                  t.ID,
		ParentChannelID:     t.ParentChannelID,
		Name:                t.Name,
		Archived:            t.Archived,
		AutoArchiveDuration: t.AutoArchiveDuration,
		Locked:              t.Locked,
		Type:                t.Type,
	}
}

func (m Message) record() *storage.Message {
	return &storage.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.AuthorID,
		CreatedAt: timestamp.From(m.CreatedAt),
	}
}
