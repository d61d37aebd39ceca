package chat

import (
	"context"
	"time"
)

// TranscriptStore keeps every user's messages in insertion order.
//
// A turn appends the user message and then the bot message; a crash between
// the two leaves a user message without a reply, which stores do not repair.
type TranscriptStore interface {
	Append(ctx context.Context, userID string, m Message) error
	GetAll(ctx context.Context, userID string) ([]Message, error)
	Flush(ctx context.Context) error
}

// notBefore keeps timestamps non-decreasing within a conversation.
func notBefore(ts, last time.Time) time.Time {
	if ts.Before(last) {
		return last
	}
	return ts
}
