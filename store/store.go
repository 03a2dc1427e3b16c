// Package store persists agent transcripts keyed by chat ID.
package store

import (
	"context"

	"github.com/comprice/deviceagent/chatmodel"
)

// TranscriptStore keeps the turns of past agent runs. The chat ID is taken
// from the chat context on the passed context.
type TranscriptStore interface {
	Turns(ctx context.Context) []chatmodel.Turn
	Add(ctx context.Context, turn chatmodel.Turn) error
	Reset(ctx context.Context) error
}
