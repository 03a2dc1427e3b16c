package agent

import "github.com/comprice/deviceagent/store"

// Option configures the loop controller.
type Option func(*Loop)

// WithName overrides the loop name used in logs and metrics.
func WithName(name string) Option {
	return func(l *Loop) {
		if name != "" {
			l.name = name
		}
	}
}

// WithMaxTurns overrides the model round-trip ceiling.
func WithMaxTurns(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxTurns = n
		}
	}
}

// WithCallback sets the run/tool event callback.
func WithCallback(cb Callback) Option {
	return func(l *Loop) {
		if cb != nil {
			l.callback = cb
		}
	}
}

// WithStore persists finished transcripts keyed by the chat ID on the context.
func WithStore(st store.TranscriptStore) Option {
	return func(l *Loop) {
		l.store = st
	}
}
