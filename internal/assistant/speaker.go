package assistant

import (
	"context"
	"log/slog"
)

// DefaultLanguage is the speech language used when a request names none.
const DefaultLanguage = "en-IN"

// Speaker receives reply text for speech output. Calls are fire-and-forget.
type Speaker interface {
	Speak(ctx context.Context, text, lang string)
}

// NopSpeaker discards everything.
type NopSpeaker struct{}

func (NopSpeaker) Speak(context.Context, string, string) {}

// LogSpeaker records what would have been spoken.
type LogSpeaker struct {
	Logger *slog.Logger
}

func (s LogSpeaker) Speak(ctx context.Context, text, lang string) {
	s.Logger.DebugContext(ctx, "speak", "lang", lang, "chars", len(text))
}
