package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/johar/internal/recordstore"
)

var ErrEmptyFeedback = errors.New("feedback text is empty")

// Feedback is one scored visitor comment.
type Feedback struct {
	Text      string    `json:"text"`
	Sentiment string    `json:"sentiment"`
	Score     int       `json:"score"`
	At        time.Time `json:"at"`
}

// FeedbackLog is the append-only store of visitor feedback.
type FeedbackLog struct {
	entries *recordstore.Collection[Feedback]
	now     func() time.Time
}

func NewFeedbackLog(store *recordstore.Store) *FeedbackLog {
	return &FeedbackLog{
		entries: recordstore.NewCollection(store, recordstore.Feedback, func(f Feedback) string {
			return f.At.Format(time.RFC3339Nano)
		}),
		now: time.Now,
	}
}

// Submit scores text and appends it to the log.
func (l *FeedbackLog) Submit(ctx context.Context, text string) (Feedback, error) {
	if strings.TrimSpace(text) == "" {
		return Feedback{}, ErrEmptyFeedback
	}
	label, score := Sentiment(text)
	fb := Feedback{Text: text, Sentiment: label, Score: score, At: l.now().UTC()}
	if err := l.entries.Create(ctx, fb); err != nil {
		return Feedback{}, fmt.Errorf("append feedback: %w", err)
	}
	return fb, nil
}

func (l *FeedbackLog) List(ctx context.Context) []Feedback {
	return l.entries.Load(ctx)
}
