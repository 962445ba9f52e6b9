package assistant

import "strings"

// Sentiment labels.
const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

var (
	positiveWords = []string{"good", "great", "amazing", "awesome", "love", "beautiful", "nice", "enjoy"}
	negativeWords = []string{"bad", "terrible", "hate", "poor", "worst", "disappoint"}
)

// Sentiment scores text by counting lexicon hits: +1 for each positive word
// present, -1 for each negative word present.
func Sentiment(text string) (string, int) {
	t := strings.ToLower(text)
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(t, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(t, w) {
			score--
		}
	}
	switch {
	case score > 0:
		return Positive, score
	case score < 0:
		return Negative, score
	default:
		return Neutral, score
	}
}
