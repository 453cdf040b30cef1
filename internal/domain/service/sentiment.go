package service

import "context"

// Sentiment labels produced by a SentimentClassifier.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
	// SentimentError marks an event whose labelling failed.
	SentimentError = "Error"
)

// SentimentClassifier labels free text. Labels never influence reaction computation.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// NormalizeSentiment maps a raw model answer onto the closed label set.
func NormalizeSentiment(raw string) (string, bool) {
	for _, l := range []string{SentimentPositive, SentimentNegative, SentimentNeutral} {
		if containsFold(raw, l) {
			return l, true
		}
	}
	return "", false
}
