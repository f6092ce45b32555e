package ml

import "strings"

// Word lists for the lexicon sentiment scorer. Hand-tuned for financial
// prose; matching is case-insensitive on whole words.
var (
	positiveWords = map[string]struct{}{
		"beat": {}, "beats": {}, "bullish": {}, "buy": {}, "gain": {}, "gains": {},
		"growth": {}, "outperform": {}, "positive": {}, "profit": {}, "rally": {},
		"record": {}, "strong": {}, "surge": {}, "upgrade": {}, "upside": {},
	}
	negativeWords = map[string]struct{}{
		"bearish": {}, "crash": {}, "decline": {}, "downgrade": {}, "drop": {},
		"fall": {}, "loss": {}, "losses": {}, "miss": {}, "negative": {},
		"plunge": {}, "recession": {}, "sell": {}, "slowdown": {}, "weak": {},
	}
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// ScoreSentiment classifies a news prompt with a lexicon scorer. The score
// is the normalized balance of positive and negative words in [-1, 1];
// zero hits is neutral.
func ScoreSentiment(text string) (label string, score float64) {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, `.,!?;:"'()`)
		if _, ok := positiveWords[word]; ok {
			pos++
		}
		if _, ok := negativeWords[word]; ok {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return SentimentNeutral, 0
	}

	score = float64(pos-neg) / float64(total)
	switch {
	case score > 0:
		return SentimentPositive, score
	case score < 0:
		return SentimentNegative, score
	default:
		return SentimentNeutral, 0
	}
}
