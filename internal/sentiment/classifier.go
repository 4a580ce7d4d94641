// Package sentiment tags rating comments as positive, neutral or negative by
// weighted keyword scoring.
package sentiment

import (
	"regexp"
	"strings"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
)

var nonWord = regexp.MustCompile(`\W+`)

// Classifier scores comments against a Lexicon. It is immutable and safe for
// concurrent use.
type Classifier struct {
	weights map[string]float64
}

// NewClassifier builds a classifier from lex. A word listed as both positive
// and negative nets out to the difference of the two weights.
func NewClassifier(lex *Lexicon) *Classifier {
	weights := make(map[string]float64, len(lex.Positive.Words)+len(lex.Negative.Words))
	for _, w := range lex.Positive.Words {
		weights[w] += lex.Positive.Weight
	}
	for _, w := range lex.Negative.Words {
		weights[w] -= lex.Negative.Weight
	}
	return &Classifier{weights: weights}
}

// Score returns the summed keyword weight of comment. Each occurrence counts.
func (c *Classifier) Score(comment string) float64 {
	var score float64
	for _, tok := range nonWord.Split(strings.ToLower(comment), -1) {
		if tok == "" {
			continue
		}
		score += c.weights[tok]
	}
	return score
}

// Classify labels comment. Empty or keyword-free comments are neutral.
func (c *Classifier) Classify(comment string) domain.Sentiment {
	switch score := c.Score(comment); {
	case score > 0:
		return domain.SentimentPositive
	case score < 0:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// Resolve returns explicit when the caller supplied one, and classifies
// comment otherwise.
func (c *Classifier) Resolve(explicit *domain.Sentiment, comment string) domain.Sentiment {
	if explicit != nil && *explicit != "" {
		return *explicit
	}
	if strings.TrimSpace(comment) == "" {
		return domain.SentimentNeutral
	}
	return c.Classify(comment)
}
