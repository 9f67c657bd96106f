// Package sentiment scores article text and derives labels, headline KPIs
// and per-entity breakdowns from the scores.
package sentiment

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonreiter/govader"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Label thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Scorer maps text to a compound polarity in [-1, 1].
type Scorer interface {
	Polarity(text string) (float64, error)
}

// VaderScorer scores text with the VADER lexicon. It holds no per-call
// state and is safe for concurrent use.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Polarity returns the VADER compound score.
func (v *VaderScorer) Polarity(text string) (float64, error) {
	return v.analyzer.PolarityScores(text).Compound, nil
}

// Label buckets a compound score: >= 0.05 positive, <= -0.05 negative.
func Label(score float64) models.SentimentLabel {
	switch {
	case score >= PositiveThreshold:
		return models.LabelPositive
	case score <= NegativeThreshold:
		return models.LabelNegative
	default:
		return models.LabelNeutral
	}
}

// ------------------------------------------------------------------
// Keyword scorer: a small offline lexicon for business news. Useful
// where the VADER lexicon is too general, and as a deterministic
// stand-in in tests.
// ------------------------------------------------------------------

var positiveWords = map[string]float64{
	"surge": 0.7, "soar": 0.7, "record high": 0.7, "wins": 0.5, "win": 0.4,
	"growth": 0.4, "upgrade": 0.6, "outperform": 0.6, "beat": 0.5,
	"strong": 0.4, "recovery": 0.5, "breakthrough": 0.6, "expansion": 0.4,
	"profit": 0.3, "partnership": 0.4, "launch": 0.3, "award": 0.5,
}

var negativeWords = map[string]float64{
	"crash": 0.8, "plunge": 0.7, "slump": 0.6, "downgrade": 0.6,
	"layoff": 0.6, "lawsuit": 0.6, "recall": 0.6, "breach": 0.7,
	"weak": 0.4, "decline": 0.5, "loss": 0.4, "fraud": 0.8, "scam": 0.8,
	"investigation": 0.5, "fine": 0.4, "miss": 0.5, "warning": 0.5,
	"outage": 0.6, "boycott": 0.6,
}

// KeywordScorer scores text by weighted keyword matches.
type KeywordScorer struct{}

// Polarity returns (positive - negative) / (positive + negative) over
// matched keyword weights, or 0 when nothing matches.
func (KeywordScorer) Polarity(text string) (float64, error) {
	lower := strings.ToLower(text)
	pos, neg := 0.0, 0.0
	for word, weight := range positiveWords {
		if strings.Contains(lower, word) {
			pos += weight
		}
	}
	for word, weight := range negativeWords {
		if strings.Contains(lower, word) {
			neg += weight
		}
	}
	if pos+neg == 0 {
		return 0, nil
	}
	return (pos - neg) / (pos + neg), nil
}

// NewScorer returns the named scorer: "vader" (default) or "keyword".
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(name) {
	case "", "vader":
		return NewVaderScorer(), nil
	case "keyword":
		return KeywordScorer{}, nil
	}
	return nil, fmt.Errorf("unknown scorer %q", name)
}

// clamp keeps a score inside [-1, 1]; NaN maps to 0.
func clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(-1, math.Min(1, score))
}
