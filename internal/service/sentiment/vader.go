package sentiment

import (
	"github.com/jonreiter/govader"
	"go.uber.org/zap"
)

// Polarity thresholds on the compound score. Samples inside
// [NegativeThreshold, PositiveThreshold] count as neither positive nor negative.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// VaderScorer scores text with the VADER lexicon. The analyzer is built once
// and only read afterwards, so a single scorer is shared by all requests.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer(logger *zap.Logger) *VaderScorer {
	analyzer := govader.NewSentimentIntensityAnalyzer()
	logger.Info("VADER sentiment analyzer initialized")
	return &VaderScorer{analyzer: analyzer}
}

// Score returns the compound polarity of text in [-1, 1].
func (s *VaderScorer) Score(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}

func IsPositive(score float64) bool {
	return score > PositiveThreshold
}

func IsNegative(score float64) bool {
	return score < NegativeThreshold
}
