package domain

// VideoCandidate is one search hit, in the platform's relevance order.
type VideoCandidate struct {
	ID    string `json:"video_id"`
	Title string `json:"title"`
}

// VideoSummary aggregates the comment sentiment of a single video. It is only
// built for videos with at least one comment.
type VideoSummary struct {
	VideoID         string  `json:"video_id"`
	Title           string  `json:"title"`
	AvgSentiment    float64 `json:"avg_sentiment"`
	PositivePercent float64 `json:"positive_percent"`
	NegativePercent float64 `json:"negative_percent"`
	TotalComments   int     `json:"total_comments"`
}

// RankedResult is the response body of a ranking request. Results are
// non-increasing by AvgSentiment; ties keep search order.
type RankedResult struct {
	Topic   string          `json:"topic"`
	Results []*VideoSummary `json:"results"`
}
