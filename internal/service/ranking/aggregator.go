package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kapu/video-sentiment-ranker/internal/constants"
	"github.com/kapu/video-sentiment-ranker/internal/domain"
	"github.com/kapu/video-sentiment-ranker/internal/metrics"
	"github.com/kapu/video-sentiment-ranker/internal/service/sentiment"
	"github.com/kapu/video-sentiment-ranker/internal/util"
	apperrors "github.com/kapu/video-sentiment-ranker/pkg/errors"
	"go.uber.org/zap"
)

type VideoSearcher interface {
	SearchVideos(ctx context.Context, topic string, limit int) ([]domain.VideoCandidate, error)
}

type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID string, maxComments int) ([]string, error)
}

type Scorer interface {
	Score(text string) float64
}

// Aggregator ranks a topic's videos by the average sentiment of their
// comments. Videos are processed one at a time, in search order.
type Aggregator struct {
	searcher VideoSearcher
	comments CommentFetcher
	scorer   Scorer
	logger   *zap.Logger
}

func NewAggregator(searcher VideoSearcher, comments CommentFetcher, scorer Scorer, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		searcher: searcher,
		comments: comments,
		scorer:   scorer,
		logger:   logger,
	}
}

// Rank fetches, scores and sorts. Any upstream failure aborts the whole
// ranking; no partial result is returned.
func (a *Aggregator) Rank(ctx context.Context, topic string, videosLimit, commentsPerVideo int) (result *domain.RankedResult, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RankingRequestsTotal.WithLabelValues(status).Inc()
		metrics.RankingDuration.Observe(time.Since(start).Seconds())
	}()

	if videosLimit < 1 {
		return nil, apperrors.NewValidationError("videos_limit must be at least 1", "videos_limit", videosLimit)
	}
	if commentsPerVideo < 1 {
		return nil, apperrors.NewValidationError("comments_per_video must be at least 1", "comments_per_video", commentsPerVideo)
	}

	videos, err := a.searcher.SearchVideos(ctx, topic, videosLimit)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}

	summaries := make([]*domain.VideoSummary, 0, len(videos))
	for _, video := range videos {
		comments, err := a.comments.FetchComments(ctx, video.ID, commentsPerVideo)
		if err != nil {
			return nil, fmt.Errorf("fetch comments for %s: %w", video.ID, err)
		}

		if len(comments) == 0 {
			metrics.VideosSkippedTotal.Inc()
			a.logger.Debug("Skipping video without comments",
				zap.String("video", video.ID),
				zap.String("title", util.TruncateString(video.Title, constants.StringLimits.LogTitle)))
			continue
		}

		summaries = append(summaries, a.summarize(video, comments))
	}

	// Stable so that equal averages keep relevance order.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AvgSentiment > summaries[j].AvgSentiment
	})

	a.logger.Info("Ranking completed",
		zap.String("topic", util.TruncateString(topic, constants.StringLimits.LogTopic)),
		zap.Int("candidates", len(videos)),
		zap.Int("ranked", len(summaries)),
		zap.Duration("elapsed", time.Since(start)))

	return &domain.RankedResult{Topic: topic, Results: summaries}, nil
}

func (a *Aggregator) summarize(video domain.VideoCandidate, comments []string) *domain.VideoSummary {
	scores := make([]float64, len(comments))
	positive, negative := 0, 0
	for i, comment := range comments {
		score := a.scorer.Score(comment)
		scores[i] = score
		switch {
		case sentiment.IsPositive(score):
			positive++
		case sentiment.IsNegative(score):
			negative++
		}
	}
	metrics.CommentsScoredTotal.Add(float64(len(comments)))

	return &domain.VideoSummary{
		VideoID:         video.ID,
		Title:           video.Title,
		AvgSentiment:    util.Mean(scores),
		PositivePercent: util.Percentage(positive, len(scores)),
		NegativePercent: util.Percentage(negative, len(scores)),
		TotalComments:   len(comments),
	}
}
