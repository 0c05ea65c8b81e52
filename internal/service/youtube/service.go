package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kapu/video-sentiment-ranker/internal/constants"
	"github.com/kapu/video-sentiment-ranker/internal/domain"
	"github.com/kapu/video-sentiment-ranker/internal/metrics"
	"github.com/kapu/video-sentiment-ranker/internal/service/cache"
	"github.com/kapu/video-sentiment-ranker/internal/util"
	apperrors "github.com/kapu/video-sentiment-ranker/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const serviceName = "youtube"

// SearchCache stores search results between requests. Lookups never fail a
// request: errors are treated as misses.
type SearchCache interface {
	GetSearchResults(ctx context.Context, key string) ([]domain.VideoCandidate, bool)
	SetSearchResults(ctx context.Context, key string, videos []domain.VideoCandidate, ttl time.Duration)
}

type ServiceConfig struct {
	APIKey string
	// Cache is optional; nil disables search caching.
	Cache    SearchCache
	CacheTTL time.Duration
}

type YouTubeService struct {
	service    *youtube.Service
	cache      SearchCache
	cacheTTL   time.Duration
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

// NewYouTubeService builds the API client. Extra client options are appended
// after the API key, which lets tests point the client at a local endpoint.
func NewYouTubeService(ctx context.Context, cfg ServiceConfig, logger *zap.Logger, opts ...option.ClientOption) (*YouTubeService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	breaker := util.NewCircuitBreaker(serviceName,
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		logger)
	breaker.OnStateChange(func(name string, _, to util.CircuitState) {
		metrics.CircuitBreakerStateChanges.WithLabelValues(name, to.String()).Inc()
	})

	ys := &YouTubeService{
		service:    service,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		breaker:    breaker,
		logger:     logger,
		quotaReset: getNextQuotaReset(),
	}

	logger.Info("YouTube service initialized",
		zap.Bool("searchCache", cfg.Cache != nil),
		zap.Time("quotaReset", ys.quotaReset))

	return ys, nil
}

func getNextQuotaReset() time.Time {
	return util.NextPacificMidnight(time.Now())
}

func (ys *YouTubeService) checkQuota(cost int) error {
	ys.quotaMu.Lock()
	defer ys.quotaMu.Unlock()

	if time.Now().After(ys.quotaReset) {
		ys.quotaUsed = 0
		ys.quotaReset = getNextQuotaReset()
		metrics.YouTubeQuotaUsed.Set(0)
		ys.logger.Info("YouTube API quota auto-reset",
			zap.Time("nextReset", ys.quotaReset))
	}

	limit := constants.YouTubeQuota.DailyLimit
	if ys.quotaUsed+cost > limit-constants.YouTubeQuota.SafetyMargin {
		return &QuotaExceededError{
			Used:      ys.quotaUsed,
			Limit:     limit,
			Requested: cost,
			ResetTime: ys.quotaReset,
		}
	}

	return nil
}

func (ys *YouTubeService) consumeQuota(cost int) {
	ys.quotaMu.Lock()
	defer ys.quotaMu.Unlock()

	limit := constants.YouTubeQuota.DailyLimit
	ys.quotaUsed += cost
	remaining := limit - ys.quotaUsed
	metrics.YouTubeQuotaUsed.Set(float64(ys.quotaUsed))

	ys.logger.Debug("YouTube API quota consumed",
		zap.Int("cost", cost),
		zap.Int("used", ys.quotaUsed),
		zap.Int("remaining", remaining))

	if remaining < constants.YouTubeQuota.SafetyMargin {
		ys.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("resetTime", ys.quotaReset))
	}
}

// call runs one API round-trip behind the quota guard and circuit breaker.
// Every failure comes back as an UpstreamError; nothing is retried. Only
// failures that say something about the API's health feed the breaker.
func (ys *YouTubeService) call(ctx context.Context, operation string, cost int, do func() error) error {
	if err := ys.checkQuota(cost); err != nil {
		metrics.YouTubeRequestsTotal.WithLabelValues(operation, "quota_exceeded").Inc()
		return apperrors.NewUpstreamError("YouTube quota exhausted", serviceName, operation, err)
	}

	if !ys.breaker.Allow() {
		metrics.YouTubeRequestsTotal.WithLabelValues(operation, "circuit_open").Inc()
		return apperrors.NewUpstreamError("YouTube circuit breaker open", serviceName, operation, nil)
	}

	if err := do(); err != nil {
		switch {
		case ctx.Err() != nil:
			ys.breaker.RecordNeutral()
			metrics.YouTubeRequestsTotal.WithLabelValues(operation, "canceled").Inc()
		case isUpstreamFault(err):
			ys.breaker.RecordFailure()
			metrics.YouTubeRequestsTotal.WithLabelValues(operation, "error").Inc()
		default:
			ys.breaker.RecordNeutral()
			metrics.YouTubeRequestsTotal.WithLabelValues(operation, "rejected").Inc()
		}
		return apperrors.NewUpstreamError("YouTube API call failed", serviceName, operation, ys.classifyError(err, cost))
	}

	ys.breaker.RecordSuccess()
	ys.consumeQuota(cost)
	metrics.YouTubeRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return nil
}

// isUpstreamFault separates API-wide trouble (transport errors, 5xx, rate and
// quota limits) from rejections scoped to one resource, like a video with
// comments disabled or a missing video.
func isUpstreamFault(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return true
	}
	if apiErr.Code >= http.StatusInternalServerError || apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}

func (ys *YouTubeService) classifyError(err error, cost int) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != 403 {
		return err
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
			ys.quotaMu.Lock()
			defer ys.quotaMu.Unlock()
			return &QuotaExceededError{
				Used:      ys.quotaUsed,
				Limit:     constants.YouTubeQuota.DailyLimit,
				Requested: cost,
				ResetTime: ys.quotaReset,
			}
		}
	}
	return err
}

// SearchVideos returns up to limit videos for topic in the API's relevance
// order. Limits above the API maximum are clamped.
func (ys *YouTubeService) SearchVideos(ctx context.Context, topic string, limit int) ([]domain.VideoCandidate, error) {
	if limit < 1 {
		return nil, apperrors.NewValidationError("limit must be at least 1", "limit", limit)
	}

	maxResults := int64(limit)
	if maxResults > constants.YouTubePaging.MaxSearchResults {
		ys.logger.Warn("Too many videos requested, limiting to max",
			zap.Int("requested", limit),
			zap.Int64("limited", constants.YouTubePaging.MaxSearchResults))
		maxResults = constants.YouTubePaging.MaxSearchResults
	}

	cacheKey := cache.SearchKey(util.NormalizeKey(topic), maxResults)
	if ys.cache != nil {
		if cached, found := ys.cache.GetSearchResults(ctx, cacheKey); found {
			metrics.SearchCacheLookups.WithLabelValues("hit").Inc()
			ys.logger.Debug("YouTube search cache hit",
				zap.String("topic", util.TruncateString(topic, constants.StringLimits.LogTopic)),
				zap.Int("videos", len(cached)))
			return cached, nil
		}
		metrics.SearchCacheLookups.WithLabelValues("miss").Inc()
	}

	var response *youtube.SearchListResponse
	err := ys.call(ctx, "search.list", constants.YouTubeQuota.SearchCost, func() error {
		var doErr error
		response, doErr = ys.service.Search.List([]string{"snippet"}).
			Q(topic).
			Type("video").
			Order("relevance").
			MaxResults(maxResults).
			Context(ctx).
			Do()
		return doErr
	})
	if err != nil {
		ys.logger.Debug("YouTube search failed",
			zap.String("topic", util.TruncateString(topic, constants.StringLimits.LogTopic)),
			zap.Error(err))
		return nil, err
	}

	videos := make([]domain.VideoCandidate, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}

		title := ""
		if item.Snippet != nil {
			title = item.Snippet.Title
		}

		videos = append(videos, domain.VideoCandidate{ID: item.Id.VideoId, Title: title})
		if int64(len(videos)) == maxResults {
			break
		}
	}

	if ys.cache != nil {
		ys.cache.SetSearchResults(ctx, cacheKey, videos, ys.cacheTTL)
	}

	ys.logger.Info("YouTube search completed",
		zap.String("topic", util.TruncateString(topic, constants.StringLimits.LogTopic)),
		zap.Int("videos", len(videos)))

	return videos, nil
}

// fetchCommentPage requests one page of top-level comment threads.
func (ys *YouTubeService) fetchCommentPage(ctx context.Context, videoID, pageToken string) ([]string, string, error) {
	var response *youtube.CommentThreadListResponse
	err := ys.call(ctx, "commentThreads.list", constants.YouTubeQuota.CommentsCost, func() error {
		call := ys.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(constants.YouTubePaging.CommentsPageSize).
			TextFormat("plainText")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var doErr error
		response, doErr = call.Context(ctx).Do()
		return doErr
	})
	if err != nil {
		return nil, "", err
	}

	comments := make([]string, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		comments = append(comments, item.Snippet.TopLevelComment.Snippet.TextDisplay)
	}

	return comments, response.NextPageToken, nil
}

// FetchComments collects up to maxComments plain-text comments of a video.
func (ys *YouTubeService) FetchComments(ctx context.Context, videoID string, maxComments int) ([]string, error) {
	if maxComments < 1 {
		return nil, apperrors.NewValidationError("maxComments must be at least 1", "maxComments", maxComments)
	}

	comments := make([]string, 0, util.Min(maxComments, int(constants.YouTubePaging.CommentsPageSize)))
	for comment, err := range ys.Comments(ctx, videoID, maxComments) {
		if err != nil {
			ys.logger.Debug("Failed to fetch comments",
				zap.String("video", videoID),
				zap.Int("fetched", len(comments)),
				zap.Error(err))
			return nil, err
		}
		comments = append(comments, comment)
	}

	ys.logger.Debug("Comments fetched",
		zap.String("video", videoID),
		zap.Int("count", len(comments)))

	return comments, nil
}

// quotaStatus reports local quota accounting.
func (ys *YouTubeService) quotaStatus() (used int, remaining int, resetTime time.Time) {
	ys.quotaMu.Lock()
	defer ys.quotaMu.Unlock()

	limit := constants.YouTubeQuota.DailyLimit
	if time.Now().After(ys.quotaReset) {
		return 0, limit, getNextQuotaReset()
	}

	return ys.quotaUsed, limit - ys.quotaUsed, ys.quotaReset
}

// CheckHealth fails when a single ranking request could no longer afford a
// search, or when the circuit breaker is open.
func (ys *YouTubeService) CheckHealth(_ context.Context) error {
	if ys.breaker.GetState() == util.CircuitStateOpen {
		return fmt.Errorf("YouTube circuit breaker open")
	}
	return ys.checkQuota(constants.YouTubeQuota.SearchCost)
}

// ServiceStatus is reported on the readiness endpoint.
type ServiceStatus struct {
	CircuitBreaker util.CircuitBreakerStatus `json:"circuit_breaker"`
	QuotaUsed      int                       `json:"quota_used"`
	QuotaRemaining int                       `json:"quota_remaining"`
	QuotaResetAt   time.Time                 `json:"quota_reset_at"`
}

func (ys *YouTubeService) Status() ServiceStatus {
	used, remaining, resetAt := ys.quotaStatus()
	return ServiceStatus{
		CircuitBreaker: ys.breaker.GetStatus(),
		QuotaUsed:      used,
		QuotaRemaining: remaining,
		QuotaResetAt:   resetAt,
	}
}

type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d (requested %d more), resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}
