package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kapu/video-sentiment-ranker/internal/config"
	"github.com/kapu/video-sentiment-ranker/internal/domain"
	"github.com/kapu/video-sentiment-ranker/internal/service/ranking"
	"github.com/kapu/video-sentiment-ranker/internal/service/sentiment"
	apperrors "github.com/kapu/video-sentiment-ranker/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "s3cret"

type rankCall struct {
	topic            string
	videosLimit      int
	commentsPerVideo int
}

type mockRanker struct {
	calls  []rankCall
	result *domain.RankedResult
	err    error
}

func (m *mockRanker) Rank(_ context.Context, topic string, videosLimit, commentsPerVideo int) (*domain.RankedResult, error) {
	m.calls = append(m.calls, rankCall{topic, videosLimit, commentsPerVideo})
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.RankedResult{Topic: topic, Results: []*domain.VideoSummary{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0"},
		Access: config.AccessConfig{Secret: testSecret},
		Ranking: config.RankingConfig{
			DefaultVideosLimit:      5,
			DefaultCommentsPerVideo: 50,
		},
	}
}

func newTestServer(t *testing.T, ranker rankingService, checks ...HealthCheck) *Server {
	t.Helper()
	registry := prometheus.NewRegistry()
	return NewServer(testConfig(), ranker, checks, registry, registry, zap.NewNop())
}

func doGet(srv *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestRankVideosRejectsWrongKey(t *testing.T) {
	ranker := &mockRanker{}
	srv := newTestServer(t, ranker)

	for _, target := range []string{
		"/rank_videos?topic=cats&api_key=nope",
		"/rank_videos?topic=cats",
		"/rank_videos?topic=cats&api_key=",
		"/rank_videos?api_key=nope&videos_limit=abc",
	} {
		rec := doGet(srv, target)

		assert.Equal(t, http.StatusForbidden, rec.Code, target)
		assert.JSONEq(t, `{"detail":"Invalid API Key"}`, rec.Body.String(), target)
	}
	assert.Empty(t, ranker.calls, "no upstream work may happen on a rejected key")
}

func TestRankVideosUsesDefaults(t *testing.T) {
	ranker := &mockRanker{}
	srv := newTestServer(t, ranker)

	rec := doGet(srv, "/rank_videos?topic=cats&api_key="+testSecret)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topic":"cats","results":[]}`, rec.Body.String())
	require.Len(t, ranker.calls, 1)
	assert.Equal(t, rankCall{"cats", 5, 50}, ranker.calls[0])
}

func TestRankVideosPassesParameters(t *testing.T) {
	ranker := &mockRanker{}
	srv := newTestServer(t, ranker)

	rec := doGet(srv, "/rank_videos?topic=cute+cats&videos_limit=2&comments_per_video=3&api_key="+testSecret)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ranker.calls, 1)
	assert.Equal(t, rankCall{"cute cats", 2, 3}, ranker.calls[0])
}

func TestRankVideosValidation(t *testing.T) {
	cases := map[string]string{
		"missing topic":    "/rank_videos?api_key=" + testSecret,
		"blank topic":      "/rank_videos?topic=%20&api_key=" + testSecret,
		"non-numeric":      "/rank_videos?topic=cats&videos_limit=five&api_key=" + testSecret,
		"zero limit":       "/rank_videos?topic=cats&videos_limit=0&api_key=" + testSecret,
		"negative comment": "/rank_videos?topic=cats&comments_per_video=-1&api_key=" + testSecret,
	}

	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			ranker := &mockRanker{}
			srv := newTestServer(t, ranker)

			rec := doGet(srv, target)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), `"detail"`)
			assert.Empty(t, ranker.calls)
		})
	}
}

func TestRankVideosUpstreamFailureIsServerError(t *testing.T) {
	ranker := &mockRanker{err: apperrors.NewUpstreamError("YouTube API call failed", "youtube", "search.list", errors.New("quota"))}
	srv := newTestServer(t, ranker)

	rec := doGet(srv, "/rank_videos?topic=cats&api_key="+testSecret)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
}

func TestRankVideosUnknownFailureIsServerError(t *testing.T) {
	srv := newTestServer(t, &mockRanker{err: errors.New("unexpected")})

	rec := doGet(srv, "/rank_videos?topic=cats&api_key="+testSecret)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type stubSearcher struct {
	videos []domain.VideoCandidate
	calls  int
}

func (s *stubSearcher) SearchVideos(_ context.Context, _ string, limit int) ([]domain.VideoCandidate, error) {
	s.calls++
	if len(s.videos) > limit {
		return s.videos[:limit], nil
	}
	return s.videos, nil
}

type stubFetcher struct {
	comments map[string][]string
	calls    int
}

func (s *stubFetcher) FetchComments(_ context.Context, videoID string, maxComments int) ([]string, error) {
	s.calls++
	comments := s.comments[videoID]
	if len(comments) > maxComments {
		comments = comments[:maxComments]
	}
	return comments, nil
}

type constScorer float64

func (c constScorer) Score(string) float64 { return float64(c) }

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRankVideosEndToEndCats(t *testing.T) {
	searcher := &stubSearcher{videos: []domain.VideoCandidate{{ID: "A", Title: "Cat A"}, {ID: "B", Title: "Cat B"}}}
	fetcher := &stubFetcher{comments: map[string][]string{
		"A": {"great!", "bad", "ok"},
		"B": {},
	}}
	agg := ranking.NewAggregator(searcher, fetcher, sentiment.NewVaderScorer(zap.NewNop()), zap.NewNop())
	srv := newTestServer(t, agg)

	rec := doGet(srv, "/rank_videos?topic=cats&videos_limit=2&comments_per_video=3&api_key="+testSecret)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResult(t, rec)
	assert.Equal(t, "cats", body["topic"])
	results := body["results"].([]any)
	require.Len(t, results, 1)

	summary := results[0].(map[string]any)
	assert.Equal(t, "A", summary["video_id"])
	assert.Equal(t, "Cat A", summary["title"])
	assert.EqualValues(t, 3, summary["total_comments"])
	for _, key := range []string{"avg_sentiment", "positive_percent", "negative_percent"} {
		assert.Contains(t, summary, key)
	}
	assert.LessOrEqual(t, summary["positive_percent"].(float64)+summary["negative_percent"].(float64), 100.0)
}

func TestRankVideosEndToEndTies(t *testing.T) {
	searcher := &stubSearcher{videos: []domain.VideoCandidate{{ID: "X", Title: "X"}, {ID: "Y", Title: "Y"}}}
	fetcher := &stubFetcher{comments: map[string][]string{"X": {"a"}, "Y": {"b", "c"}}}
	agg := ranking.NewAggregator(searcher, fetcher, constScorer(0.2), zap.NewNop())
	srv := newTestServer(t, agg)

	rec := doGet(srv, "/rank_videos?topic=ties&videos_limit=2&api_key="+testSecret)
	require.Equal(t, http.StatusOK, rec.Code)

	results := decodeResult(t, rec)["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "X", results[0].(map[string]any)["video_id"])
	assert.Equal(t, "Y", results[1].(map[string]any)["video_id"])
}

func TestRankVideosEndToEndRejectedKeyMakesNoUpstreamCalls(t *testing.T) {
	searcher := &stubSearcher{videos: []domain.VideoCandidate{{ID: "A"}}}
	fetcher := &stubFetcher{}
	agg := ranking.NewAggregator(searcher, fetcher, constScorer(0), zap.NewNop())
	srv := newTestServer(t, agg)

	rec := doGet(srv, "/rank_videos?topic=cats&api_key=wrong")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, searcher.calls)
	assert.Zero(t, fetcher.calls)
}

func TestUnknownRouteUsesDetailBody(t *testing.T) {
	srv := newTestServer(t, &mockRanker{})

	rec := doGet(srv, "/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())
}

func TestMetricsEndpointServesInjectedRegistry(t *testing.T) {
	srv := newTestServer(t, &mockRanker{})

	require.Equal(t, http.StatusOK, doGet(srv, "/rank_videos?topic=cats&api_key="+testSecret).Code)
	require.Equal(t, http.StatusForbidden, doGet(srv, "/rank_videos?topic=cats").Code)

	rec := doGet(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `ranker_http_requests_total{method="GET",route="/rank_videos",status_code="200"} 1`)
	assert.Contains(t, body, `ranker_http_requests_total{method="GET",route="/rank_videos",status_code="403"} 1`)
}

type panicRanker struct{}

func (panicRanker) Rank(context.Context, string, int, int) (*domain.RankedResult, error) {
	panic("scorer exploded")
}

func TestRecoveredPanicIsRecordedAsServerError(t *testing.T) {
	srv := newTestServer(t, panicRanker{})

	rec := doGet(srv, "/rank_videos?topic=cats&api_key="+testSecret)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
	body := doGet(srv, "/metrics").Body.String()
	assert.Contains(t, body, `ranker_http_requests_total{method="GET",route="/rank_videos",status_code="500"} 1`)
	assert.NotContains(t, body, `status_code="200"`)
}
