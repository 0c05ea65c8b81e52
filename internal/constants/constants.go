package constants

import "time"

var CacheTTL = struct {
	SearchResults time.Duration
}{
	SearchResults: 10 * time.Minute, // SEARCH_CACHE_TTL_SECONDS 기본값
}

var YouTubeQuota = struct {
	DailyLimit   int
	SafetyMargin int
	SearchCost   int
	CommentsCost int
}{
	DailyLimit:   10000,
	SafetyMargin: 2000, // Reserve 2000 units
	SearchCost:   100,  // search.list cost
	CommentsCost: 1,    // commentThreads.list cost
}

var YouTubePaging = struct {
	CommentsPageSize int64
	MaxSearchResults int64
}{
	CommentsPageSize: 100,
	MaxSearchResults: 50,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,                // 3회 연속 실패 시 Circuit OPEN
	ResetTimeout:     30 * time.Second, // 기본 재시도 대기 시간 (30초)
}

var ServerConfig = struct {
	BuildTimeout     time.Duration
	ReadinessTimeout time.Duration
	ShutdownTimeout  time.Duration
}{
	BuildTimeout:     30 * time.Second,
	ReadinessTimeout: 5 * time.Second,
	ShutdownTimeout:  10 * time.Second,
}

var StringLimits = struct {
	LogTopic int
	LogTitle int
}{
	LogTopic: 80,
	LogTitle: 60,
}
