package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/kapu/video-sentiment-ranker/pkg/errors"
	"github.com/labstack/echo/v4"
)

type rankParams struct {
	Topic            string
	VideosLimit      int
	CommentsPerVideo int
}

func (s *Server) handleRankVideos(c echo.Context) error {
	params, err := s.parseRankParams(c)
	if err != nil {
		return s.writeError(c, err)
	}

	result, err := s.ranker.Rank(c.Request().Context(), params.Topic, params.VideosLimit, params.CommentsPerVideo)
	if err != nil {
		return s.writeError(c, err)
	}

	if err := c.JSON(http.StatusOK, result); err != nil {
		return fmt.Errorf("failed to write ranking response: %w", err)
	}
	return nil
}

func (s *Server) parseRankParams(c echo.Context) (*rankParams, error) {
	topic := c.QueryParam("topic")
	if strings.TrimSpace(topic) == "" {
		return nil, apperrors.NewValidationError("topic is required", "topic", topic)
	}

	videosLimit, err := positiveIntParam(c, "videos_limit", s.config.Ranking.DefaultVideosLimit)
	if err != nil {
		return nil, err
	}

	commentsPerVideo, err := positiveIntParam(c, "comments_per_video", s.config.Ranking.DefaultCommentsPerVideo)
	if err != nil {
		return nil, err
	}

	return &rankParams{
		Topic:            topic,
		VideosLimit:      videosLimit,
		CommentsPerVideo: commentsPerVideo,
	}, nil
}

func positiveIntParam(c echo.Context, name string, defaultValue int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, apperrors.NewValidationError(name+" must be a positive integer", name, raw)
	}
	return value, nil
}
