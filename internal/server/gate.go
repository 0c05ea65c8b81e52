package server

import (
	"crypto/subtle"
	"net/url"

	apperrors "github.com/kapu/video-sentiment-ranker/pkg/errors"
	"github.com/labstack/echo/v4"
)

const (
	apiKeyParam       = "api_key"
	invalidAPIKeyText = "Invalid API Key"
)

// AccessGate checks the shared secret carried in the api_key query parameter.
type AccessGate struct {
	secret []byte
}

func NewAccessGate(secret string) *AccessGate {
	return &AccessGate{secret: []byte(secret)}
}

// Verify passes only for an exact match. An empty configured secret rejects everything.
func (g *AccessGate) Verify(provided string) error {
	if len(g.secret) == 0 || subtle.ConstantTimeCompare([]byte(provided), g.secret) != 1 {
		return apperrors.NewAuthorizationError(invalidAPIKeyText)
	}
	return nil
}

// requireAPIKey rejects the request before the handler runs.
func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.gate.Verify(c.QueryParam(apiKeyParam)); err != nil {
			return s.writeError(c, err)
		}
		return next(c)
	}
}

func redactAPIKey(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	q := u.Query()
	if !q.Has(apiKeyParam) {
		return uri
	}
	q.Set(apiKeyParam, "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
