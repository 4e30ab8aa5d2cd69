package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrNoCredential = errors.New("no credential available")

// StaticTokenSource returns a fixed API key. Used when the deployment wires
// the credential through the environment.
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoCredential
	}
	return s.token, nil
}

// ServiceTokenSource fetches short-lived bearer tokens from the auth
// collaborator and caches them until shortly before expiry. Every dispatch
// asks for a token; most asks are served from cache.
type ServiceTokenSource struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewServiceTokenSource(url string, logger *zap.Logger) *ServiceTokenSource {
	return &ServiceTokenSource{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *ServiceTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiresAt) {
		return s.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: auth service returned %d", ErrNoCredential, resp.StatusCode)
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.Token == "" {
		return "", fmt.Errorf("%w: malformed auth response", ErrNoCredential)
	}

	s.token = parsed.Token
	// Refresh a little early so a token never expires mid-call.
	ttl := time.Duration(parsed.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	s.expiresAt = time.Now().Add(ttl - 10*time.Second)
	s.logger.Debug("refreshed auth token", zap.Time("expires_at", s.expiresAt))
	return s.token, nil
}
