package dnac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	tokenLifetime      = 55 * time.Minute
	tokenRefreshMargin = 5 * time.Minute
	tokenMinInterval   = 30 * time.Second
)

// TokenManager caches the controller API token and refreshes it before the
// controller-side expiry. Refresh attempts are spaced at least
// tokenMinInterval apart; a caller arriving early waits out the remainder.
type TokenManager struct {
	authURL  string
	username string
	password string
	client   *http.Client
	log      zerolog.Logger

	mu          sync.Mutex
	token       string
	expiry      time.Time
	lastAttempt time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewTokenManager constructs a token manager against the controller auth endpoint.
func NewTokenManager(baseURL, username, password string, client *http.Client, log zerolog.Logger) *TokenManager {
	return &TokenManager{
		authURL:  baseURL + "/dna/system/api/v1/auth/token",
		username: username,
		password: password,
		client:   client,
		log:      log.With().Str("component", "dnac.tokens").Logger(),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Token returns a valid API token, refreshing when the cached one is within
// tokenRefreshMargin of expiry or when force is set.
func (m *TokenManager) Token(ctx context.Context, force bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !force && m.token != "" && now.Before(m.expiry.Add(-tokenRefreshMargin)) {
		return m.token, nil
	}

	if wait := tokenMinInterval - now.Sub(m.lastAttempt); wait > 0 && !m.lastAttempt.IsZero() {
		m.log.Debug().Dur("wait", wait).Msg("throttling token refresh")
		if err := m.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	m.lastAttempt = m.now()

	token, err := m.requestToken(ctx)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	m.token = token
	m.expiry = m.now().Add(tokenLifetime)
	m.log.Info().Time("expiry", m.expiry).Msg("token refreshed")
	return token, nil
}

func (m *TokenManager) requestToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.authURL, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(m.username, m.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"Token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Token == "" {
		return "", ErrTokenMissing
	}
	return body.Token, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
