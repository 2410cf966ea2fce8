package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"kalshi-mm/pkg/types"
)

// reloginAfter is how long a bearer token is trusted before the session
// logs in again.
const reloginAfter = 5 * time.Hour

// Session owns the exchange credentials and the bearer token issued by the
// login endpoint. The client calls RequireAuth before every request; the
// session re-logs lazily when the token is missing or stale.
//
// The session is safe for concurrent use; the staleness check is atomic with
// the login so parallel callers cannot double-login.
type Session struct {
	creds  types.Credentials
	http   *resty.Client
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	token       string
	userID      string
	lastLoginAt time.Time
}

// NewSession creates an unauthenticated session. The first RequireAuth logs in.
func NewSession(httpClient *resty.Client, creds types.Credentials, logger *slog.Logger) *Session {
	return &Session{
		creds:  creds,
		http:   httpClient,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// RequireAuth ensures a valid bearer token is present, logging in when the
// session has never logged in or the token is older than reloginAfter.
func (s *Session) RequireAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastLoginAt.IsZero() && s.now().Sub(s.lastLoginAt) <= reloginAfter {
		return nil
	}
	return s.loginLocked(ctx)
}

func (s *Session) loginLocked(ctx context.Context) error {
	var result types.LoginResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"email":    s.creds.Email,
			"password": s.creds.Password,
		}).
		SetResult(&result).
		Post("/v1/log_in")
	if err != nil {
		return fmt.Errorf("log in: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("log in: %w", httpError(resp))
	}

	s.token = result.Token
	s.userID = result.UserID
	s.lastLoginAt = s.now()

	s.logger.Info("logged in", "user_id", s.userID)
	return nil
}

// AuthHeader returns the Authorization value for authenticated requests.
func (s *Session) AuthHeader() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID + " " + s.token
}

// UserPath returns the per-user URL prefix, e.g. "/v1/users/<user_id>".
func (s *Session) UserPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "/v1/users/" + s.userID
}
