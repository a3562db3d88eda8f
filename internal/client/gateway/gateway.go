// Package gateway wraps every HTTP call the client makes to the backend.
//
// Send attaches the current bearer credential and applies the uniform
// failure policy: an authentication rejection (401/403) shows a notice and
// schedules a sign-out, a transport failure shows a different notice and
// signs out immediately. SendAnonymous is the variant for endpoints that must
// not carry a credential.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/careerkit/internal/client/notice"
	"github.com/dmitrijs2005/careerkit/internal/client/session"
	"github.com/dmitrijs2005/careerkit/internal/logging"
)

var (
	// ErrSessionRejected means the server refused the credential. Sign-out
	// is already scheduled; callers must stop.
	ErrSessionRejected = errors.New("session rejected")
	// ErrUnavailable wraps transport failures (no response at all).
	ErrUnavailable = errors.New("server unavailable")
)

const (
	DefaultSignOutDelay = 1500 * time.Millisecond

	HeaderRequestID = "X-Request-ID"
	userAgent       = "careerkit-cli/1.0"

	msgSessionExpired = "Session expired. Please sign in again."
	msgNetworkError   = "Network error. Please check your connection and sign in again."
	msgNetworkAnon    = "Network error. Please check your connection."
)

// Sessions is what the gateway needs from the session store.
type Sessions interface {
	Current(ctx context.Context) (*session.Session, bool)
	SignOut(ctx context.Context, reason session.Reason) error
}

// Doer executes HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Gateway)

func WithHTTPClient(d Doer) Option {
	return func(g *Gateway) { g.http = d }
}

func WithSignOutDelay(d time.Duration) Option {
	return func(g *Gateway) { g.signOutDelay = d }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithAfterFunc replaces time.AfterFunc, for tests.
func WithAfterFunc(f func(time.Duration, func())) Option {
	return func(g *Gateway) { g.afterFunc = f }
}

type Gateway struct {
	http         Doer
	sessions     Sessions
	notifier     notice.Notifier
	logger       logging.Logger
	signOutDelay time.Duration
	afterFunc    func(time.Duration, func())

	mu             sync.Mutex
	signOutPending bool
}

func New(sessions Sessions, notifier notice.Notifier, opts ...Option) *Gateway {
	g := &Gateway{
		http:         &http.Client{Timeout: 2 * time.Minute},
		sessions:     sessions,
		notifier:     notifier,
		logger:       logging.Nop(),
		signOutDelay: DefaultSignOutDelay,
		afterFunc:    func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send performs an authorized request. It returns the response unmodified
// for every status except 401/403, which yield ErrSessionRejected with a
// nil response. Transport failures return an error wrapping ErrUnavailable.
func (g *Gateway) Send(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if sess, ok := g.sessions.Current(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+sess.Credential)
	}

	resp, err := g.do(req)
	if err != nil && ctx.Err() != nil {
		// Cancelled by the caller, not a connectivity problem.
		return nil, ctx.Err()
	}
	if err != nil {
		g.notifier.Notify(notice.Error, msgNetworkError)
		g.logger.Error(ctx, "request failed", "method", req.Method, "path", req.URL.Path, "err", err)
		if signOutErr := g.sessions.SignOut(ctx, session.ReasonConnectivity); signOutErr != nil {
			g.logger.Error(ctx, "sign out after network error failed", "err", signOutErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		g.logger.Warn(ctx, "credential rejected", "path", req.URL.Path, "status", resp.StatusCode)
		g.notifier.Notify(notice.Error, msgSessionExpired)
		g.scheduleSignOut()
		return nil, ErrSessionRejected
	}

	return resp, nil
}

// SendAnonymous performs a request without a credential. A 401/403 is
// returned to the caller like any other status.
func (g *Gateway) SendAnonymous(req *http.Request) (*http.Response, error) {
	req.Header.Del("Authorization")

	resp, err := g.do(req)
	if err != nil {
		g.notifier.Notify(notice.Error, msgNetworkAnon)
		g.logger.Error(req.Context(), "anonymous request failed", "path", req.URL.Path, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func (g *Gateway) do(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := g.http.Do(req)
	if err == nil {
		g.logger.Debug(req.Context(), "request done",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"request_id", req.Header.Get(HeaderRequestID),
			"elapsed", time.Since(start))
	}
	return resp, err
}

// scheduleSignOut signs out after the notice has had time to be read.
// Rejections arriving while one is pending do not schedule another.
func (g *Gateway) scheduleSignOut() {
	g.mu.Lock()
	if g.signOutPending {
		g.mu.Unlock()
		return
	}
	g.signOutPending = true
	g.mu.Unlock()

	g.afterFunc(g.signOutDelay, func() {
		ctx := context.Background()
		if err := g.sessions.SignOut(ctx, session.ReasonRejected); err != nil {
			g.logger.Error(ctx, "scheduled sign out failed", "err", err)
		}
		g.mu.Lock()
		g.signOutPending = false
		g.mu.Unlock()
	})
}
