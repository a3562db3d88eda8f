package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/careerkit/internal/client/api"
	"github.com/dmitrijs2005/careerkit/internal/client/auth"
	"github.com/dmitrijs2005/careerkit/internal/client/config"
	"github.com/dmitrijs2005/careerkit/internal/client/credits"
	"github.com/dmitrijs2005/careerkit/internal/client/gateway"
	"github.com/dmitrijs2005/careerkit/internal/client/notice"
	"github.com/dmitrijs2005/careerkit/internal/client/session"
	"github.com/dmitrijs2005/careerkit/internal/client/storage"
	"github.com/dmitrijs2005/careerkit/internal/client/view"
	"github.com/dmitrijs2005/careerkit/internal/client/workflow"
	"github.com/dmitrijs2005/careerkit/internal/cryptox"
	"github.com/dmitrijs2005/careerkit/internal/filex"
	"github.com/dmitrijs2005/careerkit/internal/logging"
)

const storageKeyInfo = "careerkit/storage/v1"

// App is the interactive client. Every collaborator is created in NewApp and
// owned by the App; nothing is global.
type App struct {
	config   *config.Config
	log      logging.Logger
	in       *bufio.Reader
	out      io.Writer
	notifier notice.Notifier
	clock    *auth.Clock
	now      func() time.Time

	kv       storage.Store
	sessions *session.Store
	gateway  *gateway.Gateway
	api      *api.Client
	ledger   *credits.Ledger
	selector *view.Selector

	httpClient gateway.Doer
	cleanup    []func()

	// balanceLabel is the prompt's credit count, kept current by the ledger.
	balanceMu    sync.Mutex
	balanceLabel string
}

type Option func(*App)

// WithIO replaces stdin/stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithStore uses kv instead of opening the SQLite file from the config.
func WithStore(kv storage.Store) Option {
	return func(a *App) { a.kv = kv }
}

func WithHTTPClient(d gateway.Doer) Option {
	return func(a *App) { a.httpClient = d }
}

func WithClock(c *auth.Clock) Option {
	return func(a *App) {
		a.clock = c
		a.now = c.Now
	}
}

// NewApp wires storage, session, gateway, API client, ledger and the two
// document workflows.
func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	a := &App{
		config: c,
		log:    logging.Nop(),
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		clock:  auth.NewClock(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.notifier = notice.NewPrinter(a.out)

	if a.kv == nil {
		kv, err := openStorage(ctx, c, a.log)
		if err != nil {
			return nil, err
		}
		a.kv = kv
	}
	a.cleanup = append(a.cleanup, func() { _ = a.kv.Close() })

	a.sessions = session.New(a.kv,
		session.WithClock(a.clock),
		session.WithLogger(a.log),
		session.WithCheckInterval(c.SessionCheckInterval),
	)

	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: c.RequestTimeout}
	}
	a.gateway = gateway.New(a.sessions, a.notifier,
		gateway.WithHTTPClient(a.httpClient),
		gateway.WithSignOutDelay(c.SignOutDelay),
		gateway.WithLogger(a.log),
	)

	apiClient, err := api.New(c.ServerURL, a.gateway, api.WithLogger(a.log))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.api = apiClient

	a.ledger = credits.NewLedger()
	costs := workflow.Costs{Generate: c.GenerateCost, Refine: c.RefineCost}
	var ws []*workflow.Workflow
	for _, kind := range workflow.Kinds {
		ws = append(ws, workflow.New(kind, a.api, a.sessions, a.ledger,
			workflow.WithCosts(costs),
			workflow.WithLogger(a.log),
		))
	}
	if a.selector, err = view.NewSelector(ws...); err != nil {
		a.Close()
		return nil, err
	}

	a.cleanup = append(a.cleanup,
		a.sessions.Subscribe(a.onSessionEvent),
		a.ledger.Subscribe(a.onBalance),
	)
	return a, nil
}

// openStorage opens the shared SQLite file with values sealed under a key
// derived from the local secret.
func openStorage(ctx context.Context, c *config.Config, log logging.Logger) (storage.Store, error) {
	if _, err := filex.EnsureSubdDir(filepath.Dir(c.StoragePath)); err != nil {
		return nil, err
	}
	secret, err := cryptox.LoadOrCreateSecret(c.SecretPath)
	if err != nil {
		return nil, err
	}
	key, err := cryptox.DeriveKey(secret, storageKeyInfo)
	if err != nil {
		return nil, err
	}
	db, err := storage.OpenSQLite(ctx, c.StoragePath,
		storage.WithPollInterval(c.StoragePollInterval),
		storage.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("open storage %s: %w", c.StoragePath, err)
	}
	return storage.Sealed(db, key), nil
}

// Run starts session monitoring and the REPL; it blocks until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := a.sessions.Start(ctx)
	defer stop()

	fmt.Fprintln(a.out, "Welcome to careerkit (type 'help' for commands)")
	if sess, ok := a.sessions.Current(ctx); ok {
		a.notify(notice.Info, fmt.Sprintf("Welcome back, %s.", displayName(sess)))
		a.restorePreferences(ctx)
		if _, err := a.refreshProfile(ctx); err != nil {
			a.report(err)
		}
	}

	runREPL(ctx, a, a.status, a.in, a.out)
}

// Close releases storage and subscriptions.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	_, ok := a.sessions.Current(ctx)
	return ok
}

// status is shown in the prompt: identity, balance and active document.
func (a *App) status() string {
	sess, ok := a.sessions.Current(context.Background())
	if !ok {
		return "signed out"
	}
	parts := []string{sess.Email}
	a.balanceMu.Lock()
	if a.balanceLabel != "" {
		parts = append(parts, a.balanceLabel)
	}
	a.balanceMu.Unlock()
	parts = append(parts, a.selector.Current().Kind.Title())
	return strings.Join(parts, " | ")
}

func (a *App) onBalance(balance float64, known bool) {
	label := ""
	if known {
		label = credits.Format(balance) + " credits"
	}
	a.balanceMu.Lock()
	a.balanceLabel = label
	a.balanceMu.Unlock()
}

// onSessionEvent resets everything that belongs to the signed-in user and
// sends the user back to the signed-out prompt.
func (a *App) onSessionEvent(e session.Event) {
	if e.Kind != session.SignedOut {
		return
	}
	a.ledger.Reset()
	a.selector.ResetAll()
	_ = a.selector.Select(workflow.KindResume)

	switch e.Reason {
	case session.ReasonUser:
		a.notify(notice.Info, "Logging out... See you soon!")
		return
	case session.ReasonExpired:
		a.notify(notice.Error, "Session expired. Please sign in again.")
	case session.ReasonOtherContext:
		a.notify(notice.Info, "You were signed out in another window.")
	}
	a.notify(notice.Info, "Signed out. Type 'login' to sign in again.")
}

func (a *App) notify(level notice.Level, msg string) {
	a.notifier.Notify(level, msg)
}

func (a *App) restorePreferences(ctx context.Context) {
	prefs, err := a.sessions.Preferences(ctx)
	if err != nil {
		a.log.Warn(ctx, "load preferences", "err", err)
		return
	}
	if prefs.ActiveView == "" {
		return
	}
	if kind, err := workflow.ParseKind(prefs.ActiveView); err == nil {
		_ = a.selector.Select(kind)
	}
}

func displayName(s *session.Session) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}
