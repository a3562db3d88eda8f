// Package session owns "who is signed in" for the client.
//
// The session record lives in shared storage under a single key, so every
// client process on the machine sees the same identity. Store adds the rules
// around it: an expired credential counts as no session, sign-out wipes all
// dependent state in one step, a removal performed by another process is
// surfaced locally as a sign-out, and expiry is re-checked periodically.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/careerkit/internal/client/auth"
	"github.com/dmitrijs2005/careerkit/internal/client/storage"
	"github.com/dmitrijs2005/careerkit/internal/logging"
)

// Storage keys owned by the session. Everything listed here is removed on
// sign-out.
const (
	KeySession     = "user"
	KeyProfile     = "profile"
	KeyPreferences = "preferences"
	draftPrefix    = "draft:"
)

// DefaultCheckInterval is how often Watch re-validates the credential.
const DefaultCheckInterval = 5 * time.Minute

var (
	ErrInvalidSession = errors.New("session requires email and credential")
	ErrExpired        = errors.New("credential expired")
)

// Session is the signed-in identity.
type Session struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"picture,omitempty"`
	Credential  string `json:"token"`
	IssuedVia   string `json:"issued_via,omitempty"`
}

// Reason explains why a session ended.
type Reason string

const (
	ReasonUser         Reason = "signed out"
	ReasonExpired      Reason = "session expired"
	ReasonRejected     Reason = "session rejected by server"
	ReasonConnectivity Reason = "connection lost"
	ReasonOtherContext Reason = "signed out in another window"
)

type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

// Event is delivered to observers registered with Subscribe.
type Event struct {
	Kind    EventKind
	Reason  Reason
	Session *Session
}

type Option func(*Store)

func WithClock(c *auth.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithCheckInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

// Store is the single source of truth for the current session.
type Store struct {
	kv            storage.Store
	clock         *auth.Clock
	logger        logging.Logger
	checkInterval time.Duration

	mu        sync.Mutex
	observers map[int]func(Event)
	nextID    int
}

func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:            kv,
		clock:         auth.NewClock(),
		logger:        logging.Nop(),
		checkInterval: DefaultCheckInterval,
		observers:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignIn persists sess and notifies observers before returning.
func (s *Store) SignIn(ctx context.Context, sess Session) error {
	if sess.Email == "" || sess.Credential == "" {
		return ErrInvalidSession
	}
	if s.clock.IsExpired(sess.Credential) {
		return ErrExpired
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeySession, b); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info(ctx, "signed in", "email", sess.Email)
	s.emit(Event{Kind: SignedIn, Session: &sess})
	return nil
}

// Current returns the persisted session when it is present, well-formed and
// not expired.
func (s *Store) Current(ctx context.Context) (*Session, bool) {
	b, err := s.kv.Get(ctx, KeySession)
	if err != nil {
		s.logger.Warn(ctx, "read session failed", "err", err)
		return nil, false
	}
	if len(b) == 0 {
		return nil, false
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, false
	}
	if sess.Email == "" || s.clock.IsExpired(sess.Credential) {
		return nil, false
	}
	return &sess, true
}

// SignOut removes the session and every dependent record in one storage
// operation, then notifies observers, who reset their state and return the
// user to the signed-out entry point. Signing out when no session record
// exists only clears leftovers, unless the user asked for it explicitly.
func (s *Store) SignOut(ctx context.Context, reason Reason) error {
	existing, getErr := s.kv.Get(ctx, KeySession)

	err := s.kv.Delete(ctx, dependentKeys()...)
	if err != nil {
		err = fmt.Errorf("clear session state: %w", err)
		s.logger.Error(ctx, "sign out failed", "err", err)
	}

	if getErr == nil && existing == nil && reason != ReasonUser {
		return err
	}

	s.logger.Info(ctx, "signed out", "reason", string(reason))
	s.emit(Event{Kind: SignedOut, Reason: reason})
	return err
}

// Subscribe registers fn for session events. Events are delivered
// synchronously on the goroutine that caused them.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(e Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Revalidate signs out when a stored session has an expired credential.
// It returns true when a usable session remains.
func (s *Store) Revalidate(ctx context.Context) bool {
	if _, ok := s.Current(ctx); ok {
		return true
	}
	b, err := s.kv.Get(ctx, KeySession)
	if err != nil || b == nil {
		return false
	}
	s.logger.Info(ctx, "stored credential no longer valid")
	_ = s.SignOut(ctx, ReasonExpired)
	return false
}

// Watch blocks until ctx is done. It re-validates the session immediately
// and then every check interval, and turns removals of the session record by
// other processes into local SignedOut events.
func (s *Store) Watch(ctx context.Context) {
	changes, cancel := s.kv.Subscribe()
	defer cancel()
	s.watch(ctx, changes)
}

// Start subscribes to the storage feed before returning and runs Watch's
// loop in a goroutine. The returned stop function ends it and waits.
func (s *Store) Start(ctx context.Context) (stop func()) {
	ctx, cancelCtx := context.WithCancel(ctx)
	changes, cancelSub := s.kv.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer cancelSub()
		s.watch(ctx, changes)
	}()

	return func() {
		cancelCtx()
		<-done
	}
}

func (s *Store) watch(ctx context.Context, changes <-chan storage.Change) {
	s.Revalidate(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Revalidate(ctx)
		case c, ok := <-changes:
			if !ok {
				return
			}
			if c.Key == KeySession && c.Removed {
				s.logger.Info(ctx, "session removed elsewhere", "origin", c.Origin)
				s.emit(Event{Kind: SignedOut, Reason: ReasonOtherContext})
			}
		}
	}
}
