package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/entrhq/webeval/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("browser")
	if err != nil {
		debugLog.Warnf("Failed to initialize browser logger, using stderr fallback: %v", err)
	}
}

// State is the lifecycle state of a Session.
type State int

const (
	StateUnstarted State = iota
	StateStarted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarted:
		return "started"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one browsing surface: a driver runtime, at most one browser
// process and at most one context. A Session is owned by a single caller;
// the mutex only keeps State and Context reads consistent for observers.
type Session struct {
	config Config
	driver Driver

	mu      sync.Mutex
	state   State
	runtime Runtime
	browser Browser
	context BrowserContext
}

// NewSession returns an unstarted session that launches through driver.
func NewSession(driver Driver, config Config) *Session {
	return &Session{
		config: config,
		driver: driver,
		state:  StateUnstarted,
	}
}

// NewLocalSession returns an unstarted session backed by a local
// Playwright installation.
func NewLocalSession(config Config) *Session {
	return NewSession(NewPlaywrightDriver(), config)
}

// Config returns the session's launch configuration.
func (s *Session) Config() Config {
	return s.config
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the driver, then either a persistent context rooted at
// BrowserDataDir or an ephemeral browser plus a new context.
//
// Launch failures are returned as-is and nothing is retried. Handles that
// were created before the failure stay owned by the session, so Close must
// still be called (WithSession does this).
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStarted:
		return ErrAlreadyStarted
	case StateClosed:
		return ErrClosed
	}
	s.state = StateStarted

	if err := ctx.Err(); err != nil {
		return err
	}

	runtime, err := s.driver.Start()
	if err != nil {
		return fmt.Errorf("failed to start browser driver: %w", err)
	}
	s.runtime = runtime

	if err := ctx.Err(); err != nil {
		return err
	}

	if s.config.usesPersistentContext() {
		return s.startPersistent()
	}
	if s.config.PersistentContext {
		debugLog.Warnf("persistent_context set without browser_data_dir, launching an ephemeral browser")
	}
	return s.startEphemeral(ctx)
}

func (s *Session) launchOptions(env map[string]string) LaunchOptions {
	args := make([]string, len(SandboxArgs))
	copy(args, SandboxArgs)
	return LaunchOptions{
		Headless:        s.config.Headless,
		Channel:         s.config.BrowserChannel,
		Args:            args,
		Env:             env,
		AcceptDownloads: s.config.EnableDownloads,
	}
}

func (s *Session) startPersistent() error {
	dir := s.config.BrowserDataDir
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create browser data directory %s: %w", dir, err)
	}

	bctx, err := s.runtime.LaunchPersistentContext(dir, s.launchOptions(map[string]string{}))
	if err != nil {
		return fmt.Errorf("failed to launch persistent context: %w", err)
	}
	s.context = bctx

	debugLog.Infof("Started persistent context at %s (headless=%t)", dir, s.config.Headless)
	return nil
}

func (s *Session) startEphemeral(ctx context.Context) error {
	env := map[string]string{}
	if !s.config.Headless {
		env["DISPLAY"] = DefaultDisplay
	}

	b, err := s.runtime.Launch(s.launchOptions(env))
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	s.browser = b

	if err := ctx.Err(); err != nil {
		return err
	}

	bctx, err := b.NewContext(ContextOptions{
		UserAgent:       DefaultUserAgent,
		AcceptDownloads: s.config.EnableDownloads,
	})
	if err != nil {
		return fmt.Errorf("failed to create browser context: %w", err)
	}
	s.context = bctx

	debugLog.Infof("Started browser (headless=%t, channel=%q)", s.config.Headless, s.config.BrowserChannel)
	return nil
}

// Context returns the active execution context, or ErrNotStarted when the
// session has not been started or has been closed.
func (s *Session) Context() (BrowserContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.context == nil {
		return nil, ErrNotStarted
	}
	return s.context, nil
}

// Close releases the context, then the browser, then the driver, skipping
// any that were never created. Every step runs even if an earlier one
// fails; the failures are joined. A second Close is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	var errs []error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser context: %w", err))
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		s.browser = nil
	}
	if s.runtime != nil {
		if err := s.runtime.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop browser driver: %w", err))
		}
		s.runtime = nil
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		debugLog.Errorf("Browser session closed with errors: %v", err)
		return err
	}
	debugLog.Infof("Browser session closed")
	return nil
}

// WithSession starts sess, runs fn with its context and closes sess on
// every exit path, including a panic in fn. Start is not retried. When
// both fn (or Start) and Close fail, the returned error wraps both.
func WithSession(ctx context.Context, sess *Session, fn func(BrowserContext) error) (err error) {
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			if err != nil {
				err = errors.Join(err, closeErr)
			} else {
				err = closeErr
			}
		}
	}()

	if err := sess.Start(ctx); err != nil {
		return err
	}
	bctx, err := sess.Context()
	if err != nil {
		return err
	}
	return fn(bctx)
}
