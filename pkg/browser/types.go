package browser

import "errors"

// Config describes how a Session launches its browser. It is copied into
// the Session at construction and never modified afterwards.
type Config struct {
	// Headless runs the browser without a visible window
	Headless bool `yaml:"headless" json:"headless"`

	// BrowserChannel selects a branded build (chrome, msedge, ...). Empty
	// means the bundled Chromium.
	BrowserChannel string `yaml:"browser_channel" json:"browser_channel"`

	// EnableDownloads allows the context to accept downloads
	EnableDownloads bool `yaml:"enable_downloads" json:"enable_downloads"`

	// PersistentContext roots the context at BrowserDataDir
	PersistentContext bool `yaml:"persistent_context" json:"persistent_context"`

	// BrowserDataDir is the user data directory for persistent contexts
	BrowserDataDir string `yaml:"browser_data_dir" json:"browser_data_dir"`
}

// usesPersistentContext reports whether Start takes the persistent path.
func (c Config) usesPersistentContext() bool {
	return c.PersistentContext && c.BrowserDataDir != ""
}

// LaunchOptions are passed to the driver when launching a browser process
// or a persistent context.
type LaunchOptions struct {
	Headless bool
	Channel  string
	Args     []string

	// Env replaces the browser's environment. A non-nil empty map means an
	// empty override.
	Env map[string]string

	// AcceptDownloads only applies to persistent contexts; ephemeral
	// browsers receive it through ContextOptions.
	AcceptDownloads bool
}

// ContextOptions configure a context created from an ephemeral browser.
type ContextOptions struct {
	UserAgent       string
	AcceptDownloads bool
}

// Driver starts the browser automation runtime.
type Driver interface {
	Start() (Runtime, error)
}

// Runtime is a started driver. It launches browsers and is stopped last.
type Runtime interface {
	LaunchPersistentContext(userDataDir string, opts LaunchOptions) (BrowserContext, error)
	Launch(opts LaunchOptions) (Browser, error)
	Stop() error
}

// Browser is a launched browser process.
type Browser interface {
	NewContext(opts ContextOptions) (BrowserContext, error)
	Close() error
}

// BrowserContext is an isolated browsing environment (cookies, storage)
// handed to the agent. Driver specific handles are reached through the
// driver's own accessor, e.g. PlaywrightContext.
type BrowserContext interface {
	Close() error
}

// Launch defaults applied to every session regardless of configuration.
var (
	// SandboxArgs disable extensions and file system access.
	SandboxArgs = []string{"--disable-extensions", "--disable-file-system"}
)

const (
	// DefaultUserAgent is set on every ephemeral context.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0"

	// DefaultDisplay is the X display headed ephemeral browsers render on.
	DefaultDisplay = ":0"
)

var (
	// ErrNotStarted is returned by Session.Context when no context is
	// active, either because Start has not run or the session is closed.
	ErrNotStarted = errors.New("browser context is not initialized, start the session first")

	// ErrAlreadyStarted is returned by Start on a started session.
	ErrAlreadyStarted = errors.New("browser session already started")

	// ErrClosed is returned by Start on a closed session.
	ErrClosed = errors.New("browser session is closed")
)
