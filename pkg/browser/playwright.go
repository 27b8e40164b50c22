package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver launches Chromium through playwright-go.
type PlaywrightDriver struct {
	// Install downloads the driver and browsers before starting
	Install bool

	// Output receives driver installation logs. Defaults to io.Discard.
	Output io.Writer
}

// NewPlaywrightDriver returns a driver that expects Playwright and its
// browsers to be installed already.
func NewPlaywrightDriver() *PlaywrightDriver {
	return &PlaywrightDriver{}
}

func (d *PlaywrightDriver) runOptions() *playwright.RunOptions {
	out := d.Output
	if out == nil {
		out = io.Discard
	}
	return &playwright.RunOptions{
		Verbose: false,
		Stdout:  out,
		Stderr:  out,
	}
}

// Start runs the Playwright driver, installing it first when requested.
func (d *PlaywrightDriver) Start() (Runtime, error) {
	opts := d.runOptions()
	if d.Install {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return &playwrightRuntime{pw: pw}, nil
}

type playwrightRuntime struct {
	pw *playwright.Playwright
}

func (r *playwrightRuntime) LaunchPersistentContext(userDataDir string, opts LaunchOptions) (BrowserContext, error) {
	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:        playwright.Bool(opts.Headless),
		Args:            opts.Args,
		Env:             opts.Env,
		AcceptDownloads: playwright.Bool(opts.AcceptDownloads),
	}
	if opts.Channel != "" {
		launchOpts.Channel = playwright.String(opts.Channel)
	}

	bctx, err := r.pw.Chromium.LaunchPersistentContext(userDataDir, launchOpts)
	if err != nil {
		return nil, err
	}
	return &playwrightContext{BrowserContext: bctx}, nil
}

func (r *playwrightRuntime) Launch(opts LaunchOptions) (Browser, error) {
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
		Env:      opts.Env,
	}
	if opts.Channel != "" {
		launchOpts.Channel = playwright.String(opts.Channel)
	}

	b, err := r.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, err
	}
	return &playwrightBrowser{browser: b}, nil
}

func (r *playwrightRuntime) Stop() error {
	return r.pw.Stop()
}

type playwrightBrowser struct {
	browser playwright.Browser
}

func (b *playwrightBrowser) NewContext(opts ContextOptions) (BrowserContext, error) {
	bctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:       playwright.String(opts.UserAgent),
		AcceptDownloads: playwright.Bool(opts.AcceptDownloads),
	})
	if err != nil {
		return nil, err
	}
	return &playwrightContext{BrowserContext: bctx}, nil
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

// playwrightContext narrows playwright.BrowserContext's variadic Close to
// the BrowserContext interface.
type playwrightContext struct {
	playwright.BrowserContext
}

func (c *playwrightContext) Close() error {
	return c.BrowserContext.Close()
}

// PlaywrightContext returns the Playwright handle behind a context created
// by PlaywrightDriver.
func PlaywrightContext(bctx BrowserContext) (playwright.BrowserContext, bool) {
	pc, ok := bctx.(*playwrightContext)
	if !ok {
		return nil, false
	}
	return pc.BrowserContext, true
}
