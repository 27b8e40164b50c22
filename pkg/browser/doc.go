// Package browser manages the lifetime of the browser an agent drives.
//
// A Session owns one browser process (or a persistent context, which is
// its own process) and one execution context inside it. The surrounding
// agent loop starts the session, hands Session.Context to its page tools,
// and closes the session when the run ends.
//
// # Lifecycle
//
// Sessions move through three states:
//
//  1. Unstarted: NewSession returns a handle with nothing launched
//  2. Started: Start launches the driver, then the browser and context
//  3. Closed: Close tears down context, browser and driver in that order
//
// Closed is terminal. Close is idempotent and Start is rejected once the
// session has left the Unstarted state.
//
// # Launch modes
//
// With PersistentContext and BrowserDataDir set, the context is rooted at
// the data directory (created if missing) and survives restarts. Otherwise
// an ephemeral browser is launched and a fresh context is created with a
// fixed desktop user agent. Extensions and file system access are always
// disabled. Headed ephemeral browsers get DISPLAY=:0 so they render on the
// local desktop.
//
// Two sessions must not share a BrowserDataDir at the same time. Nothing
// here guards against it.
//
// # Scoped use
//
//	sess := browser.NewLocalSession(browser.Config{Headless: true})
//	err := browser.WithSession(ctx, sess, func(bctx browser.BrowserContext) error {
//	    pw, _ := browser.PlaywrightContext(bctx)
//	    page, err := pw.NewPage()
//	    ...
//	})
//
// WithSession closes the session on every exit path and reports both the
// callback's error and any teardown error.
package browser
