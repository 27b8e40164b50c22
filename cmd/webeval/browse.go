package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/webeval/pkg/browser"
	"github.com/entrhq/webeval/pkg/config"
	"github.com/entrhq/webeval/pkg/trajectory"
)

type browseOptions struct {
	url       string
	answerOut string
	once      bool
	retries   int
}

func runBrowse(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("browse", "")
	opts := browseOptions{}
	headed := fs.Bool("headed", !cfg.Browser.Headless, "Show the browser window")
	install := fs.Bool("install", cfg.Browser.InstallDriver, "Install Playwright and its browsers first")
	fs.StringVar(&opts.url, "url", cfg.Browser.StartPage, "Page to open")
	fs.StringVar(&opts.answerOut, "answer-out", "", "Save the page's <pre> environment state as a final answer file")
	fs.BoolVar(&opts.once, "once", false, "Close the session after the page loads instead of waiting for Ctrl+C")
	fs.IntVar(&opts.retries, "retries", cfg.Browser.Retries, "Attempts before giving up")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if opts.retries < 1 {
		return fmt.Errorf("%w: -retries must be at least 1", errUsage)
	}

	sessionConfig := cfg.Browser.Config
	sessionConfig.Headless = !*headed
	driver := &browser.PlaywrightDriver{Install: *install, Output: debugLog.Writer()}

	var err error
	for attempt := 1; attempt <= opts.retries; attempt++ {
		sess := browser.NewSession(driver, sessionConfig)
		err = browser.WithSession(ctx, sess, func(bctx browser.BrowserContext) error {
			return browse(ctx, bctx, opts)
		})
		if err == nil || ctx.Err() != nil {
			break
		}
		debugLog.Warnf("Browser session attempt %d/%d failed: %v", attempt, opts.retries, err)
		fmt.Fprintf(os.Stderr, "Attempt %d/%d failed: %v\n", attempt, opts.retries, err)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func browse(ctx context.Context, bctx browser.BrowserContext, opts browseOptions) error {
	pwContext, ok := browser.PlaywrightContext(bctx)
	if !ok {
		return errors.New("browser context is not backed by playwright")
	}

	page, err := pwContext.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	if _, err := page.Goto(opts.url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.url, err)
	}

	title, err := page.Title()
	if err != nil {
		return fmt.Errorf("failed to read page title: %w", err)
	}
	fmt.Printf("Opened %s (%s)\n", opts.url, title)
	debugLog.Infof("Opened %s (%s)", opts.url, title)

	if opts.answerOut != "" {
		if err := saveEnvState(page, opts.answerOut); err != nil {
			return err
		}
	}

	if opts.once {
		return nil
	}
	fmt.Println("Browser is ready. Press Ctrl+C to close it.")
	<-ctx.Done()
	return nil
}

// saveEnvState writes a final answer whose env state is the text of the
// page's first <pre> element.
func saveEnvState(page playwright.Page, path string) error {
	content, err := page.Content()
	if err != nil {
		return fmt.Errorf("failed to read page content: %w", err)
	}

	answer := trajectory.NewFinalAnswer()
	raw, found, err := trajectory.ExtractEnvState(strings.NewReader(content))
	if err != nil {
		return err
	}
	if found {
		answer.SetEnvState(raw)
	} else {
		debugLog.Warnf("Page has no <pre> element, saving %s without env state", path)
	}

	if err := answer.Save(path); err != nil {
		return err
	}
	fmt.Printf("Saved final answer to %s\n", path)
	return nil
}
