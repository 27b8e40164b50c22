package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/entrhq/webeval/pkg/config"
	"github.com/entrhq/webeval/pkg/evalstore"
	"github.com/entrhq/webeval/pkg/replay"
	"github.com/entrhq/webeval/pkg/report"
	"github.com/entrhq/webeval/pkg/trajectory"
)

// loadFlags registers the flags that select how trajectories are read.
func loadFlags(fs *flag.FlagSet, cfg *config.Config) *trajectory.LoadOptions {
	opts := &trajectory.LoadOptions{
		GPTSolver:    cfg.Eval.GPTSolver,
		SkipEventLog: cfg.Eval.SkipEventLog,
	}
	fs.BoolVar(&opts.GPTSolver, "gpt-solver", opts.GPTSolver, "Trajectories come from the gpt_solver agent")
	fs.BoolVar(&opts.SkipEventLog, "skip-event-log", opts.SkipEventLog, "Do not read web_surfer.log")
	return opts
}

func runInspect(_ context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("inspect", "<trajectory-dir>")
	opts := loadFlags(fs, cfg)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	dir, err := singleDir(fs)
	if err != nil {
		return err
	}

	t, err := trajectory.Load(dir, *opts)
	if err != nil {
		return err
	}
	printTrajectory(t)
	return nil
}

func printTrajectory(t *trajectory.Trajectory) {
	fmt.Println(t)
	fmt.Printf("  Final answer: %s\n", t.Answer.FinalAnswer)
	fmt.Printf("  Aborted: %t  Action task: %t\n", t.IsAborted(), t.IsAction)
	if t.Answer.EnvStateJSON != trajectory.NoAnswer {
		fmt.Printf("  Env state: %s\n", t.Answer.EnvStateJSON)
	}

	if keys := t.Answer.TokenUsage.Keys(); len(keys) > 0 {
		fmt.Println("  Token usage:")
		for _, k := range keys {
			u := t.Answer.Usage(k)
			fmt.Printf("    %-20s %d prompt / %d completion\n", k, u.PromptTokens, u.CompletionTokens)
		}
		total := t.Answer.TotalUsage()
		fmt.Printf("    %-20s %d prompt / %d completion\n", "total", total.PromptTokens, total.CompletionTokens)
	}

	steps := replay.Steps(t)
	if len(steps) > 0 {
		fmt.Println("  Actions:")
	}
	for i, step := range steps {
		fmt.Printf("    %2d. %s\n", i+1, step.Action)
		if step.Thought != "" {
			fmt.Printf("        thought: %s\n", strings.Join(strings.Fields(step.Thought), " "))
		}
	}
}

func runBatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("batch", "<results-dir>")
	opts := loadFlags(fs, cfg)
	concurrency := fs.Int("concurrency", cfg.Eval.Concurrency, "Trajectories loaded in parallel")
	output := fs.String("output", "", "Directory for report.json, summary.md and totals.json")
	index := fs.Bool("index", false, "Store each summary in the Redis index")
	verbosity := fs.String("verbosity", "normal", "Console output: quiet, normal or verbose")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	root, err := singleDir(fs)
	if err != nil {
		return err
	}

	console := report.NewConsole(report.ParseVerbosity(*verbosity))
	console.Header("webeval batch: " + root)

	dirs, err := trajectory.ListDirs(root)
	if err != nil {
		return err
	}
	console.Infof("Loading %d trajectory directories", len(dirs))

	results, err := trajectory.LoadAll(ctx, dirs, *opts, *concurrency)
	if err != nil {
		return err
	}
	rep := report.Build(root, dirs, results)

	console.Section("Trajectories")
	for _, s := range rep.Trajectories {
		console.Trajectory(s)
	}
	for _, dir := range rep.Failed {
		console.Warningf("could not load %s (see %s)", dir, debugLog.LogPath())
	}

	if *index {
		if err := indexSummaries(ctx, cfg, rep.Trajectories); err != nil {
			return err
		}
		console.Successf("Indexed %d summaries in Redis", len(rep.Trajectories))
	}

	if *output != "" {
		if err := report.NewArtifactWriter(*output).WriteAll(rep); err != nil {
			return err
		}
		console.Successf("Wrote report to %s", *output)
	}

	console.Summary(rep)
	return nil
}

func openIndex(ctx context.Context, cfg *config.Config) (*evalstore.Index, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is not configured (set it in the config file or %s)", config.EnvRedisAddr)
	}
	return evalstore.New(ctx, evalstore.Options{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
	})
}

func indexSummaries(ctx context.Context, cfg *config.Config, summaries []trajectory.Summary) (err error) {
	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, idx.Close())
	}()

	for _, s := range summaries {
		if err := idx.Put(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func runIndex(ctx context.Context, cfg *config.Config, args []string) (err error) {
	fs := newFlagSet("index", "list | get <name> | delete <name>")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	action, rest := fs.Arg(0), fs.Args()[1:]
	if (action == "get" || action == "delete") && len(rest) != 1 {
		fs.Usage()
		return errUsage
	}

	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, idx.Close())
	}()

	switch action {
	case "list":
		summaries, err := idx.List(ctx)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			status := "ok"
			if s.IsAborted {
				status = "aborted"
			}
			fmt.Printf("%-40s %-8s %3d actions  %s\n", s.Name, status, s.Actions, s.FinalAnswer)
		}
	case "get":
		s, err := idx.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", s)
	case "delete":
		if err := idx.Delete(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", rest[0])
	default:
		fs.Usage()
		return errUsage
	}
	return nil
}

func runView(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("view", "<trajectory-dir>")
	opts := loadFlags(fs, cfg)
	noColor := fs.Bool("no-color", false, "Disable syntax highlighting")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	dir, err := singleDir(fs)
	if err != nil {
		return err
	}

	t, err := trajectory.Load(dir, *opts)
	if err != nil {
		return err
	}
	return replay.Run(ctx, t, replay.WithHighlighting(!*noColor))
}

func runExport(_ context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("export", "<trajectory-dir>")
	opts := loadFlags(fs, cfg)
	out := fs.String("o", "", "Output PDF (default ./<trajectory-name>-screenshots.pdf)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	dir, err := singleDir(fs)
	if err != nil {
		return err
	}

	t, err := trajectory.Load(dir, *opts)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = defaultExportPath(t)
	}

	n, err := trajectory.ExportScreenshotsPDF(t, path)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d screenshots to %s\n", n, path)
	return nil
}

// defaultExportPath names the PDF after the trajectory in the working
// directory. Trajectory directories are recorded artifacts and are not
// written to.
func defaultExportPath(t *trajectory.Trajectory) string {
	return t.Name() + "-screenshots.pdf"
}
