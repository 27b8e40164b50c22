package trajectory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/entrhq/webeval/pkg/logging"
)

// Artifact names inside a trajectory directory.
const (
	EventLogFile         = "web_surfer.log"
	MetadataFile         = "metadata.json"
	AnswerFilePattern    = "*_answer.json"
	LatestScreenshotFile = "screenshot_scaled.png"
)

const expectedAnswerFileCount = 1

var answerGlob = glob.MustCompile(AnswerFilePattern)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("trajectory")
	if err != nil {
		debugLog.Warnf("Failed to initialize trajectory logger, using stderr fallback: %v", err)
	}
}

// AnswerCountError is returned when a trajectory directory does not hold
// exactly one answer file.
type AnswerCountError struct {
	Dir      string
	Expected int
	Found    int
}

func (e *AnswerCountError) Error() string {
	return fmt.Sprintf("expected exactly %d answer file in %s, found %d", e.Expected, e.Dir, e.Found)
}

// LoadOptions select how a trajectory directory is interpreted.
type LoadOptions struct {
	// GPTSolver normalizes events logged by the gpt_solver agent variant.
	// Actions and Thoughts stay empty; callers read Events directly.
	GPTSolver bool

	// SkipEventLog loads trajectories that carry no web_surfer.log.
	SkipEventLog bool
}

// Trajectory is the reconstructed record of one completed run. It only
// reads the directory and never writes to it.
type Trajectory struct {
	// Dir is the trajectory directory
	Dir string

	Events []Event

	// Actions holds each action's arguments as JSON without "thoughts".
	// Thoughts[i] is the thoughts value of Actions[i].
	Actions  []string
	Thoughts []string

	Answer *FinalAnswer

	// Screenshots are Answer.Screenshots resolved against Dir when the
	// answer uses relative paths.
	Screenshots []string

	// IsAction comes from metadata.json and defaults to false.
	IsAction bool

	// LatestScreenshot is where the run leaves its last scaled
	// screenshot. It is not checked for existence.
	LatestScreenshot string
}

// Load reconstructs the trajectory stored in dir.
func Load(dir string, opts LoadOptions) (*Trajectory, error) {
	t := &Trajectory{
		Dir:              dir,
		Events:           []Event{},
		Actions:          []string{},
		Thoughts:         []string{},
		LatestScreenshot: filepath.Join(dir, LatestScreenshotFile),
	}

	var logged []loggedEvent
	if !opts.SkipEventLog {
		var err error
		logged, err = readEventLog(filepath.Join(dir, EventLogFile))
		if err != nil {
			return nil, err
		}
		t.Events = eventsOf(logged)
	}

	answerPath, err := findAnswerFile(dir)
	if err != nil {
		return nil, err
	}
	answer, err := LoadFinalAnswer(answerPath)
	if err != nil {
		return nil, err
	}
	t.Answer = answer
	t.Screenshots = resolveScreenshots(dir, answer)

	isAction, err := readIsAction(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	t.IsAction = isAction

	if opts.GPTSolver {
		t.Events = normalizeGPTSolverEvents(t.Events)
	} else {
		actions, thoughts, err := splitActions(logged)
		if err != nil {
			return nil, fmt.Errorf("invalid event log in %s: %w", dir, err)
		}
		t.Actions = actions
		t.Thoughts = thoughts
	}

	debugLog.Debugf("Loaded trajectory %s: %d events, %d actions, %d screenshots",
		dir, len(t.Events), len(t.Actions), len(t.Screenshots))
	return t, nil
}

// FromFolder is Load for batch callers: any failure yields nil. The cause
// is written to the trajectory log at warn level; use Load to get it.
func FromFolder(dir string, opts LoadOptions) *Trajectory {
	t, err := Load(dir, opts)
	if err != nil {
		debugLog.Warnf("Skipping trajectory %s: %v", dir, err)
		return nil
	}
	return t
}

// IsAborted mirrors the answer's aborted flag.
func (t *Trajectory) IsAborted() bool {
	return t.Answer != nil && t.Answer.IsAborted
}

// Name is the base name of the trajectory directory.
func (t *Trajectory) Name() string {
	return filepath.Base(t.Dir)
}

func (t *Trajectory) String() string {
	return fmt.Sprintf("Trajectory(%q: %d screenshots, %d actions)", t.Name(), len(t.Screenshots), len(t.Actions))
}

func readEventLog(path string) ([]loggedEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	logged, err := parseEventLog(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return logged, nil
}

// findAnswerFile returns the single file in dir matching AnswerFilePattern.
func findAnswerFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read trajectory directory: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if answerGlob.Match(entry.Name()) {
			matches = append(matches, entry.Name())
		}
	}
	sort.Strings(matches)

	if len(matches) != expectedAnswerFileCount {
		return "", &AnswerCountError{Dir: dir, Expected: expectedAnswerFileCount, Found: len(matches)}
	}
	return filepath.Join(dir, matches[0]), nil
}

// resolveScreenshots joins relative entries onto dir. Absolute entries are
// kept even when the answer claims relative paths, which older answer files
// without is_rel_paths do.
func resolveScreenshots(dir string, answer *FinalAnswer) []string {
	screenshots := make([]string, len(answer.Screenshots))
	for i, s := range answer.Screenshots {
		if answer.IsRelPaths && !filepath.IsAbs(s) {
			screenshots[i] = filepath.Join(dir, s)
		} else {
			screenshots[i] = s
		}
	}
	return screenshots
}

// readIsAction reads is_action from the optional metadata file.
func readIsAction(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata struct {
		IsAction bool `json:"is_action"`
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return false, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return metadata.IsAction, nil
}
