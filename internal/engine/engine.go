// Package engine runs the evaluation pipeline: resolve changesets,
// evaluate detection and review rules, filter promised rules, execute
// command actions, and render instruction output.
//
// The pipeline is a single synchronous pass. Invocations are externally
// serialized by the host platform (once per agent turn), so there is no
// locking and no shared mutable state beyond the on-disk snapshot and
// the scratch instruction directory.
package engine

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tomashenry/warden/internal/changeset"
	"github.com/tomashenry/warden/internal/evaluate"
	"github.com/tomashenry/warden/internal/instruct"
	"github.com/tomashenry/warden/internal/promise"
	"github.com/tomashenry/warden/internal/review"
	"github.com/tomashenry/warden/internal/rules"
	"github.com/tomashenry/warden/internal/snapshot"
)

// runCommand is a package-level var to allow test injection.
var runCommand = func(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Engine evaluates one project's rules against its repository state.
type Engine struct {
	root     string
	platform string
	rules    []*rules.Rule
	reviews  []*rules.ReviewRule
	writer   *instruct.Writer
}

// New creates an Engine for the given project root and already-parsed
// definitions. platform selects per-platform review personas.
func New(root, platform string, detection []*rules.Rule, reviews []*rules.ReviewRule) *Engine {
	return &Engine{
		root:     root,
		platform: platform,
		rules:    detection,
		reviews:  reviews,
		writer:   instruct.NewWriter(filepath.Join(snapshot.Dir(root), "instructions")),
	}
}

// Outcome is one fired rule after promise filtering and command
// execution.
type Outcome struct {
	rules.FiredRule
	// Blocking reports whether the rule still demands agent action: a
	// prompt action always does, a command action only when the command
	// failed.
	Blocking bool
	// CommandOutput holds combined output of a failed command action.
	CommandOutput string
	// InstructionFile is the rendered document for blocking outcomes.
	InstructionFile string
}

// Result is the output of one pipeline run.
type Result struct {
	// ChangeSet is the default-baseline changeset used for review rules.
	ChangeSet *changeset.ChangeSet
	// Outcomes are fired rules that survived promise filtering.
	Outcomes []Outcome
	// Suppressed are fired rules bypassed by a promise. Their command
	// actions were never invoked.
	Suppressed []rules.FiredRule
	// Tasks are the review tasks, in rule order.
	Tasks []rules.ReviewTask
	// FanOut is the parallel-dispatch directive ("" when no tasks).
	FanOut string
}

// Blocking reports whether any outcome still demands agent action.
func (r *Result) Blocking() bool {
	for _, o := range r.Outcomes {
		if o.Blocking {
			return true
		}
	}
	return false
}

// Run executes one full evaluation cycle against the transcript of the
// agent's turn so far.
func (e *Engine) Run(ctx context.Context, transcript []promise.Block) (*Result, error) {
	// Resolve one changeset per baseline mode in use. Each resolver
	// caches its baseline ref, and the changeset is immutable once built.
	snap, err := snapshot.NewStore(e.root).Load()
	if err != nil {
		return nil, err
	}
	sets := map[rules.BaselineMode]*changeset.ChangeSet{}
	resolverFor := func(mode rules.BaselineMode) *changeset.ChangeSet {
		if cs, ok := sets[mode]; ok {
			return cs
		}
		cs := changeset.NewResolver(e.root, mode, snap).Resolve()
		sets[mode] = cs
		return cs
	}

	defaultSet := resolverFor(rules.BaselineMergeBase)
	tree := changeset.NewResolver(e.root, rules.BaselineMergeBase, snap).TreeFiles()

	// Evaluate detection rules, grouped by baseline mode.
	ev := evaluate.New(tree)
	var fired []rules.FiredRule
	for _, r := range e.rules {
		fired = append(fired, ev.Evaluate([]*rules.Rule{r}, resolverFor(r.BaselineOrDefault()))...)
	}

	// Promise filtering happens before any command action is invoked: a
	// promised command rule must never execute its command at all.
	promised := promise.Extract(transcript)
	res := &Result{ChangeSet: defaultSet}
	var kept []rules.FiredRule
	for _, f := range fired {
		if promised[f.Rule.Name] {
			res.Suppressed = append(res.Suppressed, f)
		} else {
			kept = append(kept, f)
		}
	}

	for _, f := range kept {
		res.Outcomes = append(res.Outcomes, e.runAction(ctx, f))
	}

	// Review fan-out against the default changeset.
	res.Tasks = review.New(e.platform, tree).Tasks(e.reviews, defaultSet)

	if err := e.writeInstructions(res); err != nil {
		return nil, err
	}
	return res, nil
}

// runAction executes a fired rule's action. Prompt actions always
// block; command actions block only on failure, with the command's own
// exit status as the signal.
func (e *Engine) runAction(ctx context.Context, f rules.FiredRule) Outcome {
	o := Outcome{FiredRule: f}
	switch f.Rule.Action.Kind {
	case rules.ActionPrompt:
		o.Blocking = true
	case rules.ActionCommand:
		for _, command := range expandCommand(f.Rule.Action, f.Files) {
			out, err := runCommand(ctx, e.root, command)
			if err != nil {
				o.Blocking = true
				o.CommandOutput = strings.TrimSpace(out)
				break
			}
		}
	}
	return o
}

// expandCommand renders the command template: once per matched file for
// per_match mode, a single invocation with the full list otherwise.
func expandCommand(a rules.Action, files []string) []string {
	if a.FanOut == rules.FanOutPerMatch {
		commands := make([]string, 0, len(files))
		for _, f := range files {
			commands = append(commands, strings.ReplaceAll(a.Command, "{file}", f))
		}
		return commands
	}
	return []string{strings.ReplaceAll(a.Command, "{files}", strings.Join(files, " "))}
}

// writeInstructions clears the scratch directory and renders documents
// for blocking outcomes and review tasks, then builds the fan-out
// directive. Write failures are hard errors: dropping a fired rule's
// output would hide required agent action.
func (e *Engine) writeInstructions(res *Result) error {
	if err := e.writer.Clear(); err != nil {
		return err
	}

	for i := range res.Outcomes {
		if !res.Outcomes[i].Blocking {
			continue
		}
		path, err := e.writer.Write(instruct.RuleDoc(res.Outcomes[i].FiredRule))
		if err != nil {
			return err
		}
		res.Outcomes[i].InstructionFile = path
	}

	entries := make([]instruct.Entry, 0, len(res.Tasks))
	for _, t := range res.Tasks {
		path, err := e.writer.Write(instruct.TaskDoc(t))
		if err != nil {
			return err
		}
		entries = append(entries, instruct.Entry{Doc: instruct.TaskDoc(t), File: path})
	}
	res.FanOut = instruct.FanOut(entries)
	return nil
}
