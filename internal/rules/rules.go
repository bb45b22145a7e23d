// Package rules defines the in-memory rule and review definitions the
// engine evaluates, plus the result types it produces.
//
// Definitions arrive here already parsed and schema-checked by the
// loading layer; this package never touches rule source files. Enums
// are closed: unrecognized modes are rejected up front by Validate,
// never discovered mid-evaluation.
package rules

import (
	"fmt"
	"strings"
)

// --- Detection mode enum ---

// DetectionMode selects the shape of a rule's fire condition.
type DetectionMode string

const (
	// ModeTriggerSafety fires when a trigger pattern matches a changed
	// file and no safety pattern does.
	ModeTriggerSafety DetectionMode = "trigger_safety"
	// ModeSet fires when correlated files (same captured key across
	// patterns) are not changed or present together, in either direction.
	ModeSet DetectionMode = "set"
	// ModePair fires when a trigger-side file changes without a matching
	// expects-side change. Expects-only changes never fire.
	ModePair DetectionMode = "pair"
)

var validModes = map[DetectionMode]bool{
	ModeTriggerSafety: true,
	ModeSet:           true,
	ModePair:          true,
}

// --- Action enum ---

// ActionKind says what happens when a rule fires.
type ActionKind string

const (
	// ActionPrompt surfaces instruction text to the agent.
	ActionPrompt ActionKind = "prompt"
	// ActionCommand runs a command; a non-zero exit is the blocking signal.
	ActionCommand ActionKind = "command"
)

var validActions = map[ActionKind]bool{
	ActionPrompt:  true,
	ActionCommand: true,
}

// FanOutMode controls how a COMMAND action expands over matched files.
type FanOutMode string

const (
	// FanOutPerMatch runs the command once per matched file.
	FanOutPerMatch FanOutMode = "per_match"
	// FanOutOnce runs the command a single time for all matches.
	FanOutOnce FanOutMode = "once"
)

var validFanOuts = map[FanOutMode]bool{
	FanOutPerMatch: true,
	FanOutOnce:     true,
}

// --- Baseline mode enum ---

// BaselineMode selects the reference point "changed" is computed against.
type BaselineMode string

const (
	// BaselineMergeBase diffs against the merge-base of HEAD and the
	// remote default branch. This is the default.
	BaselineMergeBase BaselineMode = "base"
	// BaselineBranchTip diffs against the tip of the remote default branch.
	BaselineBranchTip BaselineMode = "tip"
	// BaselinePrompt diffs against the snapshot captured when the current
	// agent turn began.
	BaselinePrompt BaselineMode = "prompt"
)

var validBaselines = map[BaselineMode]bool{
	BaselineMergeBase: true,
	BaselineBranchTip: true,
	BaselinePrompt:    true,
}

// --- Grouping strategy enum ---

// GroupingStrategy controls how a review rule's matches become tasks.
type GroupingStrategy string

const (
	// GroupIndividual produces one task per matched file.
	GroupIndividual GroupingStrategy = "individual"
	// GroupMatchesTogether produces a single task holding every match.
	GroupMatchesTogether GroupingStrategy = "matches_together"
	// GroupAllChangedFiles produces a single task holding the entire
	// changeset whenever any file in it matches the rule's filters.
	GroupAllChangedFiles GroupingStrategy = "all_changed_files"
)

var validGroupings = map[GroupingStrategy]bool{
	GroupIndividual:      true,
	GroupMatchesTogether: true,
	GroupAllChangedFiles: true,
}

// --- Definitions ---

// Action is what a fired rule surfaces or executes.
type Action struct {
	Kind ActionKind `yaml:"kind" json:"kind"`
	// Instructions is the text surfaced for prompt actions.
	Instructions string `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	// Command is the command template for command actions. It may contain
	// {file} (per_match) or {files} (once) placeholders.
	Command string     `yaml:"command,omitempty" json:"command,omitempty"`
	FanOut  FanOutMode `yaml:"fan_out,omitempty" json:"fan_out,omitempty"`
}

// Rule is a single detection rule over the changeset.
//
// Exactly one of the three pattern groups is populated, matching Mode:
// Triggers/Safeties for trigger_safety, Patterns for set, Trigger/Expects
// for pair. Pattern paths are matched relative to SourceDir.
type Rule struct {
	Name string        `yaml:"name" json:"name"`
	Mode DetectionMode `yaml:"mode" json:"mode"`

	Triggers []string `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Safeties []string `yaml:"safeties,omitempty" json:"safeties,omitempty"`

	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`

	Trigger string   `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	Expects []string `yaml:"expects,omitempty" json:"expects,omitempty"`

	Action   Action       `yaml:"action" json:"action"`
	Baseline BaselineMode `yaml:"baseline,omitempty" json:"baseline,omitempty"`

	// SourceDir is the repo-relative directory the rule is scoped to
	// ("" for the project root). Files outside it never match.
	SourceDir string `yaml:"dir,omitempty" json:"source_dir,omitempty"`
	// SourceFile/SourceLine locate the definition for traceability,
	// filled in by the loading layer.
	SourceFile string `yaml:"-" json:"source_file,omitempty"`
	SourceLine int    `yaml:"-" json:"source_line,omitempty"`
}

// Validate checks structural invariants for a single rule. Called by the
// loading layer; a failing rule is dropped while the rest still load.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule has no name")
	}
	if !validModes[r.Mode] {
		return fmt.Errorf("rule %q: invalid detection mode %q: must be one of: trigger_safety, set, pair", r.Name, r.Mode)
	}
	switch r.Mode {
	case ModeTriggerSafety:
		if len(r.Triggers) == 0 {
			return fmt.Errorf("rule %q: trigger_safety requires at least one trigger pattern", r.Name)
		}
	case ModeSet:
		if len(r.Patterns) < 2 {
			return fmt.Errorf("rule %q: set requires at least two correlated patterns", r.Name)
		}
	case ModePair:
		if r.Trigger == "" {
			return fmt.Errorf("rule %q: pair requires exactly one trigger pattern", r.Name)
		}
		if len(r.Expects) == 0 {
			return fmt.Errorf("rule %q: pair requires at least one expects pattern", r.Name)
		}
	}
	if !validActions[r.Action.Kind] {
		return fmt.Errorf("rule %q: invalid action kind %q: must be one of: prompt, command", r.Name, r.Action.Kind)
	}
	if r.Action.Kind == ActionCommand {
		if strings.TrimSpace(r.Action.Command) == "" {
			return fmt.Errorf("rule %q: command action requires a command template", r.Name)
		}
		if r.Action.FanOut != "" && !validFanOuts[r.Action.FanOut] {
			return fmt.Errorf("rule %q: invalid fan-out mode %q: must be one of: per_match, once", r.Name, r.Action.FanOut)
		}
	}
	if r.Baseline != "" && !validBaselines[r.Baseline] {
		return fmt.Errorf("rule %q: invalid baseline mode %q: must be one of: base, tip, prompt", r.Name, r.Baseline)
	}
	return nil
}

// BaselineOrDefault returns the rule's baseline mode, defaulting to the
// merge-base comparison.
func (r *Rule) BaselineOrDefault() BaselineMode {
	if r.Baseline == "" {
		return BaselineMergeBase
	}
	return r.Baseline
}

// Source returns the "file:line" traceability string for the rule.
func (r *Rule) Source() string {
	return fmt.Sprintf("%s:%d", r.SourceFile, r.SourceLine)
}

// ReviewRule describes a fan-out review over matched changed files.
type ReviewRule struct {
	Name    string   `yaml:"name" json:"name"`
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	Grouping     GroupingStrategy `yaml:"grouping" json:"grouping"`
	Instructions string           `yaml:"instructions" json:"instructions"`

	// Personas maps a platform identifier to the persona used when that
	// platform invokes the engine. Missing entries fall back to the
	// caller's generic default.
	Personas map[string]string `yaml:"personas,omitempty" json:"personas,omitempty"`

	// AttachAllChangedFilenames attaches the full changed-file list to
	// each task as names-only context.
	AttachAllChangedFilenames bool `yaml:"attach_all_changed_filenames,omitempty" json:"attach_all_changed_filenames,omitempty"`
	// AttachUnchangedMatchingFiles attaches working-tree files that match
	// the filters but were not part of the changeset.
	AttachUnchangedMatchingFiles bool `yaml:"attach_unchanged_matching_files,omitempty" json:"attach_unchanged_matching_files,omitempty"`

	SourceDir  string `yaml:"dir,omitempty" json:"source_dir,omitempty"`
	SourceFile string `yaml:"-" json:"source_file,omitempty"`
	SourceLine int    `yaml:"-" json:"source_line,omitempty"`
}

// Validate checks structural invariants for a review rule.
func (r *ReviewRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("review rule has no name")
	}
	if !validGroupings[r.Grouping] {
		return fmt.Errorf("review rule %q: invalid grouping %q: must be one of: individual, matches_together, all_changed_files", r.Name, r.Grouping)
	}
	if strings.TrimSpace(r.Instructions) == "" {
		return fmt.Errorf("review rule %q: missing instructions", r.Name)
	}
	return nil
}

// Source returns the "file:line" traceability string for the rule.
func (r *ReviewRule) Source() string {
	return fmt.Sprintf("%s:%d", r.SourceFile, r.SourceLine)
}

// --- Results ---

// FiredRule is a detection rule whose condition held for the changeset.
type FiredRule struct {
	Rule  *Rule
	Files []string // changed files that satisfied the condition, sorted
}

// ReviewTask is one independently dispatchable unit of review work.
type ReviewTask struct {
	// Name is the display name, prefixed with the rule file's parent
	// directory so same-named rules from different directories never
	// collide in the fan-out output.
	Name string
	// RuleName is the unprefixed rule name.
	RuleName string
	// Files are the files this task examines.
	Files []string
	// Instructions is the rule's instruction text.
	Instructions string
	// UnchangedMatches are working-tree files matching the rule's filters
	// that were not part of the changeset. Context only.
	UnchangedMatches []string
	// AllChangedFiles is the full changed-file list when the rule asks
	// for it. Names only, never opened.
	AllChangedFiles []string
	// Persona is the resolved reviewer persona, or "" for the default.
	Persona string
	// Source is the originating definition's "file:line".
	Source string
}
