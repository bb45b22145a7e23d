// Package evaluate applies detection-mode semantics to a changeset.
//
// Each rule is evaluated independently against the same immutable
// changeset; there is no cross-rule interaction and no state carried
// between evaluations.
package evaluate

import (
	"sort"

	"github.com/tomashenry/warden/internal/changeset"
	"github.com/tomashenry/warden/internal/match"
	"github.com/tomashenry/warden/internal/rules"
)

// Evaluator determines which rules fire for a changeset. The current
// file tree is needed to resolve SET counterparts that exist but were
// not touched.
type Evaluator struct {
	tree []string
}

// New creates an Evaluator over the current working-tree file list
// (repo-relative, forward-slash paths).
func New(treeFiles []string) *Evaluator {
	return &Evaluator{tree: treeFiles}
}

// Evaluate returns the rules whose fire condition holds for cs, in
// input order. Rules whose patterns fail to compile are skipped; the
// loading layer validates definitions before they reach here.
func (e *Evaluator) Evaluate(rs []*rules.Rule, cs *changeset.ChangeSet) []rules.FiredRule {
	var fired []rules.FiredRule
	for _, r := range rs {
		if f, ok := e.evaluateRule(r, cs); ok {
			fired = append(fired, f)
		}
	}
	return fired
}

func (e *Evaluator) evaluateRule(r *rules.Rule, cs *changeset.ChangeSet) (rules.FiredRule, bool) {
	// Scope the changeset and tree to the rule's source directory.
	// rel maps the scoped path back to the repo-relative original so
	// fired-file lists stay repo-relative.
	changed := scopeFiles(r.SourceDir, cs.Changed)
	tree := scopeFiles(r.SourceDir, e.tree)

	var files []string
	switch r.Mode {
	case rules.ModeTriggerSafety:
		files = evalTriggerSafety(r, changed)
	case rules.ModeSet:
		files = evalSet(r, changed, tree)
	case rules.ModePair:
		files = evalPair(r, changed)
	}
	if len(files) == 0 {
		return rules.FiredRule{}, false
	}
	sort.Strings(files)
	return rules.FiredRule{Rule: r, Files: files}, true
}

// scopedFile pairs a source-dir-relative path with its repo-relative
// original.
type scopedFile struct {
	rel  string
	orig string
}

func scopeFiles(sourceDir string, paths []string) []scopedFile {
	var out []scopedFile
	for _, p := range paths {
		if rel, ok := match.RelativeTo(sourceDir, p); ok {
			out = append(out, scopedFile{rel: rel, orig: p})
		}
	}
	return out
}

// evalTriggerSafety fires when any changed file matches a trigger
// pattern and no changed file matches a safety pattern. Patterns within
// each group are OR-combined.
func evalTriggerSafety(r *rules.Rule, changed []scopedFile) []string {
	triggers, ok := compileAll(r.Triggers)
	if !ok {
		return nil
	}
	safeties, ok := compileAll(r.Safeties)
	if !ok {
		return nil
	}

	var matched []string
	for _, f := range changed {
		if matchesAny(safeties, f.rel) {
			return nil
		}
		if matchesAny(triggers, f.rel) {
			matched = append(matched, f.orig)
		}
	}
	return matched
}

// evalSet fires when some pattern's captured key changed while at least
// one other pattern has no file for that key in the full current tree.
// Firing is symmetric across patterns.
func evalSet(r *rules.Rule, changed, tree []scopedFile) []string {
	pats, ok := compileCaptures(r.Patterns)
	if !ok {
		return nil
	}

	changedKeys := make([]map[string][]string, len(pats))
	treeKeys := make([]map[string]bool, len(pats))
	for i, p := range pats {
		changedKeys[i] = map[string][]string{}
		treeKeys[i] = map[string]bool{}
		for _, f := range changed {
			if key, ok := p.Capture(f.rel); ok {
				changedKeys[i][key] = append(changedKeys[i][key], f.orig)
			}
		}
		for _, f := range tree {
			if key, ok := p.Capture(f.rel); ok {
				treeKeys[i][key] = true
			}
		}
	}

	var files []string
	for i := range pats {
		for key, orig := range changedKeys[i] {
			for j := range pats {
				if j != i && !treeKeys[j][key] {
					files = append(files, orig...)
					break
				}
			}
		}
	}
	return files
}

// evalPair fires when a trigger-side key changed with no changed
// expects-side counterpart sharing that key. Changing only an
// expects-side file never fires.
func evalPair(r *rules.Rule, changed []scopedFile) []string {
	trigger, err := match.Compile(r.Trigger)
	if err != nil || !trigger.HasCapture() {
		return nil
	}
	expects, ok := compileCaptures(r.Expects)
	if !ok {
		return nil
	}

	satisfied := map[string]bool{}
	for _, f := range changed {
		for _, p := range expects {
			if key, ok := p.Capture(f.rel); ok {
				satisfied[key] = true
			}
		}
	}

	var files []string
	for _, f := range changed {
		if key, ok := trigger.Capture(f.rel); ok && !satisfied[key] {
			files = append(files, f.orig)
		}
	}
	return files
}

func compileAll(patterns []string) ([]*match.Pattern, bool) {
	out := make([]*match.Pattern, 0, len(patterns))
	for _, raw := range patterns {
		p, err := match.Compile(raw)
		if err != nil {
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

func compileCaptures(patterns []string) ([]*match.Pattern, bool) {
	pats, ok := compileAll(patterns)
	if !ok {
		return nil, false
	}
	for _, p := range pats {
		if !p.HasCapture() {
			return nil, false
		}
	}
	return pats, true
}

func matchesAny(pats []*match.Pattern, path string) bool {
	for _, p := range pats {
		if p.Match(path) {
			return true
		}
	}
	return false
}
