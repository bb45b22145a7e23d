// Package review turns review rules and a changeset into dispatchable
// review tasks.
//
// Files are filtered through each rule's include/exclude globs relative
// to the rule's source directory, then the grouping strategy shapes the
// tasks. Context flags can additionally attach the full changed-file
// list (names only) or unchanged working-tree files matching the same
// filters.
package review

import (
	"path"
	"sort"

	"github.com/tomashenry/warden/internal/changeset"
	"github.com/tomashenry/warden/internal/match"
	"github.com/tomashenry/warden/internal/rules"
)

// Matcher produces review tasks for the invoking platform.
type Matcher struct {
	platform string
	tree     []string
}

// New creates a Matcher. platform selects per-platform personas; tree
// is the current working-tree file list used for unchanged-file context.
func New(platform string, treeFiles []string) *Matcher {
	return &Matcher{platform: platform, tree: treeFiles}
}

// Tasks evaluates every review rule against cs and returns the
// resulting tasks in rule order.
func (m *Matcher) Tasks(rs []*rules.ReviewRule, cs *changeset.ChangeSet) []rules.ReviewTask {
	var tasks []rules.ReviewTask
	for _, r := range rs {
		tasks = append(tasks, m.tasksForRule(r, cs)...)
	}
	return tasks
}

func (m *Matcher) tasksForRule(r *rules.ReviewRule, cs *changeset.ChangeSet) []rules.ReviewTask {
	matched := filterFiles(r, cs.Changed)
	if len(matched) == 0 {
		return nil
	}

	base := rules.ReviewTask{
		Name:         DisplayName(r),
		RuleName:     r.Name,
		Instructions: r.Instructions,
		Persona:      r.Personas[m.platform],
		Source:       r.Source(),
	}
	if r.AttachAllChangedFilenames {
		base.AllChangedFiles = cs.Changed
	}
	if r.AttachUnchangedMatchingFiles {
		base.UnchangedMatches = m.unchangedMatches(r, cs)
	}

	switch r.Grouping {
	case rules.GroupIndividual:
		tasks := make([]rules.ReviewTask, 0, len(matched))
		for _, f := range matched {
			t := base
			t.Files = []string{f}
			tasks = append(tasks, t)
		}
		return tasks
	case rules.GroupMatchesTogether:
		base.Files = matched
		return []rules.ReviewTask{base}
	case rules.GroupAllChangedFiles:
		// Any match fires the task, but the task sees the whole
		// changeset, not just the matches.
		base.Files = cs.Changed
		return []rules.ReviewTask{base}
	}
	return nil
}

// filterFiles applies the rule's include/exclude globs to repo-relative
// paths, scoped to the rule's source directory. An empty include list
// includes everything under the source directory.
func filterFiles(r *rules.ReviewRule, paths []string) []string {
	var out []string
	for _, p := range paths {
		rel, ok := match.RelativeTo(r.SourceDir, p)
		if !ok {
			continue
		}
		if len(r.Include) > 0 && !match.GlobAny(r.Include, rel) {
			continue
		}
		if match.GlobAny(r.Exclude, rel) {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// unchangedMatches scans the working tree for files that pass the
// rule's filters but were not part of the changeset.
func (m *Matcher) unchangedMatches(r *rules.ReviewRule, cs *changeset.ChangeSet) []string {
	changed := cs.ChangedSet()
	var out []string
	for _, f := range filterFiles(r, m.tree) {
		if !changed[f] {
			out = append(out, f)
		}
	}
	return out
}

// DisplayName returns the rule's fan-out display name: the rule name
// prefixed with the immediate parent directory of its rule file, so
// same-named rules from different directories never collide. Root-level
// rules get no prefix.
func DisplayName(r *rules.ReviewRule) string {
	if r.SourceDir == "" || r.SourceDir == "." {
		return r.Name
	}
	return path.Base(r.SourceDir) + "/" + r.Name
}
