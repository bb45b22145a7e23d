// Package changeset computes which files changed and which were created
// relative to a baseline.
//
// Three baseline strategies are supported: the merge-base of HEAD and
// the remote default branch (the default), the tip of the remote
// default branch, and a turn-start snapshot captured before the agent
// began working. All git access is synchronous subprocess calls; any
// git failure degrades to an empty set rather than an error, so a
// broken environment never blocks the agent's workflow.
package changeset

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/tomashenry/warden/internal/rules"
)

// WorkDir is the project-local directory warden owns. Files under it
// are the engine's own artifacts and never count as project changes.
const WorkDir = ".warden"

// runGit is a package-level var to allow test injection.
var runGit = func(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// ChangeSet is the immutable result of one baseline resolution. It is
// computed once per evaluation cycle and never mutated.
type ChangeSet struct {
	// Changed are the repo-relative paths that differ from the baseline.
	Changed []string
	// Created are the repo-relative paths that did not exist at the baseline.
	Created []string
	// BaselineRef identifies the baseline ("" when resolution failed or
	// the snapshot carried no commit).
	BaselineRef string
}

// ChangedSet returns the changed paths as a membership set.
func (cs *ChangeSet) ChangedSet() map[string]bool {
	m := make(map[string]bool, len(cs.Changed))
	for _, f := range cs.Changed {
		m[f] = true
	}
	return m
}

// Snapshot is the captured turn-start baseline used by prompt mode: an
// optional commit reference plus the sorted manifest of every tracked
// and untracked file that existed when the turn began.
type Snapshot struct {
	Ref   string
	Files []string
}

// Resolver computes changed/created files for one baseline mode. The
// baseline ref is resolved once and cached; both queries within an
// evaluation cycle reuse it.
type Resolver struct {
	root string
	mode rules.BaselineMode
	snap *Snapshot

	ref         string
	refResolved bool
	staged      bool
}

// NewResolver creates a resolver rooted at the repository root. snap is
// required for prompt mode and ignored otherwise.
func NewResolver(root string, mode rules.BaselineMode, snap *Snapshot) *Resolver {
	if mode == "" {
		mode = rules.BaselineMergeBase
	}
	return &Resolver{root: root, mode: mode, snap: snap}
}

// BaselineRef resolves the baseline reference for this resolver's mode.
// Resolution failures return "".
func (r *Resolver) BaselineRef() string {
	if r.refResolved {
		return r.ref
	}
	r.refResolved = true

	switch r.mode {
	case rules.BaselineMergeBase:
		branch := r.defaultBranch()
		if branch == "" {
			return ""
		}
		out, err := runGit(r.root, "merge-base", "HEAD", branch)
		if err != nil {
			return ""
		}
		r.ref = strings.TrimSpace(out)
	case rules.BaselineBranchTip:
		r.ref = r.defaultBranch()
	case rules.BaselinePrompt:
		if r.snap != nil {
			r.ref = r.snap.Ref
		}
	}
	return r.ref
}

// ChangedFiles returns the files that changed relative to the baseline.
// Any git failure yields an empty set.
func (r *Resolver) ChangedFiles() []string {
	switch r.mode {
	case rules.BaselineMergeBase, rules.BaselineBranchTip:
		ref := r.BaselineRef()
		if ref == "" {
			return nil
		}
		r.stageAll()
		return r.diffCached(ref)
	case rules.BaselinePrompt:
		ref := r.BaselineRef()
		if ref != "" {
			r.stageAll()
			return r.diffCached(ref)
		}
		// No captured commit: fall back to the union of unstaged changes
		// vs HEAD and current untracked files.
		out, err := runGit(r.root, "diff", "--name-only", "HEAD")
		var files []string
		if err == nil {
			files = parseLines(out)
		}
		untracked, err := runGit(r.root, "ls-files", "--others", "--exclude-standard")
		if err == nil {
			files = append(files, parseLines(untracked)...)
		}
		return sortUnique(files)
	}
	return nil
}

// CreatedFiles returns the files that did not exist at the baseline.
//
// For commit baselines this is the additions-only slice of the same
// diff. For a snapshot baseline it is a pure set difference against the
// captured manifest: the baseline is a file list, not a commit, and the
// set difference correctly avoids labeling files that were merely
// uncommitted before the turn began as newly created.
func (r *Resolver) CreatedFiles() []string {
	switch r.mode {
	case rules.BaselineMergeBase, rules.BaselineBranchTip:
		ref := r.BaselineRef()
		if ref == "" {
			return nil
		}
		r.stageAll()
		out, err := runGit(r.root, "diff", "--cached", "--name-only", "--diff-filter=A", ref)
		if err != nil {
			return nil
		}
		return sortUnique(parseLines(out))
	case rules.BaselinePrompt:
		if r.snap == nil {
			return nil
		}
		before := make(map[string]bool, len(r.snap.Files))
		for _, f := range r.snap.Files {
			before[f] = true
		}
		var created []string
		for _, f := range r.TreeFiles() {
			if !before[f] {
				created = append(created, f)
			}
		}
		return created
	}
	return nil
}

// TreeFiles lists every tracked and untracked (non-ignored) file in the
// working tree, sorted. Used for snapshot set-differences and for
// resolving SET counterparts and unchanged review context against the
// current tree.
func (r *Resolver) TreeFiles() []string {
	out, err := runGit(r.root, "ls-files", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil
	}
	return sortUnique(parseLines(out))
}

// Resolve computes the full immutable ChangeSet for this cycle.
func (r *Resolver) Resolve() *ChangeSet {
	return &ChangeSet{
		Changed:     r.ChangedFiles(),
		Created:     r.CreatedFiles(),
		BaselineRef: r.BaselineRef(),
	}
}

// stageAll stages the entire working tree, untracked files included, so
// the index reflects full current state before a --cached diff. Runs at
// most once per resolver; failures are swallowed like every other git
// failure here.
func (r *Resolver) stageAll() {
	if r.staged {
		return
	}
	r.staged = true
	_, _ = runGit(r.root, "add", "-A")
}

func (r *Resolver) diffCached(ref string) []string {
	out, err := runGit(r.root, "diff", "--cached", "--name-only", ref)
	if err != nil {
		return nil
	}
	return sortUnique(parseLines(out))
}

// HeadRef returns the commit hash of HEAD, or "" when the repository
// has no commits or git is unavailable.
func HeadRef(root string) string {
	out, err := runGit(root, "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// defaultBranch resolves the remote default branch: the remote's
// symbolic HEAD when set, else probing main/master, preferring remote
// refs over local ones.
func (r *Resolver) defaultBranch() string {
	out, err := runGit(r.root, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err == nil {
		if b := strings.TrimSpace(out); b != "" {
			return b
		}
	}
	for _, cand := range []string{"origin/main", "origin/master", "main", "master"} {
		if _, err := runGit(r.root, "rev-parse", "--verify", "--quiet", cand); err == nil {
			return cand
		}
	}
	return ""
}

func parseLines(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, WorkDir+"/") {
			continue
		}
		files = append(files, line)
	}
	return files
}

func sortUnique(files []string) []string {
	if len(files) == 0 {
		return nil
	}
	sort.Strings(files)
	out := files[:1]
	for _, f := range files[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}
