// Package instruct renders fired rules and review tasks into
// self-contained instruction documents and produces the fan-out
// directive the host platform feeds to its parallel-task dispatcher.
//
// The scratch directory is owned exclusively by this engine: it is
// cleared at the start of every cycle so stale instruction files from a
// previous cycle can never be re-dispatched.
package instruct

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomashenry/warden/internal/rules"
)

// randID is a package-level var to allow test injection.
var randID = func() int { return rand.Intn(1_000_000) }

// DefaultPersona is used for tasks with no resolved persona.
const DefaultPersona = "code-reviewer"

// Doc is one instruction document to render. Both fired detection rules
// and review tasks reduce to this shape.
type Doc struct {
	// Name is the display name (scope-prefixed for review tasks).
	Name string
	// Files are the files to examine, each directly referenceable.
	Files []string
	// Instructions is the rule's instruction text.
	Instructions string
	// UnchangedMatches are referenceable context files outside the changeset.
	UnchangedMatches []string
	// AllChangedFiles are names-only context, never opened.
	AllChangedFiles []string
	// Persona is the resolved reviewer persona ("" = default).
	Persona string
	// Source is the originating definition's "file:line".
	Source string
}

// TaskDoc converts a review task into its document.
func TaskDoc(t rules.ReviewTask) Doc {
	return Doc{
		Name:             t.Name,
		Files:            t.Files,
		Instructions:     t.Instructions,
		UnchangedMatches: t.UnchangedMatches,
		AllChangedFiles:  t.AllChangedFiles,
		Persona:          t.Persona,
		Source:           t.Source,
	}
}

// RuleDoc converts a fired detection rule into its document.
func RuleDoc(f rules.FiredRule) Doc {
	return Doc{
		Name:         f.Rule.Name,
		Files:        f.Files,
		Instructions: f.Rule.Action.Instructions,
		Source:       f.Rule.Source(),
	}
}

// Scope describes the document's reach for headers and fan-out lines:
// the single file path, or "N files".
func (d Doc) Scope() string {
	if len(d.Files) == 1 {
		return d.Files[0]
	}
	return fmt.Sprintf("%d files", len(d.Files))
}

// Writer renders instruction documents into a scratch directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer over the given scratch directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the scratch directory path.
func (w *Writer) Dir() string { return w.dir }

// Clear removes the scratch directory and recreates it empty. Must be
// called once at the start of every cycle, before any Write.
func (w *Writer) Clear() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("clearing instruction directory: %w", err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating instruction directory: %w", err)
	}
	return nil
}

// Write renders one document to a uniquely named file in the scratch
// directory and returns its path. A write failure is a hard error:
// silently dropping a fired rule's output would hide required action.
func (w *Writer) Write(d Doc) (string, error) {
	path, err := w.uniquePath()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(Render(d)), 0o644); err != nil {
		return "", fmt.Errorf("writing instruction file: %w", err)
	}
	return path, nil
}

// uniquePath picks a random numeric filename, retrying on collision.
func (w *Writer) uniquePath() (string, error) {
	for {
		path := filepath.Join(w.dir, fmt.Sprintf("review-%06d.md", randID()))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("checking instruction filename: %w", err)
		}
	}
}

// Render produces the document body. Layout is fixed: header with name
// and scope, instruction text, referenceable file list, the optional
// context sections, and the traceability line last after a separator.
func Render(d Doc) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — %s\n\n", d.Name, d.Scope())
	b.WriteString(strings.TrimSpace(d.Instructions))
	b.WriteString("\n\n## Files to examine\n\n")
	for _, f := range d.Files {
		fmt.Fprintf(&b, "- @%s\n", f)
	}

	if len(d.UnchangedMatches) > 0 {
		b.WriteString("\n## Unchanged matching files (context only)\n\n")
		for _, f := range d.UnchangedMatches {
			fmt.Fprintf(&b, "- @%s\n", f)
		}
	}

	if len(d.AllChangedFiles) > 0 {
		// Names only: these are for situational awareness, not for
		// opening, so no reference marker.
		b.WriteString("\n## All changed files (context only, do not open)\n\n")
		for _, f := range d.AllChangedFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	fmt.Fprintf(&b, "\n---\nSource: %s\n", d.Source)
	return b.String()
}

// Entry pairs a rendered document with its on-disk instruction file for
// the fan-out directive.
type Entry struct {
	Doc  Doc
	File string
}

// FanOut formats the parallel-dispatch directive: one line per task
// with a unique display name, a short description, the persona, and a
// reference to the rendered instruction file.
func FanOut(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Dispatch the following review tasks in parallel, one subtask per line:\n\n")
	for _, e := range entries {
		persona := e.Doc.Persona
		if persona == "" {
			persona = DefaultPersona
		}
		fmt.Fprintf(&b, "- **%s — %s** (persona: %s): %s Instructions: @%s\n",
			e.Doc.Name, e.Doc.Scope(), persona, summarize(e.Doc.Instructions), e.File)
	}
	return b.String()
}

// summarize reduces instruction text to a short one-line description.
func summarize(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 100
	if len(s) > max {
		s = strings.TrimRight(s[:max], " ") + "…"
	}
	if s != "" && !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "…") {
		s += "."
	}
	return s
}
