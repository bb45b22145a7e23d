// Package snapshot persists the turn-start baseline used by prompt-mode
// change detection: one plain-text file holding a captured commit
// reference (possibly empty) and one holding the sorted manifest of
// every tracked and untracked file present when the agent turn began.
//
// The snapshot is written at turn start and read-only to the evaluation
// pipeline. Invocations are externally serialized, so plain overwrite
// is sufficient, no locking.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomashenry/warden/internal/changeset"
	"github.com/tomashenry/warden/internal/rules"
)

const (
	// WorkDir is the project-local directory warden owns.
	WorkDir = changeset.WorkDir
	// RefFile holds the captured commit reference.
	RefFile = "baseline_ref"
	// FilesFile holds the newline-delimited file manifest.
	FilesFile = "baseline_files"
)

// Dir returns the absolute path to the warden working directory.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, WorkDir)
}

// RefPath returns the absolute path to the captured-ref artifact.
func RefPath(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), RefFile)
}

// FilesPath returns the absolute path to the manifest artifact.
func FilesPath(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), FilesFile)
}

// Store reads and writes baseline snapshots for one project.
type Store struct {
	root string
}

// NewStore creates a snapshot store rooted at the project root.
func NewStore(projectRoot string) *Store {
	return &Store{root: projectRoot}
}

// Capture records the current repository state as the new baseline:
// HEAD (if any) plus the full tracked+untracked file manifest.
func (s *Store) Capture() (*changeset.Snapshot, error) {
	snap := &changeset.Snapshot{
		Ref:   changeset.HeadRef(s.root),
		Files: changeset.NewResolver(s.root, rules.BaselinePrompt, nil).TreeFiles(),
	}
	if err := s.Write(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Write persists a snapshot, creating the working directory as needed.
func (s *Store) Write(snap *changeset.Snapshot) error {
	if err := os.MkdirAll(Dir(s.root), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", Dir(s.root), err)
	}
	if err := os.WriteFile(RefPath(s.root), []byte(snap.Ref+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing baseline ref: %w", err)
	}
	manifest := strings.Join(snap.Files, "\n")
	if manifest != "" {
		manifest += "\n"
	}
	if err := os.WriteFile(FilesPath(s.root), []byte(manifest), 0o644); err != nil {
		return fmt.Errorf("writing baseline manifest: %w", err)
	}
	return nil
}

// Load reads the captured snapshot. A missing snapshot is not an error:
// it loads as an empty snapshot (no ref, no manifest), which prompt-mode
// resolution treats as "nothing captured".
func (s *Store) Load() (*changeset.Snapshot, error) {
	snap := &changeset.Snapshot{}

	data, err := os.ReadFile(RefPath(s.root))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading baseline ref: %w", err)
	}
	snap.Ref = strings.TrimSpace(string(data))

	data, err = os.ReadFile(FilesPath(s.root))
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return nil, fmt.Errorf("reading baseline manifest: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			snap.Files = append(snap.Files, line)
		}
	}
	return snap, nil
}
