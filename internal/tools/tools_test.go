package tools

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomashenry/warden/internal/config"
	"github.com/tomashenry/warden/internal/engine"
	"github.com/tomashenry/warden/internal/rules"
)

// --- formatResult ---

func TestFormatResult_BlockingPromptRule(t *testing.T) {
	res := &engine.Result{
		Outcomes: []engine.Outcome{{
			FiredRule: rules.FiredRule{
				Rule: &rules.Rule{
					Name:       "migrations need review",
					Action:     rules.Action{Kind: rules.ActionPrompt, Instructions: "Review the migration."},
					SourceFile: "warden.yml",
					SourceLine: 3,
				},
				Files: []string{"migrations/001_init.sql"},
			},
			Blocking:        true,
			InstructionFile: ".warden/instructions/review-000123.md",
		}},
	}

	out := formatResult(&config.Config{}, res)

	for _, want := range []string{
		"# Rules requiring action",
		"## migrations need review",
		"Matched files: migrations/001_init.sql",
		"Review the migration.",
		"Details: @.warden/instructions/review-000123.md",
		`<promise rule="migrations need review">done</promise>`,
		"(warden.yml:3)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatResult_CommandFailureIncludesOutput(t *testing.T) {
	res := &engine.Result{
		Outcomes: []engine.Outcome{{
			FiredRule: rules.FiredRule{
				Rule:  &rules.Rule{Name: "sql gate", Action: rules.Action{Kind: rules.ActionCommand, Command: "verify.sh"}},
				Files: []string{"migrations/001_init.sql"},
			},
			Blocking:      true,
			CommandOutput: "schema drift detected",
		}},
	}

	out := formatResult(&config.Config{}, res)
	if !strings.Contains(out, "Command failed:") || !strings.Contains(out, "schema drift detected") {
		t.Errorf("command output not surfaced:\n%s", out)
	}
}

func TestFormatResult_NothingBlocking(t *testing.T) {
	out := formatResult(&config.Config{}, &engine.Result{})
	if !strings.Contains(out, "nothing blocking") {
		t.Errorf("clean result message missing:\n%s", out)
	}
	if strings.Contains(out, "# Rules requiring action") {
		t.Errorf("clean result should not list blocking rules:\n%s", out)
	}
}

func TestFormatResult_SuppressedAndFanOut(t *testing.T) {
	res := &engine.Result{
		Suppressed: []rules.FiredRule{
			{Rule: &rules.Rule{Name: "sql gate"}},
		},
		FanOut: "Dispatch the following review tasks in parallel, one subtask per line:\n\n- **python_review — a.py** (persona: code-reviewer): Check style. Instructions: @.warden/instructions/review-000001.md\n",
	}

	out := formatResult(&config.Config{}, res)
	if !strings.Contains(out, "Acknowledged by promise (skipped): sql gate") {
		t.Errorf("suppressed rules not reported:\n%s", out)
	}
	if !strings.Contains(out, "# Review fan-out") || !strings.Contains(out, "python_review — a.py") {
		t.Errorf("fan-out section missing:\n%s", out)
	}
}

func TestFormatResult_DefinitionErrors(t *testing.T) {
	cfg := &config.Config{Errors: []error{errors.New(`warden.yml:12: rule "broken": unknown mode "sideways"`)}}
	out := formatResult(cfg, &engine.Result{})
	if !strings.Contains(out, "# Definition errors") || !strings.Contains(out, `unknown mode "sideways"`) {
		t.Errorf("definition errors not reported:\n%s", out)
	}
}

// --- Tool definitions ---

func TestToolDefinitions(t *testing.T) {
	names := map[string]bool{
		NewCheckTool().Definition().Name:    true,
		NewBaselineTool().Definition().Name: true,
		NewStatusTool().Definition().Name:   true,
	}
	for _, want := range []string{"warden_check", "warden_capture_baseline", "warden_status"} {
		if !names[want] {
			t.Errorf("tool %s not defined", want)
		}
	}
}
