package evaluate

import (
	"reflect"
	"testing"

	"github.com/tomashenry/warden/internal/changeset"
	"github.com/tomashenry/warden/internal/rules"
)

func changedSet(files ...string) *changeset.ChangeSet {
	return &changeset.ChangeSet{Changed: files}
}

func fireOne(t *testing.T, e *Evaluator, r *rules.Rule, cs *changeset.ChangeSet) (rules.FiredRule, bool) {
	t.Helper()
	fired := e.Evaluate([]*rules.Rule{r}, cs)
	if len(fired) > 1 {
		t.Fatalf("rule fired %d times, want at most 1", len(fired))
	}
	if len(fired) == 0 {
		return rules.FiredRule{}, false
	}
	return fired[0], true
}

// --- TRIGGER_SAFETY ---

func triggerSafetyRule() *rules.Rule {
	return &rules.Rule{
		Name:     "migrations need review",
		Mode:     rules.ModeTriggerSafety,
		Triggers: []string{"migrations/*.sql"},
		Safeties: []string{"migrations/README.md"},
		Action:   rules.Action{Kind: rules.ActionPrompt, Instructions: "Review the migration."},
	}
}

func TestTriggerSafety_TriggerOnlyFires(t *testing.T) {
	e := New(nil)
	f, ok := fireOne(t, e, triggerSafetyRule(), changedSet("migrations/001_init.sql"))
	if !ok {
		t.Fatal("trigger-only changeset should fire")
	}
	if !reflect.DeepEqual(f.Files, []string{"migrations/001_init.sql"}) {
		t.Errorf("Files = %v", f.Files)
	}
}

func TestTriggerSafety_SafetyOnlyNeverFires(t *testing.T) {
	e := New(nil)
	if _, ok := fireOne(t, e, triggerSafetyRule(), changedSet("migrations/README.md")); ok {
		t.Error("safety-only changeset must not fire")
	}
}

func TestTriggerSafety_TriggerPlusSafetyNeverFires(t *testing.T) {
	e := New(nil)
	cs := changedSet("migrations/001_init.sql", "migrations/README.md")
	if _, ok := fireOne(t, e, triggerSafetyRule(), cs); ok {
		t.Error("trigger+safety changeset must not fire")
	}
}

func TestTriggerSafety_MultipleTriggersAreORCombined(t *testing.T) {
	r := triggerSafetyRule()
	r.Triggers = []string{"migrations/*.sql", "schema/*.sql"}
	e := New(nil)
	if _, ok := fireOne(t, e, r, changedSet("schema/users.sql")); !ok {
		t.Error("second trigger pattern should fire the rule")
	}
}

func TestTriggerSafety_UnrelatedChangeDoesNotFire(t *testing.T) {
	e := New(nil)
	if _, ok := fireOne(t, e, triggerSafetyRule(), changedSet("README.md")); ok {
		t.Error("unrelated change must not fire")
	}
}

// --- SET ---

func setRule() *rules.Rule {
	return &rules.Rule{
		Name:     "source and test travel together",
		Mode:     rules.ModeSet,
		Patterns: []string{"src/{name}.py", "tests/{name}_test.py"},
		Action:   rules.Action{Kind: rules.ActionPrompt, Instructions: "Update the counterpart."},
	}
}

func TestSet_SourceOnlyFires(t *testing.T) {
	e := New([]string{"src/foo.py"})
	f, ok := fireOne(t, e, setRule(), changedSet("src/foo.py"))
	if !ok {
		t.Fatal("changing only src/foo.py should fire")
	}
	if !reflect.DeepEqual(f.Files, []string{"src/foo.py"}) {
		t.Errorf("Files = %v", f.Files)
	}
}

func TestSet_TestOnlyFiresSymmetrically(t *testing.T) {
	e := New([]string{"tests/foo_test.py"})
	if _, ok := fireOne(t, e, setRule(), changedSet("tests/foo_test.py")); !ok {
		t.Error("changing only tests/foo_test.py should fire (symmetric)")
	}
}

func TestSet_BothChangedDoesNotFire(t *testing.T) {
	e := New([]string{"src/foo.py", "tests/foo_test.py"})
	cs := changedSet("src/foo.py", "tests/foo_test.py")
	if _, ok := fireOne(t, e, setRule(), cs); ok {
		t.Error("changing both sides must not fire")
	}
}

func TestSet_CounterpartExistsUnchangedDoesNotFire(t *testing.T) {
	// The counterpart is resolved against the full file tree, not just
	// the changeset: an existing untouched test satisfies the pair.
	e := New([]string{"src/foo.py", "tests/foo_test.py"})
	if _, ok := fireOne(t, e, setRule(), changedSet("src/foo.py")); ok {
		t.Error("existing counterpart in the tree must satisfy the set")
	}
}

func TestSet_DifferentKeysDoNotCorrelate(t *testing.T) {
	e := New([]string{"src/foo.py", "tests/bar_test.py"})
	f, ok := fireOne(t, e, setRule(), changedSet("src/foo.py"))
	if !ok {
		t.Fatal("foo has no counterpart; should fire")
	}
	if !reflect.DeepEqual(f.Files, []string{"src/foo.py"}) {
		t.Errorf("Files = %v", f.Files)
	}
}

// --- PAIR ---

func pairRule() *rules.Rule {
	return &rules.Rule{
		Name:    "api changes need docs",
		Mode:    rules.ModePair,
		Trigger: "api/{m}.py",
		Expects: []string{"docs/{m}.md"},
		Action:  rules.Action{Kind: rules.ActionPrompt, Instructions: "Document the endpoint."},
	}
}

func TestPair_TriggerOnlyFires(t *testing.T) {
	e := New(nil)
	f, ok := fireOne(t, e, pairRule(), changedSet("api/users.py"))
	if !ok {
		t.Fatal("changing only api/users.py should fire")
	}
	if !reflect.DeepEqual(f.Files, []string{"api/users.py"}) {
		t.Errorf("Files = %v", f.Files)
	}
}

func TestPair_ExpectsOnlyNeverFires(t *testing.T) {
	e := New(nil)
	if _, ok := fireOne(t, e, pairRule(), changedSet("docs/users.md")); ok {
		t.Error("changing only the expects side must never fire")
	}
}

func TestPair_BothChangedDoesNotFire(t *testing.T) {
	e := New(nil)
	cs := changedSet("api/users.py", "docs/users.md")
	if _, ok := fireOne(t, e, pairRule(), cs); ok {
		t.Error("changing both sides must not fire")
	}
}

func TestPair_KeysMustAgree(t *testing.T) {
	e := New(nil)
	cs := changedSet("api/users.py", "docs/orders.md")
	f, ok := fireOne(t, e, pairRule(), cs)
	if !ok {
		t.Fatal("docs for a different key must not satisfy the trigger")
	}
	if !reflect.DeepEqual(f.Files, []string{"api/users.py"}) {
		t.Errorf("Files = %v", f.Files)
	}
}

func TestPair_AnyExpectsPatternSatisfies(t *testing.T) {
	r := pairRule()
	r.Expects = []string{"docs/{m}.md", "docs/api/{m}.rst"}
	e := New(nil)
	cs := changedSet("api/users.py", "docs/api/users.rst")
	if _, ok := fireOne(t, e, r, cs); ok {
		t.Error("any expects pattern sharing the key must satisfy the pair")
	}
}

// --- Source-dir scoping ---

func TestSourceDir_FilesOutsideAreExcluded(t *testing.T) {
	r := triggerSafetyRule()
	r.SourceDir = "backend"
	r.Triggers = []string{"migrations/*.sql"}
	e := New(nil)

	if _, ok := fireOne(t, e, r, changedSet("migrations/001.sql")); ok {
		t.Error("file outside backend/ must not match a backend-scoped rule")
	}
	f, ok := fireOne(t, e, r, changedSet("backend/migrations/001.sql"))
	if !ok {
		t.Fatal("file under backend/ should match via its relative path")
	}
	if !reflect.DeepEqual(f.Files, []string{"backend/migrations/001.sql"}) {
		t.Errorf("Files = %v, want repo-relative originals", f.Files)
	}
}

// --- Rule independence ---

func TestRulesEvaluateIndependently(t *testing.T) {
	e := New([]string{"src/foo.py"})
	cs := changedSet("src/foo.py", "migrations/001.sql", "migrations/README.md")

	fired := e.Evaluate([]*rules.Rule{triggerSafetyRule(), setRule(), pairRule()}, cs)
	if len(fired) != 1 {
		t.Fatalf("fired = %d rules, want 1", len(fired))
	}
	if fired[0].Rule.Mode != rules.ModeSet {
		t.Errorf("fired rule = %s, want the set rule", fired[0].Rule.Name)
	}
}
