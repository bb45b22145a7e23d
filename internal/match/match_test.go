package match

import "testing"

// --- Glob ---

func TestGlob_LiteralMatch(t *testing.T) {
	if !Glob("src/main.go", "src/main.go") {
		t.Error("literal pattern should match identical path")
	}
	if Glob("src/main.go", "src/other.go") {
		t.Error("literal pattern should not match different path")
	}
}

func TestGlob_StarStaysInSegment(t *testing.T) {
	if !Glob("src/*.go", "src/main.go") {
		t.Error("* should match within a segment")
	}
	if Glob("src/*.go", "src/sub/main.go") {
		t.Error("* must never cross a path separator")
	}
}

func TestGlob_DoubleStarSpansSegments(t *testing.T) {
	cases := []string{"main.py", "a/main.py", "a/b/c/main.py"}
	for _, path := range cases {
		if !Glob("**/*.py", path) {
			t.Errorf("**/*.py should match %s", path)
		}
	}
}

func TestGlob_CaseSensitive(t *testing.T) {
	if Glob("src/*.go", "SRC/main.go") {
		t.Error("matching must be case-sensitive")
	}
}

func TestGlobAny(t *testing.T) {
	patterns := []string{"*.md", "*.txt"}
	if !GlobAny(patterns, "README.md") {
		t.Error("GlobAny should match first pattern")
	}
	if GlobAny(patterns, "main.go") {
		t.Error("GlobAny should not match unrelated path")
	}
	if GlobAny(nil, "main.go") {
		t.Error("empty pattern list matches nothing")
	}
}

// --- RelativeTo ---

func TestRelativeTo_RootIncludesEverything(t *testing.T) {
	for _, dir := range []string{"", "."} {
		rel, ok := RelativeTo(dir, "a/b/c.go")
		if !ok || rel != "a/b/c.go" {
			t.Errorf("RelativeTo(%q) = %q, %v; want a/b/c.go, true", dir, rel, ok)
		}
	}
}

func TestRelativeTo_InsideDir(t *testing.T) {
	rel, ok := RelativeTo("jobs/job_a", "jobs/job_a/rules.md")
	if !ok || rel != "rules.md" {
		t.Errorf("got %q, %v; want rules.md, true", rel, ok)
	}
}

func TestRelativeTo_OutsideDirExcluded(t *testing.T) {
	if _, ok := RelativeTo("jobs/job_a", "jobs/job_b/rules.md"); ok {
		t.Error("file outside the source directory must be excluded")
	}
}

func TestRelativeTo_PrefixIsSegmentAware(t *testing.T) {
	if _, ok := RelativeTo("jobs/job_a", "jobs/job_abc/x.md"); ok {
		t.Error("jobs/job_abc is not inside jobs/job_a")
	}
}

// --- Compile: plain patterns ---

func TestCompile_PlainPatternMatches(t *testing.T) {
	p, err := Compile("src/*.py")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.HasCapture() {
		t.Error("plain pattern should have no capture")
	}
	if !p.Match("src/foo.py") {
		t.Error("src/*.py should match src/foo.py")
	}
	if p.Match("src/sub/foo.py") {
		t.Error("* must not cross a separator")
	}
}

func TestCompile_DoubleStarMatchesZeroSegments(t *testing.T) {
	p, err := Compile("**/conf.yml")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !p.Match("conf.yml") {
		t.Error("** should match zero segments")
	}
	if !p.Match("a/b/conf.yml") {
		t.Error("** should match multiple segments")
	}
}

func TestCompile_TrailingDoubleStar(t *testing.T) {
	p, err := Compile("docs/**")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !p.Match("docs/a/b.md") {
		t.Error("docs/** should match nested files")
	}
	if p.Match("src/a.md") {
		t.Error("docs/** should not match outside docs/")
	}
}

func TestCompile_LiteralDotIsNotWildcard(t *testing.T) {
	p, err := Compile("a.py")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.Match("aXpy") {
		t.Error(". must match literally, not as a regex wildcard")
	}
}

// --- Compile: capture patterns ---

func TestCompile_CaptureExtractsKey(t *testing.T) {
	p, err := Compile("src/{name}.py")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !p.HasCapture() {
		t.Fatal("pattern should have a capture")
	}
	key, ok := p.Capture("src/foo.py")
	if !ok || key != "foo" {
		t.Errorf("Capture = %q, %v; want foo, true", key, ok)
	}
}

func TestCompile_CaptureStaysInSegment(t *testing.T) {
	p, err := Compile("src/{name}.py")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := p.Capture("src/a/b.py"); ok {
		t.Error("capture must not cross a path separator")
	}
}

func TestCompile_CaptureWithSuffix(t *testing.T) {
	p, err := Compile("tests/{name}_test.py")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	key, ok := p.Capture("tests/foo_test.py")
	if !ok || key != "foo" {
		t.Errorf("Capture = %q, %v; want foo, true", key, ok)
	}
	if _, ok := p.Capture("tests/foo.py"); ok {
		t.Error("tests/foo.py should not match tests/{name}_test.py")
	}
}

func TestCompile_CaptureBehindDoubleStar(t *testing.T) {
	p, err := Compile("**/api/{m}.py")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	key, ok := p.Capture("services/api/users.py")
	if !ok || key != "users" {
		t.Errorf("Capture = %q, %v; want users, true", key, ok)
	}
}

func TestCompile_RejectsSecondCapture(t *testing.T) {
	if _, err := Compile("{a}/{b}.py"); err == nil {
		t.Error("two capture placeholders must be rejected")
	}
}

func TestCompile_RejectsUnterminatedCapture(t *testing.T) {
	if _, err := Compile("src/{name.py"); err == nil {
		t.Error("unterminated placeholder must be rejected")
	}
}

func TestCapture_NoPlaceholderReturnsFalse(t *testing.T) {
	p, err := Compile("src/*.py")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, ok := p.Capture("src/foo.py"); ok {
		t.Error("Capture on a plain pattern must report false")
	}
}
