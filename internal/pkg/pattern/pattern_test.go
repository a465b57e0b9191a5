package pattern

import (
	"fmt"
	"testing"
	"time"
)

func TestCompileRejectsInvalidRegex(t *testing.T) {
	_, err := Compile(`rm\s+[`)
	if err == nil {
		t.Fatal("expected compile error")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestPrefixTokenExtraction(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{`^rm\s+-rf\s+/`, "rm"},
		{`^git\s+push\s+.*--force`, "git"},
		{`^sudo\s+rm\s`, "sudo"},
		{`^apt-get\s+remove`, "apt-get"},
		{`^kill\b`, "kill"},
		{`rm\s+-rf`, ""},            // unanchored: may match after sudo
		{`^(curl|wget)\s+`, ""},     // alternation, no single token
		{`^rmdir`, "rmdir"},         // literal to end of pattern
		{`^rm[0-9]\s`, ""},          // literal run not at a boundary
		{`mkfs\.\w+`, ""},           // unanchored
		{`^chmod\s+(-R\s+)?777`, "chmod"},
	}
	for _, tt := range tests {
		p, err := Compile(tt.expr)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.expr, err)
		}
		if got := p.PrefixToken(); got != tt.want {
			t.Fatalf("PrefixToken(%q) = %q want %q", tt.expr, got, tt.want)
		}
	}
}

func TestMatchesReturnsCaptures(t *testing.T) {
	p, err := Compile(`^rm\s+-rf\s+([^\s]+)`)
	if err != nil {
		t.Fatal(err)
	}
	groups, ok := p.Matches("rm -rf /tmp/build")
	if !ok {
		t.Fatal("expected match")
	}
	if len(groups) != 2 || groups[1] != "/tmp/build" {
		t.Fatalf("unexpected captures: %v", groups)
	}
	if _, ok := p.Matches("ls -la"); ok {
		t.Fatal("unexpected match")
	}
}

func TestPrefixIndexCandidates(t *testing.T) {
	ix := NewPrefixIndex()
	anchored, _ := Compile(`^git\s+push`)
	catchAll, _ := Compile(`curl.*\|\s*sh`)
	ix.Add(anchored, 0)
	ix.Add(catchAll, 1)

	git := ix.Candidates("git")
	if len(git) != 2 {
		t.Fatalf("git candidates = %v, want catch-all plus anchored", git)
	}
	ls := ix.Candidates("ls")
	if len(ls) != 1 || ls[0] != 1 {
		t.Fatalf("ls candidates = %v, want catch-all only", ls)
	}
}

func TestSpecificityFavorsLiterals(t *testing.T) {
	literal, _ := Compile(`^crontab -r`)
	vague, _ := Compile(`.*\s+.*\|.*`)
	if literal.Specificity() <= vague.Specificity() {
		t.Fatalf("literal pattern should be more specific: %f vs %f",
			literal.Specificity(), vague.Specificity())
	}
}

func TestFirstToken(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"rm -rf /", "rm"},
		{"  git push", "git"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := FirstToken(tt.command); got != tt.want {
			t.Fatalf("FirstToken(%q) = %q want %q", tt.command, got, tt.want)
		}
	}
}

func TestCompileManyPatternsIsFast(t *testing.T) {
	start := time.Now()
	for i := 0; i < 100; i++ {
		if _, err := Compile(fmt.Sprintf(`^tool%d\s+--flag\s+(\S+)`, i)); err != nil {
			t.Fatal(err)
		}
	}
	// The contract is well under 50ms for 100 rules; the bound here is
	// generous to keep slow CI machines from flaking.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("compiling 100 patterns took %s", elapsed)
	}
}
