package skill

import (
	"errors"
	"testing"
)

func TestResolve_ExactValue(t *testing.T) {
	t.Parallel()

	s, err := Resolve("go")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if s != Go {
		t.Fatalf("expected %q, got %q", Go, s)
	}
}

func TestResolve_NormalizedForms(t *testing.T) {
	t.Parallel()

	cases := map[string]Skill{
		"  Go ":         Go,
		"POSTGRESQL":    PostgreSQL,
		"unit testing":  UnitTesting,
		"Unit_Testing":  UnitTesting,
		"html/css":      HTMLCSS,
		"HTML/CSS":      HTMLCSS,
		"gRPC":          GRPC,
		"load-testing":  LoadTesting,
		"Load Testing":  LoadTesting,
		"kubernetes":    Kubernetes,
	}

	for input, want := range cases {
		got, err := Resolve(input)
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"not-a-skill", "", "   ", "golang++"} {
		if _, err := Resolve(input); !errors.Is(err, ErrUnknownSkill) {
			t.Fatalf("Resolve(%q): expected ErrUnknownSkill, got %v", input, err)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	cat, err := CategoryOf(React)
	if err != nil {
		t.Fatalf("CategoryOf returned error: %v", err)
	}
	if cat != CategoryFrontend {
		t.Fatalf("expected %q, got %q", CategoryFrontend, cat)
	}

	if _, err := CategoryOf(Skill("nope")); !errors.Is(err, ErrUnknownSkill) {
		t.Fatalf("expected ErrUnknownSkill, got %v", err)
	}
}

func TestEverySkillHasExactlyOneCategory(t *testing.T) {
	t.Parallel()

	known := make(map[Category]bool)
	for _, c := range Categories() {
		known[c] = true
	}

	for _, s := range All() {
		cat, err := CategoryOf(s)
		if err != nil {
			t.Fatalf("CategoryOf(%q) returned error: %v", s, err)
		}
		if !known[cat] {
			t.Fatalf("skill %q has unlisted category %q", s, cat)
		}
		if Label(s) == "" {
			t.Fatalf("skill %q has no display label", s)
		}
	}
}

func TestByCategory_CoversVocabulary(t *testing.T) {
	t.Parallel()

	total := 0
	for _, c := range Categories() {
		members := ByCategory(c)
		if len(members) == 0 {
			t.Fatalf("category %q has no members", c)
		}
		for _, s := range members {
			cat, err := CategoryOf(s)
			if err != nil {
				t.Fatalf("CategoryOf(%q) returned error: %v", s, err)
			}
			if cat != c {
				t.Fatalf("skill %q listed under %q but belongs to %q", s, c, cat)
			}
		}
		total += len(members)
	}

	if total != len(All()) {
		t.Fatalf("categories cover %d skills, vocabulary has %d", total, len(All()))
	}
}
