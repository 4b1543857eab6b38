package palette

import (
	"strings"
	"testing"
)

func TestMatchesEmptyQueryMatchesEverything(t *testing.T) {
	for _, text := range []string{"", "projects", "Some Long Title", "ünïcode"} {
		if !Matches("", text) {
			t.Errorf("empty query should match %q", text)
		}
	}
}

func TestMatchesCaseInvariance(t *testing.T) {
	cases := []struct {
		query string
		text  string
	}{
		{"blog", "Blog Posts"},
		{"RESUME", "resume"},
		{"PrOj", "All Projects"},
		{"xyz", "Blog Posts"},
		{"abc", "axbxc"},
	}
	for _, tc := range cases {
		lower := Matches(strings.ToLower(tc.query), tc.text)
		upper := Matches(strings.ToUpper(tc.query), tc.text)
		mixed := Matches(tc.query, tc.text)
		if lower != upper || lower != mixed {
			t.Errorf("Matches(%q, %q) not case invariant: lower=%v upper=%v mixed=%v",
				tc.query, tc.text, lower, upper, mixed)
		}
	}
}

func TestMatchesSubstring(t *testing.T) {
	text := "Building a Portfolio Site"
	for i := 0; i < len(text); i++ {
		for j := i + 1; j <= len(text); j++ {
			if !Matches(text[i:j], text) {
				t.Fatalf("substring %q of %q should match", text[i:j], text)
			}
		}
	}
}

func TestMatchesSubsequence(t *testing.T) {
	cases := []struct {
		query string
		text  string
		want  bool
	}{
		{"abc", "axbxc", true},
		{"abc", "acb", false},       // out of order
		{"abcd", "axbxc", false},    // query not exhausted
		{"np", "New Project", true}, // initials
		{"zz", "pizza", true},
		{"zzz", "pizza", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.query, tc.text); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.query, tc.text, got, tc.want)
		}
	}
}

func TestScoreTiers(t *testing.T) {
	cases := []struct {
		name  string
		query string
		text  string
		want  int
	}{
		{"exact", "resume", "Resume", 100},
		{"prefix", "res", "Resume", 80},
		{"substring early", "sum", "Resume", 60 - 2},
		{"substring floored", "end", "a string with the word at the very end", 30},
		{"subsequence", "rme", "Resume", 20},
		{"empty query", "", "Resume", 0},
	}
	for _, tc := range cases {
		if got := Score(tc.query, tc.text); got != tc.want {
			t.Errorf("%s: Score(%q, %q) = %d, want %d", tc.name, tc.query, tc.text, got, tc.want)
		}
	}
}

func TestScoreOrdering(t *testing.T) {
	// Exact never scores below prefix, prefix never below later substring,
	// any substring never below the subsequence fallback.
	text := "projects"
	exact := Score(text, text)
	prefix := Score("proj", text+" archive")
	sub := Score("ject", text)
	subseq := Score("pjs", text)

	if exact <= prefix {
		t.Errorf("exact (%d) should outrank prefix (%d)", exact, prefix)
	}
	if prefix <= sub {
		t.Errorf("prefix (%d) should outrank substring (%d)", prefix, sub)
	}
	if sub <= subseq {
		t.Errorf("substring (%d) should outrank subsequence (%d)", sub, subseq)
	}
}

func TestScoreEarlierSubstringOutranksLater(t *testing.T) {
	early := Score("log", "a log entry")
	late := Score("log", "the captain kept a log")
	if early <= late {
		t.Errorf("earlier substring (%d) should outrank later (%d)", early, late)
	}
}
