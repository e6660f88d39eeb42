package prompt

import (
	"strings"
	"testing"
)

func TestFormatEmbedsQuestion(t *testing.T) {
	got := Format("Why is the sky blue?")
	if !strings.Contains(got, "Why is the sky blue?") {
		t.Errorf("Format() missing question: %q", got)
	}
	if !strings.Contains(got, "less than 500 words") {
		t.Errorf("Format() missing length instruction: %q", got)
	}
	if strings.Contains(got, "{{question}}") {
		t.Errorf("Format() left placeholder in output: %q", got)
	}
}

func TestGeneratorIsDeterministicForSeed(t *testing.T) {
	a := NewGenerator(42, nil)
	b := NewGenerator(42, nil)
	for i := 0; i < 10; i++ {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("draw %d differs: %q vs %q", i, x, y)
		}
	}
}

func TestGeneratorDrawsFromQuestionSet(t *testing.T) {
	questions := []string{"one?", "two?"}
	g := NewGenerator(7, questions)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		p := g.Next()
		matched := false
		for _, q := range questions {
			if strings.Contains(p, q) {
				seen[q] = true
				matched = true
			}
		}
		if !matched {
			t.Fatalf("prompt %q not drawn from question set", p)
		}
	}
	if len(seen) != len(questions) {
		t.Errorf("expected every question to be drawn over 200 samples, saw %v", seen)
	}
}

func TestRandomUsesBuiltInQuestions(t *testing.T) {
	p := Random()
	for _, q := range Questions {
		if strings.Contains(p, q) {
			return
		}
	}
	t.Errorf("Random() = %q, not built from Questions", p)
}
