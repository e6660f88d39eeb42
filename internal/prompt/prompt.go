// Package prompt builds the probe prompts sent to each model.
package prompt

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Questions is the fixed question set prompts are drawn from.
var Questions = []string{
	"Why is the sky blue?",
	"What is the difference between mass and weight?",
	"How does photosynthesis work?",
	"What is the theory of relativity in simple terms?",
	"Why do we see different phases of the Moon?",
	"What is the difference between permutations and combinations?",
	"Why is zero not a natural number?",
	"How do you calculate compound interest?",
	"What is the Pythagorean theorem and why is it important?",
	"What is the difference between mean, median, and mode?",
	"What is the difference between frontend and backend development?",
	"What is recursion in programming?",
	"How does Git differ from GitHub?",
	"What is the difference between a compiler and an interpreter?",
	"What are algorithms and why are they important?",
	"What causes climate change?",
	"How does the internet actually work?",
	"What is artificial intelligence and how is it used today?",
	"What is the difference between renewable and non-renewable energy?",
	"Why do we need cybersecurity?",
}

// Template wraps a question. {{question}} is replaced with the question text.
const Template = `
You are a helpful assistant that provides concise and clear answers to user questions. Provide an answer of less than 500 words.

{{question}}
`

// Format renders a question into Template.
func Format(question string) string {
	return strings.ReplaceAll(Template, "{{question}}", question)
}

// Generator draws questions uniformly at random. It is safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	questions []string
}

// NewGenerator returns a Generator over questions seeded with seed. A nil or
// empty question list falls back to Questions.
func NewGenerator(seed int64, questions []string) *Generator {
	if len(questions) == 0 {
		questions = Questions
	}
	return &Generator{
		rnd:       rand.New(rand.NewSource(seed)),
		questions: questions,
	}
}

// Next returns a freshly formatted prompt.
func (g *Generator) Next() string {
	g.mu.Lock()
	q := g.questions[g.rnd.Intn(len(g.questions))]
	g.mu.Unlock()
	return Format(q)
}

var defaultGenerator = NewGenerator(time.Now().UnixNano(), nil)

// Random returns a prompt built from a uniformly chosen question.
func Random() string {
	return defaultGenerator.Next()
}
