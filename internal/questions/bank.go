package questions

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// ErrEmptyBank is returned when a bank would contain no questions.
var ErrEmptyBank = errors.New("question bank is empty")

// Bank is a fixed, non-empty set of questions. It is safe for concurrent use:
// nothing is mutated after construction.
type Bank struct {
	questions []Question
	intn      func(n int) int
}

// Default returns a bank holding the built-in question set.
func Default() *Bank {
	b, err := New(seedQuestions)
	if err != nil {
		panic(err) // seed set is a compile-time constant
	}
	return b
}

// New creates a bank from qs. The slice is copied.
func New(qs []Question) (*Bank, error) {
	if len(qs) == 0 {
		return nil, ErrEmptyBank
	}
	for i, q := range qs {
		if !q.Part.Valid() {
			return nil, fmt.Errorf("question %d: invalid part %q", i, q.Part)
		}
		if q.Text == "" {
			return nil, fmt.Errorf("question %d: empty text", i)
		}
	}
	return &Bank{questions: slices.Clone(qs), intn: rand.IntN}, nil
}

// WithSource returns a copy of the bank that draws from r. Used to make
// selection deterministic in tests.
func (b *Bank) WithSource(r *rand.Rand) *Bank {
	return &Bank{questions: b.questions, intn: r.IntN}
}

// PickRandom returns a uniformly chosen question. Repeats are possible.
func (b *Bank) PickRandom() Question {
	return b.questions[b.intn(len(b.questions))]
}

// All returns every question in bank order.
func (b *Bank) All() []Question {
	return slices.Clone(b.questions)
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.questions)
}

// ByPart returns the questions for a single part.
func (b *Bank) ByPart(p Part) []Question {
	var out []Question
	for _, q := range b.questions {
		if q.Part == p {
			out = append(out, q)
		}
	}
	return out
}

// Filter returns a bank restricted to part p.
func (b *Bank) Filter(p Part) (*Bank, error) {
	qs := b.ByPart(p)
	if len(qs) == 0 {
		return nil, fmt.Errorf("%s: %w", p, ErrEmptyBank)
	}
	return &Bank{questions: qs, intn: b.intn}, nil
}

// Contains reports whether q is part of the bank.
func (b *Bank) Contains(q Question) bool {
	return slices.Contains(b.questions, q)
}
