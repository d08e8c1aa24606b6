package layer

import (
	"fmt"
	"strings"
)

// Kind identifies the rule a [Violation] breaks.
type Kind int

const (
	// LayerTooSmall: fewer than 2 rows or 2 columns. Reported alone.
	LayerTooSmall Kind = iota
	// OutOfBounds: a cell outside the limits.
	OutOfBounds
	// StepViolationLeft: a cell differs from its left neighbor by more than the step.
	StepViolationLeft
	// StepViolationUp: a cell differs from the cell above by more than the step.
	StepViolationUp
)

var kindNames = [...]string{
	LayerTooSmall:     "layer_too_small",
	OutOfBounds:       "out_of_bounds",
	StepViolationLeft: "step_violation_left",
	StepViolationUp:   "step_violation_up",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown violation kind %q", text)
}

// Violation is a single failed check at a cell.
type Violation struct {
	Kind Kind `json:"kind"`
	Row  int  `json:"row"`
	Col  int  `json:"col"`
}

func (v Violation) String() string {
	if v.Kind == LayerTooSmall {
		return v.Kind.String()
	}
	return fmt.Sprintf("%s(%d,%d)", v.Kind, v.Row, v.Col)
}

// ValidationError lists every violation found in a layer.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	const shown = 5
	parts := make([]string, 0, shown)
	for i, v := range e.Violations {
		if i == shown {
			break
		}
		parts = append(parts, v.String())
	}
	msg := fmt.Sprintf("layer has %d violation(s): %s", len(e.Violations), strings.Join(parts, ", "))
	if len(e.Violations) > shown {
		msg += ", ..."
	}
	return msg
}

// Count returns the number of violations of kind k.
func (e *ValidationError) Count(k Kind) int {
	n := 0
	for _, v := range e.Violations {
		if v.Kind == k {
			n++
		}
	}
	return n
}

// Option configures [Validate].
type Option func(*validateConfig)

type validateConfig struct {
	maxStep    uint32
	checkSteps bool
}

// WithMaxStep enables the neighbor checks: each cell may differ from its left
// neighbor and from the cell above by at most step.
func WithMaxStep(step uint32) Option {
	return func(c *validateConfig) {
		c.maxStep = step
		c.checkSteps = true
	}
}

// Validate checks l against limits and returns nil or a *ValidationError
// carrying all violations in row-major order.
//
// A layer with fewer than 2 rows or columns yields a single LayerTooSmall
// violation and no cell checks are made.
func Validate(l Layer, limits Limits, opts ...Option) error {
	var cfg validateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if l.Rows() < 2 || l.Cols() < 2 {
		return &ValidationError{Violations: []Violation{{Kind: LayerTooSmall}}}
	}

	var found []Violation
	for r, row := range l {
		for c, v := range row {
			if !limits.Contains(v) {
				found = append(found, Violation{Kind: OutOfBounds, Row: r, Col: c})
			}
			if !cfg.checkSteps {
				continue
			}
			if c > 0 && absDiff(v, row[c-1]) > cfg.maxStep {
				found = append(found, Violation{Kind: StepViolationLeft, Row: r, Col: c})
			}
			if r > 0 && c < len(l[r-1]) && absDiff(v, l[r-1][c]) > cfg.maxStep {
				found = append(found, Violation{Kind: StepViolationUp, Row: r, Col: c})
			}
		}
	}

	if len(found) == 0 {
		return nil
	}
	return &ValidationError{Violations: found}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
