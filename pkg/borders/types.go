package borders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/grunt/pkg/errors"
)

// Type is a border generation policy. The set of policies is closed:
// [Random] and [RandomWithStep].
type Type interface {
	fmt.Stringer
	isBorderType()
}

// Random fills every cell independently and uniformly within the limits.
type Random struct{}

// RandomWithStep fills the layer as a bounded random walk: each cell differs
// from its left neighbor and from the cell above by at most MaxStep.
//
// Probability is carried for recipes and exports; generation ignores it.
type RandomWithStep struct {
	MaxStep     uint16
	Probability float32
}

func (Random) isBorderType()         {}
func (RandomWithStep) isBorderType() {}

func (Random) String() string { return "random" }

func (t RandomWithStep) String() string {
	return fmt.Sprintf("random_with_step(%d,%s)", t.MaxStep,
		strconv.FormatFloat(float64(t.Probability), 'g', -1, 32))
}

// ParseType parses the textual form produced by Type.String:
//
//	random
//	random_with_step(3)
//	random_with_step(3,0.5)
//
// Probability defaults to 1 and must lie in [0,1].
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	if s == "random" {
		return Random{}, nil
	}

	args, ok := strings.CutPrefix(s, "random_with_step(")
	if !ok || !strings.HasSuffix(args, ")") {
		return nil, errors.New(errors.ErrCodeIncorrectBordersTypes,
			"unknown border type %q (want random or random_with_step(step[,probability]))", s)
	}
	args = strings.TrimSuffix(args, ")")

	stepArg, probArg, hasProb := strings.Cut(args, ",")
	step, err := strconv.ParseUint(stepArg, 10, 16)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIncorrectBordersTypes, err, "invalid step %q", stepArg)
	}

	prob := float64(1)
	if hasProb {
		prob, err = strconv.ParseFloat(probArg, 32)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIncorrectBordersTypes, err, "invalid probability %q", probArg)
		}
		if prob < 0 || prob > 1 {
			return nil, errors.New(errors.ErrCodeIncorrectBordersTypes,
				"probability %v must be within [0,1]", prob)
		}
	}

	return RandomWithStep{MaxStep: uint16(step), Probability: float32(prob)}, nil
}

// ParseTypes parses each string with ParseType.
func ParseTypes(ss []string) ([]Type, error) {
	out := make([]Type, len(ss))
	for i, s := range ss {
		t, err := ParseType(s)
		if err != nil {
			return nil, fmt.Errorf("type %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// FormatTypes returns the textual form of each type.
func FormatTypes(types []Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

// MaxStep returns the step bound of t and whether it has one.
func MaxStep(t Type) (uint32, bool) {
	if ws, ok := t.(RandomWithStep); ok {
		return uint32(ws.MaxStep), true
	}
	return 0, false
}
