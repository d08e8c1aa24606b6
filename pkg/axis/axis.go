// Package axis discretizes a one-dimensional coordinate range into blocks.
//
// An [Axis] is an ordered list of block edges together with the block centers
// between them. Axes are built either from a range and a step
// ([GenerateOnEdges], [GenerateOnCenters]) or from explicit coordinates
// ([FromPointsAsEdges], [FromPointsAsCenters]).
//
// # Rounding
//
// All inputs are rounded to three decimal places before use. Generated
// sequences are produced by repeatedly adding the step to the running value and
// re-rounding after every addition, so floating-point error never accumulates
// along the axis:
//
//	ax, _ := axis.GenerateOnEdges(1.0, 5.0, axis.Step(1.3))
//	ax.Edges()   // [1 2.3 3.6 4.9]
//	ax.Centers() // [1.65 2.95 4.25]
//
// Coordinates are expected to stay within ±10000; beyond that the three
// decimal places are no longer reliably representable.
//
// An Axis is immutable after construction and safe to share between
// goroutines and models.
package axis

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/matzehuels/grunt/pkg/errors"
)

// DefaultStep is used when no step is given to the range factories.
const DefaultStep = 1.0

// MinStep is the smallest step or point spacing an axis can resolve.
const MinStep = 0.001

// MaxElements bounds the edges or centers a range factory generates.
const MaxElements = 1 << 22

// Axis is an immutable discretized coordinate range.
type Axis struct {
	start       float64
	end         float64
	step        float64
	hasStep     bool
	blocksCount int
	centers     []float64
	edges       []float64
}

// Step returns a pointer to v, for passing an explicit step to the factories.
func Step(v float64) *float64 { return &v }

// Default returns the axis spanning 1..10 with a step of 1 (nine blocks).
func Default() *Axis {
	ax, _ := GenerateOnEdges(1, 10, nil)
	return ax
}

// GenerateOnEdges builds an axis whose edges run from start by step up to at
// most end. Centers are placed halfway between consecutive edges.
//
// A nil step means [DefaultStep]. The last edge may fall short of end when the
// range is not a multiple of step.
func GenerateOnEdges(start, end float64, step *float64) (*Axis, error) {
	g, err := generationInfo(start, end, step)
	if err != nil {
		return nil, err
	}

	edges := walk(g.start, g.step, g.count, round3)
	centers := walk(edges[0]+g.step/2, g.step, g.count-1, roundHalf)

	return &Axis{
		start:       edges[0],
		end:         edges[len(edges)-1],
		step:        g.step,
		hasStep:     true,
		blocksCount: len(centers),
		centers:     centers,
		edges:       edges,
	}, nil
}

// GenerateOnCenters builds an axis whose block centers run from start by step
// up to at most end. Edges lie half a step outside the first and last center.
func GenerateOnCenters(start, end float64, step *float64) (*Axis, error) {
	g, err := generationInfo(start, end, step)
	if err != nil {
		return nil, err
	}

	centers := walk(g.start, g.step, g.count, round3)
	edges := walk(centers[0]-g.step/2, g.step, g.count+1, roundHalf)

	return &Axis{
		start:       edges[0],
		end:         edges[len(edges)-1],
		step:        g.step,
		hasStep:     true,
		blocksCount: len(centers),
		centers:     centers,
		edges:       edges,
	}, nil
}

// FromPointsAsEdges builds an axis from explicit edge coordinates.
// Centers are the midpoints of consecutive edges.
func FromPointsAsEdges(points []float64) (*Axis, error) {
	edges, err := checkPoints(points)
	if err != nil {
		return nil, err
	}

	centers := make([]float64, len(edges)-1)
	for i := range centers {
		centers[i] = round3((edges[i] + edges[i+1]) / 2)
	}

	return &Axis{
		start:       edges[0],
		end:         edges[len(edges)-1],
		blocksCount: len(centers),
		centers:     centers,
		edges:       edges,
	}, nil
}

// FromPointsAsCenters builds an axis from explicit block center coordinates.
// Interior edges are midpoints of consecutive centers; the outer edges mirror
// the first and last interior gap.
func FromPointsAsCenters(points []float64) (*Axis, error) {
	centers, err := checkPoints(points)
	if err != nil {
		return nil, err
	}

	n := len(centers)
	edges := make([]float64, n+1)
	edges[0] = round3(centers[0] - (centers[1]-centers[0])/2)
	for i := 1; i < n; i++ {
		edges[i] = round3((centers[i-1] + centers[i]) / 2)
	}
	edges[n] = round3(centers[n-1] + (centers[n-1]-centers[n-2])/2)

	return &Axis{
		start:       edges[0],
		end:         edges[n],
		blocksCount: n,
		centers:     centers,
		edges:       edges,
	}, nil
}

// Start returns the first edge.
func (a *Axis) Start() float64 { return a.start }

// End returns the last edge.
func (a *Axis) End() float64 { return a.end }

// Step returns the generation step, or false for axes built from points.
func (a *Axis) Step() (float64, bool) { return a.step, a.hasStep }

// BlocksCount returns the number of blocks (centers).
func (a *Axis) BlocksCount() int { return a.blocksCount }

// Centers returns a copy of the block centers.
func (a *Axis) Centers() []float64 { return append([]float64(nil), a.centers...) }

// Edges returns a copy of the block edges.
func (a *Axis) Edges() []float64 { return append([]float64(nil), a.edges...) }

// Center returns the center of block i.
func (a *Axis) Center(i int) float64 { return a.centers[i] }

// Edge returns edge i.
func (a *Axis) Edge(i int) float64 { return a.edges[i] }

// String returns a one-line summary of the axis.
func (a *Axis) String() string {
	if a.hasStep {
		return fmt.Sprintf("axis[%g..%g step %g, %d blocks]", a.start, a.end, a.step, a.blocksCount)
	}
	return fmt.Sprintf("axis[%g..%g, %d blocks]", a.start, a.end, a.blocksCount)
}

type axisJSON struct {
	Start       float64   `json:"start"`
	End         float64   `json:"end"`
	Step        *float64  `json:"step"`
	BlocksCount int       `json:"blocks_count"`
	Centers     []float64 `json:"blocks_centers"`
	Edges       []float64 `json:"blocks_edges"`
}

// MarshalJSON encodes the axis with snake_case field names.
func (a *Axis) MarshalJSON() ([]byte, error) {
	out := axisJSON{
		Start:       a.start,
		End:         a.end,
		BlocksCount: a.blocksCount,
		Centers:     a.centers,
		Edges:       a.edges,
	}
	if a.hasStep {
		out.Step = Step(a.step)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an axis written by MarshalJSON. The edge and center
// counts must agree, edges must strictly increase and every center must lie
// strictly inside its block. Values are not re-rounded.
func (a *Axis) UnmarshalJSON(data []byte) error {
	var in axisJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Centers) < 1 || len(in.Edges) != len(in.Centers)+1 || in.BlocksCount != len(in.Centers) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"axis has %d edges and %d centers for %d blocks", len(in.Edges), len(in.Centers), in.BlocksCount)
	}
	for i, c := range in.Centers {
		lo, hi := in.Edges[i], in.Edges[i+1]
		// NaN fails both comparisons.
		if !(lo < hi) {
			return errors.New(errors.ErrCodeInvalidFormat,
				"axis edges must increase: edge %d (%g) follows %g", i+1, hi, lo)
		}
		if !(lo < c && c < hi) {
			return errors.New(errors.ErrCodeInvalidFormat,
				"center %d (%g) lies outside its block [%g, %g]", i, c, lo, hi)
		}
	}
	*a = Axis{
		start:       in.Start,
		end:         in.End,
		blocksCount: in.BlocksCount,
		centers:     in.Centers,
		edges:       in.Edges,
	}
	if in.Step != nil {
		a.step, a.hasStep = *in.Step, true
	}
	return nil
}

// genInfo holds the normalized inputs of a range factory.
type genInfo struct {
	start float64
	step  float64
	count int
}

func generationInfo(start, end float64, step *float64) (genInfo, error) {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return genInfo{}, errors.New(errors.ErrCodeInvalidRange, "start and end must be finite")
	}
	start, end = round3(start), round3(end)
	startM, endM := millis(start), millis(end)
	if startM >= endM {
		return genInfo{}, errors.New(errors.ErrCodeInvalidRange,
			"end (%g) must be bigger than start (%g)", end, start)
	}

	s := DefaultStep
	if step != nil {
		s = round3(*step)
		// NaN fails this comparison too.
		if !(s >= MinStep) {
			return genInfo{}, errors.New(errors.ErrCodeTooSmallStep,
				"step (%g) can't be smaller than %g", *step, MinStep)
		}
	}

	n := (endM-startM)/millis(s) + 1
	if n > MaxElements {
		return genInfo{}, errors.New(errors.ErrCodeTooLarge,
			"range %g..%g with step %g holds %d values, more than %d", start, end, s, n, MaxElements)
	}
	count := int(n)
	if count < 2 {
		return genInfo{}, errors.New(errors.ErrCodeNotEnoughElements,
			"range %g..%g holds fewer than 2 values with step %g", start, end, s)
	}
	return genInfo{start: start, step: s, count: count}, nil
}

// checkPoints rounds points to three decimals and checks count, order and spacing.
func checkPoints(points []float64) ([]float64, error) {
	if len(points) < 2 {
		return nil, errors.New(errors.ErrCodeTooSmallVec,
			"at least 2 points are required, got %d", len(points))
	}

	out := make([]float64, len(points))
	for i, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, errors.New(errors.ErrCodeNotOrderedVec, "point %d is not finite", i)
		}
		out[i] = round3(p)
		if i == 0 {
			continue
		}
		gap := millis(out[i]) - millis(out[i-1])
		if gap <= 0 {
			return nil, errors.New(errors.ErrCodeNotOrderedVec,
				"values must constantly increase: point %d (%g) follows %g", i, out[i], out[i-1])
		}
		if gap <= 1 {
			return nil, errors.New(errors.ErrCodeMinimalStep,
				"points %d and %d are closer than %g", i-1, i, MinStep)
		}
	}
	return out, nil
}

// walk returns n values starting at from, adding step and re-rounding after
// every addition.
func walk(from, step float64, n int, round func(float64) float64) []float64 {
	out := make([]float64, 0, n)
	v := round(from)
	for range n {
		out = append(out, v)
		v = round(v + step)
	}
	return out
}

// round3 rounds to three decimal places.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// roundHalf rounds to the half-thousandth grid. Block midpoints of an axis
// with an odd step (in thousandths) land there, e.g. 1.0005 for step 0.001.
func roundHalf(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// millis converts a value already rounded to three decimals to thousandths.
func millis(v float64) int64 {
	return int64(math.Round(v * 1000))
}
