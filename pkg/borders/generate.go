// Package borders generates randomized border layers over a block grid.
//
// A border is one [layer.Layer] whose cells hold integer depths. Each layer is
// produced by a [Type] within inclusive [Limits]:
//
//   - [Random]: every cell independent and uniform in [min, max].
//   - [RandomWithStep]: a bounded random walk. Every cell stays within
//     MaxStep of its left neighbor and of the cell above.
//
// Generation takes an explicit *rand.Rand so callers decide between
// reproducible and fresh output.
package borders

import (
	"fmt"
	"math/rand/v2"

	"github.com/matzehuels/grunt/pkg/layer"
)

// Generate fills a rows × cols layer with values within limits according to
// typ. It returns an empty layer when either dimension is not positive.
func Generate(rng *rand.Rand, rows, cols int, typ Type, limits Limits) layer.Layer {
	l := layer.New(rows, cols)
	if l.Rows() == 0 {
		return l
	}

	switch t := typ.(type) {
	case Random:
		fillRandom(rng, l, limits)
	case RandomWithStep:
		fillRandomWithStep(rng, l, limits, int64(t.MaxStep))
	default:
		panic(fmt.Sprintf("borders: unknown border type %T", typ))
	}
	return l
}

func fillRandom(rng *rand.Rand, l layer.Layer, limits Limits) {
	lo, hi := int64(limits.Min()), int64(limits.Max())
	for _, row := range l {
		for c := range row {
			row[c] = between(rng, lo, hi)
		}
	}
}

// fillRandomWithStep walks the grid in row-major order. The first cell is
// uniform in the limits; every other cell is drawn from the window of values
// within step of each already-placed neighbor (left, up), clamped to limits.
func fillRandomWithStep(rng *rand.Rand, l layer.Layer, limits Limits, step int64) {
	lo, hi := int64(limits.Min()), int64(limits.Max())

	for r, row := range l {
		for c := range row {
			switch {
			case r == 0 && c == 0:
				row[c] = between(rng, lo, hi)
			case r == 0:
				row[c] = near(rng, lo, hi, step, row[c-1], row[c-1])
			case c == 0:
				row[c] = near(rng, lo, hi, step, l[r-1][c], l[r-1][c])
			default:
				left, up := row[c-1], l[r-1][c]
				row[c] = near(rng, lo, hi, step, max(left, up), min(left, up))
			}
		}
	}
}

// near draws uniformly from [hiN-step, loN+step] ∩ [lo, hi], where hiN and
// loN are the largest and smallest neighbor. Neighbors placed by the walk are
// at most 2*step apart and within limits, so the window is never empty.
func near(rng *rand.Rand, lo, hi, step int64, hiN, loN uint32) uint32 {
	return between(rng, max(lo, int64(hiN)-step), min(hi, int64(loN)+step))
}

// between returns a uniform value in the inclusive range [lo, hi].
func between(rng *rand.Rand, lo, hi int64) uint32 {
	return uint32(lo + int64(rng.Uint64N(uint64(hi-lo)+1)))
}
