// Package sizetarget finds output dimensions whose encoded size lands
// near a requested byte budget. It is a pure search over an encode
// oracle; the pipeline owns the actual encoding.
package sizetarget

import (
	"fmt"
	"math"

	"github.com/Zumgugger/reformat-sub001/internal/logging"
	"github.com/Zumgugger/reformat-sub001/internal/metrics"
)

const (
	// DefaultTolerance accepts results within ±10% of the target.
	DefaultTolerance = 0.10
	// DefaultMinDim is the smallest driving dimension the search scales
	// down to before declaring a target unreachable.
	DefaultMinDim = 48
	// DefaultMaxIterations caps oracle calls during the binary search.
	DefaultMaxIterations = 24
)

// Oracle encodes at candidate dimensions and reports the output size in
// bytes. It must be monotonic: smaller dimensions give smaller outputs.
type Oracle func(width, height int) (int64, error)

// Params bound one search.
type Params struct {
	SrcW, SrcH    int
	TargetBytes   int64
	Tolerance     float64 // fraction of TargetBytes, DefaultTolerance when 0
	MinDim        int     // DefaultMinDim when 0
	MaxIterations int     // DefaultMaxIterations when 0
}

// Outcome is the search result. Achieved=false means even the minimum
// dimensions encode above the target; Width/Height then hold the
// closest achievable (minimum) dimensions.
type Outcome struct {
	Width      int
	Height     int
	Bytes      int64
	Achieved   bool
	Iterations int
}

// Search binary-searches the scale factor in (minScale, 1] for encoded
// output within the tolerance band around TargetBytes. Scale 1 outputs
// at or under the target short-circuit: there is no upscaling.
func Search(oracle Oracle, p Params) (Outcome, error) {
	if oracle == nil {
		return Outcome{}, fmt.Errorf("size search needs an encode oracle")
	}
	if p.SrcW < 1 || p.SrcH < 1 {
		return Outcome{}, fmt.Errorf("invalid source dimensions %dx%d", p.SrcW, p.SrcH)
	}
	if p.TargetBytes < 1 {
		return Outcome{}, fmt.Errorf("target size must be positive, got %d", p.TargetBytes)
	}
	if p.Tolerance <= 0 {
		p.Tolerance = DefaultTolerance
	}
	if p.MinDim <= 0 {
		p.MinDim = DefaultMinDim
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = DefaultMaxIterations
	}

	out, err := search(oracle, p)
	if err != nil {
		return Outcome{}, err
	}

	metrics.SizeSearchIterations.Observe(float64(out.Iterations))
	if !out.Achieved {
		metrics.SizeSearchUnreachable.Inc()
	}
	logging.Debug("size search: target=%d got=%d at %dx%d achieved=%v iterations=%d",
		p.TargetBytes, out.Bytes, out.Width, out.Height, out.Achieved, out.Iterations)
	return out, nil
}

func search(oracle Oracle, p Params) (Outcome, error) {
	var (
		loBand = int64(math.Floor(float64(p.TargetBytes) * (1 - p.Tolerance)))
		hiBand = int64(math.Ceil(float64(p.TargetBytes) * (1 + p.Tolerance)))
		iters  = 0
	)

	probe := func(scale float64) (int, int, int64, error) {
		w, h := dimsAt(p.SrcW, p.SrcH, scale)
		size, err := oracle(w, h)
		iters++
		if err != nil {
			return 0, 0, 0, fmt.Errorf("size probe at %dx%d: %w", w, h, err)
		}
		return w, h, size, nil
	}

	// Full size first: at or under target means done, no upscaling.
	_, _, fullSize, err := probe(1)
	if err != nil {
		return Outcome{}, err
	}
	if fullSize <= hiBand {
		return Outcome{
			Width:      p.SrcW,
			Height:     p.SrcH,
			Bytes:      fullSize,
			Achieved:   true,
			Iterations: iters,
		}, nil
	}

	minScale := minScaleFor(p.SrcW, p.SrcH, p.MinDim)
	if minScale >= 1 {
		// Source already at or below the minimum dimensions; nothing
		// left to shrink.
		return Outcome{
			Width:      p.SrcW,
			Height:     p.SrcH,
			Bytes:      fullSize,
			Achieved:   false,
			Iterations: iters,
		}, nil
	}

	minW, minH, minSize, err := probe(minScale)
	if err != nil {
		return Outcome{}, err
	}
	if minSize > hiBand {
		// Even the smallest allowed dimensions overshoot: closest
		// achievable result, flagged for the caller's warning.
		return Outcome{
			Width:      minW,
			Height:     minH,
			Bytes:      minSize,
			Achieved:   false,
			Iterations: iters,
		}, nil
	}
	if minSize >= loBand {
		return Outcome{
			Width:      minW,
			Height:     minH,
			Bytes:      minSize,
			Achieved:   true,
			Iterations: iters,
		}, nil
	}

	// Band is crossed somewhere in (minScale, 1); bisect by scale. The
	// best under-target candidate backs the result when the band itself
	// is never sampled.
	best := Outcome{Width: minW, Height: minH, Bytes: minSize, Achieved: true}
	lo, hi := minScale, 1.0
	lastW, lastH := 0, 0

	for i := 0; i < p.MaxIterations; i++ {
		mid := (lo + hi) / 2
		w, h, size, err := probe(mid)
		if err != nil {
			return Outcome{}, err
		}

		if w == lastW && h == lastH {
			// Rounding has pinned the dimensions; further bisection
			// cannot move them.
			break
		}
		lastW, lastH = w, h

		if size >= loBand && size <= hiBand {
			return Outcome{Width: w, Height: h, Bytes: size, Achieved: true, Iterations: iters}, nil
		}
		if size > p.TargetBytes {
			hi = mid
			continue
		}
		lo = mid
		if size > best.Bytes {
			best = Outcome{Width: w, Height: h, Bytes: size, Achieved: true}
		}
	}

	best.Iterations = iters
	return best, nil
}

// dimsAt scales the source dimensions, flooring at one pixel.
func dimsAt(srcW, srcH int, scale float64) (int, int) {
	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// minScaleFor returns the scale at which the smaller source dimension
// reaches minDim. Sources already smaller than minDim cannot shrink.
func minScaleFor(srcW, srcH int, minDim int) float64 {
	smaller := srcW
	if srcH < smaller {
		smaller = srcH
	}
	if smaller <= minDim {
		return 1
	}
	return float64(minDim) / float64(smaller)
}
