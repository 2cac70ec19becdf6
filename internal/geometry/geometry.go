package geometry

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Transform describes the orientation applied to an image in the view:
// RotateSteps clockwise quarter turns, then an optional horizontal and
// vertical mirror in view space.
type Transform struct {
	RotateSteps int
	FlipH       bool
	FlipV       bool
}

// Normalize reduces RotateSteps into [0,3], mapping negative step counts
// onto their positive equivalents.
func (t Transform) Normalize() Transform {
	t.RotateSteps = ((t.RotateSteps % 4) + 4) % 4
	return t
}

// IsIdentity reports whether the transform leaves the image untouched.
func (t Transform) IsIdentity() bool {
	n := t.Normalize()
	return n.RotateSteps == 0 && !n.FlipH && !n.FlipV
}

// String returns a compact description like "rot90+fliph" for logs.
func (t Transform) String() string {
	n := t.Normalize()
	parts := make([]string, 0, 3)
	if n.RotateSteps != 0 {
		parts = append(parts, fmt.Sprintf("rot%d", n.RotateSteps*90))
	}
	if n.FlipH {
		parts = append(parts, "fliph")
	}
	if n.FlipV {
		parts = append(parts, "flipv")
	}
	if len(parts) == 0 {
		return "identity"
	}
	return strings.Join(parts, "+")
}

// cropEpsilon absorbs float noise when deciding whether a crop covers
// the whole view.
const cropEpsilon = 0.001

// CropRect is a crop selection normalized to [0,1] of the transformed
// view: X,Y is the top-left corner, W,H the extent.
type CropRect struct {
	X, Y, W, H float64
}

// Active reports whether the rect selects a real sub-region. The zero
// rect, degenerate extents, and rects covering the whole view within
// cropEpsilon all count as "no crop".
func (r CropRect) Active() bool {
	if r.W <= cropEpsilon || r.H <= cropEpsilon {
		return false
	}
	if r.X <= cropEpsilon && r.Y <= cropEpsilon &&
		r.X+r.W >= 1-cropEpsilon && r.Y+r.H >= 1-cropEpsilon {
		return false
	}
	return true
}

// EffectiveDimensions returns the dimensions of the transformed view of
// a srcW x srcH image: odd quarter turns swap width and height, flips
// never change them.
func EffectiveDimensions(srcW, srcH int, t Transform) (int, int) {
	if t.Normalize().RotateSteps%2 == 1 {
		return srcH, srcW
	}
	return srcW, srcH
}

// InvertRect maps a normalized crop rect in the transformed view back
// into integer pixel coordinates on the untransformed source.
//
// The forward transform rotates first and flips second, so the
// inversion undoes the flips in view space and then unwinds the
// rotation. One clockwise quarter turn sends a rect (l,t,w,h) in a WxH
// space to (H-t-h, l, h, w) in the HxW view; applying that same step
// (4-RotateSteps) mod 4 more times completes the full turn back to
// source orientation.
//
// The result is rounded to whole pixels and clamped inside the source:
// at least 1x1, never extending past srcW x srcH. A rect covering the
// whole view maps to exactly the whole source under every transform.
func InvertRect(r CropRect, t Transform, srcW, srcH int) image.Rectangle {
	t = t.Normalize()
	effW, effH := EffectiveDimensions(srcW, srcH, t)

	l := r.X * float64(effW)
	tp := r.Y * float64(effH)
	w := r.W * float64(effW)
	h := r.H * float64(effH)

	if t.FlipH {
		l = float64(effW) - l - w
	}
	if t.FlipV {
		tp = float64(effH) - tp - h
	}

	fw, fh := float64(effW), float64(effH)
	for i := 0; i < (4-t.RotateSteps)%4; i++ {
		l, tp, w, h = fh-tp-h, l, h, w
		fw, fh = fh, fw
	}

	left := int(math.Round(l))
	top := int(math.Round(tp))
	width := int(math.Round(w))
	height := int(math.Round(h))

	// Clip overhang instead of shifting the selection.
	if left < 0 {
		width += left
		left = 0
	}
	if top < 0 {
		height += top
		top = 0
	}
	if left > srcW-1 {
		left = srcW - 1
	}
	if top > srcH-1 {
		top = srcH - 1
	}
	if width > srcW-left {
		width = srcW - left
	}
	if height > srcH-top {
		height = srcH - top
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	return image.Rect(left, top, left+width, top+height)
}
