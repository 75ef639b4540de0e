// Package compositor - per-frame composition of the foreground subject over
// a virtual background, a blurred backdrop, or nothing at all.
package compositor

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/vcam-ai/go-vbg/backgrounds"
	"github.com/vcam-ai/go-vbg/session"
)

// blurKernelSize is the Gaussian kernel side used for every blur in the
// pipeline. Sigma 0 derives the deviation from the kernel size.
const blurKernelSize = 55

// Compositor applies one of three per-frame policies:
//
//   - virtual background: condition-true pixels from the frame, the rest
//     from the selected background (optionally blurred);
//   - backdrop blur: condition-true pixels from the frame, the rest from a
//     blurred copy of the same frame;
//   - passthrough: the frame, untouched.
//
// Policy inputs are read once per Composite call, never mid-computation.
type Compositor struct {
	store *backgrounds.Store

	// Resized-background cache. Camera resolution is stable in practice,
	// so the resize for (index, w, h) is reused until any of them change.
	resized   gocv.Mat
	cachedIdx int
	cachedW   int
	cachedH   int

	blurred gocv.Mat
}

// New creates a Compositor reading backgrounds from store.
func New(store *backgrounds.Store) *Compositor {
	return &Compositor{
		store:     store,
		resized:   gocv.NewMat(),
		cachedIdx: session.NoBackground,
		blurred:   gocv.NewMat(),
	}
}

// Composite produces the output frame for one captured frame.
//
// Arguments:
//   - frame: The captured BGR frame. Never mutated.
//   - cond: 8-bit condition mask; nonzero means "foreground, keep frame pixel".
//   - bgIndex: Selected background index, or session.NoBackground.
//   - blur: The blur toggle.
//   - out: Destination frame.
//
// Returns:
//   - error: An error if bgIndex is a non-negative index outside the store,
//     which upstream validation should have made impossible.
func (c *Compositor) Composite(frame, cond gocv.Mat, bgIndex int, blur bool, out *gocv.Mat) error {
	switch {
	case bgIndex >= 0:
		if bgIndex >= c.store.Len() {
			return errors.Errorf("background index %d outside store of %d", bgIndex, c.store.Len())
		}
		bg := c.backgroundFor(bgIndex, frame.Cols(), frame.Rows())
		if blur {
			// Blur the backdrop only; the subject stays sharp.
			gocv.GaussianBlur(bg, &c.blurred, image.Pt(blurKernelSize, blurKernelSize), 0, 0, gocv.BorderDefault)
			bg = c.blurred
		}
		bg.CopyTo(out)
		frame.CopyToWithMask(out, cond)

	case blur:
		gocv.GaussianBlur(frame, &c.blurred, image.Pt(blurKernelSize, blurKernelSize), 0, 0, gocv.BorderDefault)
		c.blurred.CopyTo(out)
		frame.CopyToWithMask(out, cond)

	default:
		frame.CopyTo(out)
	}
	return nil
}

// backgroundFor returns the selected background resized to w x h, serving
// from the cache when index and dimensions are unchanged.
func (c *Compositor) backgroundFor(idx, w, h int) gocv.Mat {
	if idx == c.cachedIdx && w == c.cachedW && h == c.cachedH && !c.resized.Empty() {
		return c.resized
	}
	gocv.Resize(c.store.At(idx), &c.resized, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	c.cachedIdx, c.cachedW, c.cachedH = idx, w, h
	return c.resized
}

// Close releases the scratch and cache Mats.
func (c *Compositor) Close() {
	c.resized.Close()
	c.blurred.Close()
}
