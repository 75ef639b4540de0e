// Package mask - turns raw segmentation probabilities into a binary
// compositing condition.
package mask

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Threshold is the probability above which a pixel counts as foreground.
// Deliberately permissive: pixels stay foreground unless segmentation
// confidence is very low.
const Threshold = 0.1

// erosionKernelSize is the side of the all-ones structuring element.
// Raw masks are generous around hair and edges; a 7x7 erosion shrinks the
// foreground slightly so background bleed at the silhouette is reduced.
const erosionKernelSize = 7

// Processor derives the per-pixel compositing condition from a probability
// mask. Construct once and reuse; the erosion kernel and scratch Mat are
// allocated up front.
type Processor struct {
	kernel gocv.Mat
	eroded gocv.Mat
	binary gocv.Mat
}

// NewProcessor creates a Processor with its reusable structuring element.
func NewProcessor() *Processor {
	return &Processor{
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(erosionKernelSize, erosionKernelSize)),
		eroded: gocv.NewMat(),
		binary: gocv.NewMat(),
	}
}

// Apply erodes prob (single-channel CV_32F, values in [0,1]) and thresholds
// the result, writing an 8-bit 0/255 condition into cond. A condition pixel
// of 255 means "keep the source frame pixel"; the single channel applies to
// all three frame channels at composite time.
//
// Arguments:
//   - prob: The probability mask, same rows/cols as the frame.
//   - cond: Destination for the binary condition.
//
// Returns:
//   - error: An error if the input mask is unusable.
func (p *Processor) Apply(prob gocv.Mat, cond *gocv.Mat) error {
	if prob.Empty() {
		return errors.New("empty probability mask")
	}
	if prob.Type() != gocv.MatTypeCV32F {
		return errors.Errorf("probability mask must be CV_32F, got type %d", int(prob.Type()))
	}

	gocv.Erode(prob, &p.eroded, p.kernel)

	// THRESH_BINARY is strictly-greater, matching the "value > 0.1"
	// condition. The float result is collapsed to an 8-bit mask for
	// CopyToWithMask.
	gocv.Threshold(p.eroded, &p.binary, Threshold, 255, gocv.ThresholdBinary)
	p.binary.ConvertTo(cond, gocv.MatTypeCV8U)
	return nil
}

// Close releases the kernel and scratch buffers.
func (p *Processor) Close() {
	p.kernel.Close()
	p.eroded.Close()
	p.binary.Close()
}
