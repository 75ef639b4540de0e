// Package segmentation - per-frame human foreground segmentation.
//
// The concrete model runs behind the Segmenter interface so the pipeline
// can be exercised with a fake, without a camera or an ONNX runtime.
package segmentation

import "gocv.io/x/gocv"

// Segmenter produces a foreground-probability mask for one frame.
//
// The frame must be 3-channel RGB (callers convert from BGR capture order
// first). The mask written to dst is single-channel CV_32F with values in
// [0,1] and the same rows/cols as the frame. Implementations are long-lived:
// construct once, call Segment per frame, Close when the stream ends.
type Segmenter interface {
	Segment(frame gocv.Mat, dst *gocv.Mat) error
	Close() error
}
