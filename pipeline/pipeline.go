package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/vcam-ai/go-vbg/compositor"
	"github.com/vcam-ai/go-vbg/mask"
	"github.com/vcam-ai/go-vbg/segmentation"
	"github.com/vcam-ai/go-vbg/session"
)

// EmitFunc delivers one encoded JPEG frame to the transport. Returning an
// error stops the loop; the next frame is not produced until the previous
// call returns, which is the pipeline's backpressure.
type EmitFunc func(jpeg []byte) error

// Driver runs the per-frame pipeline for one video stream:
// capture -> mirror -> segment -> mask -> composite -> JPEG -> emit.
type Driver struct {
	Segmenter   segmentation.Segmenter
	Processor   *mask.Processor
	Compositor  *compositor.Compositor
	State       *session.State
	JPEGQuality int

	// LogInterval spaces the diagnostic FPS log lines. Zero disables them.
	LogInterval time.Duration
}

// Run drives frames from src until capture fails, ctx is cancelled, or emit
// reports the transport gone. The source is closed exactly once on every
// exit path. Capture end and transport disconnect are normal termination;
// segmentation and encode failures are returned, since emitting a corrupt
// frame is worse than ending the stream.
//
// Arguments:
//   - ctx: Cancelled when the transport disconnects.
//   - src: The acquired camera source. Run takes ownership.
//   - emit: Frame sink.
//
// Returns:
//   - error: A pipeline failure, or nil on normal termination.
func (d *Driver) Run(ctx context.Context, src Source, emit EmitFunc) error {
	defer func() {
		if err := src.Close(); err != nil {
			log.Printf("pipeline: closing source: %v", err)
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()
	mirrored := gocv.NewMat()
	defer mirrored.Close()
	rgb := gocv.NewMat()
	defer rgb.Close()
	prob := gocv.NewMat()
	defer prob.Close()
	cond := gocv.NewMat()
	defer cond.Close()
	out := gocv.NewMat()
	defer out.Close()

	stats := NewStats()
	lastLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if ok := src.Read(&frame); !ok {
			log.Printf("pipeline: capture ended after %d frames", stats.TotalFrames)
			return nil
		}
		if frame.Empty() {
			continue
		}
		start := time.Now()

		// Mirror for selfie view, then hand the segmenter an RGB copy;
		// capture order is BGR and the model expects RGB.
		gocv.Flip(frame, &mirrored, 1)
		gocv.CvtColor(mirrored, &rgb, gocv.ColorBGRToRGB)

		if err := d.Segmenter.Segment(rgb, &prob); err != nil {
			return errors.Wrap(err, "segmenting frame")
		}
		if err := d.Processor.Apply(prob, &cond); err != nil {
			return errors.Wrap(err, "processing mask")
		}

		// One state read per frame. A toggle landing after this point
		// shows up on the next frame.
		bgIndex, blur := d.State.Snapshot()
		if err := d.Compositor.Composite(mirrored, cond, bgIndex, blur, &out); err != nil {
			return errors.Wrap(err, "compositing frame")
		}

		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, out,
			[]int{gocv.IMWriteJpegQuality, d.JPEGQuality})
		if err != nil {
			return errors.Wrap(err, "encoding frame")
		}
		encoded := buf.GetBytes()
		emitErr := emit(encoded)
		buf.Close()
		if emitErr != nil {
			log.Printf("pipeline: transport closed: %v", emitErr)
			return nil
		}

		stats.Tick(time.Since(start))
		if d.LogInterval > 0 && time.Since(lastLog) >= d.LogInterval {
			log.Printf("pipeline: %.1f fps, frame cost %.1fms, %d frames total",
				stats.CurrentFPS, float64(stats.LastProcessing.Microseconds())/1000.0, stats.TotalFrames)
			lastLog = time.Now()
		}
	}
}
