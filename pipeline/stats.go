package pipeline

import "time"

// Stats tracks instantaneous frame rate from wall-clock deltas. Diagnostic
// only; nothing in the pipeline branches on it.
type Stats struct {
	TotalFrames int
	CurrentFPS  float64

	// LastProcessing is the wall-clock cost of the most recent frame,
	// capture excluded.
	LastProcessing time.Duration

	windowFrames int
	windowStart  time.Time
}

// NewStats starts a stats window at now.
func NewStats() *Stats {
	return &Stats{windowStart: time.Now()}
}

// Tick records one completed frame. FPS is recomputed over one-second
// windows, the same accumulation the capture loops in this codebase use.
func (s *Stats) Tick(processing time.Duration) {
	s.TotalFrames++
	s.windowFrames++
	s.LastProcessing = processing

	elapsed := time.Since(s.windowStart).Seconds()
	if elapsed >= 1.0 {
		s.CurrentFPS = float64(s.windowFrames) / elapsed
		s.windowFrames = 0
		s.windowStart = time.Now()
	}
}
