// Package pipeline - the per-stream frame loop: capture, segment, mask,
// composite, encode, emit.
package pipeline

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Source is one frame producer. Read blocks until a frame is available and
// returns false on end of stream or device error; Close releases the
// device. The loop in Run owns the source and closes it exactly once.
type Source interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// DeviceSource reads frames from a local capture device.
type DeviceSource struct {
	cap *gocv.VideoCapture
}

// OpenDevice opens capture device id.
//
// Arguments:
//   - id: The capture device ID (0 is the default webcam).
//
// Returns:
//   - *DeviceSource: The opened source.
//   - error: An error if the device cannot be opened.
func OpenDevice(id int) (*DeviceSource, error) {
	cap, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, errors.Wrapf(err, "opening video capture device %d", id)
	}
	return &DeviceSource{cap: cap}, nil
}

// Read reads the next frame into m.
func (d *DeviceSource) Read(m *gocv.Mat) bool {
	return d.cap.Read(m)
}

// Close releases the capture device.
func (d *DeviceSource) Close() error {
	return d.cap.Close()
}
