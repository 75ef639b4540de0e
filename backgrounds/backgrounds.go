// Package backgrounds - loads and caches the virtual background collection.
package backgrounds

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Placeholder dimensions match the conventional camera capture size.
const (
	placeholderWidth  = 640
	placeholderHeight = 480
)

// Store holds the fixed, ordered background collection for the process
// lifetime. Images are loaded once at startup and only read afterwards.
type Store struct {
	dir    string
	images []gocv.Mat
}

// Load reads count background images from dir, expecting files named
// "1.png" through "{count}.png". A missing or undecodable file is replaced
// by a generated placeholder; that is the designed default, not an error.
// The directory is created if it does not exist.
//
// Arguments:
//   - dir: Directory containing the numbered background files.
//   - count: Number of background slots to populate.
//
// Returns:
//   - *Store: The populated store.
//   - error: An error if the directory cannot be created.
func Load(dir string, count int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating backgrounds dir %s", dir)
	}

	s := &Store{dir: dir, images: make([]gocv.Mat, 0, count)}
	for i := 1; i <= count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%d.png", i))
		img := gocv.IMRead(path, gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			img = Placeholder(i)
		}
		s.images = append(s.images, img)
	}
	return s, nil
}

// Placeholder generates the gradient stand-in for background slot n
// (1-based, matching the file naming). The gradient is fixed so two calls
// with the same n are pixel-identical: row y gets blue 128,
// green 255*(480-y)/480, red 255*y/480, with a white "BG n" label.
func Placeholder(n int) gocv.Mat {
	data := make([]byte, placeholderHeight*placeholderWidth*3)
	for y := 0; y < placeholderHeight; y++ {
		b := byte(128)
		g := byte(255 * (placeholderHeight - y) / placeholderHeight)
		r := byte(255 * y / placeholderHeight)
		row := data[y*placeholderWidth*3 : (y+1)*placeholderWidth*3]
		for x := 0; x < placeholderWidth; x++ {
			row[x*3+0] = b
			row[x*3+1] = g
			row[x*3+2] = r
		}
	}

	img, err := gocv.NewMatFromBytes(placeholderHeight, placeholderWidth, gocv.MatTypeCV8UC3, data)
	if err != nil {
		// Allocation from a correctly sized slice cannot fail; keep the
		// contract total anyway.
		img = gocv.NewMatWithSize(placeholderHeight, placeholderWidth, gocv.MatTypeCV8UC3)
	}

	gocv.PutText(&img, fmt.Sprintf("BG %d", n), image.Pt(250, 250),
		gocv.FontHersheyPlain, 2, color.RGBA{R: 255, G: 255, B: 255}, 2)
	return img
}

// At returns the cached image for index i (0-based). The Mat is shared;
// callers must not mutate or close it.
func (s *Store) At(i int) gocv.Mat {
	return s.images[i]
}

// Len returns the number of backgrounds in the collection.
func (s *Store) Len() int {
	return len(s.images)
}

// Thumbnail renders background i (0-based) as a PNG scaled to the given
// width, preserving aspect ratio. Used by the UI strip.
//
// Arguments:
//   - i: Background index.
//   - width: Target thumbnail width in pixels.
//
// Returns:
//   - []byte: PNG-encoded thumbnail.
//   - error: An error if the index is out of range or encoding fails.
func (s *Store) Thumbnail(i, width int) ([]byte, error) {
	if i < 0 || i >= len(s.images) {
		return nil, errors.Errorf("thumbnail index %d out of range [0,%d)", i, len(s.images))
	}
	if width <= 0 {
		return nil, errors.Errorf("invalid thumbnail width %d", width)
	}

	// ToImage handles the BGR-to-RGBA conversion for the pure-Go resizer.
	img, err := s.images[i].ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "converting background to image")
	}

	thumb := resize.Resize(uint(width), 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, errors.Wrap(err, "encoding thumbnail")
	}
	return buf.Bytes(), nil
}

// Close releases every cached Mat. The store is unusable afterwards.
func (s *Store) Close() {
	for i := range s.images {
		s.images[i].Close()
	}
	s.images = nil
}
