package backgrounds

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestPlaceholderDeterministic(t *testing.T) {
	a := Placeholder(3)
	defer a.Close()
	b := Placeholder(3)
	defer b.Close()

	assert.Equal(t, 480, a.Rows())
	assert.Equal(t, 640, a.Cols())

	ab, err := a.ToBytes()
	require.NoError(t, err)
	bb, err := b.ToBytes()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(ab, bb), "two placeholders for the same slot must be pixel-identical")
}

func TestPlaceholderGradient(t *testing.T) {
	img := Placeholder(1)
	defer img.Close()

	// Sample a column away from the label: blue constant, green falling,
	// red rising with y.
	x := 10
	assert.EqualValues(t, 128, img.GetVecbAt(0, x)[0])
	assert.EqualValues(t, 255, img.GetVecbAt(0, x)[1])
	assert.EqualValues(t, 0, img.GetVecbAt(0, x)[2])

	y := 479
	assert.EqualValues(t, 128, img.GetVecbAt(y, x)[0])
	assert.EqualValues(t, byte(255*(480-y)/480), img.GetVecbAt(y, x)[1])
	assert.EqualValues(t, byte(255*y/480), img.GetVecbAt(y, x)[2])
}

func TestLoadFallsBackToPlaceholders(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backgrounds")

	store, err := Load(dir, 4)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, 4, store.Len())
	for i := 0; i < 4; i++ {
		img := store.At(i)
		assert.False(t, img.Empty())
		assert.Equal(t, 480, img.Rows())
		assert.Equal(t, 640, img.Cols())
	}

	// Slot 2 should be the deterministic placeholder for file "2.png".
	want := Placeholder(2)
	defer want.Close()
	wb, err := want.ToBytes()
	require.NoError(t, err)
	gb, err := store.At(1).ToBytes()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(wb, gb))
}

func TestLoadReadsExistingFile(t *testing.T) {
	dir := t.TempDir()

	// A solid color file for slot 1; the rest fall back to placeholders.
	solid := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer solid.Close()
	require.True(t, gocv.IMWrite(filepath.Join(dir, "1.png"), solid))

	store, err := Load(dir, 2)
	require.NoError(t, err)
	defer store.Close()

	got := store.At(0)
	assert.Equal(t, 120, got.Rows())
	assert.Equal(t, 160, got.Cols())
	px := got.GetVecbAt(50, 50)
	assert.EqualValues(t, 40, px[0])
	assert.EqualValues(t, 80, px[1])
	assert.EqualValues(t, 120, px[2])
}

func TestThumbnail(t *testing.T) {
	store, err := Load(t.TempDir(), 2)
	require.NoError(t, err)
	defer store.Close()

	data, err := store.Thumbnail(0, 160)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy(), "aspect ratio preserved for 640x480")

	// The placeholder top rows are green-dominant with constant blue 128 and
	// near-zero red. The thumbnail must preserve that channel order; a
	// red/blue swap would put ~128 in red and ~0 in blue here.
	r16, g16, b16, _ := img.At(10, 2).RGBA()
	r, g, b := r16>>8, g16>>8, b16>>8
	assert.InDelta(t, 0, float64(r), 16, "red stays near zero at the top")
	assert.Greater(t, g, uint32(240), "green dominates the top rows")
	assert.InDelta(t, 128, float64(b), 8, "blue holds at 128")

	_, err = store.Thumbnail(2, 160)
	assert.Error(t, err)
	_, err = store.Thumbnail(-1, 160)
	assert.Error(t, err)
	_, err = store.Thumbnail(0, 0)
	assert.Error(t, err)
}
