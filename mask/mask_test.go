package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func uniformMask(rows, cols int, v float32) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(v), 0, 0, 0), rows, cols, gocv.MatTypeCV32F)
}

func TestAllOnesMaskYieldsAllForeground(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	prob := uniformMask(48, 64, 1.0)
	defer prob.Close()
	cond := gocv.NewMat()
	defer cond.Close()

	require.NoError(t, p.Apply(prob, &cond))
	assert.Equal(t, 48, cond.Rows())
	assert.Equal(t, 64, cond.Cols())
	assert.Equal(t, gocv.MatTypeCV8U, cond.Type())

	// Erosion of a constant mask is the same mask; everything clears the
	// threshold.
	assert.EqualValues(t, 48*64, gocv.CountNonZero(cond))
}

func TestAllZerosMaskYieldsAllBackground(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	prob := uniformMask(48, 64, 0.0)
	defer prob.Close()
	cond := gocv.NewMat()
	defer cond.Close()

	require.NoError(t, p.Apply(prob, &cond))
	assert.Zero(t, gocv.CountNonZero(cond))
}

func TestThresholdIsStrictlyGreater(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	cond := gocv.NewMat()
	defer cond.Close()

	at := uniformMask(16, 16, Threshold)
	defer at.Close()
	require.NoError(t, p.Apply(at, &cond))
	assert.Zero(t, gocv.CountNonZero(cond), "exactly-threshold confidence is background")

	above := uniformMask(16, 16, Threshold+0.01)
	defer above.Close()
	require.NoError(t, p.Apply(above, &cond))
	assert.EqualValues(t, 16*16, gocv.CountNonZero(cond))
}

func TestErosionShrinksForeground(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	// A confident square in a zero field loses a 3-pixel rim to the 7x7
	// erosion.
	prob := uniformMask(64, 64, 0.0)
	defer prob.Close()
	for y := 20; y < 44; y++ {
		for x := 20; x < 44; x++ {
			prob.SetFloatAt(y, x, 1.0)
		}
	}

	cond := gocv.NewMat()
	defer cond.Close()
	require.NoError(t, p.Apply(prob, &cond))

	got := gocv.CountNonZero(cond)
	assert.Equal(t, 18*18, got)
	assert.Zero(t, cond.GetUCharAt(20, 20), "square edge eroded away")
	assert.EqualValues(t, 255, cond.GetUCharAt(32, 32), "square center survives")
}

func TestApplyRejectsBadInput(t *testing.T) {
	p := NewProcessor()
	defer p.Close()
	cond := gocv.NewMat()
	defer cond.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	assert.Error(t, p.Apply(empty, &cond))

	wrongType := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8U)
	defer wrongType.Close()
	assert.Error(t, p.Apply(wrongType, &cond))
}
