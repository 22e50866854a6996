package ecg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceSpikePreservation(t *testing.T) {
	const n = 10000
	widths := []int{1, 7, 100, 333, 999, 9999}
	positions := []int{0, 1, 1234, 4999, 9998, 9999}

	for _, w := range widths {
		for _, p := range positions {
			for _, spike := range []float64{3, -3} {
				x := make([]float64, n)
				for i := range x {
					x[i] = 0.1 * math.Sin(float64(i)/50)
				}
				x[p] = spike

				bars, err := Reduce(x, w)
				require.NoError(t, err)
				require.Len(t, bars, w)

				k := p * w / n
				if spike > 0 {
					assert.Equal(t, spike, bars[k].Max, "w=%d p=%d", w, p)
				} else {
					assert.Equal(t, spike, bars[k].Min, "w=%d p=%d", w, p)
				}
			}
		}
	}
}

func TestReduceBucketBounds(t *testing.T) {
	ramp := make([]float64, 10)
	for i := range ramp {
		ramp[i] = float64(i)
	}

	bars, err := Reduce(ramp, 4)
	require.NoError(t, err)
	assert.Equal(t, []Bar{{0, 2}, {2, 5}, {5, 7}, {7, 9}}, bars)
}

func TestReduceWiderThanSamples(t *testing.T) {
	bars, err := Reduce([]float64{0, 1, 2, 3, 4}, 20)
	require.NoError(t, err)
	require.Len(t, bars, 20)
	assert.Equal(t, Bar{0, 0}, bars[0])
	assert.Equal(t, Bar{4, 4}, bars[19])
}

func TestReduceEdgeCases(t *testing.T) {
	bars, err := Reduce(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, bars)

	_, err = Reduce([]float64{1}, 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Reduce([]float64{1}, MaxDisplayWidth+1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewScale(t *testing.T) {
	s, err := NewScale(PaperSpeed25, 4, 800, 600, 10)
	require.NoError(t, err)
	assert.InDelta(t, 100, s.PixelsPerSecond, 1e-9)
	assert.InDelta(t, 0.01, s.VoltageScalePerPixel, 1e-12)
	assert.InDelta(t, 300, s.CenterY, 1e-9)
	assert.InDelta(t, 100, s.TimeToX(1), 1e-9)
	assert.InDelta(t, 200, s.VoltageToY(1), 1e-9)
	assert.InDelta(t, 400, s.VoltageToY(-1), 1e-9)

	s, err = NewScale(PaperSpeed50, 0, 800, 600, 10)
	require.NoError(t, err)
	assert.InDelta(t, 50*DefaultPixelsPerMM, s.PixelsPerSecond, 1e-9)

	s, err = NewScale(PaperSpeedAuto, 4, 800, 600, 8)
	require.NoError(t, err)
	assert.InDelta(t, 100, s.PixelsPerSecond, 1e-9)

	_, err = NewScale(30, 4, 800, 600, 8)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewScale(PaperSpeed25, 4, 0, 600, 8)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestScaleGrid(t *testing.T) {
	s, err := NewScale(PaperSpeed25, 4, 98, 600, 1)
	require.NoError(t, err)

	g := s.Grid(98)
	// шаг мелкой сетки 0.04 с = 4 px, последняя линия на 96 px
	assert.Len(t, g.MajorX, 5)
	assert.Len(t, g.MinorX, 20)
	assert.InDelta(t, 4, g.MinorX[0], 1e-9)
	assert.InDelta(t, 20, g.MajorX[1], 1e-9)

	// ±3 мВ с шагом 0.1 мВ
	assert.Len(t, g.MajorY, 13)
	assert.Len(t, g.MinorY, 48)
	assert.InDelta(t, 600, g.MajorY[0], 1e-6)
	assert.InDelta(t, 0, g.MajorY[12], 1e-6)
}

func TestRenderPaperSpeed(t *testing.T) {
	x := make([]float64, 1000) // 10 с при 100 Гц
	opts := DisplayOptions{Width: 300, Height: 200, PaperSpeedMmPerSec: PaperSpeed25, PixelsPerMM: 4}

	frame, err := Render(x, 100, opts)
	require.NoError(t, err)
	assert.Len(t, frame.Bars, 300)
	assert.Equal(t, 0, frame.StartSample)
	assert.Equal(t, 300, frame.EndSample)
	assert.InDelta(t, 3, frame.DurationSec, 1e-9)

	opts.Offset = 900
	frame, err = Render(x, 100, opts)
	require.NoError(t, err)
	assert.Len(t, frame.Bars, 100)
	assert.Equal(t, 900, frame.StartSample)
	assert.Equal(t, 1000, frame.EndSample)
}

func TestRenderAutoFit(t *testing.T) {
	x := make([]float64, 1000)
	frame, err := Render(x, 100, DisplayOptions{Width: 200, Height: 200})
	require.NoError(t, err)
	assert.Len(t, frame.Bars, 200)
	assert.InDelta(t, 20, frame.Scale.PixelsPerSecond, 1e-9)
	assert.NotEmpty(t, frame.Grid.MajorY)
}

func TestRenderInvalid(t *testing.T) {
	_, err := Render([]float64{1}, 0, DisplayOptions{Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Render([]float64{1}, 100, DisplayOptions{Width: 10, Height: 10, Offset: -1})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Render([]float64{1}, 100, DisplayOptions{Width: 10, Height: 10, PaperSpeedMmPerSec: 10})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRenderRejectsOversizedFrame(t *testing.T) {
	samples := make([]float64, 260)
	cases := []DisplayOptions{
		{Width: 1 << 50, Height: 400},
		{Width: 800, Height: 1 << 40},
		{Width: MaxDisplayWidth + 1, Height: 400, PaperSpeedMmPerSec: PaperSpeed25, PixelsPerMM: 4},
	}
	for _, opts := range cases {
		require.NotPanics(t, func() {
			_, err := Render(samples, 130, opts)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	frame, err := Render(samples, 130, DisplayOptions{Width: MaxDisplayWidth, Height: MaxDisplayHeight})
	require.NoError(t, err)
	assert.Len(t, frame.Bars, MaxDisplayWidth)
}
