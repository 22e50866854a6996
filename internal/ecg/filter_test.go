package ecg

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configFromMask(mask int) Config {
	cfg := DefaultConfig()
	cfg.RemoveBaseline = mask&1 != 0
	cfg.RemovePowerline = mask&2 != 0
	cfg.RemoveSpikes = mask&4 != 0
	cfg.RemoveMuscleNoise = mask&8 != 0
	return cfg
}

func TestPipelineLengthPreservation(t *testing.T) {
	lengths := []int{0, 1, 2, 3, 7, 50, 260, 1000}
	for mask := 0; mask < 16; mask++ {
		p, err := NewPipeline(configFromMask(mask))
		require.NoError(t, err)

		for _, n := range lengths {
			raw := make([]float64, n)
			for i := range raw {
				raw[i] = math.Sin(float64(i)) + 0.1*float64(i%7)
			}
			cleaned, err := p.Apply(context.Background(), raw, 130)
			require.NoError(t, err)
			assert.Len(t, cleaned, n, "mask=%d n=%d", mask, n)
		}
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	out, err := p.Apply(context.Background(), nil, 130)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestPipelineInvalidSamplingRate(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	for _, fs := range []int{0, -130} {
		out, err := p.Apply(context.Background(), []float64{1, 2, 3}, fs)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.Nil(t, out)
	}
}

func TestPipelineInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PowerlineFreqHz = 55
	_, err := NewPipeline(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	cfg = DefaultConfig()
	cfg.MedianWindow = -3
	_, err = NewPipeline(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	cfg = DefaultConfig()
	cfg.PaperSpeedMmPerSec = 30
	_, err = NewPipeline(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestPipelineDoesNotMutateInputAndRunsTwice(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	raw := exampleScenario()
	original := append([]float64(nil), raw...)

	once, err := p.Apply(context.Background(), raw, 130)
	require.NoError(t, err)
	assert.Equal(t, original, raw)

	twice, err := p.Apply(context.Background(), once, 130)
	require.NoError(t, err)
	assert.Len(t, twice, len(raw))
}

func TestPipelineExtremeValues(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	raw := []float64{0, 50, -80, math.NaN(), math.Inf(1), 0.2, 0.1, math.Inf(-1), 3, 4, 5, 6}
	out, err := p.Apply(context.Background(), raw, 130)
	require.NoError(t, err)
	require.Len(t, out, len(raw))
	for _, v := range out {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestPipelineCancelled(t *testing.T) {
	p, err := NewPipeline(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Apply(ctx, exampleScenario(), 130)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoveBaselineConstant(t *testing.T) {
	x := make([]float64, 300)
	for i := range x {
		x[i] = 1.7
	}
	for _, v := range RemoveBaseline(x, 130) {
		assert.InDelta(t, 0, v, 1e-9)
	}
}

func TestRemoveBaselineShortBuffer(t *testing.T) {
	// окно 79 отсчётов длиннее буфера: используются только доступные соседи
	out := RemoveBaseline([]float64{1, 3}, 130)
	require.Len(t, out, 2)
	assert.InDelta(t, -1, out[0], 1e-12)
	assert.InDelta(t, 1, out[1], 1e-12)
}

func TestRemovePowerline(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	// 130 Гц / 60 Гц → период 2 отсчёта
	out := RemovePowerline(x, 130, 60)
	assert.Equal(t, 1.0, out[0])
	assert.Equal(t, 2.0, out[1])
	for i := 2; i < len(x); i++ {
		assert.InDelta(t, x[i]-(x[i]-x[i-2])/2, out[i], 1e-12)
	}

	// 500 Гц / 50 Гц → период 10: короткий буфер не меняется
	assert.Equal(t, x, RemovePowerline(x, 500, 50))
}

func TestDespikeRemovesImpulse(t *testing.T) {
	x := []float64{0, 0, 0, 5, 0, 0, 0}
	out := Despike(x, 3)
	for i := 1; i < len(out)-1; i++ {
		assert.Equal(t, 0.0, out[i])
	}

	// на краях окно сужается до доступных соседей
	edge := Despike([]float64{4, 0, 0}, 3)
	assert.Equal(t, 2.0, edge[0])
}

func TestRemoveMuscleNoiseWindow(t *testing.T) {
	x := []float64{0, 3, 0, 3, 0, 3, 0}
	out := RemoveMuscleNoise(x, 130) // окно 3
	assert.InDelta(t, 1.0, out[1], 1e-12)
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 1.5, out[0], 1e-12)

	// 400 Гц → окно 10, центрируется как 11
	ramp := make([]float64, 40)
	for i := range ramp {
		ramp[i] = float64(i)
	}
	smoothed := RemoveMuscleNoise(ramp, 400)
	assert.InDelta(t, 20.0, smoothed[20], 1e-9)
	assert.InDelta(t, 2.5, smoothed[0], 1e-9) // [0..5]
}
