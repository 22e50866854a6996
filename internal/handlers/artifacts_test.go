package handlers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"ECG_monitor/internal/ecg"
)

func voltages(vs ...float64) []ecg.Sample {
	out := make([]ecg.Sample, len(vs))
	for i, v := range vs {
		out[i] = ecg.Sample{SampleIndex: int64(i), Voltage: v}
	}
	return out
}

func TestArtifactMonitorScreen(t *testing.T) {
	m := NewArtifactMonitor()

	batch := m.Screen("strap-01", voltages(0.1, math.NaN(), 0.1, 6.5, 0.2, math.Inf(1), 0.1, 3.1, 0.1))
	assert.Equal(t, int64(2), batch.Invalid)
	assert.Equal(t, int64(1), batch.Critical)
	assert.Equal(t, int64(1), batch.Motion)
	assert.Equal(t, int64(4), batch.Total())

	m.Screen("strap-01", voltages(0.1, -6))
	total := m.Counts("strap-01")
	assert.Equal(t, int64(2), total.Critical)
	assert.Zero(t, m.Counts("other").Total())

	m.Reset("strap-01")
	assert.Zero(t, m.Counts("strap-01").Total())
}

func TestArtifactMonitorCleanSignal(t *testing.T) {
	m := NewArtifactMonitor()
	vs := make([]float64, 200)
	for i := range vs {
		vs[i] = 0.5 * math.Sin(float64(i)/10)
	}
	assert.Zero(t, m.Screen("strap-01", voltages(vs...)).Total())
}

func TestNoiseBufferWindow(t *testing.T) {
	nb := newNoiseBuffer()
	for i := range 40 {
		nb.addValue(float64(i))
	}
	assert.Len(t, nb.values, noiseWindow)
	assert.Equal(t, 39.0, nb.values[noiseWindow-1])
	assert.Equal(t, float64(40-noiseWindow), nb.values[0])
}
