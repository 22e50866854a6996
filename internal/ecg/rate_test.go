package ecg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateRateSteadyRhythm(t *testing.T) {
	est, err := EstimateRate([]int{0, 130, 260, 390}, 130)
	require.NoError(t, err)

	require.NotNil(t, est.HeartRate)
	assert.Equal(t, 60, *est.HeartRate)
	assert.Equal(t, []float64{1, 1, 1}, est.RRIntervals)

	require.NotNil(t, est.SDNN)
	require.NotNil(t, est.RMSSD)
	require.NotNil(t, est.PNN50)
	assert.InDelta(t, 0, *est.SDNN, 1e-9)
	assert.InDelta(t, 0, *est.RMSSD, 1e-9)
	assert.InDelta(t, 0, *est.PNN50, 1e-9)
	assert.True(t, est.Available())
}

func TestEstimateRateInsufficientPeaks(t *testing.T) {
	for _, peaks := range [][]int{nil, {42}} {
		est, err := EstimateRate(peaks, 130)
		require.NoError(t, err)
		assert.False(t, est.Available())
		assert.Nil(t, est.HeartRate)
		assert.Nil(t, est.SDNN)
		assert.Nil(t, est.RMSSD)
		assert.Nil(t, est.PNN50)
		assert.Empty(t, est.RRIntervals)
		assert.Equal(t, HRVBands{}, est.Bands())
	}
}

func TestEstimateRateTwoPeaks(t *testing.T) {
	est, err := EstimateRate([]int{65, 195}, 130)
	require.NoError(t, err)

	require.NotNil(t, est.HeartRate)
	assert.Equal(t, 60, *est.HeartRate)
	require.NotNil(t, est.SDNN)
	assert.InDelta(t, 0, *est.SDNN, 1e-9)
	assert.Nil(t, est.RMSSD)
	assert.Nil(t, est.PNN50)
}

func TestEstimateRateNN50Boundary(t *testing.T) {
	// RR 1.00 / 1.05 с: разность ровно 50 мс не превышает порог
	est, err := EstimateRate([]int{0, 100, 205}, 100)
	require.NoError(t, err)
	require.NotNil(t, est.PNN50)
	assert.Equal(t, 0.0, *est.PNN50)
	assert.Equal(t, 50.0, *est.RMSSD)

	// 1.00 / 1.06 с: 60 мс уже превышает
	est, err = EstimateRate([]int{0, 100, 206}, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *est.PNN50)
}

func TestEstimateRateVariability(t *testing.T) {
	// RR 0.8 / 0.9 / 0.8 / 0.9 с
	est, err := EstimateRate([]int{0, 800, 1700, 2500, 3400}, 1000)
	require.NoError(t, err)

	require.NotNil(t, est.HeartRate)
	assert.Equal(t, 71, *est.HeartRate)
	assert.InDelta(t, 50, *est.SDNN, 1e-6)
	assert.InDelta(t, 100, *est.RMSSD, 1e-6)
	assert.InDelta(t, 100, *est.PNN50, 1e-9)
}

func TestEstimateRatePNN50Partial(t *testing.T) {
	// разности 30, -60, 130 мс: две из трёх больше 50
	est, err := EstimateRate([]int{0, 1000, 2030, 3000, 4100}, 1000)
	require.NoError(t, err)

	assert.InDelta(t, 200.0/3, *est.PNN50, 1e-6)
	assert.InDelta(t, 84.4590, *est.RMSSD, 1e-3)
}

func TestEstimateRateInvalidRate(t *testing.T) {
	_, err := EstimateRate([]int{0, 100}, 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRateEstimateJSONUnavailable(t *testing.T) {
	est, err := EstimateRate([]int{1}, 130)
	require.NoError(t, err)

	data, err := json.Marshal(est)
	require.NoError(t, err)
	assert.JSONEq(t, `{"heart_rate":null,"rr_intervals":[],"sdnn":null,"rmssd":null,"pnn50":null}`, string(data))
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		classify func(float64) Band
		value    float64
		want     Band
	}{
		{"sdnn below 30", ClassifySDNN, 29.9, BandVeryLow},
		{"sdnn 30", ClassifySDNN, 30, BandLow},
		{"sdnn 49.9", ClassifySDNN, 49.9, BandLow},
		{"sdnn 50", ClassifySDNN, 50, BandNormal},
		{"sdnn 100", ClassifySDNN, 100, BandNormal},
		{"sdnn 100.1", ClassifySDNN, 100.1, BandHigh},
		{"sdnn 150", ClassifySDNN, 150, BandHigh},
		{"sdnn 150.1", ClassifySDNN, 150.1, BandVeryHigh},

		{"rmssd 14.9", ClassifyRMSSD, 14.9, BandVeryLow},
		{"rmssd 15", ClassifyRMSSD, 15, BandLow},
		{"rmssd 20", ClassifyRMSSD, 20, BandNormal},
		{"rmssd 50", ClassifyRMSSD, 50, BandNormal},
		{"rmssd 80", ClassifyRMSSD, 80, BandHigh},
		{"rmssd 80.5", ClassifyRMSSD, 80.5, BandVeryHigh},

		{"pnn50 4", ClassifyPNN50, 4, BandVeryLow},
		{"pnn50 5", ClassifyPNN50, 5, BandLow},
		{"pnn50 10", ClassifyPNN50, 10, BandNormal},
		{"pnn50 40", ClassifyPNN50, 40, BandNormal},
		{"pnn50 60", ClassifyPNN50, 60, BandHigh},
		{"pnn50 61", ClassifyPNN50, 61, BandVeryHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.classify(tt.value))
		})
	}
}

func TestRateEstimateBands(t *testing.T) {
	// SDNN ≈ 48.2 мс, RMSSD ≈ 84.5 мс, pNN50 ≈ 66.7 %
	est, err := EstimateRate([]int{0, 1000, 2030, 3000, 4100}, 1000)
	require.NoError(t, err)

	b := est.Bands()
	assert.Equal(t, BandLow, b.SDNN)
	assert.Equal(t, BandVeryHigh, b.RMSSD)
	assert.Equal(t, BandVeryHigh, b.PNN50)
}
