package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ECG_monitor/internal/ecg"
)

func TestSampleBatchDecode(t *testing.T) {
	payload := `{"device_id":"strap-01","sampling_rate":130,"lead_type":"chest","units":"mV",
		"samples":[{"i":0,"t":1767254400000,"v":0.12},{"i":1,"t":1767254400007,"v":-0.05}]}`

	var batch SampleBatch
	require.NoError(t, json.Unmarshal([]byte(payload), &batch))
	require.NoError(t, batch.Validate())

	samples := batch.ToSamples("s-1")
	require.Len(t, samples, 2)
	assert.Equal(t, "s-1", samples[1].SessionID)
	assert.Equal(t, int64(1), samples[1].SampleIndex)
	assert.Equal(t, 7*time.Millisecond, samples[1].Timestamp.Sub(samples[0].Timestamp))
	assert.Equal(t, -0.05, samples[1].Voltage)
}

func TestSampleBatchValidate(t *testing.T) {
	tests := []struct {
		name  string
		batch SampleBatch
	}{
		{"no device", SampleBatch{SamplingRate: 130}},
		{"zero rate", SampleBatch{DeviceID: "d"}},
		{"microvolts", SampleBatch{DeviceID: "d", SamplingRate: 130, Units: "uV"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.batch.Validate(), ecg.ErrInvalidConfiguration)
		})
	}
}

func TestNewSampleBatch(t *testing.T) {
	start := time.UnixMilli(1000)
	b := NewSampleBatch("d", 130, "chest", []int64{5}, []time.Time{start}, []float64{1.5})
	assert.Equal(t, "mV", b.Units)
	assert.Equal(t, SamplePoint{Index: 5, TimestampMs: 1000, Voltage: 1.5}, b.Samples[0])
}

func TestSampleRecordRoundTrip(t *testing.T) {
	id := uuid.New()
	s := ecg.Sample{SampleIndex: 42, Timestamp: time.UnixMilli(5000).UTC(), Voltage: 0.7, RPeak: true}

	rec := NewSampleRecord(id, "strap-01", s)
	assert.Equal(t, "strap-01", rec.DeviceID)

	back := rec.Sample()
	assert.Equal(t, id.String(), back.SessionID)
	assert.Equal(t, s.SampleIndex, back.SampleIndex)
	assert.True(t, back.RPeak)
}

func TestSessionSummary(t *testing.T) {
	s := &ECGSession{ID: uuid.New(), DeviceID: "d", SamplingRate: 130, LeadType: "chest"}
	assert.True(t, s.Active())
	assert.Equal(t, 130, s.Info().SamplingRate)
	assert.NoError(t, s.Info().Validate())

	hr := 61
	s.ApplySummary(ecg.Summary{HeartRate: &hr, SampleCount: 260, Status: ecg.StatusOK})
	assert.Equal(t, 61, *s.HeartRate)
	assert.Equal(t, "ok", s.Status)
	assert.Nil(t, s.RMSSD)
}
