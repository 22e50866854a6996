package models

import (
	"fmt"
	"time"

	"ECG_monitor/internal/ecg"
)

// SamplePoint один отсчёт в сообщении устройства
type SamplePoint struct {
	Index       int64   `json:"i"`
	TimestampMs int64   `json:"t"` // unix ms
	Voltage     float64 `json:"v"` // мВ
}

// SampleBatch пачка отсчётов, публикуемая нагрудным датчиком в
// medical/ecg/{device_id}/samples
type SampleBatch struct {
	DeviceID     string        `json:"device_id"`
	SamplingRate int           `json:"sampling_rate"`
	LeadType     string        `json:"lead_type"`
	Units        string        `json:"units"`
	Samples      []SamplePoint `json:"samples"`
}

// Validate проверяет заголовок пачки
func (b *SampleBatch) Validate() error {
	if b.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", ecg.ErrInvalidConfiguration)
	}
	if b.SamplingRate <= 0 {
		return fmt.Errorf("%w: sampling rate %d Hz", ecg.ErrInvalidConfiguration, b.SamplingRate)
	}
	if b.Units != "" && b.Units != "mV" {
		return fmt.Errorf("%w: unsupported units %q", ecg.ErrInvalidConfiguration, b.Units)
	}
	return nil
}

// ToSamples переводит отсчёты пачки в доменные для сессии sessionID
func (b *SampleBatch) ToSamples(sessionID string) []ecg.Sample {
	out := make([]ecg.Sample, len(b.Samples))
	for i, p := range b.Samples {
		out[i] = ecg.Sample{
			SessionID:   sessionID,
			SampleIndex: p.Index,
			Timestamp:   time.UnixMilli(p.TimestampMs).UTC(),
			Voltage:     p.Voltage,
		}
	}
	return out
}

// NewSampleBatch собирает пачку из параллельных срезов генератора
func NewSampleBatch(deviceID string, fs int, leadType string, idx []int64, ts []time.Time, mv []float64) SampleBatch {
	b := SampleBatch{
		DeviceID:     deviceID,
		SamplingRate: fs,
		LeadType:     leadType,
		Units:        "mV",
		Samples:      make([]SamplePoint, len(idx)),
	}
	for i := range idx {
		b.Samples[i] = SamplePoint{Index: idx[i], TimestampMs: ts[i].UnixMilli(), Voltage: mv[i]}
	}
	return b
}
