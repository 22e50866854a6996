package ecg

import (
	"fmt"
	"time"
)

// Sample один физический отсчёт ЭКГ
type Sample struct {
	SessionID   string    `json:"session_id"`
	SampleIndex int64     `json:"sample_index"`
	Timestamp   time.Time `json:"timestamp"`
	Voltage     float64   `json:"voltage"` // мВ
	RPeak       bool      `json:"r_peak"`
}

// SessionInfo метаданные записи, общие для всех отсчётов сессии
type SessionInfo struct {
	SessionID    string `json:"session_id"`
	SamplingRate int    `json:"sampling_rate"` // Гц, постоянна на всё время сессии
	LeadType     string `json:"lead_type"`
	DeviceID     string `json:"device_id"`
}

// Validate проверяет обязательные поля
func (i SessionInfo) Validate() error {
	if i.SamplingRate <= 0 {
		return fmt.Errorf("%w: sampling rate %d Hz", ErrInvalidConfiguration, i.SamplingRate)
	}
	if i.SessionID == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidConfiguration)
	}
	if i.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", ErrInvalidConfiguration)
	}
	return nil
}

// Recording упорядоченный набор отсчётов одной сессии
type Recording struct {
	SessionInfo
	Samples []Sample `json:"samples"`
}

// CheckOrder проверяет, что sampleIndex строго возрастает, а время не убывает.
// Запись целиком отклоняется: переупорядочивание делает только StreamBuffer.
func (r Recording) CheckOrder() error {
	for i := 1; i < len(r.Samples); i++ {
		prev, cur := r.Samples[i-1], r.Samples[i]
		if cur.SampleIndex <= prev.SampleIndex {
			return fmt.Errorf("%w: sample index %d after %d at position %d",
				ErrOutOfOrderSample, cur.SampleIndex, prev.SampleIndex, i)
		}
		if cur.Timestamp.Before(prev.Timestamp) {
			return fmt.Errorf("%w: timestamp of sample %d goes back in time",
				ErrOutOfOrderSample, cur.SampleIndex)
		}
	}
	return nil
}

// Duration длительность записи по числу отсчётов
func (r Recording) Duration() time.Duration {
	if r.SamplingRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(r.Samples)) / float64(r.SamplingRate) * float64(time.Second))
}

// Voltages копирует напряжения в отдельный срез
func Voltages(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Voltage
	}
	return out
}
