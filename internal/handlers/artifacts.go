package handlers

import (
	"log/slog"
	"math"
	"sync"

	"ECG_monitor/internal/ecg"
	"ECG_monitor/pkg/utils"
)

const (
	noiseWindow     = 16
	motionJumpMV    = 2.0 // скачок между соседними отсчётами
	motionSigmas    = 6.0
	minMotionStdDev = 0.05
)

// Типы артефактов
const (
	ArtifactInvalid  = "INVALID_VALUE"
	ArtifactCritical = "CRITICAL_ANOMALY"
	ArtifactMotion   = "MOTION_ARTIFACT"
)

// NoiseBuffer последние значения устройства для анализа тренда
type NoiseBuffer struct {
	values  []float64
	maxSize int
}

func newNoiseBuffer() *NoiseBuffer {
	return &NoiseBuffer{values: make([]float64, 0, noiseWindow), maxSize: noiseWindow}
}

// addValue добавляет значение в буфер; артефакты в тренд не попадают
func (nb *NoiseBuffer) addValue(value float64) {
	if len(nb.values) >= nb.maxSize {
		copy(nb.values, nb.values[1:])
		nb.values = nb.values[:nb.maxSize-1]
	}
	nb.values = append(nb.values, value)
}

// isMotionArtifact резкий скачок относительно последних значений
func (nb *NoiseBuffer) isMotionArtifact(v float64) bool {
	if len(nb.values) < 3 {
		return false
	}

	last := nb.values[len(nb.values)-1]
	if math.Abs(v-last) > motionJumpMV {
		return true
	}

	if len(nb.values) >= 5 {
		mean, std := nb.recentMeanStd(5)
		if std > minMotionStdDev && math.Abs(v-mean) > motionSigmas*std {
			return true
		}
	}
	return false
}

// recentMeanStd среднее и выборочное СКО последних n значений
func (nb *NoiseBuffer) recentMeanStd(n int) (float64, float64) {
	start := max(len(nb.values)-n, 0)
	recent := nb.values[start:]
	if len(recent) < 2 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range recent {
		sum += v
	}
	mean := sum / float64(len(recent))

	sq := 0.0
	for _, v := range recent {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(recent)-1))
}

// ArtifactCounts счётчики артефактов устройства
type ArtifactCounts struct {
	Invalid  int64 `json:"invalid"`
	Critical int64 `json:"critical"`
	Motion   int64 `json:"motion"`
}

// Total сумма всех артефактов
func (c ArtifactCounts) Total() int64 {
	return c.Invalid + c.Critical + c.Motion
}

// ArtifactMonitor первичная проверка входящих отсчётов по устройствам.
// Отсчёты не изменяются: конвейер фильтров справляется с ними сам, монитор
// только считает и сообщает о плохом контакте электродов.
type ArtifactMonitor struct {
	mu      sync.Mutex
	buffers map[string]*NoiseBuffer
	counts  map[string]*ArtifactCounts
}

// NewArtifactMonitor создает монитор
func NewArtifactMonitor() *ArtifactMonitor {
	return &ArtifactMonitor{
		buffers: make(map[string]*NoiseBuffer),
		counts:  make(map[string]*ArtifactCounts),
	}
}

// Screen проверяет пачку и возвращает количество артефактов в ней
func (m *ArtifactMonitor) Screen(deviceID string, samples []ecg.Sample) ArtifactCounts {
	m.mu.Lock()
	defer m.mu.Unlock()

	buffer := m.buffers[deviceID]
	if buffer == nil {
		buffer = newNoiseBuffer()
		m.buffers[deviceID] = buffer
		m.counts[deviceID] = &ArtifactCounts{}
	}

	var batch ArtifactCounts
	for _, s := range samples {
		switch {
		case !utils.IsFinite(s.Voltage):
			batch.Invalid++
		case math.Abs(s.Voltage) > ecg.ArtifactLimitMV:
			batch.Critical++
		case buffer.isMotionArtifact(s.Voltage):
			batch.Motion++
		default:
			buffer.addValue(s.Voltage)
		}
	}

	total := m.counts[deviceID]
	total.Invalid += batch.Invalid
	total.Critical += batch.Critical
	total.Motion += batch.Motion

	if batch.Invalid+batch.Critical > 0 {
		slog.Warn("🚨 Критический шум",
			"device_id", deviceID, "invalid", batch.Invalid, "critical", batch.Critical)
	}
	return batch
}

// Counts накопленные счётчики устройства
func (m *ArtifactMonitor) Counts(deviceID string) ArtifactCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.counts[deviceID]; c != nil {
		return *c
	}
	return ArtifactCounts{}
}

// Reset забывает историю устройства (новая сессия)
func (m *ArtifactMonitor) Reset(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, deviceID)
	delete(m.counts, deviceID)
}
