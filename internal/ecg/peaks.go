package ecg

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

const (
	peakThresholdRatio = 0.6
	refractorySec      = 0.3 // потолок 200 уд/мин
	peakEdgeMargin     = 5
	peakNeighbors      = 2
	minPeakBufferLen   = 10
)

// PeakSet упорядоченные позиции R-пиков в буфере
type PeakSet []int

// DetectPeaks ищет локальные максимумы выше адаптивного порога 0.6·max.
// Кандидат строго больше двух соседей с каждой стороны и отстоит от последнего
// принятого пика не меньше чем на 0.3·fs отсчётов; внутри рефрактерного окна
// побеждает первый найденный.
func DetectPeaks(samples []float64, fs int) (PeakSet, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("%w: sampling rate %d Hz", ErrInvalidConfiguration, fs)
	}
	if len(samples) < minPeakBufferLen {
		return PeakSet{}, nil
	}

	threshold := peakThresholdRatio * floats.Max(samples)
	if !(threshold > 0) {
		// изолиния или отключённый электрод
		threshold = 0
	}
	refractory := refractorySec * float64(fs)

	peaks := PeakSet{}
	last := -1
	for i := peakEdgeMargin; i < len(samples)-peakEdgeMargin; i++ {
		v := samples[i]
		if !(v > threshold) || !isLocalMax(samples, i) {
			continue
		}
		if last >= 0 && float64(i-last) < refractory {
			continue
		}
		peaks = append(peaks, i)
		last = i
	}
	return peaks, nil
}

func isLocalMax(samples []float64, i int) bool {
	v := samples[i]
	for d := 1; d <= peakNeighbors; d++ {
		if !(v > samples[i-d]) || !(v > samples[i+d]) {
			return false
		}
	}
	return true
}
