package ecg

import (
	"math"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

// gaussianSpikes строит сигнал длины n с симметричными пиками в positions
func gaussianSpikes(n int, amplitude, sigma float64, positions ...int) []float64 {
	x := make([]float64, n)
	for _, p := range positions {
		for i := range x {
			d := float64(i - p)
			x[i] += amplitude * math.Exp(-d*d/(2*sigma*sigma))
		}
	}
	return x
}

// triangleSpikes узкие треугольные пики шириной ±3 отсчёта
func triangleSpikes(n int, amplitudes map[int]float64) []float64 {
	x := make([]float64, n)
	for p, a := range amplitudes {
		for d := -3; d <= 3; d++ {
			i := p + d
			if i < 0 || i >= n {
				continue
			}
			x[i] += a * (1 - math.Abs(float64(d))/4)
		}
	}
	return x
}

func toRecording(info SessionInfo, voltages []float64) Recording {
	step := time.Second / time.Duration(info.SamplingRate)
	samples := make([]Sample, len(voltages))
	for i, v := range voltages {
		samples[i] = Sample{
			SessionID:   info.SessionID,
			SampleIndex: int64(i),
			Timestamp:   testEpoch.Add(time.Duration(i) * step),
			Voltage:     v,
		}
	}
	return Recording{SessionInfo: info, Samples: samples}
}

func testInfo(fs int) SessionInfo {
	return SessionInfo{
		SessionID:    "session-1",
		SamplingRate: fs,
		LeadType:     "chest",
		DeviceID:     "strap-01",
	}
}

// exampleScenario 2 с при 130 Гц: пики 2.5 мВ на 65 и 195, дрейф 0.3 мВ,
// сетевая наводка 60 Гц 0.05 мВ
func exampleScenario() []float64 {
	const fs = 130.0
	x := gaussianSpikes(260, 2.5, 2, 65, 195)
	for i := range x {
		t := float64(i) / fs
		x[i] += 0.3 * math.Sin(2*math.Pi*0.5*t)
		x[i] += 0.05 * math.Sin(2*math.Pi*60*t)
	}
	return x
}
