// Package ecgsim генерирует синтетическую ЭКГ (не клиническую) для эмулятора
// нагрудного датчика и тестов: изолиния с дыханием, P/QRS/T как гауссианы,
// сетевая наводка и детерминированный шум.
package ecgsim

import (
	"math"
	"time"
)

// Options параметры генератора
type Options struct {
	SamplingRate   int     // Гц
	HeartRateBPM   float64 // уд/мин
	AmplitudeMV    float64 // амплитуда R-зубца
	DriftMV        float64 // амплитуда дрейфа изолинии
	DriftHz        float64
	PowerlineMV    float64 // амплитуда сетевой наводки
	PowerlineHz    float64
	NoiseMV        float64
	RRVariationSec float64 // чередование длинных и коротких интервалов ±
}

// DefaultOptions 130 Гц как у нагрудного ремня, 72 уд/мин
func DefaultOptions() Options {
	return Options{
		SamplingRate: 130,
		HeartRateBPM: 72,
		AmplitudeMV:  1.2,
		DriftMV:      0.15,
		DriftHz:      0.25,
		PowerlineMV:  0.03,
		PowerlineHz:  60,
		NoiseMV:      0.01,
	}
}

// Generator потоковый генератор; не безопасен для конкурентного использования
type Generator struct {
	opts      Options
	n         int64
	beat      int
	beatStart float64 // момент начала текущего цикла, с
}

// New создает генератор
func New(opts Options) *Generator {
	if opts.SamplingRate <= 0 {
		opts.SamplingRate = DefaultOptions().SamplingRate
	}
	if opts.HeartRateBPM <= 0 {
		opts.HeartRateBPM = DefaultOptions().HeartRateBPM
	}
	return &Generator{opts: opts}
}

// Next возвращает следующий отсчёт (мВ) и его номер
func (g *Generator) Next() (int64, float64) {
	fs := float64(g.opts.SamplingRate)
	t := float64(g.n) / fs

	cycle := g.cycleSec()
	if t-g.beatStart >= cycle {
		g.beatStart += cycle
		g.beat++
		cycle = g.cycleSec()
	}
	// форма зубцов привязана ко времени от начала удара, а не к длине цикла:
	// R-R интервал равен длине цикла и при чередовании
	phase := (t - g.beatStart) / g.baseCycleSec()

	v := g.opts.AmplitudeMV * waveform(phase)
	v += g.opts.DriftMV * math.Sin(2*math.Pi*g.opts.DriftHz*t)
	v += g.opts.PowerlineMV * math.Sin(2*math.Pi*g.opts.PowerlineHz*t)
	v += g.opts.NoiseMV * (2*fract(math.Sin(float64(g.n)*12.9898)*43758.5453) - 1)

	idx := g.n
	g.n++
	return idx, v
}

// Batch следующие n отсчётов с метками времени от start
func (g *Generator) Batch(n int, start time.Time) ([]int64, []time.Time, []float64) {
	idx := make([]int64, n)
	ts := make([]time.Time, n)
	mv := make([]float64, n)
	step := time.Second / time.Duration(g.opts.SamplingRate)
	for i := 0; i < n; i++ {
		idx[i], mv[i] = g.Next()
		ts[i] = start.Add(time.Duration(idx[i]) * step)
	}
	return idx, ts, mv
}

// RPeakOffset смещение R-зубца от начала удара в долях базового цикла 60/ЧСС
const RPeakOffset = 0.32

func (g *Generator) baseCycleSec() float64 {
	return 60.0 / g.opts.HeartRateBPM
}

func (g *Generator) cycleSec() float64 {
	base := g.baseCycleSec()
	if g.opts.RRVariationSec == 0 {
		return base
	}
	if g.beat%2 == 0 {
		return base + g.opts.RRVariationSec
	}
	return base - g.opts.RRVariationSec
}

// waveform форма одного сердечного цикла; phase в долях базового цикла,
// за пределами [0, 1) сигнал практически нулевой
func waveform(phase float64) float64 {
	p := 0.08 * gauss(phase, 0.18, 0.03)
	q := -0.12 * gauss(phase, 0.30, 0.01)
	r := 1.00 * gauss(phase, RPeakOffset, 0.016)
	s := -0.25 * gauss(phase, 0.35, 0.012)
	t := 0.25 * gauss(phase, 0.60, 0.06)
	return p + q + r + s + t
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }
