package ecg

import (
	"context"
	"fmt"
	"math"

	"ECG_monitor/pkg/utils"
)

const (
	baselineWindowSec = 0.6  // дыхание и движение
	muscleCutoffHz    = 40.0 // мышечный тремор выше ~40 Гц
	minMuscleWindow   = 3
)

// stage одна ступень шумоподавления
type stage struct {
	name  string
	apply func(x []float64, fs int) []float64
}

// Pipeline конвейер шумоподавления. Ступени применяются в фиксированном
// порядке: дрейф изолинии → сетевая наводка → импульсные выбросы → мышечный шум.
type Pipeline struct {
	cfg    Config
	stages []stage
}

// NewPipeline собирает конвейер из включённых ступеней
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg}
	if cfg.RemoveBaseline {
		p.stages = append(p.stages, stage{"baseline", RemoveBaseline})
	}
	if cfg.RemovePowerline {
		hz := cfg.PowerlineFreqHz
		p.stages = append(p.stages, stage{"powerline", func(x []float64, fs int) []float64 {
			return RemovePowerline(x, fs, hz)
		}})
	}
	if cfg.RemoveSpikes {
		window := cfg.MedianWindow
		p.stages = append(p.stages, stage{"despike", func(x []float64, _ int) []float64 {
			return Despike(x, window)
		}})
	}
	if cfg.RemoveMuscleNoise {
		p.stages = append(p.stages, stage{"muscle", RemoveMuscleNoise})
	}
	return p, nil
}

// Config возвращает конфигурацию конвейера
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Apply возвращает очищенный сигнал той же длины. Исходный срез не изменяется.
// Отмена контекста проверяется между ступенями.
func (p *Pipeline) Apply(ctx context.Context, raw []float64, fs int) ([]float64, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("%w: sampling rate %d Hz", ErrInvalidConfiguration, fs)
	}
	if len(raw) == 0 {
		return []float64{}, nil
	}

	// NaN/Inf не должны отравлять скользящие суммы
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = utils.SafeFloat(v)
	}

	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("filter stage %s: %w", st.name, err)
		}
		out = st.apply(out, fs)
	}
	return out, nil
}

// RemoveBaseline вычитает медленное скользящее среднее (окно ≈ 0.6·fs).
// На краях окно сужается до доступных соседей.
func RemoveBaseline(x []float64, fs int) []float64 {
	window := oddWindow(int(math.Round(baselineWindowSec * float64(fs))))
	baseline := movingAverage(x, window/2)

	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] - baseline[i]
	}
	return out
}

// RemovePowerline подавляет сетевую наводку вычитанием половины разности
// с отсчётом, отстоящим ровно на один период сети. Первые period отсчётов
// проходят без изменений.
func RemovePowerline(x []float64, fs, mainsHz int) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	if mainsHz <= 0 {
		return out
	}

	period := int(math.Round(float64(fs) / float64(mainsHz)))
	if period < 1 {
		period = 1
	}

	for i := period; i < len(x); i++ {
		out[i] = x[i] - (x[i]-x[i-period])/2
	}
	return out
}

// Despike медианный фильтр с нечётным окном, центрированным на отсчёте
func Despike(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	if window <= 1 {
		copy(out, x)
		return out
	}

	half := window / 2
	scratch := make([]float64, 0, window)
	last := len(x) - 1
	for i := range x {
		lo := utils.ClampInt(i-half, 0, last)
		hi := utils.ClampInt(i+half, 0, last)
		out[i] = utils.Median(x[lo:hi+1], scratch)
	}
	return out
}

// RemoveMuscleNoise сглаживание скользящим средним, окно ≈ fs/40, не меньше 3
func RemoveMuscleNoise(x []float64, fs int) []float64 {
	window := int(math.Round(float64(fs) / muscleCutoffHz))
	if window < minMuscleWindow {
		window = minMuscleWindow
	}
	return movingAverage(x, oddWindow(window)/2)
}

// movingAverage центрированное среднее по [i-half, i+half] через префиксные суммы
func movingAverage(x []float64, half int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	prefix := make([]float64, n+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}

	for i := 0; i < n; i++ {
		lo := utils.ClampInt(i-half, 0, n-1)
		hi := utils.ClampInt(i+half, 0, n-1)
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
	}
	return out
}

// oddWindow округляет окно вверх до нечётного, чтобы его можно было центрировать
func oddWindow(w int) int {
	if w < 1 {
		return 1
	}
	if w%2 == 0 {
		return w + 1
	}
	return w
}
