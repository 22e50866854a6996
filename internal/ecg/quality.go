package ecg

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"ECG_monitor/pkg/utils"
)

const (
	ArtifactLimitMV      = 5.0
	flatLinePeakToPeakMV = 1e-3
	minSpectrumLen       = 16
)

// Quality оценка качества сигнала; ослабление сетевой наводки измеряется по спектру
type Quality struct {
	Artifacts          int      `json:"artifacts"` // |v| > 5 мВ или NaN/Inf
	FlatLine           bool     `json:"flat_line"`
	MainsPowerRaw      float64  `json:"mains_power_raw"`
	MainsPowerClean    float64  `json:"mains_power_clean"`
	MainsAttenuationDB *float64 `json:"mains_attenuation_db"`
}

// MeasureQuality сравнивает исходный и очищенный сигнал
func MeasureQuality(raw, cleaned []float64, fs, mainsHz int) Quality {
	q := Quality{}
	for _, v := range raw {
		if !utils.IsFinite(v) || math.Abs(v) > ArtifactLimitMV {
			q.Artifacts++
		}
	}

	q.FlatLine = isFlat(raw, cleaned)
	if fs <= 0 || mainsHz <= 0 {
		return q
	}

	q.MainsPowerRaw = mainsPower(raw, fs, mainsHz)
	q.MainsPowerClean = mainsPower(cleaned, fs, mainsHz)
	if q.MainsPowerRaw > 0 && q.MainsPowerClean > 0 {
		db := 10 * math.Log10(q.MainsPowerRaw/q.MainsPowerClean)
		q.MainsAttenuationDB = &db
	}
	return q
}

func isFlat(raw, cleaned []float64) bool {
	if len(raw) == 0 {
		return true
	}
	finite := make([]float64, 0, len(raw))
	for _, v := range raw {
		if utils.IsFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return true
	}
	if floats.Max(finite)-floats.Min(finite) < flatLinePeakToPeakMV {
		return true
	}
	return len(cleaned) > 0 && floats.Max(cleaned) <= 0
}

// mainsPower нормированная мощность в бинах вокруг сетевой частоты
// (с учётом наложения спектров, если частота выше Найквиста)
func mainsPower(x []float64, fs, mainsHz int) float64 {
	n := len(x)
	if n < minSpectrumLen {
		return 0
	}

	centered := make([]float64, n)
	mean := 0.0
	for _, v := range x {
		mean += utils.SafeFloat(v)
	}
	mean /= float64(n)
	for i, v := range x {
		centered[i] = utils.SafeFloat(v) - mean
	}

	f := math.Mod(float64(mainsHz), float64(fs))
	if f > float64(fs)/2 {
		f = float64(fs) - f
	}

	spectrum := fft.FFTReal(centered)
	bin := int(math.Round(f * float64(n) / float64(fs)))
	half := n / 2

	power := 0.0
	for k := bin - 1; k <= bin+1; k++ {
		if k < 1 || k > half {
			continue
		}
		mag := cmplx.Abs(spectrum[k])
		power += mag * mag
	}
	return power / float64(n*n)
}
