package ecg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"ECG_monitor/pkg/utils"
)

const nn50ThresholdMs = 50

// RateEstimate производные показатели ритма. nil означает «недоступно»,
// а не ноль: при менее чем двух пиках ЧСС не определена.
type RateEstimate struct {
	HeartRate   *int      `json:"heart_rate"`   // уд/мин
	RRIntervals []float64 `json:"rr_intervals"` // секунды
	SDNN        *float64  `json:"sdnn"`         // мс
	RMSSD       *float64  `json:"rmssd"`        // мс
	PNN50       *float64  `json:"pnn50"`        // %
}

// Available ЧСС определена
func (r RateEstimate) Available() bool {
	return r.HeartRate != nil
}

// EstimateRate переводит позиции пиков в R-R интервалы, ЧСС и показатели ВСР.
// SDNN требует хотя бы одного интервала, RMSSD и pNN50 хотя бы двух.
func EstimateRate(peaks []int, fs int) (RateEstimate, error) {
	if fs <= 0 {
		return RateEstimate{}, fmt.Errorf("%w: sampling rate %d Hz", ErrInvalidConfiguration, fs)
	}

	est := RateEstimate{RRIntervals: []float64{}}
	if len(peaks) < 2 {
		return est, nil
	}

	intervals := utils.Diff(peaks) // в отсчётах
	rr := make([]float64, len(intervals))
	for i, n := range intervals {
		rr[i] = float64(n) / float64(fs)
	}
	est.RRIntervals = rr

	mean := stat.Mean(rr, nil)
	if mean > 0 {
		hr := int(math.Round(60 / mean))
		est.HeartRate = &hr
	}

	sdnn := 0.0
	if len(rr) > 1 {
		_, std := stat.PopMeanStdDev(rr, nil)
		sdnn = utils.SafeFloat(std) * 1000
	}
	est.SDNN = &sdnn

	diffs := utils.Diff(intervals)
	if len(diffs) == 0 {
		return est, nil
	}

	// разности считаются в целых отсчётах, порог 50 мс сравнивается без округления
	sumSquares := 0.0
	nn50 := 0
	for _, d := range diffs {
		ms := float64(d) * 1000 / float64(fs)
		sumSquares += ms * ms
		if utils.AbsInt(d)*1000 > nn50ThresholdMs*fs {
			nn50++
		}
	}
	rmssd := math.Sqrt(sumSquares / float64(len(diffs)))
	pnn50 := 100 * float64(nn50) / float64(len(diffs))
	est.RMSSD = &rmssd
	est.PNN50 = &pnn50

	return est, nil
}

// Band категория показателя ВСР для отображения
type Band string

const (
	BandVeryLow  Band = "very low"
	BandLow      Band = "low"
	BandNormal   Band = "normal"
	BandHigh     Band = "high"
	BandVeryHigh Band = "very high"
)

// ClassifySDNN <30 / <50 / ≤100 / ≤150
func ClassifySDNN(ms float64) Band {
	return classify(ms, 30, 50, 100, 150)
}

// ClassifyRMSSD <15 / <20 / ≤50 / ≤80
func ClassifyRMSSD(ms float64) Band {
	return classify(ms, 15, 20, 50, 80)
}

// ClassifyPNN50 <5 / <10 / ≤40 / ≤60
func ClassifyPNN50(pct float64) Band {
	return classify(pct, 5, 10, 40, 60)
}

func classify(v, veryLow, low, normal, high float64) Band {
	switch {
	case v < veryLow:
		return BandVeryLow
	case v < low:
		return BandLow
	case v <= normal:
		return BandNormal
	case v <= high:
		return BandHigh
	default:
		return BandVeryHigh
	}
}

// HRVBands категории доступных показателей
type HRVBands struct {
	SDNN  Band `json:"sdnn,omitempty"`
	RMSSD Band `json:"rmssd,omitempty"`
	PNN50 Band `json:"pnn50,omitempty"`
}

// Bands классифицирует только доступные показатели
func (r RateEstimate) Bands() HRVBands {
	var b HRVBands
	if r.SDNN != nil {
		b.SDNN = ClassifySDNN(*r.SDNN)
	}
	if r.RMSSD != nil {
		b.RMSSD = ClassifyRMSSD(*r.RMSSD)
	}
	if r.PNN50 != nil {
		b.PNN50 = ClassifyPNN50(*r.PNN50)
	}
	return b
}
