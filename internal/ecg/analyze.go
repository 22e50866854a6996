package ecg

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status состояние сигнала для панели мониторинга
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusNoSignal         Status = "no_signal"
)

// Result полный результат анализа одной записи
type Result struct {
	Info    SessionInfo  `json:"info"`
	Cleaned []Sample     `json:"cleaned"`
	Peaks   PeakSet      `json:"peaks"`
	Rate    RateEstimate `json:"rate"`
	Quality Quality      `json:"quality"`
	Status  Status       `json:"status"`
}

// PeakSampleIndices индексы отсчётов (sampleIndex), на которых найдены пики
func (r *Result) PeakSampleIndices() []int64 {
	out := make([]int64, len(r.Peaks))
	for i, p := range r.Peaks {
		out[i] = r.Cleaned[p].SampleIndex
	}
	return out
}

// Summary сводка для потребителей (панель, отчёты, шина событий)
type Summary struct {
	SessionID   string    `json:"session_id" msgpack:"session_id"`
	DeviceID    string    `json:"device_id" msgpack:"device_id"`
	LeadType    string    `json:"lead_type" msgpack:"lead_type"`
	Status      Status    `json:"status" msgpack:"status"`
	HeartRate   *int      `json:"heart_rate" msgpack:"heart_rate"`
	RRIntervals []float64 `json:"rr_intervals" msgpack:"rr_intervals"`
	SDNN        *float64  `json:"sdnn" msgpack:"sdnn"`
	RMSSD       *float64  `json:"rmssd" msgpack:"rmssd"`
	PNN50       *float64  `json:"pnn50" msgpack:"pnn50"`
	Bands       HRVBands  `json:"bands" msgpack:"bands"`
	PeakCount   int       `json:"peak_count" msgpack:"peak_count"`
	SampleCount int       `json:"sample_count" msgpack:"sample_count"`
	Artifacts   int       `json:"artifacts" msgpack:"artifacts"`
	GeneratedAt time.Time `json:"generated_at" msgpack:"generated_at"`
}

// Summary сворачивает результат
func (r *Result) Summary() Summary {
	return Summary{
		SessionID:   r.Info.SessionID,
		DeviceID:    r.Info.DeviceID,
		LeadType:    r.Info.LeadType,
		Status:      r.Status,
		HeartRate:   r.Rate.HeartRate,
		RRIntervals: r.Rate.RRIntervals,
		SDNN:        r.Rate.SDNN,
		RMSSD:       r.Rate.RMSSD,
		PNN50:       r.Rate.PNN50,
		Bands:       r.Rate.Bands(),
		PeakCount:   len(r.Peaks),
		SampleCount: len(r.Cleaned),
		Artifacts:   r.Quality.Artifacts,
		GeneratedAt: time.Now().UTC(),
	}
}

// Analyze прогоняет запись через фильтры, детектор пиков и оценку ритма.
// Исходные отсчёты не изменяются. Отмена проверяется на границах ступеней.
// R-R интервалы считаются по sampleIndex, поэтому пропуски отсчётов не
// сокращают интервал. Неупорядоченная запись отклоняется с ErrOutOfOrderSample.
func Analyze(ctx context.Context, rec Recording, cfg Config) (*Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if err := rec.CheckOrder(); err != nil {
		return nil, err
	}
	pipeline, err := NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	fs := rec.SamplingRate

	raw := Voltages(rec.Samples)
	cleaned, err := pipeline.Apply(ctx, raw, fs)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("peak detection: %w", err)
	}
	peaks, err := DetectPeaks(cleaned, fs)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rate estimation: %w", err)
	}
	positions := make([]int, len(peaks))
	for i, p := range peaks {
		positions[i] = int(rec.Samples[p].SampleIndex)
	}
	rate, err := EstimateRate(positions, fs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Info:    rec.SessionInfo,
		Cleaned: make([]Sample, len(rec.Samples)),
		Peaks:   peaks,
		Rate:    rate,
		Quality: MeasureQuality(raw, cleaned, fs, cfg.PowerlineFreqHz),
	}
	for i, s := range rec.Samples {
		s.SessionID = rec.SessionID
		s.Voltage = cleaned[i]
		s.RPeak = false
		res.Cleaned[i] = s
	}
	for _, p := range peaks {
		res.Cleaned[p].RPeak = true
	}

	switch {
	case res.Quality.FlatLine:
		res.Status = StatusNoSignal
	case !rate.Available():
		res.Status = StatusInsufficientData
	default:
		res.Status = StatusOK
	}
	return res, nil
}

// BatchItem результат одной записи пакетной обработки
type BatchItem struct {
	Result *Result
	Err    error
}

// AnalyzeBatch анализирует независимые записи параллельно, не более workers
// одновременно. Ошибка конфигурации одной записи не останавливает остальные;
// отмена контекста прерывает весь пакет.
func AnalyzeBatch(ctx context.Context, recs []Recording, cfg Config, workers int) ([]BatchItem, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: workers %d", ErrInvalidConfiguration, workers)
	}

	items := make([]BatchItem, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range recs {
		g.Go(func() error {
			res, err := Analyze(gctx, recs[i], cfg)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			items[i] = BatchItem{Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
