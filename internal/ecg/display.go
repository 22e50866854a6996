package ecg

import (
	"fmt"
	"math"
)

const (
	DisplayRangeMV     = 3.0 // ±3 мВ на полную высоту
	MinorGridSec       = 0.04
	MajorGridSec       = 0.2
	MinorGridMV        = 0.1
	MajorGridMV        = 0.5
	DefaultPixelsPerMM = 4.0
	majorGridEvery     = 5

	// ограничения кадра: ширина и высота приходят из запроса
	MaxDisplayWidth  = 8192
	MaxDisplayHeight = 4096
)

func checkDisplaySize(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxDisplayWidth || height > MaxDisplayHeight {
		return fmt.Errorf("%w: display size %dx%d, limit %dx%d",
			ErrInvalidConfiguration, width, height, MaxDisplayWidth, MaxDisplayHeight)
	}
	return nil
}

// Bar вертикальный штрих одного пикселя: от минимума до максимума корзины
type Bar struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Reduce сжимает N отсчётов в width штрихов min/max. Границы корзины
// start = floor(px·N/W), end = floor((px+1)·N/W) включительно, поэтому соседние
// корзины перекрываются не больше чем на один отсчёт. В отличие от прореживания
// одиночный выброс всегда попадает в max (или min) своей корзины.
func Reduce(samples []float64, width int) ([]Bar, error) {
	if width <= 0 || width > MaxDisplayWidth {
		return nil, fmt.Errorf("%w: display width %d, limit %d", ErrInvalidConfiguration, width, MaxDisplayWidth)
	}
	n := len(samples)
	if n == 0 {
		return []Bar{}, nil
	}

	bars := make([]Bar, width)
	for px := 0; px < width; px++ {
		start := px * n / width
		end := (px + 1) * n / width
		if end > n-1 {
			end = n - 1
		}
		if end < start {
			end = start
		}

		lo, hi := samples[start], samples[start]
		for _, v := range samples[start+1 : end+1] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		bars[px] = Bar{Min: lo, Max: hi}
	}
	return bars, nil
}

// Scale соответствие времени и напряжения пикселям
type Scale struct {
	PixelsPerSecond      float64 `json:"pixels_per_second"`
	VoltageScalePerPixel float64 `json:"voltage_scale_per_pixel"` // мВ на пиксель
	CenterY              float64 `json:"center_y"`
	Height               int     `json:"height"`
	PaperSpeedMmPerSec   int     `json:"paper_speed_mm_per_sec"`
}

// NewScale строит масштаб. При paperSpeed = 0 горизонталь подгоняется так,
// чтобы durationSec ровно занимали width пикселей.
func NewScale(paperSpeed int, pixelsPerMM float64, width, height int, durationSec float64) (Scale, error) {
	if err := validatePaperSpeed(paperSpeed); err != nil {
		return Scale{}, err
	}
	if err := checkDisplaySize(width, height); err != nil {
		return Scale{}, err
	}
	if pixelsPerMM <= 0 {
		pixelsPerMM = DefaultPixelsPerMM
	}

	s := Scale{
		VoltageScalePerPixel: 2 * DisplayRangeMV / float64(height),
		CenterY:              float64(height) / 2,
		Height:               height,
		PaperSpeedMmPerSec:   paperSpeed,
	}
	switch {
	case paperSpeed > 0:
		s.PixelsPerSecond = float64(paperSpeed) * pixelsPerMM
	case durationSec > 0:
		s.PixelsPerSecond = float64(width) / durationSec
	default:
		s.PixelsPerSecond = float64(width)
	}
	return s, nil
}

// TimeToX горизонтальная координата момента t (секунды от начала кадра)
func (s Scale) TimeToX(t float64) float64 {
	return t * s.PixelsPerSecond
}

// VoltageToY вертикальная координата: положительные напряжения выше центра
func (s Scale) VoltageToY(mv float64) float64 {
	return s.CenterY - mv/s.VoltageScalePerPixel
}

// Grid координаты линий миллиметровки ЭКГ
type Grid struct {
	MinorX []float64 `json:"minor_x"`
	MajorX []float64 `json:"major_x"`
	MinorY []float64 `json:"minor_y"`
	MajorY []float64 `json:"major_y"`
}

// Grid мелкая сетка каждые 0.04 с / 0.1 мВ, крупная каждые 0.2 с / 0.5 мВ
func (s Scale) Grid(width int) Grid {
	g := Grid{}
	if s.PixelsPerSecond > 0 {
		for k := 0; ; k++ {
			x := s.TimeToX(float64(k) * MinorGridSec)
			if x > float64(width) {
				break
			}
			if k%majorGridEvery == 0 {
				g.MajorX = append(g.MajorX, x)
			} else {
				g.MinorX = append(g.MinorX, x)
			}
		}
	}

	steps := int(math.Round(DisplayRangeMV / MinorGridMV))
	for k := -steps; k <= steps; k++ {
		y := s.VoltageToY(float64(k) * MinorGridMV)
		if k%majorGridEvery == 0 {
			g.MajorY = append(g.MajorY, y)
		} else {
			g.MinorY = append(g.MinorY, y)
		}
	}
	return g
}

// DisplayOptions параметры кадра
type DisplayOptions struct {
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	PaperSpeedMmPerSec int     `json:"paper_speed_mm_per_sec"`
	PixelsPerMM        float64 `json:"pixels_per_mm"`
	Offset             int     `json:"offset"` // первый отображаемый отсчёт
}

// DisplayFrame результат для слоя отрисовки: штрихи, масштаб и сетка
type DisplayFrame struct {
	Bars        []Bar   `json:"bars"`
	Scale       Scale   `json:"scale"`
	Grid        Grid    `json:"grid"`
	StartSample int     `json:"start_sample"`
	EndSample   int     `json:"end_sample"` // не включительно
	DurationSec float64 `json:"duration_sec"`
}

// Render готовит кадр. При заданной скорости бумаги в кадр попадает столько
// секунд, сколько помещается в ширину, начиная с Offset; при нулевой скорости
// весь остаток записи сжимается до ширины.
func Render(samples []float64, fs int, opts DisplayOptions) (DisplayFrame, error) {
	if fs <= 0 {
		return DisplayFrame{}, fmt.Errorf("%w: sampling rate %d Hz", ErrInvalidConfiguration, fs)
	}
	if opts.Offset < 0 {
		return DisplayFrame{}, fmt.Errorf("%w: negative offset %d", ErrInvalidConfiguration, opts.Offset)
	}
	if err := checkDisplaySize(opts.Width, opts.Height); err != nil {
		return DisplayFrame{}, err
	}

	start := opts.Offset
	if start > len(samples) {
		start = len(samples)
	}
	window := samples[start:]
	if opts.PaperSpeedMmPerSec > 0 {
		ppm := opts.PixelsPerMM
		if ppm <= 0 {
			ppm = DefaultPixelsPerMM
		}
		pps := float64(opts.PaperSpeedMmPerSec) * ppm
		visible := int(float64(opts.Width) / pps * float64(fs))
		if visible >= 0 && visible < len(window) {
			window = window[:visible]
		}
	}

	duration := float64(len(window)) / float64(fs)
	scale, err := NewScale(opts.PaperSpeedMmPerSec, opts.PixelsPerMM, opts.Width, opts.Height, duration)
	if err != nil {
		return DisplayFrame{}, err
	}

	pixels := opts.Width
	if opts.PaperSpeedMmPerSec > 0 {
		pixels = int(math.Ceil(duration * scale.PixelsPerSecond))
		if pixels > opts.Width {
			pixels = opts.Width
		}
		if pixels < 1 {
			pixels = 1
		}
	}

	bars, err := Reduce(window, pixels)
	if err != nil {
		return DisplayFrame{}, err
	}

	return DisplayFrame{
		Bars:        bars,
		Scale:       scale,
		Grid:        scale.Grid(opts.Width),
		StartSample: start,
		EndSample:   start + len(window),
		DurationSec: duration,
	}, nil
}
