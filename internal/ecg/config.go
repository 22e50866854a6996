package ecg

import "fmt"

const (
	PowerlineHz50 = 50
	PowerlineHz60 = 60

	PaperSpeedAuto = 0
	PaperSpeed25   = 25
	PaperSpeed50   = 50

	DefaultMedianWindow = 3
)

// Config настройки конвейера шумоподавления и отображения.
// Нулевое значение PaperSpeedMmPerSec означает подгонку под ширину экрана.
type Config struct {
	RemoveBaseline     bool `json:"remove_baseline"`
	RemovePowerline    bool `json:"remove_powerline"`
	RemoveSpikes       bool `json:"remove_spikes"`
	RemoveMuscleNoise  bool `json:"remove_muscle_noise"`
	PowerlineFreqHz    int  `json:"powerline_freq_hz"`
	PaperSpeedMmPerSec int  `json:"paper_speed_mm_per_sec"`
	MedianWindow       int  `json:"median_window"`
}

// DefaultConfig все ступени включены, сеть 60 Гц, автоподгонка по ширине
func DefaultConfig() Config {
	return Config{
		RemoveBaseline:     true,
		RemovePowerline:    true,
		RemoveSpikes:       true,
		RemoveMuscleNoise:  true,
		PowerlineFreqHz:    PowerlineHz60,
		PaperSpeedMmPerSec: PaperSpeedAuto,
		MedianWindow:       DefaultMedianWindow,
	}
}

// Validate проверяет допустимые значения
func (c Config) Validate() error {
	if c.PowerlineFreqHz != PowerlineHz50 && c.PowerlineFreqHz != PowerlineHz60 {
		return fmt.Errorf("%w: powerline frequency %d Hz, expected 50 or 60",
			ErrInvalidConfiguration, c.PowerlineFreqHz)
	}
	if err := validatePaperSpeed(c.PaperSpeedMmPerSec); err != nil {
		return err
	}
	if c.MedianWindow < 1 || c.MedianWindow%2 == 0 {
		return fmt.Errorf("%w: median window %d must be odd and positive",
			ErrInvalidConfiguration, c.MedianWindow)
	}
	return nil
}

func validatePaperSpeed(speed int) error {
	switch speed {
	case PaperSpeedAuto, PaperSpeed25, PaperSpeed50:
		return nil
	default:
		return fmt.Errorf("%w: paper speed %d mm/s, expected 0, 25 or 50",
			ErrInvalidConfiguration, speed)
	}
}
