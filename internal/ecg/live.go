package ecg

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const DefaultLiveWindow = 10 * time.Second

// LiveAnalyzer анализирует хвост живого потока. Результат кэшируется по
// версии снимка: один и тот же снимок не фильтруется повторно, пока не
// вызван MarkDirty.
type LiveAnalyzer struct {
	window time.Duration

	mu          sync.Mutex
	cfg         Config
	lastVersion uint64
	last        *Result
	dirty       bool
}

// NewLiveAnalyzer создает анализатор с окном window
func NewLiveAnalyzer(cfg Config, window time.Duration) (*LiveAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: live window %s", ErrInvalidConfiguration, window)
	}
	return &LiveAnalyzer{cfg: cfg, window: window}, nil
}

// MarkDirty сбрасывает кэш: следующий вызов Analyze пересчитает снимок
func (a *LiveAnalyzer) MarkDirty() {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()
}

// SetConfig меняет настройки фильтров и сбрасывает кэш
func (a *LiveAnalyzer) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.cfg = cfg
	a.dirty = true
	a.mu.Unlock()
	return nil
}

// Analyze возвращает результат для снимка; fresh = false, если он взят из кэша
func (a *LiveAnalyzer) Analyze(ctx context.Context, snap *Snapshot) (res *Result, fresh bool, err error) {
	if snap == nil {
		return nil, false, fmt.Errorf("%w: nil snapshot", ErrInvalidConfiguration)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last != nil && !a.dirty && a.lastVersion == snap.Version {
		return a.last, false, nil
	}

	n := int(a.window.Seconds() * float64(snap.Info.SamplingRate))
	res, err = Analyze(ctx, snap.Tail(n), a.cfg)
	if err != nil {
		return nil, false, err
	}
	a.last = res
	a.lastVersion = snap.Version
	a.dirty = false
	return res, true, nil
}
