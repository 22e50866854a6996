package ecg

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultReorderWindow = 64

// Snapshot неизменяемый срез потока на момент публикации. Samples нельзя
// изменять: массив разделяется с буфером, который продолжает дописывать
// отсчёты за пределами len(Samples).
type Snapshot struct {
	Info    SessionInfo
	Version uint64
	Samples []Sample
	Dropped int
}

// Len количество отсчётов в снимке
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Samples)
}

// Recording представление снимка как записи для анализа
func (s *Snapshot) Recording() Recording {
	return Recording{SessionInfo: s.Info, Samples: s.Samples}
}

// Tail последние n отсчётов снимка
func (s *Snapshot) Tail(n int) Recording {
	samples := s.Samples
	if n >= 0 && n < len(samples) {
		samples = samples[len(samples)-n:]
	}
	return Recording{SessionInfo: s.Info, Samples: samples}
}

// AppendResult итог одной пачки
type AppendResult struct {
	Accepted int
	Dropped  int
	Pending  int
}

// StreamBuffer живой буфер одной сессии. Отсчёты, пришедшие не по порядку,
// переупорядочиваются в ограниченном окне; опоздавшие отбрасываются и
// считаются. После каждой пачки публикуется новый снимок.
type StreamBuffer struct {
	info   SessionInfo
	window int

	mu        sync.Mutex
	committed []Sample
	pending   []Sample // отсортированы по SampleIndex
	lastIndex int64
	lastTime  time.Time
	dropped   int
	version   uint64

	current atomic.Pointer[Snapshot]
}

// NewStreamBuffer создает буфер. reorderWindow = 0 отключает переупорядочивание.
func NewStreamBuffer(info SessionInfo, reorderWindow int) (*StreamBuffer, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if reorderWindow < 0 {
		return nil, fmt.Errorf("%w: negative reorder window %d", ErrInvalidConfiguration, reorderWindow)
	}

	b := &StreamBuffer{
		info:      info,
		window:    reorderWindow,
		committed: make([]Sample, 0, 1024),
		lastIndex: -1,
	}
	b.current.Store(&Snapshot{Info: info, Samples: []Sample{}})
	return b, nil
}

// Info метаданные сессии
func (b *StreamBuffer) Info() SessionInfo {
	return b.info
}

// Append принимает пачку отсчётов. Чужая сессия отклоняет всю пачку
// с ErrInvalidConfiguration. Если часть отсчётов опоздала, они отбрасываются,
// а ошибка оборачивает ErrOutOfOrderSample; принятые при этом остаются в буфере.
func (b *StreamBuffer) Append(samples ...Sample) (AppendResult, error) {
	for _, s := range samples {
		if s.SessionID != "" && s.SessionID != b.info.SessionID {
			return AppendResult{}, fmt.Errorf("%w: sample for session %s in buffer %s",
				ErrInvalidConfiguration, s.SessionID, b.info.SessionID)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	res := AppendResult{}
	for _, s := range samples {
		s.SessionID = b.info.SessionID
		s.RPeak = false
		if !b.enqueue(s) {
			res.Dropped++
			continue
		}
		for len(b.pending) > b.window {
			if b.commit(b.pending[0]) {
				res.Accepted++
			} else {
				res.Dropped++
			}
			b.pending = b.pending[1:]
		}
	}
	res.Pending = len(b.pending)
	b.dropped += res.Dropped
	b.publish()

	if res.Dropped > 0 {
		return res, fmt.Errorf("%w: %d samples dropped in session %s",
			ErrOutOfOrderSample, res.Dropped, b.info.SessionID)
	}
	return res, nil
}

// Flush выпускает все ожидающие отсчёты (при остановке сессии)
func (b *StreamBuffer) Flush() AppendResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := AppendResult{}
	for _, s := range b.pending {
		if b.commit(s) {
			res.Accepted++
		} else {
			res.Dropped++
		}
	}
	b.pending = b.pending[:0]
	b.dropped += res.Dropped
	b.publish()
	return res
}

// Snapshot последний опубликованный снимок; безопасен для чтения из любой горутины
func (b *StreamBuffer) Snapshot() *Snapshot {
	return b.current.Load()
}

// Dropped общее число отброшенных отсчётов
func (b *StreamBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// enqueue вставляет отсчёт в окно ожидания; false, если отсчёт опоздал или дублирует
func (b *StreamBuffer) enqueue(s Sample) bool {
	if s.SampleIndex <= b.lastIndex {
		return false
	}
	pos := sort.Search(len(b.pending), func(i int) bool {
		return b.pending[i].SampleIndex >= s.SampleIndex
	})
	if pos < len(b.pending) && b.pending[pos].SampleIndex == s.SampleIndex {
		return false
	}
	b.pending = append(b.pending, Sample{})
	copy(b.pending[pos+1:], b.pending[pos:])
	b.pending[pos] = s
	return true
}

// commit дописывает отсчёт в конец; время не должно убывать
func (b *StreamBuffer) commit(s Sample) bool {
	if s.SampleIndex <= b.lastIndex || s.Timestamp.Before(b.lastTime) {
		return false
	}
	b.committed = append(b.committed, s)
	b.lastIndex = s.SampleIndex
	b.lastTime = s.Timestamp
	return true
}

func (b *StreamBuffer) publish() {
	b.version++
	n := len(b.committed)
	b.current.Store(&Snapshot{
		Info:    b.info,
		Version: b.version,
		Samples: b.committed[:n:n],
		Dropped: b.dropped,
	})
}
