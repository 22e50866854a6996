package handlers

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ECG_monitor/internal/database"
	"ECG_monitor/internal/ecg"
	"ECG_monitor/internal/ecgsim"
	"ECG_monitor/internal/models"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// memStore хранилище в памяти с тем же контрактом, что и database.Repository
type memStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]models.ECGSession
	samples   map[uuid.UUID]map[int64]models.ECGSample
	appendErr error
	appends   int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[uuid.UUID]models.ECGSession),
		samples:  make(map[uuid.UUID]map[int64]models.ECGSample),
	}
}

func (m *memStore) setAppendErr(err error) {
	m.mu.Lock()
	m.appendErr = err
	m.mu.Unlock()
}

func (m *memStore) AppendSamples(_ context.Context, rows []models.ECGSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appends++
	for _, r := range rows {
		bySession := m.samples[r.SessionID]
		if bySession == nil {
			bySession = make(map[int64]models.ECGSample)
			m.samples[r.SessionID] = bySession
		}
		if _, dup := bySession[r.SampleIndex]; !dup {
			bySession[r.SampleIndex] = r
		}
	}
	return nil
}

func (m *memStore) CreateSession(_ context.Context, s *models.ECGSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) FinishSession(_ context.Context, id uuid.UUID, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", database.ErrSessionNotFound, id)
	}
	end = end.UTC()
	s.EndTime = &end
	m.sessions[id] = s
	return nil
}

func (m *memStore) SaveSummary(_ context.Context, session *models.ECGSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[session.ID]
	if !ok {
		return fmt.Errorf("%w: %s", database.ErrSessionNotFound, session.ID)
	}
	s.SampleCount = session.SampleCount
	s.HeartRate = session.HeartRate
	s.SDNN = session.SDNN
	s.RMSSD = session.RMSSD
	s.PNN50 = session.PNN50
	s.Status = session.Status
	m.sessions[session.ID] = s
	return nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID) (*models.ECGSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrSessionNotFound, id)
	}
	return &s, nil
}

func (m *memStore) ListSessions(_ context.Context, deviceID string, limit int) ([]*models.ECGSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ECGSession
	for _, s := range m.sessions {
		if deviceID != "" && s.DeviceID != deviceID {
			continue
		}
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CountSessions(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sessions)), nil
}

func (m *memStore) Devices(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sessions {
		if !slices.Contains(out, s.DeviceID) {
			out = append(out, s.DeviceID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) LoadSamples(_ context.Context, id uuid.UUID) ([]models.ECGSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ECGSample, 0, len(m.samples[id]))
	for _, r := range m.samples[id] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SampleIndex < out[j].SampleIndex })
	return out, nil
}

func (m *memStore) MarkRPeaks(_ context.Context, id uuid.UUID, indices []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, r := range m.samples[id] {
		r.RPeak = slices.Contains(indices, k)
		m.samples[id][k] = r
	}
	return nil
}

func (m *memStore) sampleCount(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples[id])
}

func (m *memStore) rPeaks(id uuid.UUID) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for k, r := range m.samples[id] {
		if r.RPeak {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// mockPublisher шина событий на testify/mock
type mockPublisher struct {
	mock.Mock
}

func (p *mockPublisher) PublishLive(sum ecg.Summary) error {
	return p.Called(sum).Error(0)
}

func (p *mockPublisher) PublishReport(sum ecg.Summary) error {
	return p.Called(sum).Error(0)
}

// recorder запоминает разосланные обновления
type recorder struct {
	mu      sync.Mutex
	updates []*LiveUpdate
}

func (r *recorder) Broadcast(u *LiveUpdate) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *recorder) byKind(kind string) []*LiveUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*LiveUpdate
	for _, u := range r.updates {
		if u.Kind == kind {
			out = append(out, u)
		}
	}
	return out
}

func newTestManager(t *testing.T, store *memStore) (*SessionManager, *DataBuffer) {
	t.Helper()
	buffer := NewDataBuffer(store, 100, time.Hour)
	t.Cleanup(buffer.Stop)

	sm, err := NewSessionManager(store, buffer, ecg.DefaultConfig(), 8, ecg.DefaultLiveWindow)
	require.NoError(t, err)
	return sm, buffer
}

// simBatch n секунд синтетической ЭКГ 72 уд/мин одной пачкой
func simBatch(deviceID string, seconds int) *models.SampleBatch {
	opts := ecgsim.DefaultOptions()
	g := ecgsim.New(opts)
	idx, ts, mv := g.Batch(seconds*opts.SamplingRate, testStart)
	b := models.NewSampleBatch(deviceID, opts.SamplingRate, "chest", idx, ts, mv)
	return &b
}

func testSamples(sessionID string, from, to int64) []ecg.Sample {
	out := make([]ecg.Sample, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, ecg.Sample{
			SessionID:   sessionID,
			SampleIndex: i,
			Timestamp:   testStart.Add(time.Duration(i) * time.Second / 130),
			Voltage:     float64(i%10) / 10,
		})
	}
	return out
}
