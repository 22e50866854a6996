// internal/handlers/session_manager.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ECG_monitor/internal/ecg"
	"ECG_monitor/internal/models"
)

var (
	ErrSessionActive   = errors.New("активная сессия уже существует")
	ErrSessionNotFound = errors.New("активная сессия не найдена")
	ErrRateMismatch    = errors.New("частота дискретизации не совпадает с сессией")
)

const staleSessionAge = 24 * time.Hour

// StartParams параметры новой сессии
type StartParams struct {
	DeviceID     string
	UserID       string
	SamplingRate int
	LeadType     string
}

// ActiveSession активная сессия: запись в хранилище, живой буфер и анализатор
type ActiveSession struct {
	Session *models.ECGSession
	Buffer  *ecg.StreamBuffer
	Live    *ecg.LiveAnalyzer

	mu        sync.Mutex
	forwarded int // отсчёты снимка, уже переданные в DataBuffer
}

// SessionManager управляет жизненным циклом сессий ЭКГ
type SessionManager struct {
	store          SessionStore
	dataBuffer     *DataBuffer
	filters        ecg.Config
	reorderWindow  int
	liveWindow     time.Duration
	activeSessions map[string]*ActiveSession // deviceID -> сессия
	sessionsLock   sync.RWMutex

	// Callbacks для уведомления о событиях сессий
	onSessionStart func(session *models.ECGSession)
	onSessionStop  func(session *models.ECGSession)
}

// NewSessionManager создает новый менеджер сессий
func NewSessionManager(store SessionStore, dataBuffer *DataBuffer, filters ecg.Config, reorderWindow int, liveWindow time.Duration) (*SessionManager, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	if liveWindow <= 0 {
		liveWindow = ecg.DefaultLiveWindow
	}

	manager := &SessionManager{
		store:          store,
		dataBuffer:     dataBuffer,
		filters:        filters,
		reorderWindow:  reorderWindow,
		liveWindow:     liveWindow,
		activeSessions: make(map[string]*ActiveSession),
	}

	slog.Info("Session Manager инициализирован", "reorder_window", reorderWindow, "live_window", liveWindow)
	return manager, nil
}

// SetCallbacks устанавливает колбэки для событий сессий
func (sm *SessionManager) SetCallbacks(onStart, onStop func(session *models.ECGSession)) {
	sm.onSessionStart = onStart
	sm.onSessionStop = onStop
}

// Filters текущая конфигурация фильтров
func (sm *SessionManager) Filters() ecg.Config {
	return sm.filters
}

// StartSession создает и запускает новую сессию мониторинга
func (sm *SessionManager) StartSession(ctx context.Context, params StartParams) (*ActiveSession, error) {
	sm.sessionsLock.Lock()
	defer sm.sessionsLock.Unlock()

	if existing := sm.activeSessions[params.DeviceID]; existing != nil {
		return nil, fmt.Errorf("%w для устройства %s: %s", ErrSessionActive, params.DeviceID, existing.Session.ID)
	}

	session := &models.ECGSession{
		ID:           uuid.New(),
		DeviceID:     params.DeviceID,
		UserID:       params.UserID,
		SamplingRate: params.SamplingRate,
		LeadType:     params.LeadType,
		StartTime:    time.Now().UTC(),
	}

	buffer, err := ecg.NewStreamBuffer(session.Info(), sm.reorderWindow)
	if err != nil {
		return nil, err
	}
	live, err := ecg.NewLiveAnalyzer(sm.filters, sm.liveWindow)
	if err != nil {
		return nil, err
	}

	if err := sm.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	active := &ActiveSession{Session: session, Buffer: buffer, Live: live}
	sm.activeSessions[params.DeviceID] = active

	if sm.onSessionStart != nil {
		sm.onSessionStart(session)
	}

	slog.Info("Запущена сессия",
		"session_id", session.ID, "device_id", session.DeviceID, "sampling_rate", session.SamplingRate)
	return active, nil
}

// Ingest принимает отсчёты устройства в живой буфер и передаёт выпущенные
// по порядку отсчёты в DataBuffer. Ошибка ErrOutOfOrderSample не мешает
// сохранить принятые отсчёты.
func (sm *SessionManager) Ingest(active *ActiveSession, samples []ecg.Sample) (ecg.AppendResult, error) {
	res, err := active.Buffer.Append(samples...)
	if err != nil && !errors.Is(err, ecg.ErrOutOfOrderSample) {
		return res, err
	}
	sm.forward(active)
	return res, err
}

// forward передаёт в DataBuffer ещё не сохранённый хвост снимка
func (sm *SessionManager) forward(active *ActiveSession) {
	active.mu.Lock()
	defer active.mu.Unlock()

	snap := active.Buffer.Snapshot()
	if snap.Len() <= active.forwarded {
		return
	}
	fresh := snap.Samples[active.forwarded:]
	active.forwarded = snap.Len()
	if sm.dataBuffer != nil {
		sm.dataBuffer.AddSamples(active.Session.ID, active.Session.DeviceID, fresh)
	}
}

// StopSession завершает активную сессию
func (sm *SessionManager) StopSession(ctx context.Context, sessionID uuid.UUID) (*models.ECGSession, error) {
	sm.sessionsLock.Lock()

	var targetDeviceID string
	var target *ActiveSession
	for deviceID, active := range sm.activeSessions {
		if active.Session.ID == sessionID {
			targetDeviceID = deviceID
			target = active
			break
		}
	}
	if target == nil {
		sm.sessionsLock.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if err := sm.finish(ctx, target, time.Now().UTC()); err != nil {
		sm.sessionsLock.Unlock()
		return nil, err
	}
	delete(sm.activeSessions, targetDeviceID)
	sm.sessionsLock.Unlock()

	if sm.onSessionStop != nil {
		sm.onSessionStop(target.Session)
	}

	slog.Info("✅ Завершена сессия",
		"session_id", sessionID, "device_id", targetDeviceID, "dropped", target.Buffer.Dropped())
	return target.Session, nil
}

// finish выпускает ожидающие отсчёты, дописывает их в хранилище и закрывает сессию
func (sm *SessionManager) finish(ctx context.Context, active *ActiveSession, end time.Time) error {
	active.Buffer.Flush()
	sm.forward(active)
	// сессия остаётся активной, пока её отсчёты не записаны
	if sm.dataBuffer != nil {
		if err := sm.dataBuffer.RemoveSessionBuffer(active.Session.ID); err != nil {
			return err
		}
	}

	if err := sm.store.FinishSession(ctx, active.Session.ID, end); err != nil {
		return err
	}
	active.Session.EndTime = &end
	active.Session.SampleCount = active.Buffer.Snapshot().Len()
	return nil
}

// GetActiveSession возвращает активную сессию для устройства
func (sm *SessionManager) GetActiveSession(deviceID string) *ActiveSession {
	sm.sessionsLock.RLock()
	defer sm.sessionsLock.RUnlock()
	return sm.activeSessions[deviceID]
}

// GetActiveByID ищет активную сессию по её ID
func (sm *SessionManager) GetActiveByID(sessionID uuid.UUID) *ActiveSession {
	sm.sessionsLock.RLock()
	defer sm.sessionsLock.RUnlock()
	for _, active := range sm.activeSessions {
		if active.Session.ID == sessionID {
			return active
		}
	}
	return nil
}

// GetAllActiveSessions возвращает все активные сессии
func (sm *SessionManager) GetAllActiveSessions() []*ActiveSession {
	sm.sessionsLock.RLock()
	defer sm.sessionsLock.RUnlock()

	sessions := make([]*ActiveSession, 0, len(sm.activeSessions))
	for _, active := range sm.activeSessions {
		sessions = append(sessions, active)
	}
	return sessions
}

// GetActiveSessionCount возвращает количество активных сессий
func (sm *SessionManager) GetActiveSessionCount() int {
	sm.sessionsLock.RLock()
	defer sm.sessionsLock.RUnlock()
	return len(sm.activeSessions)
}

// GetSession получает сессию из хранилища по ID
func (sm *SessionManager) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ECGSession, error) {
	return sm.store.GetSession(ctx, sessionID)
}

// ListSessions последние сессии из хранилища
func (sm *SessionManager) ListSessions(ctx context.Context, deviceID string, limit int) ([]*models.ECGSession, error) {
	return sm.store.ListSessions(ctx, deviceID, limit)
}

// GetAllDevices возвращает список всех устройств из хранилища
func (sm *SessionManager) GetAllDevices(ctx context.Context) ([]string, error) {
	return sm.store.Devices(ctx)
}

// SessionStats статистика одной активной сессии
type SessionStats struct {
	SessionID string    `json:"session_id"`
	StartTime time.Time `json:"start_time"`
	Duration  float64   `json:"duration"`
	Samples   int       `json:"samples"`
	Dropped   int       `json:"dropped"`
}

// Statistics сводная статистика сервиса
type Statistics struct {
	ActiveSessionsCount int                     `json:"active_sessions_count"`
	Devices             map[string]SessionStats `json:"devices"`
	TotalSessions       int64                   `json:"total_sessions"`
}

// GetSessionStatistics возвращает статистику сессий
func (sm *SessionManager) GetSessionStatistics(ctx context.Context) Statistics {
	active := sm.GetAllActiveSessions()
	stats := Statistics{
		ActiveSessionsCount: len(active),
		Devices:             make(map[string]SessionStats, len(active)),
	}

	for _, a := range active {
		snap := a.Buffer.Snapshot()
		stats.Devices[a.Session.DeviceID] = SessionStats{
			SessionID: a.Session.ID.String(),
			StartTime: a.Session.StartTime,
			Duration:  time.Since(a.Session.StartTime).Seconds(),
			Samples:   snap.Len(),
			Dropped:   snap.Dropped,
		}
	}

	total, err := sm.store.CountSessions(ctx)
	if err != nil {
		slog.Warn("Не удалось посчитать сессии", "error", err)
	}
	stats.TotalSessions = total
	return stats
}

// CleanupInactiveSessions завершает сессии старше maxAge; 0 означает сутки
func (sm *SessionManager) CleanupInactiveSessions(ctx context.Context, maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = staleSessionAge
	}
	threshold := time.Now().Add(-maxAge)

	var stale []*ActiveSession
	sm.sessionsLock.Lock()
	for deviceID, active := range sm.activeSessions {
		if !active.Session.StartTime.Before(threshold) {
			continue
		}
		if err := sm.finish(ctx, active, time.Now().UTC()); err != nil {
			slog.Error("Не удалось завершить зависшую сессию", "session_id", active.Session.ID, "error", err)
			continue
		}
		delete(sm.activeSessions, deviceID)
		stale = append(stale, active)
		slog.Warn("Принудительно завершена зависшая сессия", "session_id", active.Session.ID)
	}
	sm.sessionsLock.Unlock()

	for _, active := range stale {
		if sm.onSessionStop != nil {
			sm.onSessionStop(active.Session)
		}
	}

	if len(stale) > 0 {
		slog.Info("Очищено зависших сессий", "count", len(stale))
	}
	return len(stale)
}

// StopAll завершает все активные сессии при остановке сервиса
func (sm *SessionManager) StopAll(ctx context.Context) {
	for _, active := range sm.GetAllActiveSessions() {
		if _, err := sm.StopSession(ctx, active.Session.ID); err != nil {
			slog.Error("Ошибка завершения сессии", "session_id", active.Session.ID, "error", err)
		}
	}
}
