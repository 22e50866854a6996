// internal/handlers/data_buffers.go
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ECG_monitor/internal/ecg"
	"ECG_monitor/internal/models"
)

const (
	defaultFlushSize     = 500
	defaultFlushInterval = 5 * time.Second
	writeTimeout         = 30 * time.Second
)

// DataBuffer управляет буферизацией отсчётов для записи в хранилище
type DataBuffer struct {
	writer         SampleWriter
	flushSize      int
	flushInterval  time.Duration
	sessionBuffers map[uuid.UUID]*SessionDataBuffer
	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	flushes        sync.WaitGroup

	written int64
	failed  int64
	statsMu sync.Mutex
}

// SessionDataBuffer буфер одной сессии
type SessionDataBuffer struct {
	SessionID uuid.UUID
	DeviceID  string
	Samples   []models.ECGSample
	LastFlush time.Time
	mu        sync.Mutex
	writeMu   sync.Mutex // сериализует записи одной сессии
}

// NewDataBuffer создает буфер; flushSize и flushInterval ≤ 0 берут значения по умолчанию
func NewDataBuffer(writer SampleWriter, flushSize int, flushInterval time.Duration) *DataBuffer {
	if flushSize <= 0 {
		flushSize = defaultFlushSize
	}
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	ctx, cancel := context.WithCancel(context.Background())

	buffer := &DataBuffer{
		writer:         writer,
		flushSize:      flushSize,
		flushInterval:  flushInterval,
		sessionBuffers: make(map[uuid.UUID]*SessionDataBuffer),
		ctx:            ctx,
		cancel:         cancel,
	}

	buffer.wg.Add(1)
	go buffer.autoFlushWorker()

	slog.Info("Data Buffer инициализирован", "flush_size", flushSize, "flush_interval", flushInterval)
	return buffer
}

// AddSamples добавляет принятые отсчёты сессии
func (db *DataBuffer) AddSamples(sessionID uuid.UUID, deviceID string, samples []ecg.Sample) {
	if len(samples) == 0 {
		return
	}

	db.mu.RLock()
	sessionBuffer, exists := db.sessionBuffers[sessionID]
	db.mu.RUnlock()

	if !exists {
		db.mu.Lock()
		if sessionBuffer, exists = db.sessionBuffers[sessionID]; !exists {
			sessionBuffer = &SessionDataBuffer{
				SessionID: sessionID,
				DeviceID:  deviceID,
				Samples:   make([]models.ECGSample, 0, db.flushSize),
				LastFlush: time.Now(),
			}
			db.sessionBuffers[sessionID] = sessionBuffer
		}
		db.mu.Unlock()
	}

	sessionBuffer.mu.Lock()
	for _, s := range samples {
		sessionBuffer.Samples = append(sessionBuffer.Samples, models.NewSampleRecord(sessionID, deviceID, s))
	}
	full := len(sessionBuffer.Samples) >= db.flushSize
	sessionBuffer.mu.Unlock()

	if full {
		db.flushes.Add(1)
		go func() {
			defer db.flushes.Done()
			_ = db.flushSession(sessionBuffer)
		}()
	}
}

// Pending количество отсчётов сессии, ещё не записанных в хранилище
func (db *DataBuffer) Pending(sessionID uuid.UUID) int {
	db.mu.RLock()
	sessionBuffer, exists := db.sessionBuffers[sessionID]
	db.mu.RUnlock()
	if !exists {
		return 0
	}
	sessionBuffer.mu.Lock()
	defer sessionBuffer.mu.Unlock()
	return len(sessionBuffer.Samples)
}

// FlushAll синхронно флашит все буферы
func (db *DataBuffer) FlushAll() {
	for _, sessionBuffer := range db.buffers() {
		_ = db.flushSession(sessionBuffer)
	}
}

// flushSession записывает накопленное; при ошибке отсчёты возвращаются в буфер
func (db *DataBuffer) flushSession(sessionBuffer *SessionDataBuffer) error {
	sessionBuffer.writeMu.Lock()
	defer sessionBuffer.writeMu.Unlock()

	sessionBuffer.mu.Lock()
	rows := sessionBuffer.Samples
	sessionBuffer.Samples = make([]models.ECGSample, 0, db.flushSize)
	sessionBuffer.LastFlush = time.Now()
	sessionBuffer.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := db.writer.AppendSamples(ctx, rows); err != nil {
		slog.Error("❌ Ошибка записи в БД", "session_id", sessionBuffer.SessionID, "samples", len(rows), "error", err)
		sessionBuffer.mu.Lock()
		sessionBuffer.Samples = append(rows, sessionBuffer.Samples...)
		sessionBuffer.mu.Unlock()
		db.addStats(0, int64(len(rows)))
		return err
	}

	db.addStats(int64(len(rows)), 0)
	slog.Debug("💾 Записано в БД", "session_id", sessionBuffer.SessionID, "samples", len(rows))
	return nil
}

// RemoveSessionBuffer финально флашит и удаляет буфер завершённой сессии.
// Если запись не удалась, буфер остаётся на месте с отсчётами, их дозапишет
// следующий флаш, а ошибка возвращается вызывающему.
func (db *DataBuffer) RemoveSessionBuffer(sessionID uuid.UUID) error {
	db.mu.RLock()
	sessionBuffer, exists := db.sessionBuffers[sessionID]
	db.mu.RUnlock()
	if !exists {
		return nil
	}

	for {
		if err := db.flushSession(sessionBuffer); err != nil {
			return fmt.Errorf("final flush of session %s: %w", sessionID, err)
		}

		db.mu.Lock()
		sessionBuffer.mu.Lock()
		drained := len(sessionBuffer.Samples) == 0
		if drained {
			delete(db.sessionBuffers, sessionID)
		}
		sessionBuffer.mu.Unlock()
		db.mu.Unlock()
		if drained {
			break
		}
	}

	slog.Info("Удален буфер сессии", "session_id", sessionID)
	return nil
}

// Stats количество записанных и не записанных с первой попытки отсчётов
func (db *DataBuffer) Stats() (written, failed int64) {
	db.statsMu.Lock()
	defer db.statsMu.Unlock()
	return db.written, db.failed
}

func (db *DataBuffer) addStats(written, failed int64) {
	db.statsMu.Lock()
	db.written += written
	db.failed += failed
	db.statsMu.Unlock()
}

func (db *DataBuffer) buffers() []*SessionDataBuffer {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*SessionDataBuffer, 0, len(db.sessionBuffers))
	for _, b := range db.sessionBuffers {
		out = append(out, b)
	}
	return out
}

// autoFlushWorker периодически флашит старые буферы
func (db *DataBuffer) autoFlushWorker() {
	defer db.wg.Done()

	ticker := time.NewTicker(db.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			db.flushOldBuffers()
		case <-db.ctx.Done():
			return
		}
	}
}

// flushOldBuffers флашит буферы, которые давно не флашились
func (db *DataBuffer) flushOldBuffers() {
	for _, sessionBuffer := range db.buffers() {
		sessionBuffer.mu.Lock()
		stale := time.Since(sessionBuffer.LastFlush) >= db.flushInterval
		sessionBuffer.mu.Unlock()
		if stale {
			_ = db.flushSession(sessionBuffer)
		}
	}
}

// Stop останавливает буфер с финальным флашем
func (db *DataBuffer) Stop() {
	slog.Info("Остановка Data Buffer...")
	db.cancel()
	db.wg.Wait()
	db.flushes.Wait()
	db.FlushAll()

	written, failed := db.Stats()
	slog.Info("Data Buffer остановлен", "written", written, "failed", failed)
}
