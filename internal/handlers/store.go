package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ECG_monitor/internal/ecg"
	"ECG_monitor/internal/models"
)

// SampleWriter приёмник отсчётов (хранилище)
type SampleWriter interface {
	AppendSamples(ctx context.Context, samples []models.ECGSample) error
}

// SessionStore операции хранилища, нужные сервису; реализуется database.Repository
type SessionStore interface {
	SampleWriter
	CreateSession(ctx context.Context, session *models.ECGSession) error
	FinishSession(ctx context.Context, id uuid.UUID, end time.Time) error
	SaveSummary(ctx context.Context, session *models.ECGSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.ECGSession, error)
	ListSessions(ctx context.Context, deviceID string, limit int) ([]*models.ECGSession, error)
	CountSessions(ctx context.Context) (int64, error)
	Devices(ctx context.Context) ([]string, error)
	LoadSamples(ctx context.Context, sessionID uuid.UUID) ([]models.ECGSample, error)
	MarkRPeaks(ctx context.Context, sessionID uuid.UUID, indices []int64) error
}

// SummaryPublisher шина событий для сводок (NATS)
type SummaryPublisher interface {
	PublishLive(sum ecg.Summary) error
	PublishReport(sum ecg.Summary) error
}

// LiveUpdate сообщение для живых подписчиков (gRPC, websocket)
type LiveUpdate struct {
	Kind      string               `json:"kind"` // samples | summary | session
	DeviceID  string               `json:"device_id"`
	SessionID string               `json:"session_id"`
	Samples   []models.SamplePoint `json:"samples,omitempty"`
	Summary   *ecg.Summary         `json:"summary,omitempty"`
	Event     string               `json:"event,omitempty"` // started | stopped
	Timestamp time.Time            `json:"timestamp"`
}

const (
	UpdateSamples = "samples"
	UpdateSummary = "summary"
	UpdateSession = "session"
)

// Broadcaster получатель живых обновлений
type Broadcaster interface {
	Broadcast(update *LiveUpdate)
}
