package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ECG_monitor/internal/ecg"
)

// ECGSession сессия записи ЭКГ с одного устройства
type ECGSession struct {
	// Основные идентификаторы
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DeviceID string    `json:"device_id" gorm:"type:varchar(100);not null;index"`
	UserID   string    `json:"user_id" gorm:"type:varchar(100);index"`

	// Метаданные записи
	SamplingRate int    `json:"sampling_rate" gorm:"not null"`
	LeadType     string `json:"lead_type" gorm:"type:varchar(50)"`

	StartTime time.Time  `json:"start_time" gorm:"not null;index"`
	EndTime   *time.Time `json:"end_time" gorm:"index"` // null пока сессия активна

	// Итог последнего полного анализа
	SampleCount int      `json:"sample_count"`
	HeartRate   *int     `json:"heart_rate"`
	SDNN        *float64 `json:"sdnn"`
	RMSSD       *float64 `json:"rmssd"`
	PNN50       *float64 `json:"pnn50"`
	Status      string   `json:"status" gorm:"type:varchar(32)"`
}

func (ECGSession) TableName() string {
	return "ecg_sessions"
}

// BeforeCreate выдаёт идентификатор, если его не задали
func (s *ECGSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Info метаданные сессии для ядра обработки
func (s *ECGSession) Info() ecg.SessionInfo {
	return ecg.SessionInfo{
		SessionID:    s.ID.String(),
		SamplingRate: s.SamplingRate,
		LeadType:     s.LeadType,
		DeviceID:     s.DeviceID,
	}
}

// Active сессия ещё не завершена
func (s *ECGSession) Active() bool {
	return s.EndTime == nil
}

// ApplySummary переносит итог анализа в запись сессии
func (s *ECGSession) ApplySummary(sum ecg.Summary) {
	s.SampleCount = sum.SampleCount
	s.HeartRate = sum.HeartRate
	s.SDNN = sum.SDNN
	s.RMSSD = sum.RMSSD
	s.PNN50 = sum.PNN50
	s.Status = string(sum.Status)
}

// ECGSample один отсчёт в хранилище; (session_id, sample_index) уникальны
type ECGSample struct {
	ID          uint64    `json:"-" gorm:"primaryKey;autoIncrement"`
	SessionID   uuid.UUID `json:"session_id" gorm:"type:uuid;not null;uniqueIndex:idx_ecg_samples_session_index,priority:1"`
	SampleIndex int64     `json:"sample_index" gorm:"not null;uniqueIndex:idx_ecg_samples_session_index,priority:2"`
	DeviceID    string    `json:"device_id" gorm:"type:varchar(100);not null"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null"`
	Voltage     float64   `json:"voltage" gorm:"not null"`
	RPeak       bool      `json:"r_peak" gorm:"not null;default:false"`
}

func (ECGSample) TableName() string {
	return "ecg_samples"
}

// NewSampleRecord строит строку хранилища из отсчёта
func NewSampleRecord(sessionID uuid.UUID, deviceID string, s ecg.Sample) ECGSample {
	return ECGSample{
		SessionID:   sessionID,
		SampleIndex: s.SampleIndex,
		DeviceID:    deviceID,
		Timestamp:   s.Timestamp.UTC(),
		Voltage:     s.Voltage,
		RPeak:       s.RPeak,
	}
}

// Sample обратное преобразование
func (r ECGSample) Sample() ecg.Sample {
	return ecg.Sample{
		SessionID:   r.SessionID.String(),
		SampleIndex: r.SampleIndex,
		Timestamp:   r.Timestamp,
		Voltage:     r.Voltage,
		RPeak:       r.RPeak,
	}
}
