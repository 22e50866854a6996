package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ECG_monitor/internal/models"
)

const defaultBatchSize = 500

var ErrSessionNotFound = errors.New("сессия не найдена")

// Repository хранилище сессий и отсчётов ЭКГ
type Repository struct {
	db *gorm.DB
}

// NewRepository создает репозиторий поверх открытого соединения
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB нижележащее соединение (для health check)
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// CreateSession сохраняет новую сессию
func (r *Repository) CreateSession(ctx context.Context, session *models.ECGSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("не удалось создать сессию в БД: %w", err)
	}
	return nil
}

// FinishSession проставляет время завершения
func (r *Repository) FinishSession(ctx context.Context, id uuid.UUID, end time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.ECGSession{}).
		Where("id = ?", id).
		Update("end_time", end.UTC())
	if res.Error != nil {
		return fmt.Errorf("не удалось обновить сессию в БД: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// SaveSummary записывает итоги анализа сессии
func (r *Repository) SaveSummary(ctx context.Context, session *models.ECGSession) error {
	return r.db.WithContext(ctx).Model(&models.ECGSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"sample_count": session.SampleCount,
			"heart_rate":   session.HeartRate,
			"sdnn":         session.SDNN,
			"rmssd":        session.RMSSD,
			"pnn50":        session.PNN50,
			"status":       session.Status,
		}).Error
}

// GetSession получает сессию по ID
func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*models.ECGSession, error) {
	var session models.ECGSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions последние сессии, при deviceID != "" только этого устройства
func (r *Repository) ListSessions(ctx context.Context, deviceID string, limit int) ([]*models.ECGSession, error) {
	q := r.db.WithContext(ctx).Order("start_time DESC")
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var sessions []*models.ECGSession
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountSessions общее количество сессий
func (r *Repository) CountSessions(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.ECGSession{}).Count(&total).Error
	return total, err
}

// Devices список всех устройств
func (r *Repository) Devices(ctx context.Context) ([]string, error) {
	var devices []string
	err := r.db.WithContext(ctx).Model(&models.ECGSession{}).
		Distinct("device_id").
		Order("device_id").
		Pluck("device_id", &devices).Error
	return devices, err
}

// AppendSamples пакетная вставка; повторная доставка того же
// (session_id, sample_index) игнорируется
func (r *Repository) AppendSamples(ctx context.Context, samples []models.ECGSample) error {
	if len(samples) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "sample_index"}},
			DoNothing: true,
		}).
		CreateInBatches(samples, defaultBatchSize).Error
}

// MarkRPeaks заменяет отметки R-пиков сессии на indices
func (r *Repository) MarkRPeaks(ctx context.Context, sessionID uuid.UUID, indices []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ECGSample{}).
			Where("session_id = ? AND r_peak", sessionID).
			Update("r_peak", false).Error; err != nil {
			return err
		}
		for start := 0; start < len(indices); start += defaultBatchSize {
			end := min(start+defaultBatchSize, len(indices))
			if err := tx.Model(&models.ECGSample{}).
				Where("session_id = ? AND sample_index IN ?", sessionID, indices[start:end]).
				Update("r_peak", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSamples все отсчёты сессии в порядке sample_index
func (r *Repository) LoadSamples(ctx context.Context, sessionID uuid.UUID) ([]models.ECGSample, error) {
	var samples []models.ECGSample
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("sample_index ASC").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить отсчёты сессии %s: %w", sessionID, err)
	}
	return samples, nil
}

// LoadRPeaks индексы отсчётов, помеченных как R-пики
func (r *Repository) LoadRPeaks(ctx context.Context, sessionID uuid.UUID) ([]int64, error) {
	var indices []int64
	err := r.db.WithContext(ctx).Model(&models.ECGSample{}).
		Where("session_id = ? AND r_peak", sessionID).
		Order("sample_index ASC").
		Pluck("sample_index", &indices).Error
	return indices, err
}
