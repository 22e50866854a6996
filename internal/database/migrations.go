// internal/database/migrations.go
package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"ECG_monitor/internal/models"
)

// RunMigrations выполняет миграции базы данных
func RunMigrations(db *gorm.DB) error {
	slog.Info("🔄 Запуск миграций базы данных...")

	err := db.AutoMigrate(
		&models.ECGSession{},
		&models.ECGSample{},
	)
	if err != nil {
		return fmt.Errorf("ошибка миграции: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("ошибка создания индексов: %w", err)
	}

	slog.Info("✅ Миграции выполнены успешно")
	return nil
}

// createIndexes создает дополнительные индексы
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_ecg_sessions_device_active ON ecg_sessions(device_id, end_time) WHERE end_time IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_ecg_sessions_start_time_desc ON ecg_sessions(start_time DESC)",

		// быстрый поиск R-пиков при построении отчёта
		"CREATE INDEX IF NOT EXISTS idx_ecg_samples_rpeak ON ecg_samples(session_id, sample_index) WHERE r_peak",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			slog.Warn("⚠️ Не удалось создать индекс", "sql", indexSQL, "error", err)
		}
	}

	return nil
}
