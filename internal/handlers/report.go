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
	reportQueueSize = 100
	reportTimeout   = 2 * time.Minute
)

// Reporter строит итоговый отчёт завершённой сессии по всем сохранённым
// отсчётам: полный анализ, разметка R-пиков в хранилище, запись сводки и
// публикация в шину событий.
type Reporter struct {
	store     SessionStore
	publisher SummaryPublisher
	filters   ecg.Config

	queue  chan uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReporter запускает workers обработчиков очереди; publisher может быть nil
func NewReporter(store SessionStore, publisher SummaryPublisher, filters ecg.Config, workers int) *Reporter {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reporter{
		store:     store,
		publisher: publisher,
		filters:   filters,
		queue:     make(chan uuid.UUID, reportQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}

	r.wg.Add(workers)
	for range workers {
		go r.worker()
	}
	return r
}

// Enqueue ставит завершённую сессию в очередь; подходит как колбэк SessionManager
func (r *Reporter) Enqueue(session *models.ECGSession) {
	select {
	case r.queue <- session.ID:
		slog.Info("📤 Сессия поставлена в очередь отчётов", "session_id", session.ID)
	default:
		slog.Warn("⚠️ Очередь отчётов переполнена", "session_id", session.ID)
	}
}

func (r *Reporter) worker() {
	defer r.wg.Done()
	for {
		select {
		case id := <-r.queue:
			ctx, cancel := context.WithTimeout(r.ctx, reportTimeout)
			if _, err := r.Report(ctx, id); err != nil {
				slog.Error("❌ Ошибка построения отчёта", "session_id", id, "error", err)
			}
			cancel()
		case <-r.ctx.Done():
			return
		}
	}
}

// Build загружает сессию с отсчётами и анализирует её без сохранения.
// cfg == nil означает настройки сервиса.
func (r *Reporter) Build(ctx context.Context, sessionID uuid.UUID, cfg *ecg.Config) (*models.ECGSession, *ecg.Result, error) {
	session, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.store.LoadSamples(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("загрузка отсчётов: %w", err)
	}

	rec := ecg.Recording{SessionInfo: session.Info(), Samples: make([]ecg.Sample, len(rows))}
	for i, row := range rows {
		rec.Samples[i] = row.Sample()
	}

	filters := r.filters
	if cfg != nil {
		filters = *cfg
	}
	res, err := ecg.Analyze(ctx, rec, filters)
	if err != nil {
		return nil, nil, err
	}
	return session, res, nil
}

// Report полный анализ сессии с сохранением результата
func (r *Reporter) Report(ctx context.Context, sessionID uuid.UUID) (*ecg.Summary, error) {
	session, res, err := r.Build(ctx, sessionID, nil)
	if err != nil {
		return nil, err
	}

	if err := r.store.MarkRPeaks(ctx, sessionID, res.PeakSampleIndices()); err != nil {
		return nil, fmt.Errorf("разметка R-пиков: %w", err)
	}

	sum := res.Summary()
	session.ApplySummary(sum)
	if err := r.store.SaveSummary(ctx, session); err != nil {
		return nil, fmt.Errorf("сохранение сводки: %w", err)
	}

	if r.publisher != nil {
		if err := r.publisher.PublishReport(sum); err != nil {
			slog.Warn("Не удалось опубликовать отчёт", "session_id", sessionID, "error", err)
		}
	}

	slog.Info("✅ Отчёт по сессии готов",
		"session_id", sessionID, "status", sum.Status, "peaks", sum.PeakCount, "samples", sum.SampleCount)
	return &sum, nil
}

// Stop останавливает обработчиков; необработанные сессии остаются без отчёта
func (r *Reporter) Stop() {
	r.cancel()
	r.wg.Wait()
}
