// internal/handlers/mqtt_processor.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ECG_monitor/internal/ecg"
	"ECG_monitor/internal/models"
)

const (
	dataChannelSize         = 1000
	defaultAnalysisInterval = time.Second
	analysisTimeout         = 10 * time.Second
)

var ErrBadTopic = errors.New("неверный формат топика")

// MQTTStreamProcessor обрабатывает потоковые данные от MQTT
type MQTTStreamProcessor struct {
	// Компоненты
	sessionManager *SessionManager
	artifacts      *ArtifactMonitor
	publisher      SummaryPublisher
	broadcasters   []Broadcaster

	analysisInterval time.Duration

	// Канал для потоковой обработки
	dataChannel chan *models.SampleBatch

	// Управление
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu  sync.Mutex
	received int64
	rejected int64
}

// NewMQTTStreamProcessor создает новый процессор потоковых данных.
// publisher может быть nil, если шина событий отключена.
func NewMQTTStreamProcessor(
	sessionManager *SessionManager,
	artifacts *ArtifactMonitor,
	publisher SummaryPublisher,
	analysisInterval time.Duration,
	broadcasters ...Broadcaster,
) *MQTTStreamProcessor {
	if analysisInterval <= 0 {
		analysisInterval = defaultAnalysisInterval
	}
	ctx, cancel := context.WithCancel(context.Background())

	processor := &MQTTStreamProcessor{
		sessionManager:   sessionManager,
		artifacts:        artifacts,
		publisher:        publisher,
		broadcasters:     broadcasters,
		analysisInterval: analysisInterval,
		dataChannel:      make(chan *models.SampleBatch, dataChannelSize),
		ctx:              ctx,
		cancel:           cancel,
	}

	// Запуск воркеров
	processor.wg.Add(2)
	go processor.dataWorker()     // Приём отсчётов
	go processor.analysisWorker() // Живой анализ

	slog.Info("🚀 MQTT Stream Processor запущен", "analysis_interval", analysisInterval)
	return processor
}

// DeviceFromTopic извлекает устройство из топика medical/ecg/{device_id}/samples
func DeviceFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "medical" || parts[1] != "ecg" || parts[3] != "samples" || parts[2] == "" {
		return "", fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	return parts[2], nil
}

// HandleIncomingMQTT главный обработчик MQTT сообщений
func (p *MQTTStreamProcessor) HandleIncomingMQTT(topic string, payload []byte) {
	batch, err := DecodeBatch(topic, payload)
	if err != nil {
		p.countRejected()
		slog.Warn("⚠️ Сообщение отклонено", "topic", topic, "error", err)
		return
	}

	// Отправляем в канал для обработки
	select {
	case p.dataChannel <- batch:
	default:
		p.countRejected()
		slog.Warn("⚠️ Канал данных переполнен, пропускаем сообщение", "device_id", batch.DeviceID)
	}
}

// DecodeBatch разбирает и проверяет сообщение устройства. Устройство из
// топика имеет приоритет над полем в теле.
func DecodeBatch(topic string, payload []byte) (*models.SampleBatch, error) {
	deviceID, err := DeviceFromTopic(topic)
	if err != nil {
		return nil, err
	}

	var batch models.SampleBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, fmt.Errorf("ошибка парсинга MQTT payload: %w", err)
	}
	if batch.DeviceID != "" && batch.DeviceID != deviceID {
		slog.Debug("device_id в теле не совпадает с топиком", "topic", deviceID, "payload", batch.DeviceID)
	}
	batch.DeviceID = deviceID

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return &batch, nil
}

// MessageHandler обработчик для подписки paho
func (p *MQTTStreamProcessor) MessageHandler() mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		p.HandleIncomingMQTT(msg.Topic(), msg.Payload())
	}
}

// dataWorker обрабатывает входящие пачки
func (p *MQTTStreamProcessor) dataWorker() {
	defer p.wg.Done()

	for {
		select {
		case batch := <-p.dataChannel:
			if err := p.ProcessBatch(p.ctx, batch); err != nil {
				slog.Error("❌ Ошибка обработки пачки", "device_id", batch.DeviceID, "error", err)
			}
		case <-p.ctx.Done():
			slog.Info("🛑 Data worker остановлен")
			return
		}
	}
}

// ProcessBatch принимает пачку отсчётов: при необходимости открывает сессию,
// проверяет артефакты, пишет в живой буфер и рассылает сырые отсчёты.
func (p *MQTTStreamProcessor) ProcessBatch(ctx context.Context, batch *models.SampleBatch) error {
	p.statsMu.Lock()
	p.received++
	p.statsMu.Unlock()

	// 1. Проверка активной сессии
	active := p.sessionManager.GetActiveSession(batch.DeviceID)
	if active == nil {
		var err error
		active, err = p.sessionManager.StartSession(ctx, StartParams{
			DeviceID:     batch.DeviceID,
			SamplingRate: batch.SamplingRate,
			LeadType:     batch.LeadType,
		})
		if err != nil {
			return fmt.Errorf("автосессия для %s: %w", batch.DeviceID, err)
		}
		p.artifacts.Reset(batch.DeviceID)
		slog.Info("✅ Автоматически создана сессия для устройства", "device_id", batch.DeviceID)
	}

	// 2. Частота постоянна на всю сессию
	if active.Session.SamplingRate != batch.SamplingRate {
		p.countRejected()
		return fmt.Errorf("%w: %d Гц вместо %d Гц", ErrRateMismatch, batch.SamplingRate, active.Session.SamplingRate)
	}

	samples := batch.ToSamples(active.Session.ID.String())
	p.artifacts.Screen(batch.DeviceID, samples)

	// 3. Живой буфер и хранилище
	res, err := p.sessionManager.Ingest(active, samples)
	switch {
	case errors.Is(err, ecg.ErrOutOfOrderSample):
		slog.Debug("Отброшены опоздавшие отсчёты", "device_id", batch.DeviceID, "dropped", res.Dropped)
	case err != nil:
		return err
	}

	// 4. Сырые отсчёты живым подписчикам
	p.broadcast(&LiveUpdate{
		Kind:      UpdateSamples,
		DeviceID:  batch.DeviceID,
		SessionID: active.Session.ID.String(),
		Samples:   batch.Samples,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// analysisWorker периодически пересчитывает сводки активных сессий
func (p *MQTTStreamProcessor) analysisWorker() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.analysisInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.AnalyzeActive(p.ctx)
		case <-p.ctx.Done():
			slog.Info("🛑 Analysis worker остановлен")
			return
		}
	}
}

// AnalyzeActive анализирует хвост каждой активной сессии, если снимок
// изменился, и рассылает сводки. Возвращает число разосланных сводок.
func (p *MQTTStreamProcessor) AnalyzeActive(ctx context.Context) int {
	sent := 0
	for _, active := range p.sessionManager.GetAllActiveSessions() {
		snap := active.Buffer.Snapshot()
		if snap.Len() == 0 {
			continue
		}

		actx, cancel := context.WithTimeout(ctx, analysisTimeout)
		res, fresh, err := active.Live.Analyze(actx, snap)
		cancel()
		if err != nil {
			slog.Error("Ошибка живого анализа", "session_id", active.Session.ID, "error", err)
			continue
		}
		if !fresh {
			continue
		}

		sum := res.Summary()
		sum.Artifacts += int(p.artifacts.Counts(active.Session.DeviceID).Motion)
		p.broadcast(&LiveUpdate{
			Kind:      UpdateSummary,
			DeviceID:  active.Session.DeviceID,
			SessionID: active.Session.ID.String(),
			Summary:   &sum,
			Timestamp: sum.GeneratedAt,
		})
		if p.publisher != nil {
			if err := p.publisher.PublishLive(sum); err != nil {
				slog.Warn("Не удалось опубликовать сводку", "session_id", active.Session.ID, "error", err)
			}
		}
		sent++
	}
	return sent
}

// SessionEvent колбэк для SessionManager: рассылает событие started/stopped
func (p *MQTTStreamProcessor) SessionEvent(event string) func(*models.ECGSession) {
	return func(session *models.ECGSession) {
		p.broadcast(&LiveUpdate{
			Kind:      UpdateSession,
			DeviceID:  session.DeviceID,
			SessionID: session.ID.String(),
			Event:     event,
			Timestamp: time.Now().UTC(),
		})
	}
}

func (p *MQTTStreamProcessor) broadcast(update *LiveUpdate) {
	for _, b := range p.broadcasters {
		b.Broadcast(update)
	}
}

func (p *MQTTStreamProcessor) countRejected() {
	p.statsMu.Lock()
	p.rejected++
	p.statsMu.Unlock()
}

// Stats количество принятых и отклонённых пачек
func (p *MQTTStreamProcessor) Stats() (received, rejected int64) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.received, p.rejected
}

// Stop останавливает процессор
func (p *MQTTStreamProcessor) Stop() {
	slog.Info("🛑 Остановка MQTT Stream Processor...")
	p.cancel()
	p.wg.Wait()
	slog.Info("✅ MQTT Stream Processor остановлен")
}
