package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"ECG_monitor/internal/database"
	"ECG_monitor/internal/ecg"
	"ECG_monitor/internal/middleware"
	"ECG_monitor/internal/models"
)

// @title ECG Monitor API
// @version 1.0
// @description API сервиса мониторинга ЭКГ: сессии, живые сводки ЧСС/ВСР и кадры для отрисовки

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access-токен сервиса авторизации: Bearer <token>

// @tag.name sessions
// @tag.description Управление сессиями мониторинга

// @tag.name analysis
// @tag.description Анализ записей ЭКГ

// @tag.name monitoring
// @tag.description Мониторинг состояния сервиса

const (
	defaultListLimit   = 50
	defaultFrameWidth  = 1000
	defaultFrameHeight = 400
	requestTimeout     = 30 * time.Second
)

// RESTAPIServer обрабатывает REST API запросы
type RESTAPIServer struct {
	sessionManager *SessionManager
	reporter       *Reporter
	mqttProcessor  *MQTTStreamProcessor
	grpcStreamer   *ECGStreamServer
	hub            *Hub
	healthCheck    func() error
	auth           gin.HandlerFunc
}

// SessionRequest запрос для создания сессии
// @Description Данные для создания новой сессии мониторинга
type SessionRequest struct {
	DeviceID     string `json:"device_id" binding:"required" example:"H10-001"` // Идентификатор датчика
	UserID       string `json:"user_id" example:"patient-42"`                   // Пользователь
	SamplingRate int    `json:"sampling_rate" binding:"required,gt=0" example:"130"`
	LeadType     string `json:"lead_type" example:"chest"`
}

// SessionResponse ответ с информацией о сессии
// @Description Информация о сессии мониторинга ЭКГ
type SessionResponse struct {
	SessionID    string     `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	DeviceID     string     `json:"device_id" example:"H10-001"`
	UserID       string     `json:"user_id,omitempty" example:"patient-42"`
	SamplingRate int        `json:"sampling_rate" example:"130"`
	LeadType     string     `json:"lead_type,omitempty" example:"chest"`
	Status       string     `json:"status" example:"active" enums:"active,stopped"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Duration     int        `json:"duration" example:"5400"` // секунды
	SampleCount  int        `json:"sample_count" example:"702000"`
	HeartRate    *int       `json:"heart_rate,omitempty" example:"64"`
	SDNN         *float64   `json:"sdnn,omitempty"`
	RMSSD        *float64   `json:"rmssd,omitempty"`
	PNN50        *float64   `json:"pnn50,omitempty"`
	Analysis     string     `json:"analysis,omitempty" example:"ok"` // статус последнего отчёта
}

// SessionListResponse список сессий
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count" example:"3"`
}

// SummaryResponse сводка сессии
// @Description Сводка ЧСС и ВСР; live=true для активной сессии (скользящее окно)
type SummaryResponse struct {
	Live    bool        `json:"live"`
	Summary ecg.Summary `json:"summary"`
	Quality ecg.Quality `json:"quality"`
}

// AnalyzeRequest запись для разового анализа
// @Description Отсчёты одной записи; config необязателен
type AnalyzeRequest struct {
	SessionID    string               `json:"session_id" example:"adhoc"`
	DeviceID     string               `json:"device_id" example:"upload"`
	SamplingRate int                  `json:"sampling_rate" binding:"required,gt=0" example:"130"`
	LeadType     string               `json:"lead_type" example:"chest"`
	Config       *ecg.Config          `json:"config"`
	Samples      []models.SamplePoint `json:"samples" binding:"required"`
}

// AnalyzeResponse результат разового анализа
type AnalyzeResponse struct {
	Summary ecg.Summary `json:"summary"`
	Peaks   []int64     `json:"peaks"` // sample_index R-пиков
	Quality ecg.Quality `json:"quality"`
}

// DevicesResponse список устройств
// @Description Список всех известных датчиков
type DevicesResponse struct {
	Devices []string `json:"devices" example:"H10-001,H10-002"`
	Count   int      `json:"count" example:"2"`
}

// HealthResponse состояние сервиса
// @Description Информация о состоянии и работоспособности сервиса
type HealthResponse struct {
	Status         string    `json:"status" example:"healthy" enums:"healthy,degraded"`
	Service        string    `json:"service" example:"ECG Monitor"`
	Timestamp      time.Time `json:"timestamp"`
	ActiveSessions int       `json:"active_sessions" example:"3"`
	Database       string    `json:"database" example:"ok"`
}

// CleanupResponse результат очистки сессий
// @Description Результат операции очистки зависших сессий
type CleanupResponse struct {
	Message        string `json:"message" example:"Очистка сессий выполнена"`
	Stopped        int    `json:"stopped" example:"1"`
	ActiveSessions int    `json:"active_sessions" example:"2"`
}

// StatsResponse статистика потоков
type StatsResponse struct {
	Sessions        Statistics `json:"sessions"`
	BatchesReceived int64      `json:"batches_received"`
	BatchesRejected int64      `json:"batches_rejected"`
	SamplesWritten  int64      `json:"samples_written"`
	WriteFailures   int64      `json:"write_failures"`
	GRPCSubscribers int        `json:"grpc_subscribers"`
	WSClients       int        `json:"ws_clients"`
}

// ErrorResponse стандартный ответ об ошибке
// @Description Стандартная структура ответа об ошибке
type ErrorResponse struct {
	Error   string `json:"error" example:"Неверный формат данных"`
	Details string `json:"details,omitempty" example:"field required"`
}

// SuccessResponse стандартный ответ об успехе
// @Description Стандартная структура успешного ответа
type SuccessResponse struct {
	Message string      `json:"message" example:"Операция выполнена успешно"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRESTAPIServer создает новый REST API сервер. healthCheck проверяет
// хранилище и может быть nil.
func NewRESTAPIServer(
	sessionManager *SessionManager,
	reporter *Reporter,
	mqttProcessor *MQTTStreamProcessor,
	grpcStreamer *ECGStreamServer,
	hub *Hub,
	healthCheck func() error,
) *RESTAPIServer {
	return &RESTAPIServer{
		sessionManager: sessionManager,
		reporter:       reporter,
		mqttProcessor:  mqttProcessor,
		grpcStreamer:   grpcStreamer,
		hub:            hub,
		healthCheck:    healthCheck,
	}
}

// SetAuth включает проверку токена для всех маршрутов, кроме health, stats и swagger
func (api *RESTAPIServer) SetAuth(auth gin.HandlerFunc) {
	api.auth = auth
}

// SetupRoutes настраивает маршруты REST API
func (api *RESTAPIServer) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Middleware
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:80"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	// Живой поток для панели
	if api.hub != nil {
		r.GET("/ws", api.guarded(api.hub.ServeWS)...)
	}

	root := r.Group("/api/v1")
	apiGroup := root.Group("", api.guarded()...)

	// === УПРАВЛЕНИЕ СЕССИЯМИ ===
	sessions := apiGroup.Group("/sessions")
	{
		sessions.GET("", api.ListSessions)
		sessions.POST("/start", api.StartSession)
		sessions.POST("/stop/:session_id", api.StopSession)
		sessions.GET("/active", api.GetActiveSessions)
		sessions.GET("/:session_id", api.GetSession)
		sessions.GET("/:session_id/summary", api.GetSessionSummary)
		sessions.GET("/:session_id/display", api.GetSessionDisplay)
		sessions.POST("/:session_id/report", api.RebuildReport)
	}

	// === АНАЛИЗ ===
	apiGroup.POST("/analyze", api.AnalyzeRecording)

	// === УСТРОЙСТВА ===
	apiGroup.GET("/devices", api.GetDevices)

	// === МОНИТОРИНГ СЕРВИСА ===
	monitoring := root.Group("/monitoring")
	{
		monitoring.GET("/health", api.HealthCheck)
		monitoring.POST("/cleanup", api.guarded(api.CleanupSessions)...)
		monitoring.GET("/stats", api.GetStats)
	}

	return r
}

// StartSession запускает новую сессию мониторинга
// @Summary Запуск новой сессии мониторинга ЭКГ
// @Description Создает новую сессию для датчика; частота дискретизации фиксируется на всю сессию
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body SessionRequest true "Данные для создания сессии"
// @Success 200 {object} SuccessResponse{data=SessionResponse} "Сессия успешно запущена"
// @Failure 400 {object} ErrorResponse "Неверный формат данных"
// @Failure 409 {object} ErrorResponse "Сессия для устройства уже активна"
// @Failure 500 {object} ErrorResponse "Внутренняя ошибка сервера"
// @Router /sessions/start [post]
func (api *RESTAPIServer) StartSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Неверный формат данных",
			Details: err.Error(),
		})
		return
	}

	active, err := api.sessionManager.StartSession(c.Request.Context(), StartParams{
		DeviceID:     req.DeviceID,
		UserID:       orDefault(req.UserID, c.GetString(middleware.ContextUserID)),
		SamplingRate: req.SamplingRate,
		LeadType:     req.LeadType,
	})
	if err != nil {
		respondError(c, "Не удалось создать сессию", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Сессия успешно запущена",
		Data:    newSessionResponse(active.Session),
	})
}

// StopSession завершает активную сессию
// @Summary Завершение активной сессии мониторинга
// @Description Выпускает ожидающие отсчёты, сохраняет их и ставит сессию в очередь отчётов
// @Tags sessions
// @Produce json
// @Param session_id path string true "UUID сессии" format(uuid)
// @Success 200 {object} SuccessResponse{data=SessionResponse} "Сессия успешно завершена"
// @Failure 400 {object} ErrorResponse "Неверный ID сессии"
// @Failure 404 {object} ErrorResponse "Сессия не найдена"
// @Router /sessions/stop/{session_id} [post]
func (api *RESTAPIServer) StopSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	session, err := api.sessionManager.StopSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, "Сессия не найдена или уже завершена", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Сессия успешно завершена",
		Data:    newSessionResponse(session),
	})
}

// GetActiveSessions список активных сессий
// @Summary Активные сессии
// @Tags sessions
// @Produce json
// @Success 200 {object} SessionListResponse
// @Router /sessions/active [get]
func (api *RESTAPIServer) GetActiveSessions(c *gin.Context) {
	active := api.sessionManager.GetAllActiveSessions()
	resp := SessionListResponse{Sessions: make([]SessionResponse, 0, len(active))}
	for _, a := range active {
		r := newSessionResponse(a.Session)
		r.SampleCount = a.Buffer.Snapshot().Len()
		resp.Sessions = append(resp.Sessions, r)
	}
	resp.Count = len(resp.Sessions)
	c.JSON(http.StatusOK, resp)
}

// ListSessions последние сессии из хранилища
// @Summary Список сессий
// @Tags sessions
// @Produce json
// @Param device_id query string false "Фильтр по устройству"
// @Param limit query int false "Максимум записей" default(50)
// @Success 200 {object} SessionListResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions [get]
func (api *RESTAPIServer) ListSessions(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Неверный limit", Details: raw})
			return
		}
		limit = n
	}

	sessions, err := api.sessionManager.ListSessions(c.Request.Context(), c.Query("device_id"), limit)
	if err != nil {
		respondError(c, "Не удалось получить сессии", err)
		return
	}

	resp := SessionListResponse{Sessions: make([]SessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, newSessionResponse(s))
	}
	resp.Count = len(resp.Sessions)
	c.JSON(http.StatusOK, resp)
}

// GetSession сессия по ID
// @Summary Информация о сессии
// @Tags sessions
// @Produce json
// @Param session_id path string true "UUID сессии" format(uuid)
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{session_id} [get]
func (api *RESTAPIServer) GetSession(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	if active := api.sessionManager.GetActiveByID(sessionID); active != nil {
		r := newSessionResponse(active.Session)
		r.SampleCount = active.Buffer.Snapshot().Len()
		c.JSON(http.StatusOK, r)
		return
	}

	session, err := api.sessionManager.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, "Сессия не найдена", err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// GetSessionSummary сводка ЧСС и ВСР
// @Summary Сводка сессии
// @Description Для активной сессии считается по скользящему окну, для завершённой по всей записи
// @Tags analysis
// @Produce json
// @Param session_id path string true "UUID сессии" format(uuid)
// @Success 200 {object} SummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{session_id}/summary [get]
func (api *RESTAPIServer) GetSessionSummary(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	res, live, err := api.analyzeSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, "Не удалось построить сводку", err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{Live: live, Summary: res.Summary(), Quality: res.Quality})
}

// GetSessionDisplay кадр для отрисовки
// @Summary Кадр ЭКГ для отрисовки
// @Description Сжимает очищенный сигнал до штрихов min/max по ширине экрана и возвращает сетку бумаги
// @Tags analysis
// @Produce json
// @Param session_id path string true "UUID сессии" format(uuid)
// @Param width query int false "Ширина в пикселях" default(1000)
// @Param height query int false "Высота в пикселях" default(400)
// @Param paper_speed query int false "Скорость бумаги, мм/с (0, 25, 50)" default(0)
// @Param pixels_per_mm query number false "Пикселей на мм" default(4)
// @Param offset query int false "Первый отсчёт кадра" default(0)
// @Success 200 {object} ecg.DisplayFrame
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{session_id}/display [get]
func (api *RESTAPIServer) GetSessionDisplay(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	opts, err := parseDisplayOptions(c, api.sessionManager.Filters().PaperSpeedMmPerSec)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Неверные параметры кадра", Details: err.Error()})
		return
	}

	res, _, err := api.analyzeSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, "Не удалось построить кадр", err)
		return
	}

	frame, err := ecg.Render(ecg.Voltages(res.Cleaned), res.Info.SamplingRate, opts)
	if err != nil {
		respondError(c, "Не удалось построить кадр", err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

// RebuildReport пересчитывает отчёт завершённой сессии
// @Summary Пересчёт отчёта
// @Tags analysis
// @Produce json
// @Param session_id path string true "UUID сессии" format(uuid)
// @Success 200 {object} SuccessResponse{data=ecg.Summary}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Сессия ещё активна"
// @Router /sessions/{session_id}/report [post]
func (api *RESTAPIServer) RebuildReport(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}
	if api.sessionManager.GetActiveByID(sessionID) != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Сессия ещё активна"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()
	sum, err := api.reporter.Report(ctx, sessionID)
	if err != nil {
		respondError(c, "Не удалось построить отчёт", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Отчёт построен", Data: sum})
}

// AnalyzeRecording разовый анализ присланной записи
// @Summary Анализ записи
// @Description Прогоняет отсчёты через фильтры, детектор пиков и оценку ритма без сохранения
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Запись"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} ErrorResponse
// @Router /analyze [post]
func (api *RESTAPIServer) AnalyzeRecording(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Неверный формат данных",
			Details: err.Error(),
		})
		return
	}

	batch := models.SampleBatch{
		DeviceID:     orDefault(req.DeviceID, "upload"),
		SamplingRate: req.SamplingRate,
		LeadType:     req.LeadType,
		Samples:      req.Samples,
	}
	sessionID := orDefault(req.SessionID, "adhoc")
	rec := ecg.Recording{
		SessionInfo: ecg.SessionInfo{
			SessionID:    sessionID,
			SamplingRate: batch.SamplingRate,
			LeadType:     batch.LeadType,
			DeviceID:     batch.DeviceID,
		},
		Samples: batch.ToSamples(sessionID),
	}

	cfg := api.sessionManager.Filters()
	if req.Config != nil {
		cfg = *req.Config
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()
	res, err := ecg.Analyze(ctx, rec, cfg)
	if err != nil {
		respondError(c, "Не удалось проанализировать запись", err)
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		Summary: res.Summary(),
		Peaks:   res.PeakSampleIndices(),
		Quality: res.Quality,
	})
}

// GetDevices список устройств
// @Summary Список устройств
// @Tags sessions
// @Produce json
// @Success 200 {object} DevicesResponse
// @Router /devices [get]
func (api *RESTAPIServer) GetDevices(c *gin.Context) {
	devices, err := api.sessionManager.GetAllDevices(c.Request.Context())
	if err != nil {
		respondError(c, "Не удалось получить устройства", err)
		return
	}
	if devices == nil {
		devices = []string{}
	}
	c.JSON(http.StatusOK, DevicesResponse{Devices: devices, Count: len(devices)})
}

// HealthCheck проверка здоровья сервиса
// @Summary Проверка состояния сервиса
// @Description Возвращает информацию о текущем состоянии сервиса мониторинга ЭКГ
// @Tags monitoring
// @Produce json
// @Success 200 {object} HealthResponse "Состояние сервиса"
// @Failure 503 {object} HealthResponse "Хранилище недоступно"
// @Router /monitoring/health [get]
func (api *RESTAPIServer) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:         "healthy",
		Service:        "ECG Monitor",
		Timestamp:      time.Now().UTC(),
		ActiveSessions: api.sessionManager.GetActiveSessionCount(),
		Database:       "ok",
	}
	code := http.StatusOK
	if api.healthCheck != nil {
		if err := api.healthCheck(); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, resp)
}

// CleanupSessions очистка зависших сессий
// @Summary Очистка зависших сессий
// @Description Завершает сессии старше max_age (по умолчанию сутки)
// @Tags monitoring
// @Produce json
// @Param max_age query string false "Возраст сессии, например 12h"
// @Success 200 {object} CleanupResponse "Результат очистки"
// @Failure 400 {object} ErrorResponse
// @Router /monitoring/cleanup [post]
func (api *RESTAPIServer) CleanupSessions(c *gin.Context) {
	var maxAge time.Duration
	if raw := c.Query("max_age"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Неверный max_age", Details: raw})
			return
		}
		maxAge = d
	}

	stopped := api.sessionManager.CleanupInactiveSessions(c.Request.Context(), maxAge)
	c.JSON(http.StatusOK, CleanupResponse{
		Message:        "Очистка сессий выполнена",
		Stopped:        stopped,
		ActiveSessions: api.sessionManager.GetActiveSessionCount(),
	})
}

// GetStats статистика потоков
// @Summary Статистика сервиса
// @Tags monitoring
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /monitoring/stats [get]
func (api *RESTAPIServer) GetStats(c *gin.Context) {
	resp := StatsResponse{Sessions: api.sessionManager.GetSessionStatistics(c.Request.Context())}
	if api.mqttProcessor != nil {
		resp.BatchesReceived, resp.BatchesRejected = api.mqttProcessor.Stats()
	}
	if db := api.sessionManager.dataBuffer; db != nil {
		resp.SamplesWritten, resp.WriteFailures = db.Stats()
	}
	if api.grpcStreamer != nil {
		resp.GRPCSubscribers = api.grpcStreamer.SubscriberCount()
	}
	if api.hub != nil {
		resp.WSClients = api.hub.Count()
	}
	c.JSON(http.StatusOK, resp)
}

// analyzeSession результат для активной сессии (живое окно) или завершённой (вся запись)
func (api *RESTAPIServer) analyzeSession(ctx context.Context, sessionID uuid.UUID) (*ecg.Result, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if active := api.sessionManager.GetActiveByID(sessionID); active != nil {
		res, _, err := active.Live.Analyze(ctx, active.Buffer.Snapshot())
		return res, true, err
	}

	_, res, err := api.reporter.Build(ctx, sessionID, nil)
	return res, false, err
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Неверный ID сессии"})
		return uuid.Nil, false
	}
	return id, true
}

func parseDisplayOptions(c *gin.Context, paperSpeed int) (ecg.DisplayOptions, error) {
	opts := ecg.DisplayOptions{
		Width:              defaultFrameWidth,
		Height:             defaultFrameHeight,
		PaperSpeedMmPerSec: paperSpeed,
		PixelsPerMM:        ecg.DefaultPixelsPerMM,
	}

	ints := map[string]*int{
		"width":       &opts.Width,
		"height":      &opts.Height,
		"paper_speed": &opts.PaperSpeedMmPerSec,
		"offset":      &opts.Offset,
	}
	for name, dst := range ints {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, errors.New(name + ": " + err.Error())
		}
		*dst = n
	}
	if raw := c.Query("pixels_per_mm"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.New("pixels_per_mm: " + err.Error())
		}
		opts.PixelsPerMM = f
	}
	if opts.Width <= 0 || opts.Width > ecg.MaxDisplayWidth {
		return opts, errors.New("width: must be in 1.." + strconv.Itoa(ecg.MaxDisplayWidth))
	}
	if opts.Height <= 0 || opts.Height > ecg.MaxDisplayHeight {
		return opts, errors.New("height: must be in 1.." + strconv.Itoa(ecg.MaxDisplayHeight))
	}
	return opts, nil
}

// respondError сопоставляет ошибку домена с HTTP-статусом
func respondError(c *gin.Context, msg string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ecg.ErrInvalidConfiguration), errors.Is(err, ecg.ErrOutOfOrderSample),
		errors.Is(err, ErrRateMismatch):
		code = http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, database.ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrSessionActive):
		code = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	c.JSON(code, ErrorResponse{Error: msg, Details: err.Error()})
}

func newSessionResponse(s *models.ECGSession) SessionResponse {
	r := SessionResponse{
		SessionID:    s.ID.String(),
		DeviceID:     s.DeviceID,
		UserID:       s.UserID,
		SamplingRate: s.SamplingRate,
		LeadType:     s.LeadType,
		Status:       "active",
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		SampleCount:  s.SampleCount,
		HeartRate:    s.HeartRate,
		SDNN:         s.SDNN,
		RMSSD:        s.RMSSD,
		PNN50:        s.PNN50,
		Analysis:     s.Status,
	}
	if s.EndTime != nil {
		r.Status = "stopped"
		r.Duration = int(s.EndTime.Sub(s.StartTime).Seconds())
	} else {
		r.Duration = int(time.Since(s.StartTime).Seconds())
	}
	return r
}

// guarded добавляет проверку токена перед обработчиками, если она включена
func (api *RESTAPIServer) guarded(hs ...gin.HandlerFunc) []gin.HandlerFunc {
	if api.auth == nil {
		return hs
	}
	return append([]gin.HandlerFunc{api.auth}, hs...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
