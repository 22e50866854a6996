package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

const (
	// JSONCodecName подтип content-type для сообщений потока
	JSONCodecName    = "json"
	subscriberBuffer = 1000
)

// jsonCodec кодек gRPC поверх encoding/json: сообщения потока это
// обычные структуры LiveUpdate, без сгенерированных protobuf-типов
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return JSONCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// SubscribeRequest фильтр подписки; пустой список означает "все"
type SubscribeRequest struct {
	DeviceIDs []string `json:"device_ids"`
	Kinds     []string `json:"kinds"`
}

func (r *SubscribeRequest) matches(update *LiveUpdate) bool {
	if len(r.DeviceIDs) > 0 && !slices.Contains(r.DeviceIDs, update.DeviceID) {
		return false
	}
	if len(r.Kinds) > 0 && !slices.Contains(r.Kinds, update.Kind) {
		return false
	}
	return true
}

func (r *SubscribeRequest) validate() error {
	for _, k := range r.Kinds {
		switch k {
		case UpdateSamples, UpdateSummary, UpdateSession:
		default:
			return status.Errorf(codes.InvalidArgument, "unknown update kind %q", k)
		}
	}
	return nil
}

// ECGStreamService серверная часть сервиса ecg.ECGStream
type ECGStreamService interface {
	Subscribe(*SubscribeRequest, ECGStreamSubscribeServer) error
}

// ECGStreamSubscribeServer серверный поток Subscribe
type ECGStreamSubscribeServer interface {
	Send(*LiveUpdate) error
	grpc.ServerStream
}

type ecgStreamSubscribeServer struct {
	grpc.ServerStream
}

func (x *ecgStreamSubscribeServer) Send(m *LiveUpdate) error {
	return x.ServerStream.SendMsg(m)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ECGStreamService).Subscribe(m, &ecgStreamSubscribeServer{stream})
}

// ECGStreamServiceDesc описание сервиса для grpc.Server.RegisterService
var ECGStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: "ecg.ECGStream",
	HandlerType: (*ECGStreamService)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "ecg_stream",
}

const subscribeMethod = "/ecg.ECGStream/Subscribe"

type subscriber struct {
	req *SubscribeRequest
	ch  chan *LiveUpdate
}

// ECGStreamServer рассылает живые обновления gRPC-подписчикам
type ECGStreamServer struct {
	subscribers map[string]*subscriber
	mu          sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
}

// NewECGStreamServer создание нового сервера
func NewECGStreamServer() *ECGStreamServer {
	return &ECGStreamServer{
		subscribers: make(map[string]*subscriber),
		done:        make(chan struct{}),
	}
}

// Register регистрирует сервис на grpc-сервере
func (s *ECGStreamServer) Register(gs *grpc.Server) {
	gs.RegisterService(&ECGStreamServiceDesc, s)
}

// Subscribe стриминг обновлений клиенту до отключения
func (s *ECGStreamServer) Subscribe(req *SubscribeRequest, stream ECGStreamSubscribeServer) error {
	if err := req.validate(); err != nil {
		return err
	}

	clientID := uuid.NewString()
	sub := &subscriber{req: req, ch: make(chan *LiveUpdate, subscriberBuffer)}

	s.mu.Lock()
	s.subscribers[clientID] = sub
	s.mu.Unlock()
	slog.Info("🌊 Новый стриминг клиент", "client_id", clientID, "devices", req.DeviceIDs, "kinds", req.Kinds)

	// Очистка при отключении клиента
	defer func() {
		s.mu.Lock()
		delete(s.subscribers, clientID)
		s.mu.Unlock()
		slog.Info("🔌 Клиент отключен", "client_id", clientID)
	}()

	for {
		select {
		case update := <-sub.ch:
			if err := stream.Send(update); err != nil {
				slog.Error("❌ Ошибка отправки данных клиенту", "client_id", clientID, "error", err)
				return err
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-s.done:
			return status.Error(codes.Unavailable, "server is shutting down")
		}
	}
}

// Broadcast рассылка обновления подписчикам; медленные клиенты пропускают данные
func (s *ECGStreamServer) Broadcast(update *LiveUpdate) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for clientID, sub := range s.subscribers {
		if !sub.req.matches(update) {
			continue
		}
		select {
		case sub.ch <- update:
		default:
			slog.Warn("⚠️ Канал клиента переполнен, пропускаем данные", "client_id", clientID)
		}
	}
}

// SubscriberCount количество подключённых клиентов
func (s *ECGStreamServer) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Stop завершает все открытые потоки
func (s *ECGStreamServer) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// StreamClient клиент сервиса ecg.ECGStream
type StreamClient struct {
	cc grpc.ClientConnInterface
}

// NewStreamClient создает клиента поверх соединения
func NewStreamClient(cc grpc.ClientConnInterface) *StreamClient {
	return &StreamClient{cc: cc}
}

// UpdateStream клиентская сторона потока Subscribe
type UpdateStream struct {
	grpc.ClientStream
}

// Recv следующее обновление
func (x *UpdateStream) Recv() (*LiveUpdate, error) {
	m := new(LiveUpdate)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Subscribe открывает поток обновлений с фильтром req
func (c *StreamClient) Subscribe(ctx context.Context, req *SubscribeRequest, opts ...grpc.CallOption) (*UpdateStream, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ECGStreamServiceDesc.Streams[0], subscribeMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &UpdateStream{stream}, nil
}
