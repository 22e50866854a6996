package ecg

import "errors"

var (
	// ErrInvalidConfiguration ошибка вызывающей стороны: частота дискретизации ≤ 0,
	// отрицательные окна, пустые обязательные поля. Частичный результат не возвращается.
	ErrInvalidConfiguration = errors.New("ecg: invalid configuration")

	// ErrInsufficientData данных недостаточно для метрики. Не фатальна:
	// метрика помечается как недоступная, остальной конвейер продолжает работу.
	ErrInsufficientData = errors.New("ecg: insufficient data")

	// ErrOutOfOrderSample в потоке: отсчёт опоздал для переупорядочивания и
	// отброшен с учётом в счётчике; в готовой записи: порядок нарушен, запись отклонена.
	ErrOutOfOrderSample = errors.New("ecg: out of order sample")
)
