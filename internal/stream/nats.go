package stream

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"ECG_monitor/internal/ecg"
)

// Connect подключается к NATS с бесконечным переподключением
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("ecg-monitor"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// Conn часть *nats.Conn, нужная издателю
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher публикует сводки анализа в шину событий в msgpack
type Publisher struct {
	conn   Conn
	prefix string
}

// NewPublisher создает издателя; prefix задаёт первый сегмент субъектов
func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = "ecg"
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// LiveSubject субъект живых сводок устройства
func (p *Publisher) LiveSubject(deviceID string) string {
	return p.prefix + ".live." + sanitizeToken(deviceID)
}

// ReportSubject субъект итоговых отчётов по сессиям
func (p *Publisher) ReportSubject() string {
	return p.prefix + ".report"
}

// PublishLive публикует сводку по живому окну
func (p *Publisher) PublishLive(sum ecg.Summary) error {
	return p.publish(p.LiveSubject(sum.DeviceID), sum)
}

// PublishReport публикует итог завершённой сессии
func (p *Publisher) PublishReport(sum ecg.Summary) error {
	return p.publish(p.ReportSubject(), sum)
}

func (p *Publisher) publish(subject string, sum ecg.Summary) error {
	data, err := Encode(sum)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Encode сериализует сводку в msgpack
func Encode(sum ecg.Summary) ([]byte, error) {
	data, err := msgpack.Marshal(&sum)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return data, nil
}

// Decode обратная операция для подписчиков
func Decode(data []byte) (ecg.Summary, error) {
	var sum ecg.Summary
	if err := msgpack.Unmarshal(data, &sum); err != nil {
		return ecg.Summary{}, fmt.Errorf("msgpack decode: %w", err)
	}
	return sum, nil
}

// sanitizeToken убирает символы, недопустимые в токене субъекта NATS
func sanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}
