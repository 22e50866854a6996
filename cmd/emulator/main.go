// Эмулятор нагрудного датчика ЭКГ: генерирует синтетический сигнал и
// публикует пачки отсчётов в MQTT, как это делает реальное устройство.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"ECG_monitor/configs"
	"ECG_monitor/internal/ecgsim"
	"ECG_monitor/internal/models"
	"ECG_monitor/internal/mqtt_client"
)

const publishTimeout = 2 * time.Second

type emulatorOptions struct {
	broker   string
	devices  []string
	lead     string
	batch    int
	duration time.Duration
	speed    float64
	sim      ecgsim.Options
}

// publishFunc отправляет одно сообщение в топик
type publishFunc func(topic string, payload []byte) error

func main() {
	opts := emulatorOptions{sim: ecgsim.DefaultOptions()}

	root := &cobra.Command{
		Use:   "ecg-emulator",
		Short: "Эмулятор нагрудного датчика ЭКГ (MQTT)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
		SilenceUsage: true,
	}

	f := root.Flags()
	f.StringVar(&opts.broker, "broker", "tcp://localhost:1883", "адрес MQTT брокера")
	f.StringSliceVar(&opts.devices, "device", []string{"strap-01"}, "идентификаторы эмулируемых датчиков")
	f.StringVar(&opts.lead, "lead", "chest", "тип отведения")
	f.IntVar(&opts.batch, "batch", 13, "отсчётов в одном сообщении")
	f.DurationVar(&opts.duration, "duration", 0, "длительность записи, 0 означает до остановки")
	f.Float64Var(&opts.speed, "speed", 1, "множитель скорости воспроизведения")
	f.IntVar(&opts.sim.SamplingRate, "rate", opts.sim.SamplingRate, "частота дискретизации, Гц")
	f.Float64Var(&opts.sim.HeartRateBPM, "bpm", opts.sim.HeartRateBPM, "частота сердечных сокращений")
	f.Float64Var(&opts.sim.RRVariationSec, "rr-variation", 0.02, "чередование RR-интервалов, с")
	f.Float64Var(&opts.sim.NoiseMV, "noise", opts.sim.NoiseMV, "амплитуда шума, мВ")
	f.Float64Var(&opts.sim.DriftMV, "drift", opts.sim.DriftMV, "амплитуда дрейфа изолинии, мВ")
	f.Float64Var(&opts.sim.PowerlineMV, "powerline", opts.sim.PowerlineMV, "амплитуда сетевой наводки, мВ")
	f.Float64Var(&opts.sim.PowerlineHz, "mains", opts.sim.PowerlineHz, "частота сети, Гц")

	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts emulatorOptions) error {
	if opts.batch <= 0 || opts.sim.SamplingRate <= 0 || opts.speed <= 0 {
		return fmt.Errorf("batch, rate и speed должны быть положительными")
	}
	configs.InitLogger("info", "development")

	client, err := mqtt_client.InitClient(configs.MQTTConfig{
		Broker:   opts.broker,
		ClientID: fmt.Sprintf("ecg-device-%d", time.Now().Unix()),
	}, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	publish := func(topic string, payload []byte) error {
		return publishMQTT(client, topic, payload)
	}

	var wg sync.WaitGroup
	for _, device := range opts.devices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sent, err := emulateDevice(ctx, publish, device, opts)
			if err != nil {
				slog.Error("Эмуляция прервана", "device_id", device, "sent", sent, "error", err)
				return
			}
			slog.Info("✅ Эмуляция завершена", "device_id", device, "batches", sent)
		}()
	}
	wg.Wait()
	return nil
}

func publishMQTT(client mqtt.Client, topic string, payload []byte) error {
	token := client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("таймаут отправки MQTT")
	}
	return token.Error()
}

// totalBatches число пачек для заданной длительности; 0 означает без ограничения
func totalBatches(duration time.Duration, rate, batch int) int {
	if duration <= 0 {
		return 0
	}
	samples := int(duration.Seconds() * float64(rate))
	return (samples + batch - 1) / batch
}

// emulateDevice публикует пачки одного датчика в темпе реального времени
// (с учётом speed), пока не истечёт duration или не отменится ctx.
func emulateDevice(ctx context.Context, publish publishFunc, deviceID string, opts emulatorOptions) (int, error) {
	gen := ecgsim.New(opts.sim)
	topic := mqtt_client.SampleTopic(deviceID)
	limit := totalBatches(opts.duration, opts.sim.SamplingRate, opts.batch)
	start := time.Now()

	interval := time.Duration(float64(opts.batch) / float64(opts.sim.SamplingRate) / opts.speed * float64(time.Second))
	ticker := time.NewTicker(max(interval, time.Microsecond))
	defer ticker.Stop()

	slog.Info("Эмуляция начата", "device_id", deviceID, "topic", topic,
		"rate", opts.sim.SamplingRate, "bpm", opts.sim.HeartRateBPM, "batches", limit)

	sent := 0
	for limit == 0 || sent < limit {
		idx, ts, mv := gen.Batch(opts.batch, start)
		payload, err := json.Marshal(models.NewSampleBatch(deviceID, opts.sim.SamplingRate, opts.lead, idx, ts, mv))
		if err != nil {
			return sent, fmt.Errorf("ошибка сериализации JSON: %w", err)
		}
		if err := publish(topic, payload); err != nil {
			return sent, err
		}
		sent++

		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}
	return sent, nil
}
