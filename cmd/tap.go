package main

import (
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"ECG_monitor/configs"
	"ECG_monitor/internal/handlers"
	"ECG_monitor/internal/models"
	"ECG_monitor/internal/mqtt_client"
)

// newTapCmd слушатель MQTT для отладки датчиков: печатает каждую пачку, не трогая сервис
func newTapCmd() *cobra.Command {
	cfg := configs.MQTTConfig{QoS: 1}
	cmd := &cobra.Command{
		Use:   "tap",
		Short: "Слушать пачки отсчётов датчиков в MQTT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.ClientID == "" {
				cfg.ClientID = fmt.Sprintf("ecg-tap-%d", time.Now().Unix())
			}
			client, err := mqtt_client.InitClient(cfg, tapHandler(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer client.Disconnect(250)

			fmt.Fprintf(cmd.ErrOrStderr(), "📬 Подписан на %s, Ctrl+C для выхода\n", cfg.Topic)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "адрес MQTT брокера")
	cmd.Flags().StringVar(&cfg.Topic, "topic", "medical/ecg/+/samples", "топик подписки")
	cmd.Flags().StringVar(&cfg.Username, "username", "", "пользователь MQTT")
	cmd.Flags().StringVar(&cfg.Password, "password", "", "пароль MQTT")
	return cmd
}

func tapHandler(out io.Writer) mqtt.MessageHandler {
	var mu sync.Mutex
	return func(_ mqtt.Client, msg mqtt.Message) {
		line := tapLine(msg.Topic(), msg.Payload())
		mu.Lock()
		fmt.Fprintln(out, line)
		mu.Unlock()
	}
}

// tapLine одна строка вывода на сообщение
func tapLine(topic string, payload []byte) string {
	batch, err := handlers.DecodeBatch(topic, payload)
	if err != nil {
		return fmt.Sprintf("⚠️  %s: %v", topic, err)
	}
	return formatBatch(batch)
}

func formatBatch(b *models.SampleBatch) string {
	if len(b.Samples) == 0 {
		return fmt.Sprintf("%s: пустая пачка (%d Гц)", b.DeviceID, b.SamplingRate)
	}
	first, last := b.Samples[0], b.Samples[len(b.Samples)-1]
	lo, hi := first.Voltage, first.Voltage
	for _, p := range b.Samples {
		lo = min(lo, p.Voltage)
		hi = max(hi, p.Voltage)
	}
	return fmt.Sprintf("%s: %d отсчётов [%d..%d] %d Гц, %.3f..%.3f мВ",
		b.DeviceID, len(b.Samples), first.Index, last.Index, b.SamplingRate, lo, hi)
}
