package mqtt_client

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ECG_monitor/configs"
)

const connectTimeout = 10 * time.Second

// SampleTopic топик пачек отсчётов датчика
func SampleTopic(deviceID string) string {
	return "medical/ecg/" + deviceID + "/samples"
}

// NewClientOptions опции клиента. Если handler задан, подписка на cfg.Topic
// выполняется при каждом подключении, поэтому переживает переподключения.
func NewClientOptions(cfg configs.MQTTConfig, handler mqtt.MessageHandler) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("listener-%d", time.Now().Unix())
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
		slog.Info("MQTT аутентификация", "user", cfg.Username)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(connectTimeout)

	opts.OnConnect = func(client mqtt.Client) {
		slog.Info("MQTT подключен", "broker", cfg.Broker)
		if handler == nil {
			return
		}
		token := client.Subscribe(cfg.Topic, byte(cfg.QoS), handler)
		if token.Wait() && token.Error() != nil {
			slog.Error("Ошибка подписки MQTT", "topic", cfg.Topic, "error", token.Error())
			return
		}
		slog.Info("Подписан на топик", "topic", cfg.Topic, "qos", cfg.QoS)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("MQTT соединение потеряно", "error", err)
	}
	return opts
}

// InitClient подключается к брокеру
func InitClient(cfg configs.MQTTConfig, handler mqtt.MessageHandler) (mqtt.Client, error) {
	client := mqtt.NewClient(NewClientOptions(cfg, handler))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT подключение не удалось: %w", token.Error())
	}
	return client, nil
}
