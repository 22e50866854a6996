// main.go - точка входа ECG Monitor
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	_ "ECG_monitor/docs"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "ecg-monitor",
		Short: "Мониторинг ЭКГ: приём потока, шумоподавление, ЧСС и ВСР",
		Long: `ecg-monitor принимает отсчёты одноканальной ЭКГ от нагрудных датчиков
по MQTT, очищает сигнал, находит R-пики и считает ЧСС и показатели ВСР.

  serve    полный сервис (MQTT → анализ → БД, gRPC, REST, websocket)
  analyze  разовый анализ CSV-записей
  watch    подписка на живые обновления по gRPC
  tap      отладочный слушатель пачек датчиков в MQTT`,
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newAnalyzeCmd(), newWatchCmd(), newTapCmd())

	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}
