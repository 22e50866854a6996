package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ECG_monitor/internal/ecg"
)

type analyzeOptions struct {
	rate         int
	lead         string
	device       string
	powerline    int
	medianWindow int
	noBaseline   bool
	noPowerline  bool
	noSpikes     bool
	noMuscle     bool
	workers      int
	withPeaks    bool
}

func (o analyzeOptions) config() ecg.Config {
	cfg := ecg.DefaultConfig()
	cfg.RemoveBaseline = !o.noBaseline
	cfg.RemovePowerline = !o.noPowerline
	cfg.RemoveSpikes = !o.noSpikes
	cfg.RemoveMuscleNoise = !o.noMuscle
	cfg.PowerlineFreqHz = o.powerline
	cfg.MedianWindow = o.medianWindow
	return cfg
}

// fileReport результат по одному файлу
type fileReport struct {
	File    string       `json:"file"`
	Summary *ecg.Summary `json:"summary,omitempty"`
	Quality *ecg.Quality `json:"quality,omitempty"`
	Peaks   []int64      `json:"peaks,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Анализ записей из CSV (sample_index,timestamp_ms,voltage)",
		Long: `Читает одну или несколько записей в CSV с колонками
sample_index,timestamp_ms,voltage (мВ) и печатает JSON со сводкой ЧСС/ВСР.
"-" читает запись из stdin. Файлы обрабатываются параллельно.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.rate, "rate", "r", 130, "частота дискретизации, Гц")
	f.StringVar(&opts.lead, "lead", "chest", "тип отведения")
	f.StringVar(&opts.device, "device", "offline", "идентификатор устройства")
	f.IntVar(&opts.powerline, "powerline", ecg.PowerlineHz60, "частота сети, 50 или 60 Гц")
	f.IntVar(&opts.medianWindow, "median-window", ecg.DefaultMedianWindow, "окно медианного фильтра (нечётное)")
	f.BoolVar(&opts.noBaseline, "no-baseline", false, "не удалять дрейф изолинии")
	f.BoolVar(&opts.noPowerline, "no-powerline", false, "не подавлять сетевую наводку")
	f.BoolVar(&opts.noSpikes, "no-spikes", false, "не удалять выбросы")
	f.BoolVar(&opts.noMuscle, "no-muscle", false, "не сглаживать мышечный шум")
	f.IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "параллельных анализов")
	f.BoolVar(&opts.withPeaks, "peaks", false, "печатать sample_index найденных R-пиков")
	return cmd
}

func runAnalyze(cmd *cobra.Command, files []string, opts analyzeOptions) error {
	cfg := opts.config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	recs := make([]ecg.Recording, len(files))
	for i, name := range files {
		info := ecg.SessionInfo{
			SessionID:    sessionName(name),
			SamplingRate: opts.rate,
			LeadType:     opts.lead,
			DeviceID:     opts.device,
		}
		rec, err := loadRecording(cmd.InOrStdin(), name, info)
		if err != nil {
			return err
		}
		recs[i] = rec
	}

	items, err := ecg.AnalyzeBatch(cmd.Context(), recs, cfg, opts.workers)
	if err != nil {
		return err
	}

	reports := make([]fileReport, len(items))
	failed := 0
	for i, item := range items {
		reports[i] = fileReport{File: files[i]}
		if item.Err != nil {
			reports[i].Error = item.Err.Error()
			failed++
			continue
		}
		sum := item.Result.Summary()
		reports[i].Summary = &sum
		reports[i].Quality = &item.Result.Quality
		if opts.withPeaks {
			reports[i].Peaks = item.Result.PeakSampleIndices()
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d из %d записей не проанализированы", failed, len(items))
	}
	return nil
}

func sessionName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func loadRecording(stdin io.Reader, path string, info ecg.SessionInfo) (ecg.Recording, error) {
	if path == "-" {
		return readRecording(stdin, info)
	}
	f, err := os.Open(path)
	if err != nil {
		return ecg.Recording{}, err
	}
	defer f.Close()

	rec, err := readRecording(f, info)
	if err != nil {
		return ecg.Recording{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// readRecording разбирает CSV sample_index,timestamp_ms,voltage.
// Строка заголовка необязательна.
func readRecording(r io.Reader, info ecg.SessionInfo) (ecg.Recording, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	rec := ecg.Recording{SessionInfo: info}
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rec, err
		}
		if len(row) < 3 {
			return rec, fmt.Errorf("строка %d: ожидалось 3 колонки, получено %d", line, len(row))
		}

		idx, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			if line == 1 {
				continue // заголовок
			}
			return rec, fmt.Errorf("строка %d: sample_index: %w", line, err)
		}
		ms, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return rec, fmt.Errorf("строка %d: timestamp_ms: %w", line, err)
		}
		v, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return rec, fmt.Errorf("строка %d: voltage: %w", line, err)
		}

		rec.Samples = append(rec.Samples, ecg.Sample{
			SessionID:   info.SessionID,
			SampleIndex: idx,
			Timestamp:   time.UnixMilli(ms).UTC(),
			Voltage:     v,
		})
	}
	return rec, nil
}
