package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"ECG_monitor/internal/handlers"
)

func newWatchCmd() *cobra.Command {
	var (
		addr    string
		devices []string
		kinds   []string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Живые обновления сервиса по gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), addr, &handlers.SubscribeRequest{DeviceIDs: devices, Kinds: kinds})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "адрес gRPC сервера")
	cmd.Flags().StringSliceVar(&devices, "device", nil, "фильтр устройств")
	cmd.Flags().StringSliceVar(&kinds, "kind", []string{handlers.UpdateSummary, handlers.UpdateSession},
		"типы обновлений: samples, summary, session")
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, addr string, req *handlers.SubscribeRequest) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	stream, err := handlers.NewStreamClient(conn).Subscribe(ctx, req)
	if err != nil {
		return err
	}
	for {
		update, err := stream.Recv()
		if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatUpdate(update))
	}
}

func formatUpdate(u *handlers.LiveUpdate) string {
	ts := u.Timestamp.Local().Format("15:04:05")
	switch u.Kind {
	case handlers.UpdateSummary:
		s := u.Summary
		if s == nil {
			return fmt.Sprintf("%s %s summary: пусто", ts, u.DeviceID)
		}
		return fmt.Sprintf("%s %s %-17s ЧСС=%s SDNN=%s RMSSD=%s pNN50=%s пиков=%d",
			ts, u.DeviceID, s.Status, intOrDash(s.HeartRate),
			floatOrDash(s.SDNN), floatOrDash(s.RMSSD), floatOrDash(s.PNN50), s.PeakCount)
	case handlers.UpdateSession:
		return fmt.Sprintf("%s %s сессия %s: %s", ts, u.DeviceID, u.SessionID, u.Event)
	default:
		return fmt.Sprintf("%s %s %s: %d отсчётов", ts, u.DeviceID, u.Kind, len(u.Samples))
	}
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
