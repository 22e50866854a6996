package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ECG_monitor/internal/ecg"
)

func newTestProcessor(t *testing.T, publisher SummaryPublisher) (*MQTTStreamProcessor, *SessionManager, *memStore, *recorder) {
	t.Helper()
	store := newMemStore()
	sm, _ := newTestManager(t, store)
	rec := &recorder{}
	p := NewMQTTStreamProcessor(sm, NewArtifactMonitor(), publisher, time.Hour, rec)
	t.Cleanup(p.Stop)
	return p, sm, store, rec
}

func TestDeviceFromTopic(t *testing.T) {
	d, err := DeviceFromTopic("medical/ecg/H10-001/samples")
	require.NoError(t, err)
	assert.Equal(t, "H10-001", d)

	for _, topic := range []string{
		"medical/ecg/H10-001",
		"medical/ctg/H10-001/samples",
		"medical/ecg//samples",
		"medical/ecg/H10-001/params",
	} {
		_, err := DeviceFromTopic(topic)
		assert.ErrorIs(t, err, ErrBadTopic, topic)
	}
}

func TestDecodeBatch(t *testing.T) {
	payload := []byte(`{"device_id":"ignored","sampling_rate":130,"lead_type":"chest","units":"mV",
		"samples":[{"i":0,"t":1700000000000,"v":0.1},{"i":1,"t":1700000000007,"v":0.2}]}`)

	b, err := DecodeBatch("medical/ecg/H10-001/samples", payload)
	require.NoError(t, err)
	assert.Equal(t, "H10-001", b.DeviceID)
	assert.Len(t, b.Samples, 2)

	_, err = DecodeBatch("medical/ecg/H10-001/samples", []byte(`{"sampling_rate":0}`))
	assert.ErrorIs(t, err, ecg.ErrInvalidConfiguration)

	_, err = DecodeBatch("medical/ecg/H10-001/samples", []byte(`not json`))
	assert.Error(t, err)
}

func TestProcessBatchAutoStartsSession(t *testing.T) {
	p, sm, _, rec := newTestProcessor(t, nil)
	ctx := context.Background()

	require.NoError(t, p.ProcessBatch(ctx, simBatch("H10-001", 2)))

	active := sm.GetActiveSession("H10-001")
	require.NotNil(t, active)
	assert.Equal(t, 130, active.Session.SamplingRate)
	assert.Equal(t, 260-8, active.Buffer.Snapshot().Len())

	require.Len(t, rec.byKind(UpdateSamples), 1)
	assert.Len(t, rec.byKind(UpdateSamples)[0].Samples, 260)

	// частота не может смениться посреди сессии
	b := simBatch("H10-001", 1)
	b.SamplingRate = 250
	assert.ErrorIs(t, p.ProcessBatch(ctx, b), ErrRateMismatch)

	received, rejected := p.Stats()
	assert.Equal(t, int64(2), received)
	assert.Equal(t, int64(1), rejected)
}

func TestAnalyzeActivePublishesSummary(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishLive", mock.AnythingOfType("ecg.Summary")).Return(nil)

	p, _, _, rec := newTestProcessor(t, pub)
	ctx := context.Background()
	require.NoError(t, p.ProcessBatch(ctx, simBatch("H10-001", 10)))

	assert.Equal(t, 1, p.AnalyzeActive(ctx))
	// снимок не изменился: из кэша, без повторной рассылки
	assert.Zero(t, p.AnalyzeActive(ctx))

	updates := rec.byKind(UpdateSummary)
	require.Len(t, updates, 1)
	sum := updates[0].Summary
	require.NotNil(t, sum)
	assert.Equal(t, ecg.StatusOK, sum.Status)
	require.NotNil(t, sum.HeartRate)
	assert.InDelta(t, 72, *sum.HeartRate, 2)

	pub.AssertNumberOfCalls(t, "PublishLive", 1)
}

func TestHandleIncomingMQTT(t *testing.T) {
	p, sm, _, _ := newTestProcessor(t, nil)

	payload, err := json.Marshal(simBatch("H10-002", 1))
	require.NoError(t, err)
	p.HandleIncomingMQTT("medical/ecg/H10-002/samples", payload)
	p.HandleIncomingMQTT("medical/ecg/H10-002", payload)

	assert.Eventually(t, func() bool { return sm.GetActiveSession("H10-002") != nil }, 2*time.Second, 10*time.Millisecond)
	_, rejected := p.Stats()
	assert.Equal(t, int64(1), rejected)
}

func TestSessionEventBroadcast(t *testing.T) {
	p, sm, _, rec := newTestProcessor(t, nil)
	sm.SetCallbacks(p.SessionEvent("started"), p.SessionEvent("stopped"))

	active, err := sm.StartSession(context.Background(), startParams("strap-01"))
	require.NoError(t, err)
	_, err = sm.StopSession(context.Background(), active.Session.ID)
	require.NoError(t, err)

	events := rec.byKind(UpdateSession)
	require.Len(t, events, 2)
	assert.Equal(t, "started", events[0].Event)
	assert.Equal(t, "stopped", events[1].Event)
	assert.Equal(t, active.Session.ID.String(), events[1].SessionID)
}
