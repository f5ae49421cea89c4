package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isdelr/timeshare-be/internal/models"
	"github.com/isdelr/timeshare-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSharing struct {
	calls   atomic.Int64
	rotated int
	err     error
	// hang blocks each pass until its context ends
	hang bool
}

func (f *fakeSharing) GetOrCreateCode(context.Context, string) (string, error) { return "", nil }

func (f *fakeSharing) Redeem(context.Context, string, string) (models.PublicUser, error) {
	return models.PublicUser{}, nil
}

func (f *fakeSharing) RotateAllCodes(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if f.hang {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return f.rotated, f.err
}

type fakeEvents struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeEvents) CreateEvent(_ context.Context, eventType, _, _ string, _ *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, eventType)
	return nil
}

func (f *fakeEvents) GetRecentEvents(context.Context, int) ([]models.Event, error) { return nil, nil }

type fakeNotifier struct {
	mu       sync.Mutex
	messages [][]byte
}

func (f *fakeNotifier) BroadcastAll(message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func TestCodeRotator_StartRunsImmediatelyAndIsIdempotent(t *testing.T) {
	sharingSvc := &fakeSharing{rotated: 3}
	notifier := &fakeNotifier{}
	r := NewCodeRotator(sharingSvc, nil, notifier, time.Hour)
	defer r.Stop()

	status := r.Start()
	assert.Equal(t, models.RotationRunning, status.State)
	assert.False(t, status.AlreadyRunning)
	assert.Equal(t, int64(1), status.Passes)
	assert.NotNil(t, status.LastRunAt)
	assert.Equal(t, "1h0m0s", status.Interval)

	again := r.Start()
	assert.True(t, again.AlreadyRunning)
	assert.Equal(t, models.RotationRunning, again.State)
	assert.Equal(t, int64(1), sharingSvc.calls.Load(), "second start must not run another pass")
	assert.Len(t, r.runner.Entries(), 1, "second start must not add a schedule")

	require.Len(t, notifier.messages, 1)
	var msg websocket.Message
	require.NoError(t, json.Unmarshal(notifier.messages[0], &msg))
	assert.Equal(t, websocket.ActionCodesRotated, msg.Action)
}

func TestCodeRotator_StopIsIdempotent(t *testing.T) {
	r := NewCodeRotator(&fakeSharing{}, nil, nil, time.Hour)

	status := r.Stop()
	assert.True(t, status.NotRunning)
	assert.Equal(t, models.RotationStopped, status.State)

	r.Start()
	status = r.Stop()
	assert.False(t, status.NotRunning)
	assert.Equal(t, models.RotationStopped, status.State)

	status = r.Stop()
	assert.True(t, status.NotRunning)
	assert.Equal(t, models.RotationStopped, r.Status().State)

	// a stopped rotator can be started again
	assert.Equal(t, models.RotationRunning, r.Start().State)
	r.Stop()
}

func TestCodeRotator_FailureKeepsRunning(t *testing.T) {
	sharingSvc := &fakeSharing{err: errors.New("storage unavailable")}
	events := &fakeEvents{}
	notifier := &fakeNotifier{}
	r := NewCodeRotator(sharingSvc, events, notifier, time.Hour)
	defer r.Stop()

	status := r.Start()
	assert.Equal(t, models.RotationRunning, status.State)
	assert.Equal(t, "storage unavailable", status.LastError)
	assert.Equal(t, []string{"sharing.rotate.fail"}, events.types)
	assert.Empty(t, notifier.messages)

	sharingSvc.err = nil
	r.rotate(time.Second)
	assert.Empty(t, r.Status().LastError)
}

func TestCodeRotator_NoBroadcastWhenNothingRotated(t *testing.T) {
	notifier := &fakeNotifier{}
	r := NewCodeRotator(&fakeSharing{}, nil, notifier, time.Hour)
	r.Start()
	r.Stop()
	assert.Empty(t, notifier.messages)
}

func TestCodeRotator_TicksUntilStopped(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for scheduler ticks")
	}
	sharingSvc := &fakeSharing{}
	r := NewCodeRotator(sharingSvc, nil, nil, time.Second)
	r.Start()

	assert.Eventually(t, func() bool { return sharingSvc.calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	r.Stop()
	after := sharingSvc.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, sharingSvc.calls.Load(), "no pass may run after Stop returns")
}

func TestCodeRotator_IntervalNormalization(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, DefaultRotationInterval},
		{-time.Second, DefaultRotationInterval},
		{300 * time.Millisecond, time.Second},
		{1500 * time.Millisecond, time.Second},
		{90 * time.Second, 90 * time.Second},
	}
	for _, tt := range tests {
		r := NewCodeRotator(&fakeSharing{}, nil, nil, tt.in)
		assert.Equal(t, tt.want.String(), r.Status().Interval, "input %s", tt.in)
	}
}

func TestCodeRotator_StartPassIsBounded(t *testing.T) {
	sharingSvc := &fakeSharing{hang: true}
	events := &fakeEvents{}
	r := NewCodeRotator(sharingSvc, events, nil, time.Hour)
	assert.Equal(t, StartPassTimeout, r.startTimeout)
	r.startTimeout = 50 * time.Millisecond
	defer r.Stop()

	started := time.Now()
	status := r.Start()
	assert.Less(t, time.Since(started), 5*time.Second)
	assert.Equal(t, models.RotationRunning, status.State)
	assert.Contains(t, status.LastError, context.DeadlineExceeded.Error())
	assert.Equal(t, []string{"sharing.rotate.fail"}, events.types, "the failure is recorded after the pass deadline")
}
