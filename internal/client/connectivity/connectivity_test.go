package connectivity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManual_Transitions(t *testing.T) {
	m := NewManual(false)

	var got []bool
	sub := m.Subscribe(func(online bool) { got = append(got, online) })

	m.Set(false) // не переход
	m.Set(true)
	m.Set(true)
	m.Set(false)

	assert.Equal(t, []bool{true, false}, got)
	assert.False(t, m.Online())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Zero(t, m.SubscriberCount())

	m.Set(true)
	assert.Len(t, got, 2)
}

func TestProber_Probe(t *testing.T) {
	var fail atomic.Bool
	p := NewProber(func(context.Context) error {
		if fail.Load() {
			return errors.New("connection refused")
		}
		return nil
	}, time.Hour, testLogger())

	var got []bool
	sub := p.Subscribe(func(online bool) { got = append(got, online) })
	defer sub.Close()

	ctx := context.Background()
	assert.True(t, p.Probe(ctx))
	assert.Empty(t, got)

	fail.Store(true)
	assert.False(t, p.Probe(ctx))
	assert.False(t, p.Probe(ctx))

	fail.Store(false)
	assert.True(t, p.Probe(ctx))
	assert.Equal(t, []bool{false, true}, got)
}

func TestProber_CanceledProbeKeepsState(t *testing.T) {
	p := NewProber(func(ctx context.Context) error { return ctx.Err() }, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, p.Probe(ctx))
	assert.True(t, p.Online())
}

func TestProber_StartStop(t *testing.T) {
	var mu sync.Mutex
	results := []error{errors.New("down"), nil}
	calls := 0

	p := NewProber(func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= len(results) {
			return results[calls-1]
		}
		return nil
	}, 5*time.Millisecond, testLogger())

	transitions := make(chan bool, 4)
	sub := p.Subscribe(func(online bool) { transitions <- online })
	defer sub.Close()

	p.Start(context.Background())
	p.Start(context.Background()) // повторный старт игнорируется

	select {
	case online := <-transitions:
		assert.False(t, online)
	case <-time.After(time.Second):
		t.Fatal("no offline transition")
	}
	select {
	case online := <-transitions:
		assert.True(t, online)
	case <-time.After(time.Second):
		t.Fatal("no online transition")
	}

	p.Stop()
	p.Stop()
}
