package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"github.com/EchoPBX/c2host/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRealtimeHost(plugins pluginSet, idle time.Duration) *Host {
	st := NewState(WithClock(time.Now))
	app := NewApp(plugins, st, zap.NewNop(), WithIdleTimeout(idle))
	return NewHost(app, zap.NewNop(), WithPollInterval(time.Millisecond))
}

func TestRunIssuesSeedsAndStopsWhenIdle(t *testing.T) {
	fw := &fixedPlugin{id: "fw", reply: "ok"}
	h := newRealtimeHost(pluginSet{"fw": fw}, 30*time.Millisecond)

	seeds := []config.Seed{
		{Plugin: "fw", Payload: "start"},
		{Plugin: "ghost", Payload: "ignored"},
		{Plugin: "fw", Payload: "status"},
	}
	start := time.Now()
	require.NoError(t, h.Run(context.Background(), seeds))

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, []string{"start", "status"}, fw.payloads)
	assert.True(t, fw.closed)
}

// counter counts the commands it receives.
type counter struct {
	fixedPlugin
	seen atomic.Int32
}

func (c *counter) SendCommand(string, sdk.State) (string, error) {
	c.seen.Add(1)
	return "ack", nil
}

func newFakeClockHost(plugins pluginSet, clk *fakeClock) *Host {
	st := NewState(WithClock(clk.Now))
	app := NewApp(plugins, st, zap.NewNop())
	return NewHost(app, zap.NewNop(), WithPollInterval(time.Millisecond))
}

func startHost(h *Host, seeds []config.Seed) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- h.Run(context.Background(), seeds) }()
	return errc
}

func waitHost(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("host loop did not finish")
		return nil
	}
}

func TestBackgroundSubmissionsKeepHostAlive(t *testing.T) {
	clk := newFakeClock()
	c := &counter{fixedPlugin: fixedPlugin{id: "tk"}}
	h := newFakeClockHost(pluginSet{"tk": c}, clk)
	sender := h.app.State().Sender()
	errc := startHost(h, nil)

	for i := int32(1); i <= 5; i++ {
		clk.Advance(4 * time.Second)
		require.NoError(t, sender.Send(sdk.NewCommand("tk", "tk", "beat")))
		require.Eventually(t, func() bool { return c.seen.Load() == i }, 2*time.Second, time.Millisecond)
	}
	select {
	case <-errc:
		t.Fatal("host finished while submissions kept arriving")
	default:
	}

	clk.Advance(config.DefaultIdleTimeout)
	require.NoError(t, waitHost(t, errc))
	assert.Equal(t, int32(5), c.seen.Load())
}

func TestIdleWindowStartsWhenRunStarts(t *testing.T) {
	clk := newFakeClock()
	c := &counter{fixedPlugin: fixedPlugin{id: "fw"}}
	h := newFakeClockHost(pluginSet{"fw": c}, clk)

	// Slow startup between NewState and Run.
	clk.Advance(10 * time.Second)

	errc := startHost(h, []config.Seed{{Plugin: "fw", Payload: "start"}})
	require.Eventually(t, func() bool { return c.seen.Load() == 1 }, 2*time.Second, time.Millisecond)

	clk.Advance(config.DefaultIdleTimeout)
	require.NoError(t, waitHost(t, errc))
}

func TestRunStopsOnCancel(t *testing.T) {
	fw := &fixedPlugin{id: "fw"}
	h := newRealtimeHost(pluginSet{"fw": fw}, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := h.Run(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, fw.closed)
	assert.ErrorIs(t, h.app.State().Sender().Send(sdk.NewCommand("fw", "fw", "x")), sdk.ErrHostClosed)
}

func TestRunDeliversQueuedRepliesBeforeIdle(t *testing.T) {
	fw := &fixedPlugin{id: "fw", reply: "pong"}
	host := &inbox{id: "host"}
	h := newRealtimeHost(pluginSet{"fw": fw, "host": host}, 20*time.Millisecond)
	h.app.State().EnqueueCommand(sdk.NewCommand("host", "fw", "ping"))

	require.NoError(t, h.Run(context.Background(), nil))
	require.Len(t, host.got, 1)
	assert.Equal(t, "pong", host.got[0].Payload)
}
