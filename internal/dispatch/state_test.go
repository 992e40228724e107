package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/EchoPBX/c2host/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateQueuesAreFIFO(t *testing.T) {
	st := NewState()
	a := sdk.NewCommand("x", "y", "1")
	b := sdk.NewCommand("x", "y", "2")
	st.EnqueueCommand(a)
	st.EnqueueCommand(nil)
	st.EnqueueCommand(b)
	assert.Equal(t, 2, st.PendingCommands())

	got, ok := st.popCommand()
	require.True(t, ok)
	assert.Same(t, a, got)
	got, ok = st.popCommand()
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = st.popCommand()
	assert.False(t, ok)
}

func TestMarkActivityUsesClock(t *testing.T) {
	clk := newFakeClock()
	st := NewState(WithClock(clk.Now))
	start := st.LastActivity()

	clk.Advance(3 * time.Second)
	assert.Equal(t, start, st.LastActivity())
	st.MarkActivity()
	assert.Equal(t, start.Add(3*time.Second), st.LastActivity())
}

func TestSenderIsSafeForConcurrentUse(t *testing.T) {
	st := NewState()
	const producers, each = 8, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := st.Sender()
			for i := 0; i < each; i++ {
				assert.NoError(t, s.Send(sdk.NewCommand("bg", "fw", "tick")))
			}
		}()
	}
	wg.Wait()

	n := 0
	for {
		if _, ok := st.box.tryRecv(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, producers*each, n)
}

func TestSenderKeepsPerProducerOrder(t *testing.T) {
	st := NewState()
	s := st.Sender()
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, s.Send(sdk.NewCommand("bg", "fw", p)))
	}
	for _, want := range []string{"a", "b", "c"} {
		cmd, ok := st.box.tryRecv()
		require.True(t, ok)
		assert.Equal(t, want, cmd.Payload)
	}
}

func TestSenderSignalsReady(t *testing.T) {
	st := NewState()
	require.NoError(t, st.Sender().Send(sdk.NewCommand("bg", "fw", "x")))
	select {
	case <-st.box.ready():
	default:
		t.Fatal("expected a ready signal after Send")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	st := NewState()
	st.Close()
	err := st.Sender().Send(sdk.NewCommand("bg", "fw", "late"))
	assert.ErrorIs(t, err, sdk.ErrHostClosed)
}

func TestSendNilCommand(t *testing.T) {
	err := NewState().Sender().Send(nil)
	assert.True(t, sdk.IsKind(err, sdk.InputInvalid))
}

func TestViewExposesOnlyEnqueueAndSender(t *testing.T) {
	st := NewState()
	v := st.View()

	v.EnqueueCommand(sdk.NewCommand("fw", "probe", "scan"))
	assert.Equal(t, 1, st.PendingCommands())
	assert.Same(t, st.box, v.Sender())

	_, isState := v.(*State)
	assert.False(t, isState)
}
