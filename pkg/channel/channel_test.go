package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPipeSendRecv(t *testing.T) {
	p := NewPipe(1)
	done := make(chan struct{})

	ok := p.Send(Envelope{FromNode: "a", Value: 42}, done)
	require.True(t, ok)

	env := <-p.Recv()
	require.Equal(t, 42, env.Value)
}

func TestPipeCloseIsIdempotent(t *testing.T) {
	p := NewPipe(0)
	require.NotPanics(t, func() {
		p.Close()
		p.Close()
	})
}

func TestClosedPipeRecvReturnsImmediately(t *testing.T) {
	p := ClosedPipe()
	select {
	case _, ok := <-p.Recv():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("closed pipe did not return immediately")
	}
}

func TestFanOutSendsToAllBranches(t *testing.T) {
	f := NewFanOut(3, 1)
	done := make(chan struct{})
	clone := func(v interface{}) interface{} { return v }

	ok := f.Send(Envelope{FromNode: "src", Value: "hi"}, clone, done)
	require.True(t, ok)

	for _, branch := range f.Branches() {
		env := <-branch.Recv()
		require.Equal(t, "hi", env.Value)
	}
}

func TestFanOutSendRespectsCancellation(t *testing.T) {
	f := NewFanOut(1, 0)
	done := make(chan struct{})
	close(done)

	ok := f.Send(Envelope{Value: 1}, func(v interface{}) interface{} { return v }, done)
	require.False(t, ok)
}
