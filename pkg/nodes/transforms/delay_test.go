package transforms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestDelayPassesValueThroughUnchanged(t *testing.T) {
	d := NewDelayFactory()("d1")
	require.NoError(t, d.Configure(map[string]interface{}{"delay_ms": 1}, nil))

	in := channel.NewPipe(1)
	out := channel.NewPipe(1)

	in.Send(channel.Envelope{Value: value.String("hello")}, nil)
	in.Close()

	outs := []*node.Output{node.NewSinglePortOutput("d1", "0", out, node.PortTarget{})}
	require.NoError(t, d.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	env := <-out.Recv()
	s, _ := env.Value.(value.Value).String()
	require.Equal(t, "hello", s)
}

func TestDelayReturnsOnCancellationWithoutEmitting(t *testing.T) {
	d := NewDelayFactory()("d2")
	require.NoError(t, d.Configure(map[string]interface{}{"delay_ms": 10000}, nil))

	in := channel.NewPipe(1)
	out := channel.NewPipe(1)

	in.Send(channel.Envelope{Value: value.String("late")}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outs := []*node.Output{node.NewSinglePortOutput("d2", "0", out, node.PortTarget{})}
	require.NoError(t, d.Run([]node.Input{in}, outs, node.RunContext{Context: ctx}))

	select {
	case <-out.Recv():
		t.Fatal("delay node should not emit after cancellation")
	default:
	}
}
