package triggers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestManualNodeEmitsOnceAndReturns(t *testing.T) {
	n := NewManualFactory()("m1")
	require.NoError(t, n.Configure(map[string]interface{}{"payload": "hi"}, nil))

	pipe := channel.NewPipe(1)
	out := node.NewSinglePortOutput("m1", "0", pipe, node.PortTarget{})

	err := n.Run(nil, []*node.Output{out}, node.RunContext{Context: context.Background()})
	require.NoError(t, err)

	env := <-pipe.Recv()
	s, _ := env.Value.(value.Value).String()
	require.Equal(t, "hi", s)
}

func TestTimeNodeRespectsCount(t *testing.T) {
	n := NewTimeFactory()("t1")
	require.NoError(t, n.Configure(map[string]interface{}{"interval_ms": float64(1), "count": float64(3)}, nil))

	pipe := channel.NewPipe(8)
	out := node.NewSinglePortOutput("t1", "0", pipe, node.PortTarget{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- n.Run(nil, []*node.Output{out}, node.RunContext{Context: ctx}) }()

	require.NoError(t, <-done)

	count := 0
loop:
	for {
		select {
		case _, ok := <-pipe.Recv():
			if !ok {
				break loop
			}
			count++
		default:
			break loop
		}
	}
	require.Equal(t, 3, count)
}

func TestWebhookNodeRelaysInjectedValues(t *testing.T) {
	n := NewWebhookFactory()("w1").(*WebhookNode)
	require.NoError(t, n.Configure(map[string]interface{}{"path": "/hook", "method": "POST"}, nil))
	require.Equal(t, "/hook", n.Path())

	pipe := channel.NewPipe(1)
	out := node.NewSinglePortOutput("w1", "0", pipe, node.PortTarget{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = n.Run(nil, []*node.Output{out}, node.RunContext{Context: ctx}) }()

	require.True(t, n.Inject(value.String("payload")))
	env := <-pipe.Recv()
	s, _ := env.Value.(value.Value).String()
	require.Equal(t, "payload", s)
	cancel()
}
