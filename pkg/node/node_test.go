package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestArityOutputIndexResolvesByNameOrRole(t *testing.T) {
	a := Arity{
		Outputs: []PortDescriptor{
			{Name: "true", Role: "true"},
			{Name: "false", Role: "false"},
		},
	}
	idx, ok := a.OutputIndex("false")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = a.OutputIndex("missing")
	require.False(t, ok)
}

func TestBaseNodeConfigAccessors(t *testing.T) {
	b := NewBaseNode("n1", "router", map[string]interface{}{
		"key":     "region",
		"enabled": true,
		"limit":   float64(5),
	})

	require.Equal(t, "region", b.GetConfigString("key", ""))
	require.Equal(t, "fallback", b.GetConfigString("missing", "fallback"))
	require.True(t, b.GetConfigBool("enabled", false))
	require.Equal(t, 5, b.GetConfigInt("limit", 0))
	require.True(t, b.HasConfig("key"))
	require.False(t, b.HasConfig("nope"))
}

func TestOutputSendDeliversEnvelope(t *testing.T) {
	pipe := channel.NewPipe(1)
	out := NewSinglePortOutput("src", "0", pipe, PortTarget{})

	ok := out.Send(context.Background(), value.Number(42))
	require.True(t, ok)

	env := <-pipe.Recv()
	n, isNum := env.Value.(value.Value).Number()
	require.True(t, isNum)
	require.Equal(t, 42.0, n)
}

func TestOutputCloseIsSafeWithNoDownstream(t *testing.T) {
	out := &Output{nodeID: "n1", portName: "0"}
	require.NotPanics(t, out.Close)
}
