package sinks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/logging"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestConsoleNodeDrainsUntilClosed(t *testing.T) {
	n := NewConsoleFactory()("c1")
	require.NoError(t, n.Configure(nil, nil))

	pipe := channel.NewPipe(1)
	pipe.Send(channel.Envelope{Value: value.String("hi")}, nil)
	pipe.Close()

	err := n.Run([]node.Input{pipe}, nil, node.RunContext{Context: context.Background(), Logger: logging.NoOp{}})
	require.NoError(t, err)
}
