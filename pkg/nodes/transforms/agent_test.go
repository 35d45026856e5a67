package transforms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestAgentNodeRendersPromptsWithoutCallingAProvider(t *testing.T) {
	a := NewAgentFactory()("ag1")
	require.NoError(t, a.Configure(map[string]interface{}{
		"system_prompt": "You help with {{ topic }}.",
		"user_prompt":   "Summarize {{ topic }}.",
	}, nil))

	in := channel.NewPipe(1)
	out := channel.NewPipe(1)

	in.Send(channel.Envelope{Value: value.Object(map[string]value.Value{"topic": value.String("Go channels")})}, nil)
	in.Close()

	outs := []*node.Output{node.NewSinglePortOutput("ag1", "0", out, node.PortTarget{})}
	require.NoError(t, a.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	env := <-out.Recv()
	rendered := env.Value.(value.Value)
	sys, _ := rendered.Get("system_prompt")
	sysStr, _ := sys.String()
	require.Equal(t, "You help with Go channels.", sysStr)

	usr, _ := rendered.Get("user_prompt")
	usrStr, _ := usr.String()
	require.Equal(t, "Summarize Go channels.", usrStr)
}

func TestAgentNodeConfigureRejectsEmptyUserPrompt(t *testing.T) {
	a := NewAgentFactory()("ag2")
	require.Error(t, a.Configure(nil, nil))
}
