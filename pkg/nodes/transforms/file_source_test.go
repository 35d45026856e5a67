package transforms

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestFileSourceEmitsOneValuePerLine(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "file_source_*.txt")
	require.NoError(t, err)
	_, err = f.WriteString("alpha\nbeta\ngamma\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fs := NewFileSourceFactory()("fs1")
	require.NoError(t, fs.Configure(map[string]interface{}{"path": f.Name()}, nil))

	out := channel.NewPipe(8)
	outs := []*node.Output{node.NewSinglePortOutput("fs1", "0", out, node.PortTarget{})}
	require.NoError(t, fs.Run(nil, outs, node.RunContext{Context: context.Background()}))

	outs[0].Close()
	var lines []string
	for env := range out.Recv() {
		s, _ := env.Value.(value.Value).String()
		lines = append(lines, s)
	}
	require.Equal(t, []string{"alpha", "beta", "gamma"}, lines)
}

func TestFileSourceConfigureRejectsEmptyPath(t *testing.T) {
	fs := NewFileSourceFactory()("fs2")
	require.Error(t, fs.Configure(nil, nil))
}

func TestFileSourceRunReturnsErrorForMissingFile(t *testing.T) {
	fs := NewFileSourceFactory()("fs3")
	require.NoError(t, fs.Configure(map[string]interface{}{"path": "/nonexistent/rustflow-test.txt"}, nil))

	out := channel.NewPipe(1)
	outs := []*node.Output{node.NewSinglePortOutput("fs3", "0", out, node.PortTarget{})}
	require.Error(t, fs.Run(nil, outs, node.RunContext{Context: context.Background()}))
}
