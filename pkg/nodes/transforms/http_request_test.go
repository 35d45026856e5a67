package transforms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestHTTPRequestNodeSendsResultToSuccessPort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	h := NewHTTPRequestFactory()("h1")
	require.NoError(t, h.Configure(map[string]interface{}{"method": "GET", "url": srv.URL}, nil))

	in := channel.NewPipe(1)
	success := channel.NewPipe(1)
	errOut := channel.NewPipe(1)

	in.Send(channel.Envelope{Value: value.Null()}, nil)
	in.Close()

	outs := []*node.Output{
		node.NewSinglePortOutput("h1", "success", success, node.PortTarget{}),
		node.NewSinglePortOutput("h1", "error", errOut, node.PortTarget{}),
	}
	require.NoError(t, h.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	env := <-success.Recv()
	status, _ := env.Value.(value.Value).Get("status")
	n, _ := status.Number()
	require.Equal(t, float64(200), n)
}

func TestHTTPRequestNodeRoutesServerErrorsToErrorPort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := NewHTTPRequestFactory()("h2")
	require.NoError(t, h.Configure(map[string]interface{}{"method": "GET", "url": srv.URL, "retry_count": 0}, nil))

	in := channel.NewPipe(1)
	success := channel.NewPipe(1)
	errOut := channel.NewPipe(1)

	in.Send(channel.Envelope{Value: value.Null()}, nil)
	in.Close()

	outs := []*node.Output{
		node.NewSinglePortOutput("h2", "success", success, node.PortTarget{}),
		node.NewSinglePortOutput("h2", "error", errOut, node.PortTarget{}),
	}
	require.NoError(t, h.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	env := <-errOut.Recv()
	_, ok := env.Value.(value.Value).Get("error")
	require.True(t, ok)
}

func TestHTTPRequestNodeConfigureRejectsEmptyURL(t *testing.T) {
	h := NewHTTPRequestFactory()("h3")
	require.Error(t, h.Configure(nil, nil))
}
