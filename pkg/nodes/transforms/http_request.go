package transforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wehubfusion/rustflow/pkg/concurrency"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// HTTPRequestNode issues one HTTP call per input value, templating the
// configured URL/body against the input. It is intentionally generic: no
// provider-specific auth or retry
// policy beyond a flat retry_count/retry_delay_ms, grounded on the
// original implementation's http_request action node. Calls are routed
// through a concurrency.Limiter so a flaky downstream can't be hammered
// forever: a tripped circuit breaker short-circuits further attempts until
// its reset timeout elapses.
type HTTPRequestNode struct {
	node.BaseNode
	method     string
	urlTpl     string
	headers    map[string]string
	bodyTpl    string
	retries    int
	retryDelay time.Duration
	client     *http.Client
	limiter    *concurrency.Limiter
}

// NewHTTPRequestFactory returns the factory the compiler registers under
// "http_request".
func NewHTTPRequestFactory() node.Factory {
	return func(id string) node.Node {
		return &HTTPRequestNode{BaseNode: node.NewBaseNode(id, "http_request", nil), client: &http.Client{Timeout: 30 * time.Second}}
	}
}

func (h *HTTPRequestNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "success", Role: "success"}, {Name: "error", Role: "error"}},
	}
}

func (h *HTTPRequestNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	h.BaseNode = node.NewBaseNode(h.ID(), "http_request", config)
	h.method = h.GetConfigString("method", "GET")
	h.urlTpl = h.GetConfigString("url", "")
	h.bodyTpl = h.GetConfigString("body", "")
	h.retries = h.GetConfigInt("retry_count", 0)
	h.retryDelay = time.Duration(h.GetConfigFloat("retry_delay_ms", 0)) * time.Millisecond
	maxConcurrent := h.GetConfigInt("max_concurrent", 8)
	failureThreshold := int64(h.GetConfigInt("circuit_breaker_threshold", 20))
	resetTimeout := time.Duration(h.GetConfigFloat("circuit_breaker_reset_ms", float64(30*time.Second/time.Millisecond))) * time.Millisecond
	h.limiter = concurrency.NewLimiterWithCircuitBreaker(maxConcurrent, concurrency.NewCircuitBreaker(failureThreshold, resetTimeout))

	h.headers = map[string]string{}
	if raw := h.GetConfigMap("headers"); raw != nil {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				h.headers[k] = s
			}
		}
	}

	if h.urlTpl == "" {
		return fmt.Errorf("http_request node %q requires a non-empty url", h.ID())
	}
	return nil
}

func (h *HTTPRequestNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	successOut, errorOut := outputs[0], outputs[1]
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			v := env.Value.(value.Value)

			var result value.Value
			callErr := h.limiter.GoSync(rc.Context, func() error {
				r, err := h.doRequest(rc.Context, v)
				if err != nil {
					return err
				}
				result = r
				return nil
			})

			if callErr != nil {
				errObj := value.Object(map[string]value.Value{"error": value.String(callErr.Error())})
				if !errorOut.Send(rc.Context, errObj) {
					return nil
				}
				continue
			}
			if !successOut.Send(rc.Context, result) {
				return nil
			}
		case <-rc.Done():
			return nil
		}
	}
}

func (h *HTTPRequestNode) doRequest(ctx context.Context, v value.Value) (value.Value, error) {
	url := renderTemplateString(h.urlTpl, v)
	body := renderTemplateString(h.bodyTpl, v)

	var lastErr error
	for attempt := 0; attempt <= h.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(h.retryDelay):
			case <-ctx.Done():
				return value.Null(), fmt.Errorf("http_request cancelled")
			}
		}

		var bodyReader io.Reader
		if body != "" {
			bodyReader = bytes.NewBufferString(body)
		}
		req, err := http.NewRequestWithContext(ctx, h.method, url, bodyReader)
		if err != nil {
			return value.Null(), err
		}
		for k, hv := range h.headers {
			req.Header.Set(k, hv)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("http_request: server error %d", resp.StatusCode)
			continue
		}

		return buildHTTPResult(resp.StatusCode, respBody), nil
	}
	return value.Null(), lastErr
}

func buildHTTPResult(status int, body []byte) value.Value {
	fields := map[string]value.Value{
		"status": value.Number(float64(status)),
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err == nil {
		fields["body"] = value.FromAny(decoded)
	} else {
		fields["body"] = value.String(string(body))
	}
	return value.Object(fields)
}

// renderTemplateString performs the same {{ path }} substitution as
// TemplateNode, reused here so url/body configs can reference the input.
func renderTemplateString(tpl string, v value.Value) string {
	return templateTokenPattern.ReplaceAllStringFunc(tpl, func(token string) string {
		path := templateTokenPattern.FindStringSubmatch(token)[1]
		resolved, ok := navigate(v, path)
		if !ok {
			return ""
		}
		return stringify(resolved)
	})
}
