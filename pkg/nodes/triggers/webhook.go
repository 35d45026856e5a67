package triggers

import (
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// WebhookNode is fed externally rather than on a schedule: some outer HTTP
// layer, outside the engine's scope, calls Inject as requests matching
// Path/Method arrive. Run simply relays whatever gets injected until
// cancelled.
type WebhookNode struct {
	node.BaseNode
	path   string
	method string
	inbox  chan value.Value
}

// NewWebhookFactory returns the factory the compiler registers under
// "webhook_trigger".
func NewWebhookFactory() node.Factory {
	return func(id string) node.Node {
		return &WebhookNode{BaseNode: node.NewBaseNode(id, "webhook_trigger", nil), inbox: make(chan value.Value, 16)}
	}
}

func (w *WebhookNode) Arity() node.Arity {
	return node.Arity{Outputs: []node.PortDescriptor{{Name: "0"}}}
}

func (w *WebhookNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	w.BaseNode = node.NewBaseNode(w.ID(), "webhook_trigger", config)
	w.path = w.GetConfigString("path", "/")
	w.method = w.GetConfigString("method", "POST")
	return nil
}

// Path and Method report the route this trigger is bound to, so a host
// HTTP server can dispatch matching requests to Inject.
func (w *WebhookNode) Path() string   { return w.path }
func (w *WebhookNode) Method() string { return w.method }

// Inject delivers a payload to the running node, as if a matching HTTP
// request had just arrived. It returns false if the node has no room to
// buffer it right now.
func (w *WebhookNode) Inject(v value.Value) bool {
	select {
	case w.inbox <- v:
		return true
	default:
		return false
	}
}

func (w *WebhookNode) Run(_ []node.Input, outputs []*node.Output, rc node.RunContext) error {
	for {
		select {
		case v := <-w.inbox:
			if !outputs[0].Send(rc.Context, v) {
				return nil
			}
		case <-rc.Done():
			return nil
		}
	}
}
