// Package nodes assembles the built-in node library into a compiler.Registry
// and a matching registry.Catalog, the single place a host program wires up
// every trigger, sink, and transform this module ships.
package nodes

import (
	"github.com/wehubfusion/rustflow/pkg/compiler"
	"github.com/wehubfusion/rustflow/pkg/nodes/sinks"
	"github.com/wehubfusion/rustflow/pkg/nodes/transforms"
	"github.com/wehubfusion/rustflow/pkg/nodes/triggers"
	"github.com/wehubfusion/rustflow/pkg/registry"
)

// NewRegistry returns a compiler.Registry with every built-in node type
// factory registered under its type_tag.
func NewRegistry() *compiler.Registry {
	reg := compiler.NewRegistry()

	reg.Register("manual_trigger", triggers.NewManualFactory())
	reg.Register("time_trigger", triggers.NewTimeFactory())
	reg.Register("webhook_trigger", triggers.NewWebhookFactory())

	reg.Register("console_output", sinks.NewConsoleFactory())

	reg.Register("set_data", transforms.NewSetDataFactory())
	reg.Register("code", transforms.NewCodeFactory())
	reg.Register("http_request", transforms.NewHTTPRequestFactory())
	reg.Register("template", transforms.NewTemplateFactory())
	reg.Register("router", transforms.NewRouterFactory())
	reg.Register("join", transforms.NewJoinFactory())
	reg.Register("union", transforms.NewUnionFactory())
	reg.Register("file_source", transforms.NewFileSourceFactory())
	reg.Register("agent", transforms.NewAgentFactory())
	reg.Register("split", transforms.NewSplitFactory())
	reg.Register("accumulate", transforms.NewAccumulateFactory())
	reg.Register("delay", transforms.NewDelayFactory())

	return reg
}

// NewCatalog returns the UI-facing descriptor set for every built-in node
// type, independent of which types are actually registered in a given
// compiler.Registry (use Catalog.Describe to intersect the two).
func NewCatalog() *registry.Catalog {
	cat := registry.NewCatalog()

	cat.Add(registry.NodeTypeDescriptor{
		ID: "manual_trigger", Label: "Manual Trigger", Category: "triggers",
		Description: "Emits a single configured payload, once, when the job starts.",
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties:  []registry.PropertyDescriptor{{Name: "payload", Label: "Payload", Kind: registry.PropertyJSON}},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "time_trigger", Label: "Time Trigger", Category: "triggers",
		Description: "Emits on a fixed interval, optionally up to a fixed count.",
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "interval_ms", Label: "Interval (ms)", Kind: registry.PropertyNumber, Required: true},
			{Name: "count", Label: "Count", Kind: registry.PropertyNumber},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "webhook_trigger", Label: "Webhook Trigger", Category: "triggers",
		Description: "Relays values injected from outside the graph via Inject.",
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "path", Label: "Path", Kind: registry.PropertyText},
			{Name: "method", Label: "Method", Kind: registry.PropertyText, Default: "POST"},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "console_output", Label: "Console Output", Category: "sinks",
		Description: "Logs every received value; never emits.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Properties:  []registry.PropertyDescriptor{{Name: "label", Label: "Label", Kind: registry.PropertyText}},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "set_data", Label: "Set Data", Category: "transforms",
		Description: "Replaces each received value with a fixed configured value.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties:  []registry.PropertyDescriptor{{Name: "json", Label: "Data", Kind: registry.PropertyJSON, Required: true}},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "code", Label: "Code", Category: "transforms",
		Description: "Runs a JavaScript function body against each input value.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}, {Name: "error", Label: "Error"}},
		Properties:  []registry.PropertyDescriptor{{Name: "code", Label: "Code", Kind: registry.PropertyCode, Required: true}},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "http_request", Label: "HTTP Request", Category: "transforms",
		Description: "Issues one HTTP call per input value, with templated URL/body.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "success", Label: "Success"}, {Name: "error", Label: "Error"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "method", Label: "Method", Kind: registry.PropertySelect, Options: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}, Default: "GET"},
			{Name: "url", Label: "URL", Kind: registry.PropertyText, Required: true},
			{Name: "headers", Label: "Headers", Kind: registry.PropertyJSON},
			{Name: "body", Label: "Body", Kind: registry.PropertyText},
			{Name: "retry_count", Label: "Retry Count", Kind: registry.PropertyNumber},
			{Name: "retry_delay_ms", Label: "Retry Delay (ms)", Kind: registry.PropertyNumber},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "template", Label: "Template", Category: "transforms",
		Description: "Renders a {{ path }} template against each input value.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "template", Label: "Template", Kind: registry.PropertyText, Required: true},
			{Name: "output_type", Label: "Output Type", Kind: registry.PropertySelect, Options: []string{"string", "number", "boolean"}, Default: "string"},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "router", Label: "Router", Category: "transforms",
		Description: "Routes each input to true/false based on a comparison.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "true", Label: "True"}, {Name: "false", Label: "False"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "key", Label: "Path", Kind: registry.PropertyText, Required: true},
			{Name: "operator", Label: "Operator", Kind: registry.PropertySelect, Default: "equals"},
			{Name: "value", Label: "Value", Kind: registry.PropertyJSON},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "join", Label: "Join", Category: "transforms",
		Description: "Pairs values across two inputs by key or by index.",
		Inputs:      []registry.PortDescriptor{{Name: "left", Label: "Left"}, {Name: "right", Label: "Right"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "type", Label: "Type", Kind: registry.PropertySelect, Options: []string{"key", "index"}, Default: "index"},
			{Name: "mode", Label: "Mode", Kind: registry.PropertySelect, Options: []string{"inner", "left", "right", "outer"}, Default: "inner"},
			{Name: "key", Label: "Key", Kind: registry.PropertyText},
			{Name: "right_key", Label: "Right Key", Kind: registry.PropertyText},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "union", Label: "Union", Category: "transforms",
		Description: "Merges N inputs into one output, interleaved or sequential.",
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "inputs", Label: "Input Count", Kind: registry.PropertyNumber, Default: 2},
			{Name: "mode", Label: "Mode", Kind: registry.PropertySelect, Options: []string{"interleaved", "sequential"}, Default: "interleaved"},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "file_source", Label: "File Source", Category: "transforms",
		Description: "Emits one value per line of a file.",
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties:  []registry.PropertyDescriptor{{Name: "path", Label: "Path", Kind: registry.PropertyText, Required: true}},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "agent", Label: "Agent", Category: "transforms",
		Description: "Renders a system/user prompt pair; does not call a provider.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties: []registry.PropertyDescriptor{
			{Name: "system_prompt", Label: "System Prompt", Kind: registry.PropertyText},
			{Name: "user_prompt", Label: "User Prompt", Kind: registry.PropertyText, Required: true},
		},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "split", Label: "Split", Category: "transforms",
		Description: "Unpacks an array found at a path into one value per element.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties:  []registry.PropertyDescriptor{{Name: "path", Label: "Path", Kind: registry.PropertyText}},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "accumulate", Label: "Accumulate", Category: "transforms",
		Description: "Buffers input and emits one array per batch_size items, plus a final short batch on close.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties:  []registry.PropertyDescriptor{{Name: "batch_size", Label: "Batch Size", Kind: registry.PropertyNumber}},
	})
	cat.Add(registry.NodeTypeDescriptor{
		ID: "delay", Label: "Delay", Category: "transforms",
		Description: "Passes each value through unchanged after a fixed wait.",
		Inputs:      []registry.PortDescriptor{{Name: "0", Label: "In"}},
		Outputs:     []registry.PortDescriptor{{Name: "0", Label: "Out"}},
		Properties:  []registry.PropertyDescriptor{{Name: "delay_ms", Label: "Delay (ms)", Kind: registry.PropertyNumber}},
	})

	return cat
}
