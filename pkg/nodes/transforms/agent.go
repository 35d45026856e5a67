package transforms

import (
	"fmt"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// AgentNode renders a system/user prompt pair against each input value and
// emits an object holding the rendered system_prompt and user_prompt — it
// does not call any
// concrete LLM provider. An agent node (system_prompt, user_prompt,
// json_schema) would ordinarily proxy to a provider-specific model node,
// and those provider integrations are out of scope here. What's
// implemented is the templating and envelope shape a real provider call
// would need, leaving the call itself to a downstream http_request node
// wired by the workflow author.
type AgentNode struct {
	node.BaseNode
	systemPrompt string
	userPrompt   string
}

// NewAgentFactory returns the factory the compiler registers under
// "agent".
func NewAgentFactory() node.Factory {
	return func(id string) node.Node {
		return &AgentNode{BaseNode: node.NewBaseNode(id, "agent", nil)}
	}
}

func (a *AgentNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (a *AgentNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	a.BaseNode = node.NewBaseNode(a.ID(), "agent", config)
	a.systemPrompt = a.GetConfigString("system_prompt", "")
	a.userPrompt = a.GetConfigString("user_prompt", "")
	if a.userPrompt == "" {
		return fmt.Errorf("agent node %q requires a non-empty user_prompt", a.ID())
	}
	return nil
}

func (a *AgentNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			v := env.Value.(value.Value)
			rendered := value.Object(map[string]value.Value{
				"system_prompt": value.String(renderTemplateString(a.systemPrompt, v)),
				"user_prompt":   value.String(renderTemplateString(a.userPrompt, v)),
			})
			if !outputs[0].Send(rc.Context, rendered) {
				return nil
			}
		case <-rc.Done():
			return nil
		}
	}
}
