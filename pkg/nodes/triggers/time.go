package triggers

import (
	"time"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// TimeNode emits on a fixed interval, grounded on node_registry.rs's
// time_trigger (which carries a cron expression in the original). No
// cron parser is available here, so this trigger schedules on a plain
// interval (interval_ms) instead of parsing cron syntax. It terminates
// when cancelled or after emitting its configured count.
type TimeNode struct {
	node.BaseNode
	interval time.Duration
	count    int // 0 means unbounded, stopped only by cancellation
}

// NewTimeFactory returns the factory the compiler registers under
// "time_trigger".
func NewTimeFactory() node.Factory {
	return func(id string) node.Node {
		return &TimeNode{BaseNode: node.NewBaseNode(id, "time_trigger", nil)}
	}
}

func (t *TimeNode) Arity() node.Arity {
	return node.Arity{Outputs: []node.PortDescriptor{{Name: "0"}}}
}

func (t *TimeNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	t.BaseNode = node.NewBaseNode(t.ID(), "time_trigger", config)
	ms := t.GetConfigFloat("interval_ms", 1000)
	if ms <= 0 {
		ms = 1000
	}
	t.interval = time.Duration(ms) * time.Millisecond
	t.count = t.GetConfigInt("count", 0)
	return nil
}

func (t *TimeNode) Run(_ []node.Input, outputs []*node.Output, rc node.RunContext) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	emitted := 0
	for {
		select {
		case <-rc.Done():
			return nil
		case <-ticker.C:
			if !outputs[0].Send(rc.Context, value.Number(float64(emitted))) {
				return nil
			}
			emitted++
			if t.count > 0 && emitted >= t.count {
				return nil
			}
		}
	}
}
