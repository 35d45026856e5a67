package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wehubfusion/rustflow/pkg/compiler"
	"github.com/wehubfusion/rustflow/pkg/config"
	"github.com/wehubfusion/rustflow/pkg/engineerrors"
	"github.com/wehubfusion/rustflow/pkg/logging"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/spill"
	"github.com/wehubfusion/rustflow/pkg/value"
)

var tracer = otel.Tracer("github.com/wehubfusion/rustflow/pkg/engine")

// diagnosticEmitter adapts an EventBus to node.EventEmitter so nodes can
// publish ad-hoc diagnostic events through the same RunContext field other
// engine internals use.
type diagnosticEmitter struct {
	bus *EventBus
}

func (d diagnosticEmitter) EmitDiagnostic(nodeID, message string, fields map[string]interface{}) {
	d.bus.Publish(ExecutionEvent{
		Kind:   EventDiagnostic,
		NodeID: nodeID,
		Error:  message,
	})
}

// run executes a compiled graph to completion, spawning one goroutine per
// node: shared cancellation, NodeStart before any work, NodeFinish/
// NodeError closing that node's outputs, and automatic EdgeData
// instrumentation on every send.
func run(ctx context.Context, cancel context.CancelFunc, cg *compiler.CompiledGraph, cfg config.Config, logger logging.Logger, spillStore spill.Store, job *Job) {
	jobCtx, jobSpan := tracer.Start(ctx, "job.run", trace.WithAttributes(attribute.String("job.id", job.ID)))
	defer jobSpan.End()
	defer cancel()

	if spillStore == nil {
		spillStore = spill.NoopStore{}
	}

	if cfg.EmitEdgeData {
		for _, out := range cg.Outputs() {
			out.SetEmitHook(func(fromNode, fromPort, toNode, toPort string, v value.Value) {
				ev := ExecutionEvent{Kind: EventEdgeData, From: fromNode, To: toNode}

				ref, spilled, err := spillStore.Spill(jobCtx, job.ID, fromNode, job.bus.seq.Load()+1, v)
				if err != nil {
					logger.Warn("edge value spill failed", logging.String("node_id", fromNode), logging.Err(err))
				}
				if spilled {
					ev.Ref = &ref
				} else {
					vv := v
					ev.Value = &vv
				}

				job.bus.Publish(ev)
			})
		}
	}

	ids := cg.NodeIDs()
	if len(ids) == 0 {
		job.complete()
		job.bus.CloseSubscribers()
		return
	}

	var wg sync.WaitGroup
	var failOnce sync.Once

	for _, id := range ids {
		id := id
		typ, n, inputs, outputs, ok := cg.Node(id)
		if !ok {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNode(jobCtx, cancel, id, typ, n, inputs, outputs, cfg, logger, job, &failOnce)
		}()
	}

	wg.Wait()

	if job.Status() == JobRunning {
		job.complete()
	}
	if job.Status() == JobFailed {
		jobSpan.SetStatus(codes.Error, "job failed")
	}
	job.bus.CloseSubscribers()
}

func runNode(
	jobCtx context.Context,
	cancelAll context.CancelFunc,
	id, typ string,
	n node.Node,
	inputs []node.Input,
	outputs []*node.Output,
	cfg config.Config,
	logger logging.Logger,
	job *Job,
	failOnce *sync.Once,
) {
	job.bus.Publish(ExecutionEvent{Kind: EventNodeStart, NodeID: id})

	nodeCtx, nodeSpan := tracer.Start(jobCtx, "node.run", trace.WithAttributes(
		attribute.String("node.id", id),
		attribute.String("node.type", typ),
	))
	defer nodeSpan.End()

	rc := node.RunContext{
		Context:    nodeCtx,
		NodeID:     id,
		Logger:     logger,
		Events:     diagnosticEmitter{bus: job.bus},
		Credential: node.NoCredentials{},
	}

	runErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sentry.CurrentHub().Recover(r)
				err = fmt.Errorf("node %q panicked: %v", id, r)
			}
		}()
		return n.Run(inputs, outputs, rc)
	}()

	for _, out := range outputs {
		out.Close()
	}

	if runErr != nil {
		nodeSpan.RecordError(runErr)
		nodeSpan.SetStatus(codes.Error, runErr.Error())
	}

	select {
	case <-jobCtx.Done():
		if job.Status() != JobFailed {
			logger.Debug("node finished after cancellation", logging.String("node_id", id), logging.String("type", typ))
		}
	default:
	}

	if runErr != nil {
		wrapped := engineerrors.NewRuntimeError(id, runErr)
		job.bus.Publish(ExecutionEvent{Kind: EventNodeError, NodeID: id, Error: wrapped.Error()})
		failOnce.Do(func() {
			job.fail(wrapped)
			cancelAll()
		})
		return
	}

	cancelled := false
	select {
	case <-jobCtx.Done():
		cancelled = job.Status() == JobCancelled
	default:
	}
	job.bus.Publish(ExecutionEvent{Kind: EventNodeFinish, NodeID: id, Cancelled: cancelled})
}
