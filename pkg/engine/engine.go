package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/wehubfusion/rustflow/pkg/compiler"
	"github.com/wehubfusion/rustflow/pkg/config"
	"github.com/wehubfusion/rustflow/pkg/engineerrors"
	"github.com/wehubfusion/rustflow/pkg/logging"
	"github.com/wehubfusion/rustflow/pkg/spill"
	"github.com/wehubfusion/rustflow/pkg/transport/natsbus"
)

// Engine owns every job submitted against it and the registry of node
// types available to the compiler. It is the top-level entry point for the
// engine-facing contract: submit a compiled-and-validated WorkflowDef, get
// back a job_id, poll or subscribe by that id.
type Engine struct {
	cfg       config.Config
	logger    logging.Logger
	registry  *compiler.Registry
	spill     spill.Store
	publisher natsbus.Publisher

	mu   sync.RWMutex
	jobs map[string]*Job
}

// New creates an Engine bound to a node registry and configuration. Large
// EdgeData values are not spilled and events are not republished externally
// until WithSpillStore/WithPublisher are called.
func New(registry *compiler.Registry, cfg config.Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NoOp{}
	}
	return &Engine{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		spill:     spill.NoopStore{},
		publisher: natsbus.NoopPublisher{},
		jobs:      map[string]*Job{},
	}
}

// WithSpillStore installs the store used to offload oversized EdgeData
// payloads out of band. Passing nil restores the no-op store.
func (e *Engine) WithSpillStore(s spill.Store) *Engine {
	if s == nil {
		s = spill.NoopStore{}
	}
	e.spill = s
	return e
}

// WithPublisher installs the transport used to republish every job's event
// stream externally. Passing nil restores the no-op publisher.
func (e *Engine) WithPublisher(p natsbus.Publisher) *Engine {
	if p == nil {
		p = natsbus.NoopPublisher{}
	}
	e.publisher = p
	return e
}

// Submit takes an already-compiled graph and immediately begins executing
// it in background goroutines, returning a Job the caller polls or
// subscribes to. Submit itself never blocks on execution.
func (e *Engine) Submit(cg *compiler.CompiledGraph) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	jobID := uuid.NewString()
	bus := NewEventBus(jobID, e.cfg.EventBusBufferSize, true)
	if _, ok := e.publisher.(natsbus.NoopPublisher); !ok {
		subjectPrefix := "rustflow.events"
		bus.SetForward(func(ev ExecutionEvent) {
			payload, err := MarshalEvent(ev)
			if err != nil {
				return
			}
			_ = e.publisher.Publish(subjectPrefix+"."+jobID, payload)
		})
	}
	job := newJob(jobID, cancel, bus)

	e.mu.Lock()
	e.jobs[job.ID] = job
	e.mu.Unlock()

	job.setRunning()
	go run(ctx, cancel, cg, e.cfg, e.logger, e.spill, job)

	return job
}

// Status returns the job's latched status by ID.
func (e *Engine) Status(jobID string) (JobStatus, error) {
	j, ok := e.lookup(jobID)
	if !ok {
		return "", engineerrors.ErrJobNotFound
	}
	return j.Status(), nil
}

// Subscribe returns the job's ExecutionEvent stream by ID.
func (e *Engine) Subscribe(jobID string) (<-chan ExecutionEvent, error) {
	j, ok := e.lookup(jobID)
	if !ok {
		return nil, engineerrors.ErrJobNotFound
	}
	return j.Subscribe(), nil
}

// Cancel requests the job stop.
func (e *Engine) Cancel(jobID string) error {
	j, ok := e.lookup(jobID)
	if !ok {
		return engineerrors.ErrJobNotFound
	}
	j.Cancel()
	return nil
}

// Job returns the full Job handle by ID, for callers that want direct
// access rather than going through Status/Subscribe/Cancel individually.
func (e *Engine) Job(jobID string) (*Job, error) {
	j, ok := e.lookup(jobID)
	if !ok {
		return nil, engineerrors.ErrJobNotFound
	}
	return j, nil
}

func (e *Engine) lookup(jobID string) (*Job, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	j, ok := e.jobs[jobID]
	return j, ok
}

// Registry exposes the engine's node registry, e.g. for a metadata
// endpoint listing registered types.
func (e *Engine) Registry() *compiler.Registry { return e.registry }
