// Package config holds the engine-wide tunables: channel capacity, event
// bus buffering, blob-spill thresholds, and optional observability
// endpoints. It follows a Default()+fluent-With* pattern rather than a
// struct literal with exported fields, so new tunables can be added
// without breaking callers.
package config

import "time"

// Config carries every engine-wide tunable. Zero-value Config is not valid
// for use — always start from Default().
type Config struct {
	// ChannelCapacity is the buffer size of every point-to-point Pipe the
	// compiler wires between nodes.
	ChannelCapacity int

	// EventBusBufferSize is the buffer size of the engine's internal
	// ExecutionEvent channel. Events published to a subscriber whose buffer
	// is full are dropped; publishers and node execution never block on it.
	EventBusBufferSize int

	// EmitEdgeData toggles whether EdgeData events are published at all.
	// Disabling it keeps NodeStart/NodeFinish/NodeError but cuts the volume
	// of high-frequency per-value events for large graphs.
	EmitEdgeData bool

	// BlobSpillThresholdBytes is the serialized-size cutoff above which an
	// EdgeData value would be spilled to blob storage. The engine does not
	// read it: spill.NewBlobStore takes its own threshold argument and
	// treats a value of zero or less as 256 KiB.
	BlobSpillThresholdBytes int

	// ProcessTimeout is carried for hosts; the engine does not read it and
	// applies no per-run timeout beyond the job's own cancellation.
	ProcessTimeout time.Duration

	// NumWorkers is carried for hosts; the engine does not read it and runs
	// one goroutine per node regardless of its value.
	NumWorkers int

	// OTLPEndpoint names an OTel trace collector. The engine does not read
	// it; trace export is set up by the host through tracing.SetupTracing.
	OTLPEndpoint string

	// ServiceName/ServiceVersion/Environment tag emitted traces and logs.
	ServiceName    string
	ServiceVersion string
	Environment    string

	// SentryDSN names a Sentry project. The engine does not read it; the
	// scheduler reports recovered node panics to sentry's current hub,
	// which captures nothing unless the host has initialised sentry.
	SentryDSN string

	// NATSURL names a NATS server. The engine does not read it; events
	// reach NATS only through a natsbus.Publisher the host wires up.
	NATSURL string
}

// Default returns the engine's baseline configuration.
func Default() Config {
	return Config{
		ChannelCapacity:         16,
		EventBusBufferSize:      256,
		EmitEdgeData:            true,
		BlobSpillThresholdBytes: 256 * 1024,
		ProcessTimeout:          0,
		NumWorkers:              0,
		ServiceName:             "rustflow",
		ServiceVersion:          "dev",
		Environment:             "development",
	}
}

func (c Config) WithChannelCapacity(n int) Config {
	c.ChannelCapacity = n
	return c
}

func (c Config) WithEventBusBufferSize(n int) Config {
	c.EventBusBufferSize = n
	return c
}

func (c Config) WithEmitEdgeData(enabled bool) Config {
	c.EmitEdgeData = enabled
	return c
}

func (c Config) WithBlobSpillThresholdBytes(n int) Config {
	c.BlobSpillThresholdBytes = n
	return c
}

func (c Config) WithProcessTimeout(d time.Duration) Config {
	c.ProcessTimeout = d
	return c
}

func (c Config) WithNumWorkers(n int) Config {
	c.NumWorkers = n
	return c
}

func (c Config) WithOTLPEndpoint(endpoint string) Config {
	c.OTLPEndpoint = endpoint
	return c
}

func (c Config) WithServiceName(name string) Config {
	c.ServiceName = name
	return c
}

func (c Config) WithServiceVersion(version string) Config {
	c.ServiceVersion = version
	return c
}

func (c Config) WithEnvironment(env string) Config {
	c.Environment = env
	return c
}

func (c Config) WithSentryDSN(dsn string) Config {
	c.SentryDSN = dsn
	return c
}

func (c Config) WithNATSURL(url string) Config {
	c.NATSURL = url
	return c
}

// Validate checks the tunables for obviously invalid values, fast-failing
// at startup rather than deep into a run.
func (c Config) Validate() error {
	if c.ChannelCapacity < 0 {
		return errInvalid("ChannelCapacity must be >= 0")
	}
	if c.EventBusBufferSize < 0 {
		return errInvalid("EventBusBufferSize must be >= 0")
	}
	if c.BlobSpillThresholdBytes < 0 {
		return errInvalid("BlobSpillThresholdBytes must be >= 0")
	}
	if c.NumWorkers < 0 {
		return errInvalid("NumWorkers must be >= 0")
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errInvalid(msg string) error { return configError("config: " + msg) }
