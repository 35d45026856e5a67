// Command rustflow compiles a workflow document and runs it to completion,
// printing its ExecutionEvent stream as newline-delimited JSON to stdout.
// It is the minimal host program around the engine package: structured
// logging, OTLP tracing setup with a deferred shutdown, and signal-driven
// graceful cancellation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wehubfusion/rustflow/internal/tracing"
	"github.com/wehubfusion/rustflow/pkg/compiler"
	"github.com/wehubfusion/rustflow/pkg/config"
	"github.com/wehubfusion/rustflow/pkg/engine"
	"github.com/wehubfusion/rustflow/pkg/graph"
	"github.com/wehubfusion/rustflow/pkg/logging"
	"github.com/wehubfusion/rustflow/pkg/nodes"
)

func main() {
	workflowPath := flag.String("workflow", "", "path to a workflow YAML document")
	otlpEndpoint := flag.String("otlp-endpoint", "", "OTLP/HTTP trace collector endpoint (host:port); tracing is disabled when empty")
	timeout := flag.Duration("timeout", 5*time.Minute, "maximum time to wait for the job to finish")
	flag.Parse()

	if *workflowPath == "" {
		fmt.Fprintln(os.Stderr, "usage: rustflow -workflow path/to/workflow.yaml")
		os.Exit(2)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	logger := logging.NewZap(zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *otlpEndpoint != "" {
		tracingCfg := tracing.DefaultConfig("rustflow")
		tracingCfg.OTLPEndpoint = *otlpEndpoint
		shutdown, err := tracing.SetupTracing(ctx, tracingCfg, zapLogger)
		if err != nil {
			logger.Warn("tracing disabled: setup failed", logging.Err(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()
		}
	}

	raw, err := os.ReadFile(*workflowPath)
	if err != nil {
		logger.Error("failed to read workflow file", logging.String("path", *workflowPath), logging.Err(err))
		os.Exit(1)
	}

	def, err := graph.ParseAndNormalize(raw)
	if err != nil {
		logger.Error("failed to parse workflow", logging.Err(err))
		os.Exit(1)
	}

	reg := nodes.NewRegistry()
	cfg := config.Default()

	cg, err := compiler.Compile(def, reg, nil, cfg)
	if err != nil {
		logger.Error("failed to compile workflow", logging.Err(err))
		os.Exit(1)
	}

	eng := engine.New(reg, cfg, logger)
	job := eng.Submit(cg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received, cancelling job", logging.String("job_id", job.ID))
		job.Cancel()
	}()

	events := job.Subscribe()
	deadline := time.After(*timeout)
	timedOut := false

drain:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break drain
			}
			payload, err := engine.MarshalEvent(ev)
			if err != nil {
				continue
			}
			fmt.Println(string(payload))
		case <-deadline:
			logger.Warn("timed out waiting for job to finish", logging.String("job_id", job.ID))
			job.Cancel()
			timedOut = true
			break drain
		}
	}

	if timedOut {
		fmt.Fprintf(os.Stderr, "job %s timed out after %s\n", job.ID, *timeout)
		os.Exit(1)
	}
	if job.Status() == engine.JobFailed {
		fmt.Fprintf(os.Stderr, "job %s failed: %v\n", job.ID, job.Err())
		os.Exit(1)
	}
}
