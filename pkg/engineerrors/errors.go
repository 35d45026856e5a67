// Package engineerrors implements the error taxonomy from the engine's
// error-handling design: structured compile-time errors that prevent any
// execution, and runtime errors that surface as NodeError events without
// panicking the host process.
package engineerrors

import (
	"errors"
	"fmt"
)

// CompileErrorKind enumerates the categories of graph-compile failure.
type CompileErrorKind string

const (
	KindUnknownNodeType CompileErrorKind = "UnknownNodeType"
	KindDuplicateID     CompileErrorKind = "DuplicateId"
	KindMissingPort     CompileErrorKind = "MissingPort"
	KindBadEdge         CompileErrorKind = "BadEdge"
	KindCycle           CompileErrorKind = "Cycle"
	KindConfigError     CompileErrorKind = "ConfigError"
	KindCredentialError CompileErrorKind = "CredentialError"
)

// CompileError is raised by the graph compiler. It is fatal: no partial
// graph is ever executed when a CompileError is returned.
type CompileError struct {
	Kind   CompileErrorKind
	Detail string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compile error [%s]: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("compile error [%s]: %s", e.Kind, e.Detail)
}

func (e *CompileError) Unwrap() error { return e.Err }

// NewCompileError builds a CompileError of the given kind.
func NewCompileError(kind CompileErrorKind, detail string, err error) *CompileError {
	return &CompileError{Kind: kind, Detail: detail, Err: err}
}

// RuntimeError wraps a failure raised by a node's run method. It carries
// the originating node so the scheduler can attribute the first NodeError
// as the job's root cause.
type RuntimeError struct {
	NodeID string
	Err    error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.NodeID, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// NewRuntimeError wraps err as a RuntimeError attributed to nodeID.
func NewRuntimeError(nodeID string, err error) *RuntimeError {
	return &RuntimeError{NodeID: nodeID, Err: err}
}

// Sentinel errors for conditions that don't need structured detail.
var (
	// ErrCancelled indicates a job terminated due to external cancellation.
	// It is not treated as a failure.
	ErrCancelled = errors.New("job cancelled")

	// ErrChannelClosed indicates end-of-stream on a receiver. It is not an
	// error in the Go sense — callers test for it explicitly rather than
	// propagating it — but is named here alongside the true error kinds.
	ErrChannelClosed = errors.New("channel closed")

	// ErrNodeNotFound indicates a lookup against a node ID the graph
	// doesn't contain.
	ErrNodeNotFound = errors.New("node not found")

	// ErrJobNotFound indicates a lookup against a job ID the engine
	// doesn't know about.
	ErrJobNotFound = errors.New("job not found")

	// ErrEmptyNodeID indicates a NodeSpec with a blank ID.
	ErrEmptyNodeID = errors.New("node id must not be empty")
)

// IsCancelled reports whether err is, or wraps, ErrCancelled.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// AsCompileError extracts a *CompileError from err, if present anywhere in
// its chain.
func AsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsRuntimeError extracts a *RuntimeError from err, if present anywhere in
// its chain.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
