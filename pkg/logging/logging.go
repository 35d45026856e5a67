// Package logging defines the structured logging interface used throughout
// the engine, backed by go.uber.org/zap in production and a no-op
// implementation everywhere a logger isn't supplied.
package logging

import "go.uber.org/zap"

// Field is a key-value pair carried on a log line. It is not a zap.Field;
// the zap-backed Logger converts each Field to a zap field when it logs.
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the logging interface every engine component depends on. Nodes
// and infrastructure code never import zap directly — they depend on this
// interface so tests can inject a recording logger without a zap dependency.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// NoOp is a Logger that discards everything. It is the default when no
// logger is configured.
type NoOp struct{}

func (NoOp) Debug(string, ...Field) {}
func (NoOp) Info(string, ...Field)  {}
func (NoOp) Warn(string, ...Field)  {}
func (NoOp) Error(string, ...Field) {}

var _ Logger = NoOp{}

// Zap adapts a *zap.Logger to the Logger interface.
type Zap struct {
	base *zap.Logger
}

// NewZap wraps a *zap.Logger. A nil base is treated as a no-op.
func NewZap(base *zap.Logger) *Zap {
	return &Zap{base: base}
}

func (z *Zap) Debug(msg string, fields ...Field) {
	if z == nil || z.base == nil {
		return
	}
	z.base.Debug(msg, toZapFields(fields)...)
}

func (z *Zap) Info(msg string, fields ...Field) {
	if z == nil || z.base == nil {
		return
	}
	z.base.Info(msg, toZapFields(fields)...)
}

func (z *Zap) Warn(msg string, fields ...Field) {
	if z == nil || z.base == nil {
		return
	}
	z.base.Warn(msg, toZapFields(fields)...)
}

func (z *Zap) Error(msg string, fields ...Field) {
	if z == nil || z.base == nil {
		return
	}
	z.base.Error(msg, toZapFields(fields)...)
}

var _ Logger = (*Zap)(nil)

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// String, Int, Err, and Bool are small convenience constructors so call
// sites read like zap.String(...)/zap.Error(...) without importing zap.
func String(key, val string) Field   { return Field{Key: key, Value: val} }
func Int(key string, val int) Field  { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }
func Err(err error) Field            { return Field{Key: "error", Value: err} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
