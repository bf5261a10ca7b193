// Package ssalog provides the structured logging every pass and the
// pipeline driver use at pass boundaries (spec section 4.15). Grounded
// on go.uber.org/zap the way kubernetes-kubernetes's own components
// construct a base logger once at process startup and derive scoped
// children from it via With — the teacher itself is zero-dependency
// and logs nothing, so this package's shape comes entirely from the
// rest of the retrieval pack rather than from wazero.
package ssalog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger at the given level: zap.NewDevelopment's
// console encoding below zapcore.InfoLevel (a human is iterating on a
// single pass), zap.NewProduction's JSON encoding at InfoLevel and
// above (output meant to be piped into something that parses it).
func New(level zapcore.Level) (*zap.Logger, error) {
	if level < zapcore.InfoLevel {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// Component returns base scoped with a "component" field, per spec
// section 4.15 — one call per package that logs (ir, domtree, loops,
// regalloc, pipeline, ...).
func Component(base *zap.Logger, name string) *zap.Logger {
	return base.With(zap.String("component", name))
}
