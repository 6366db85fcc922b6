// Package vxlog wraps go.uber.org/zap for the core's resource-exhaustion
// boundary: ArenaExhausted, PoolFull and OctreeNodeExhausted events are
// worth a host operator's attention, but the core has no other logging
// surface (per spec, the hot meshing/traversal paths never log).
package vxlog

import "go.uber.org/zap"

var logger = zap.NewNop().Sugar()

// Replace swaps the package logger for l, letting a host application wire
// in its own zap configuration (sinks, level, sampling) instead of the
// no-op default.
func Replace(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	logger = l
}

// L returns the current package logger.
func L() *zap.SugaredLogger { return logger }
