package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDGenerator issues operation IDs "<prefix>-0001", "<prefix>-0002", ...
// It satisfies engine.IDGenerator and makes event logs byte-identical across runs.
type SequentialIDGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewSequentialIDGenerator creates a generator. An empty prefix defaults to "op".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "op"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.n.Add(1))
}
