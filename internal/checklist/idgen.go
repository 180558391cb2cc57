package checklist

import (
	"sync"
	"time"
)

// IDGenerator issues millisecond timestamps as task ids, bumping past the
// last issued id and any id already in the collection so that two tasks
// created within one clock tick still get distinct, ordered ids.
type IDGenerator struct {
	mu    sync.Mutex
	clock func() time.Time
	last  int64
}

func NewIDGenerator(clock func() time.Time) *IDGenerator {
	if clock == nil {
		clock = time.Now
	}
	return &IDGenerator{clock: clock}
}

// Next returns an id greater than floor and every id issued before.
func (g *IDGenerator) Next(floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.clock().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	g.last = id
	return id
}
