package hooking

import (
	"sync"
)

// PosCountTracer counts how many times each hook position fires.
type PosCountTracer struct {
	lock     sync.Mutex
	posNames []string
	posCount map[string]uint64
}

// NewPosCountTracer creates a new PosCountTracer.
func NewPosCountTracer() *PosCountTracer {
	return &PosCountTracer{
		posCount: make(map[string]uint64),
	}
}

// Func counts the position of the invocation.
func (t *PosCountTracer) Func(ctx HookCtx) {
	if ctx.Pos == nil {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	_, ok := t.posCount[ctx.Pos.Name]
	if !ok {
		t.posNames = append(t.posNames, ctx.Pos.Name)
	}

	t.posCount[ctx.Pos.Name]++
}

// GetPosNames returns the position names seen so far, in order of first
// appearance.
func (t *PosCountTracer) GetPosNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, len(t.posNames))
	copy(names, t.posNames)

	return names
}

// GetCount returns how many times the given position fired.
func (t *PosCountTracer) GetCount(pos *HookPos) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.posCount[pos.Name]
}
