package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/sarchlab/thrash/cache/internal/tagging"
	"github.com/sarchlab/thrash/sim/hooking"
)

// State is a live simulated cache. Touches may run from many goroutines at
// once. Each line is updated atomically but a whole touch is not, so
// concurrent touches to one set give approximate counts.
//
// Hooks must be registered before touching starts, or under the same
// exclusion a Registry provides.
type State struct {
	hooking.HookableBase

	name   string
	spec   Spec
	tags   *tagging.TagArray
	epoch  atomic.Uint32
	hits   atomic.Uint32
	misses atomic.Uint32
}

// NewState allocates an empty cache with the given geometry.
func NewState(spec Spec) *State {
	return newNamedState("", spec)
}

func newNamedState(name string, spec Spec) *State {
	mustHaveReachableSets(spec)

	return &State{
		name: name,
		spec: spec,
		tags: tagging.NewTagArray(spec.NumSets(), spec.NumWays()),
	}
}

func mustHaveReachableSets(spec Spec) {
	if spec.Log2BlockSize > spec.Log2NumSets {
		panic(fmt.Sprintf(
			"cache with %d sets cannot be indexed with %d-byte blocks",
			spec.NumSets(), spec.BlockSize()))
	}
}

// Spec returns the geometry the state was built with.
func (s *State) Spec() Spec {
	return s.spec
}

// TouchAddress simulates one access to address.
func (s *State) TouchAddress(address uint64) {
	setIndex, tag := s.spec.Split(address)

	way, hit := s.tags.Lookup(int(setIndex), tag, &s.epoch)
	if hit {
		s.hits.Add(1)
		s.invoke(HookPosHit, address, setIndex, tag, way)

		return
	}

	stamp := s.epoch.Add(1) << 1
	prev := s.tags.Install(int(setIndex), way, tagging.Block{
		Tag:     tag,
		Recency: stamp,
		IsValid: true,
	})
	s.misses.Add(1)

	if prev.IsValid {
		s.invoke(HookPosEvict, address, setIndex, prev.Tag, way)
	}

	s.invoke(HookPosMiss, address, setIndex, tag, way)
}

func (s *State) invoke(
	pos *hooking.HookPos,
	address uint64,
	setIndex, tag uint32,
	way int,
) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    pos,
		Item: TouchEvent{
			Channel:  s.name,
			Address:  address,
			SetIndex: setIndex,
			Tag:      tag,
			Way:      way,
		},
	})
}

// Report takes a snapshot of the counters. The access count is the value of
// the recency epoch, which advances once per touch.
func (s *State) Report() Report {
	return Report{
		AccessCount: s.epoch.Load(),
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Spec:        s.spec,
	}
}
