package cache

import (
	"fmt"

	"github.com/sarchlab/thrash/sim/hooking"
)

// Hook positions invoked on the touch path.
var (
	HookPosHit   = &hooking.HookPos{Name: "CacheHit"}
	HookPosMiss  = &hooking.HookPos{Name: "CacheMiss"}
	HookPosEvict = &hooking.HookPos{Name: "CacheEvict"}
)

// A TouchEvent is the item passed to hooks for every touch. For
// HookPosEvict, Tag is the tag of the block being replaced.
type TouchEvent struct {
	Channel  string
	Address  uint64
	SetIndex uint32
	Tag      uint32
	Way      int
}

func (e TouchEvent) String() string {
	return fmt.Sprintf("%s %#x set %d tag %#x way %d",
		e.Channel, e.Address, e.SetIndex, e.Tag, e.Way)
}
