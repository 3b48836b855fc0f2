// Package tracked wraps values so that every read is replayed as a touch on
// a simulated cache.
//
// A Value is exactly as large as the value it holds. The channel it reports
// to is a type parameter and takes no space:
//
//	cache.Configure[cache.Global](cache.Spec8KiB32B2Way())
//
//	v := tracked.New(42)
//	_ = v.Get()
//	_ = v.Get()
//
//	report, _ := cache.Finish[cache.Global]()
//	// report.Hits == 1, report.Misses == 1
//
// The address reported is the address of the Value itself, wherever it lives
// when it is read. Copying a Value moves it to a new address.
package tracked

import (
	"unsafe"

	"github.com/sarchlab/thrash/cache"
)

// Value holds a T and reports reads to the registry of channel C.
type Value[T any, C cache.Channel] struct {
	v T
}

// New wraps v on the global channel.
func New[T any](v T) Value[T, cache.Global] {
	return Value[T, cache.Global]{v: v}
}

// NewOn wraps v on channel C.
func NewOn[C cache.Channel, T any](v T) Value[T, C] {
	return Value[T, C]{v: v}
}

// Deref touches the address of p on its channel and returns a pointer to the
// held value. When the channel is unconfigured nothing is simulated.
func (p *Value[T, C]) Deref() *T {
	p.touch()
	return &p.v
}

// Get touches the address of p and returns a copy of the held value.
func (p *Value[T, C]) Get() T {
	return *p.Deref()
}

// Prefetch has the same effect on the simulated cache as Deref but does not
// read the value.
func (p *Value[T, C]) Prefetch() {
	p.touch()
}

// Addr returns the address that reads of p are reported at.
func (p *Value[T, C]) Addr() uint64 {
	return uint64(uintptr(unsafe.Pointer(p)))
}

func (p *Value[T, C]) touch() {
	var c C
	c.Registry().Touch(p.Addr())
}

// Prefetch touches the cache line holding p without reading it.
func Prefetch[T any, C cache.Channel](p *Value[T, C]) {
	p.Prefetch()
}
