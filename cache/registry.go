package cache

import (
	"fmt"
	"sync"

	"github.com/sarchlab/thrash/sim/hooking"
)

// A Registry is one cache channel: a process-wide slot that is either
// unconfigured or holds one live State.
//
// Configure and Finish take the slot exclusively. Touch and Report share it,
// so touches from many goroutines run in parallel and only wait for a
// reconfiguration in progress.
type Registry struct {
	name  string
	lock  sync.RWMutex
	state *State
	hooks hooking.HookableBase
}

var (
	directoryLock sync.Mutex
	directory     = make(map[string]*Registry)
	directoryList []*Registry
)

// NewRegistry declares a new unconfigured channel. Names must be unique in
// the process; declaring a name twice panics.
func NewRegistry(name string) *Registry {
	directoryLock.Lock()
	defer directoryLock.Unlock()

	if _, found := directory[name]; found {
		panic(fmt.Sprintf("cache channel %q already declared", name))
	}

	r := &Registry{name: name}
	directory[name] = r
	directoryList = append(directoryList, r)

	return r
}

// Registries returns every declared channel in declaration order.
func Registries() []*Registry {
	directoryLock.Lock()
	defer directoryLock.Unlock()

	list := make([]*Registry, len(directoryList))
	copy(list, directoryList)

	return list
}

// LookupRegistry finds a declared channel by name.
func LookupRegistry(name string) (*Registry, bool) {
	directoryLock.Lock()
	defer directoryLock.Unlock()

	r, found := directory[name]

	return r, found
}

// Name returns the name the channel was declared with.
func (r *Registry) Name() string {
	return r.name
}

// Configure replaces the current state with a fresh one built from spec. If
// a state was installed before, its final report is returned.
func (r *Registry) Configure(spec Spec) (Report, bool) {
	state := newNamedState(r.name, spec)

	r.lock.Lock()
	defer r.lock.Unlock()

	for _, hook := range r.hooks.Hooks() {
		state.AcceptHook(hook)
	}

	prev := r.state
	r.state = state

	if prev == nil {
		return Report{}, false
	}

	return prev.Report(), true
}

// Report snapshots the current state without changing it.
func (r *Registry) Report() (Report, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.state == nil {
		return Report{}, false
	}

	return r.state.Report(), true
}

// Finish removes the current state, leaving the channel unconfigured, and
// returns its final report.
func (r *Registry) Finish() (Report, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	prev := r.state
	r.state = nil

	if prev == nil {
		return Report{}, false
	}

	return prev.Report(), true
}

// IsConfigured tells whether the channel currently holds a state.
func (r *Registry) IsConfigured() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.state != nil
}

// Touch simulates an access to address. It does nothing when the channel is
// unconfigured.
func (r *Registry) Touch(address uint64) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.state == nil {
		return
	}

	r.state.TouchAddress(address)
}

// AcceptHook registers a hook that observes every touch on this channel. The
// hook stays registered across Configure and Finish.
//
// Hooks run while the touch holds the channel's read lock. A hook must not
// call back into the registry; a nested Report deadlocks as soon as a
// Configure or Finish is waiting. To read counters from a hook, use the
// *State passed as the Domain of the HookCtx.
func (r *Registry) AcceptHook(hook hooking.Hook) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.hooks.AcceptHook(hook)

	if r.state != nil {
		r.state.AcceptHook(hook)
	}
}

// RemoveHook unregisters a hook from the channel and its current state.
func (r *Registry) RemoveHook(hook hooking.Hook) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.hooks.RemoveHook(hook)

	if r.state != nil {
		r.state.RemoveHook(hook)
	}
}

// NumHooks returns the number of hooks registered.
func (r *Registry) NumHooks() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.hooks.NumHooks()
}

// Hooks returns the registered hooks.
func (r *Registry) Hooks() []hooking.Hook {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.hooks.Hooks()
}
