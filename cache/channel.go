package cache

// A Channel selects a registry at compile time. Channel types carry no data;
// declare one as an empty struct whose Registry method returns a
// package-level registry:
//
//	type L2 struct{}
//
//	var l2 = cache.NewRegistry("L2")
//
//	func (L2) Registry() *cache.Registry { return l2 }
//
// The zero value of a channel type must be usable.
type Channel interface {
	Registry() *Registry
}

// Global is the channel used when no other is requested.
type Global struct{}

var globalRegistry = NewRegistry("Global")

// Registry returns the global registry.
func (Global) Registry() *Registry {
	return globalRegistry
}

// RegistryOf returns the registry selected by channel type C.
func RegistryOf[C Channel]() *Registry {
	var c C
	return c.Registry()
}

// Configure installs a fresh state built from spec on channel C. It returns
// the report of the state it replaced, if any.
func Configure[C Channel](spec Spec) (Report, bool) {
	return RegistryOf[C]().Configure(spec)
}

// GetReport snapshots channel C.
func GetReport[C Channel]() (Report, bool) {
	return RegistryOf[C]().Report()
}

// Finish tears down channel C and returns its final report.
func Finish[C Channel]() (Report, bool) {
	return RegistryOf[C]().Finish()
}
