package cache

import (
	"fmt"
	"sort"
)

// Spec describes the geometry of a set-associative cache. Every dimension is
// stored as a base-2 exponent.
//
// The exponents must be small enough that TotalSize fits in 64 bits and that
// Log2BlockSize+Log2NumSets stays below 64. Larger values are undefined
// behavior and are not checked. Log2BlockSize must not exceed Log2NumSets,
// because Split can otherwise yield set indexes past the last set. This one
// is checked, and more strictly than overflow: NewState panics on such a spec
// even if no touch would ever land past the last set.
type Spec struct {
	Log2BlockSize uint8 `json:"log2_block_size"`
	Log2NumSets   uint8 `json:"log2_num_sets"`
	Log2NumWays   uint8 `json:"log2_num_ways"`
}

// NewSpec creates a spec from its three exponents.
func NewSpec(log2BlockSize, log2NumSets, log2NumWays uint8) Spec {
	return Spec{
		Log2BlockSize: log2BlockSize,
		Log2NumSets:   log2NumSets,
		Log2NumWays:   log2NumWays,
	}
}

// Spec8KiB32B2Way returns an 8 KiB, 2-way cache with 32-byte lines.
func Spec8KiB32B2Way() Spec {
	return NewSpec(5, 7, 1)
}

// Spec32KiB64B8Way returns a 32 KiB, 8-way cache with 64-byte lines.
func Spec32KiB64B8Way() Spec {
	return NewSpec(6, 6, 3)
}

// Spec256KiB64B4Way returns a 256 KiB, 4-way cache with 64-byte lines.
func Spec256KiB64B4Way() Spec {
	return NewSpec(6, 10, 2)
}

var presets = map[string]func() Spec{
	"8kib-32b-2way":   Spec8KiB32B2Way,
	"32kib-64b-8way":  Spec32KiB64B8Way,
	"256kib-64b-4way": Spec256KiB64B4Way,
}

// PresetByName returns a named preset spec.
func PresetByName(name string) (Spec, error) {
	preset, ok := presets[name]
	if !ok {
		return Spec{}, fmt.Errorf("unknown cache preset %q", name)
	}

	return preset(), nil
}

// PresetNames lists the names accepted by PresetByName.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// BlockSize returns the number of bytes in a line.
func (s Spec) BlockSize() int {
	return 1 << s.Log2BlockSize
}

// NumSets returns the number of sets.
func (s Spec) NumSets() int {
	return 1 << s.Log2NumSets
}

// NumWays returns the number of lines per set.
func (s Spec) NumWays() int {
	return 1 << s.Log2NumWays
}

// TotalSize returns the capacity of the cache in bytes.
func (s Spec) TotalSize() uint64 {
	return uint64(s.BlockSize()) * uint64(s.NumSets()) * uint64(s.NumWays())
}

// Split breaks an address into a set index and a tag.
//
// The set index is masked with BlockSize()-1, not NumSets()-1, so only
// Log2BlockSize bits select the set. Recorded hit and miss figures depend on
// this exact arithmetic. The tag drops address bits above bit 31 of the
// shifted value.
func (s Spec) Split(address uint64) (setIndex, tag uint32) {
	setIndex = uint32((address >> s.Log2BlockSize) & (uint64(s.BlockSize()) - 1))
	tag = uint32(address >> (s.Log2BlockSize + s.Log2NumSets))

	return setIndex, tag
}

func (s Spec) String() string {
	return fmt.Sprintf("%dB lines x %d sets x %d ways (%d bytes)",
		s.BlockSize(), s.NumSets(), s.NumWays(), s.TotalSize())
}
