package tagging

import (
	"sync/atomic"
)

// Bit layout of a packed line, high to low:
//
//	63 - 32 | 31 - 1  | 0
//	tag     | recency | valid
const (
	tagShift    = 32
	recencyMask = uint64(0xfffffffe)
	validBit    = uint64(1)
)

// A Block is the unpacked view of a cache line.
type Block struct {
	Tag     uint32
	Recency uint32
	IsValid bool
}

// Pack encodes a block into a single word. Only the low 31 bits of the
// recency are kept.
func Pack(b Block) uint64 {
	word := uint64(b.Tag) << tagShift
	word |= (uint64(b.Recency) << 1) & recencyMask

	if b.IsValid {
		word |= validBit
	}

	return word
}

// Unpack decodes a word produced by Pack.
func Unpack(word uint64) Block {
	return Block{
		Tag:     uint32(word >> tagShift),
		Recency: uint32(word) >> 1,
		IsValid: word&validBit == validBit,
	}
}

// Outcome classifies a line against a candidate tag.
type Outcome int

// Possible outcomes of TouchIfMatches.
const (
	Empty Outcome = iota
	Occupied
	Match
)

func (o Outcome) String() string {
	switch o {
	case Empty:
		return "empty"
	case Occupied:
		return "occupied"
	case Match:
		return "match"
	default:
		return "unknown"
	}
}

// A Line is one way of a set. All of its state lives in one atomic word, so
// it can be read and updated concurrently without locks.
type Line struct {
	word atomic.Uint64
}

// Load returns the current content of the line.
func (l *Line) Load() Block {
	return Unpack(l.word.Load())
}

// Store overwrites the whole line.
func (l *Line) Store(b Block) {
	l.word.Store(Pack(b))
}

// TouchIfMatches checks the line against tag. On a match it advances epoch
// and writes the new stamp into the recency bits, leaving the tag and the
// valid bit untouched. Otherwise the line is not modified and the returned
// recency is only meaningful for Occupied.
func (l *Line) TouchIfMatches(tag uint32, epoch *atomic.Uint32) (Outcome, uint32) {
	word := l.word.Load()
	b := Unpack(word)

	switch {
	case b.IsValid && b.Tag == tag:
		stamp := epoch.Add(1) << 1
		l.word.Store(word&^recencyMask | uint64(stamp))

		return Match, b.Recency
	case b.IsValid:
		return Occupied, b.Recency
	default:
		return Empty, 0
	}
}
