package tagging

import (
	"sync/atomic"
)

// A TagArray holds numSets sets of numWays lines each. Its shape is fixed at
// construction.
type TagArray struct {
	numSets int
	numWays int
	lines   []Line
}

// NewTagArray allocates a tag array in which every line is invalid.
func NewTagArray(numSets, numWays int) *TagArray {
	return &TagArray{
		numSets: numSets,
		numWays: numWays,
		lines:   make([]Line, numSets*numWays),
	}
}

// NumSets returns the number of sets.
func (t *TagArray) NumSets() int {
	return t.numSets
}

// NumWays returns the number of lines in each set.
func (t *TagArray) NumWays() int {
	return t.numWays
}

// Set returns the lines of one set.
func (t *TagArray) Set(setID int) []Line {
	start := setID * t.numWays
	return t.lines[start : start+t.numWays]
}

// Block returns the content of one line.
func (t *TagArray) Block(setID, wayID int) Block {
	return t.Set(setID)[wayID].Load()
}

// Lookup searches a set for tag. A match refreshes the line's recency and
// returns hit. Otherwise the returned way is the victim the caller should
// install the block into.
//
// The victim scan starts from way 0 with that line's recency as the
// baseline. The first empty line, or the first occupied line older than the
// baseline, becomes the victim and ends the comparison; later lines are only
// checked for a match.
func (t *TagArray) Lookup(
	setID int,
	tag uint32,
	epoch *atomic.Uint32,
) (wayID int, hit bool) {
	set := t.Set(setID)

	victim := 0
	baseline := set[0].Load().Recency
	comparing := true

	for i := range set {
		outcome, recency := set[i].TouchIfMatches(tag, epoch)

		switch outcome {
		case Match:
			return i, true
		case Empty:
			if comparing {
				victim = i
				comparing = false
			}
		case Occupied:
			if comparing && recency < baseline {
				victim = i
				comparing = false
			}
		}
	}

	return victim, false
}

// Install overwrites a line with a freshly fetched block and returns what was
// there before.
func (t *TagArray) Install(setID, wayID int, b Block) Block {
	line := &t.Set(setID)[wayID]
	prev := line.Load()
	line.Store(b)

	return prev
}
