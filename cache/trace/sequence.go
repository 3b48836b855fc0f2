package trace

import "sync/atomic"

// sequence orders rows written from concurrent touches.
type sequence struct {
	n atomic.Uint64
}

func (s *sequence) next() uint64 {
	return s.n.Add(1)
}
