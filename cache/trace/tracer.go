// Package trace records cache touches and reports into a database.
package trace

import (
	"github.com/rs/xid"
	"github.com/sarchlab/thrash/cache"
	"github.com/sarchlab/thrash/datarecording"
	"github.com/sarchlab/thrash/sim/hooking"
)

// Table names used by DBTracer.
const (
	TouchTable  = "cache_touches"
	ReportTable = "cache_reports"
)

// TouchEntry is one row of the touch table.
type TouchEntry struct {
	ID       string `json:"id"`
	Seq      uint64 `json:"seq"`
	Channel  string `json:"channel"`
	Kind     string `json:"kind"`
	Address  uint64 `json:"address"`
	SetIndex uint32 `json:"set_index"`
	Tag      uint32 `json:"tag"`
	Way      int    `json:"way"`
}

// ReportEntry is one row of the report table.
type ReportEntry struct {
	ID            string `json:"id"`
	Channel       string `json:"channel"`
	AccessCount   uint32 `json:"access_count"`
	Hits          uint32 `json:"hits"`
	Misses        uint32 `json:"misses"`
	Log2BlockSize uint8  `json:"log2_block_size"`
	Log2NumSets   uint8  `json:"log2_num_sets"`
	Log2NumWays   uint8  `json:"log2_num_ways"`
	TotalSize     uint64 `json:"total_size"`
}

// A DBTracer is a hook that writes every touch it observes into a data
// recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	seq          sequence
}

// NewDBTracer creates the touch and report tables and returns a tracer that
// fills them.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(TouchTable, TouchEntry{})
	t.dataRecorder.CreateTable(ReportTable, ReportEntry{})

	return t
}

// Func records one touch.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	event, ok := ctx.Item.(cache.TouchEvent)
	if !ok {
		return
	}

	entry := TouchEntry{
		ID:       xid.New().String(),
		Seq:      t.seq.next(),
		Channel:  event.Channel,
		Kind:     kindOf(ctx.Pos),
		Address:  event.Address,
		SetIndex: event.SetIndex,
		Tag:      event.Tag,
		Way:      event.Way,
	}

	t.dataRecorder.InsertData(TouchTable, entry)
}

// RecordReport stores a report for the named channel.
func (t *DBTracer) RecordReport(channel string, r cache.Report) {
	t.dataRecorder.InsertData(ReportTable, ReportEntry{
		ID:            xid.New().String(),
		Channel:       channel,
		AccessCount:   r.AccessCount,
		Hits:          r.Hits,
		Misses:        r.Misses,
		Log2BlockSize: r.Spec.Log2BlockSize,
		Log2NumSets:   r.Spec.Log2NumSets,
		Log2NumWays:   r.Spec.Log2NumWays,
		TotalSize:     r.Spec.TotalSize(),
	})
}

// Flush writes buffered rows to the database.
func (t *DBTracer) Flush() {
	t.dataRecorder.Flush()
}

func kindOf(pos *hooking.HookPos) string {
	switch pos {
	case cache.HookPosHit:
		return "hit"
	case cache.HookPosMiss:
		return "miss"
	case cache.HookPosEvict:
		return "evict"
	default:
		return "unknown"
	}
}
