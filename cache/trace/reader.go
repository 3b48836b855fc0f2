package trace

import (
	"context"

	"github.com/sarchlab/thrash/cache"
	"github.com/sarchlab/thrash/datarecording"
)

// Report converts the row back into the report it was recorded from.
func (e ReportEntry) Report() cache.Report {
	return cache.Report{
		AccessCount: e.AccessCount,
		Hits:        e.Hits,
		Misses:      e.Misses,
		Spec:        cache.NewSpec(e.Log2BlockSize, e.Log2NumSets, e.Log2NumWays),
	}
}

// Event converts the row back into the event the hook observed.
func (e TouchEntry) Event() cache.TouchEvent {
	return cache.TouchEvent{
		Channel:  e.Channel,
		Address:  e.Address,
		SetIndex: e.SetIndex,
		Tag:      e.Tag,
		Way:      e.Way,
	}
}

// ReadReports returns the recorded reports in recording order. An empty
// channel returns the reports of all channels.
func ReadReports(
	ctx context.Context,
	r *datarecording.Reader,
	channel string,
) ([]ReportEntry, error) {
	filter := datarecording.Filter{}
	if channel != "" {
		filter.Equal = map[string]any{"Channel": channel}
	}

	page, err := datarecording.Read[ReportEntry](ctx, r, ReportTable, filter)
	if err != nil {
		return nil, err
	}

	return page.Entries, nil
}

// A TouchQuery selects recorded touches. Empty fields match everything.
type TouchQuery struct {
	Channel string
	Kind    string
	Limit   int
	Offset  int
}

// ReadTouches returns recorded touches in the order they happened.
func ReadTouches(
	ctx context.Context,
	r *datarecording.Reader,
	q TouchQuery,
) (datarecording.Page[TouchEntry], error) {
	equal := map[string]any{}
	if q.Channel != "" {
		equal["Channel"] = q.Channel
	}

	if q.Kind != "" {
		equal["Kind"] = q.Kind
	}

	return datarecording.Read[TouchEntry](ctx, r, TouchTable,
		datarecording.Filter{
			Equal:   equal,
			OrderBy: "Seq",
			Limit:   q.Limit,
			Offset:  q.Offset,
		})
}
