package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collected struct {
	ids     []string
	invalid int
}

func (c *collected) sink(a *pipeline.Analysis, inv *pipeline.InvalidRequest) error {
	if inv != nil {
		c.invalid++
		c.ids = append(c.ids, "invalid:"+inv.Request.ID)
		return nil
	}
	c.ids = append(c.ids, a.RequestID)
	return nil
}

func TestRunBatch_PreservesOrderAndCounts(t *testing.T) {
	freezeClock(t)
	var out collected

	report, err := pipeline.RunBatch(context.Background(), newTestAnalyzer(newStubResolver()), readRequests(t), out.sink, pipeline.BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"req-1", "req-2", "req-3", "invalid:req-4", "req-5"}, out.ids)
	assert.Equal(t, pipeline.BatchReport{Processed: 4, Matched: 2, PublicRecords: 1, NotFound: 1, Invalid: 1}, report)
}

func TestRunBatch_Limit(t *testing.T) {
	freezeClock(t)
	res := newStubResolver()
	var out collected

	report, err := pipeline.RunBatch(context.Background(), newTestAnalyzer(res), readRequests(t), out.sink, pipeline.BatchOptions{Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"req-1", "req-2"}, out.ids)
	assert.Equal(t, 3, report.Skipped)
	assert.Len(t, res.calls, 2)
}

func TestRunBatch_SinkErrorStops(t *testing.T) {
	freezeClock(t)
	calls := 0
	sink := func(*pipeline.Analysis, *pipeline.InvalidRequest) error {
		calls++
		return errors.New("disk full")
	}

	_, err := pipeline.RunBatch(context.Background(), newTestAnalyzer(newStubResolver()), readRequests(t), sink, pipeline.BatchOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out collected

	_, err := pipeline.RunBatch(ctx, newTestAnalyzer(newStubResolver()), readRequests(t), out.sink, pipeline.BatchOptions{Throttle: time.Hour})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.ids)
}

func TestRunBatch_Throttle(t *testing.T) {
	freezeClock(t)
	reqs := readRequests(t)[:3]
	var out collected

	start := time.Now()
	_, err := pipeline.RunBatch(context.Background(), newTestAnalyzer(newStubResolver()), reqs, out.sink, pipeline.BatchOptions{Throttle: 30 * time.Millisecond})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}
