package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	term    string
	matches []types.Match
	err     error
}

type recorder struct {
	mu      sync.Mutex
	results []result
	ch      chan result
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan result, 16)}
}

func (r *recorder) onResult(term string, matches []types.Match, err error) {
	r.mu.Lock()
	r.results = append(r.results, result{term, matches, err})
	r.mu.Unlock()
	r.ch <- result{term, matches, err}
}

func (r *recorder) wait(t *testing.T) result {
	select {
	case res := <-r.ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
		return result{}
	}
}

func echoSearch(calls *int32) SearchFunc {
	return func(ctx context.Context, term string) ([]types.Match, error) {
		atomic.AddInt32(calls, 1)
		return []types.Match{{Title: term}}, nil
	}
}

func TestBurstRunsOneSearch(t *testing.T) {
	var calls int32
	rec := newRecorder()
	d := New(context.Background(), 50*time.Millisecond, echoSearch(&calls), rec.onResult)
	defer d.Close()

	for _, term := range []string{"z", "ze", "zel", "zeld", "zelda"} {
		d.Trigger(term)
		time.Sleep(5 * time.Millisecond)
	}

	res := rec.wait(t)
	assert.Equal(t, "zelda", res.term)
	require.Len(t, res.matches, 1)
	assert.Equal(t, "zelda", res.matches[0].Title)

	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSeparateBurstsSearchEach(t *testing.T) {
	var calls int32
	rec := newRecorder()
	d := New(context.Background(), 20*time.Millisecond, echoSearch(&calls), rec.onResult)
	defer d.Close()

	d.Trigger("halo")
	assert.Equal(t, "halo", rec.wait(t).term)
	d.Trigger("hades")
	assert.Equal(t, "hades", rec.wait(t).term)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestEmptyTermEmitsImmediately(t *testing.T) {
	var calls int32
	rec := newRecorder()
	d := New(context.Background(), time.Hour, echoSearch(&calls), rec.onResult)
	defer d.Close()

	d.Trigger("dune")
	d.Trigger("  ")

	res := rec.wait(t)
	assert.Equal(t, "", res.term)
	assert.NotNil(t, res.matches)
	assert.Empty(t, res.matches)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNewTermCancelsRunningSearch(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	search := func(ctx context.Context, term string) ([]types.Match, error) {
		if term == "slow" {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return []types.Match{{Title: term}}, nil
	}

	rec := newRecorder()
	d := New(context.Background(), 10*time.Millisecond, search, rec.onResult)
	defer d.Close()

	d.Trigger("slow")
	<-started
	d.Trigger("fast")

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("running search was not cancelled")
	}

	res := rec.wait(t)
	assert.Equal(t, "fast", res.term)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.results, 1)
}

func TestCloseDropsPending(t *testing.T) {
	var calls int32
	rec := newRecorder()
	d := New(context.Background(), 20*time.Millisecond, echoSearch(&calls), rec.onResult)

	d.Trigger("dune")
	d.Close()
	d.Trigger("alien")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Empty(t, rec.ch)

	d.Close()
}
