package report

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

var now = time.Date(2024, time.March, 31, 9, 0, 0, 0, time.Local)

func seed(t *testing.T) (*Engine, map[int]int64, core.Category, core.Category) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	mine, err := store.CreateCategory(ctx, core.Category{Name: "Food", Owner: core.OwnerRef(1)})
	require.NoError(t, err)
	theirs, err := store.CreateCategory(ctx, core.Category{Name: "Food", Owner: core.OwnerRef(2)})
	require.NoError(t, err)

	today := core.DateOf(now)
	ids := map[int]int64{}
	for _, back := range []int{0, 1, 7, 8, 30, 31} {
		tx, err := store.CreateTransaction(ctx, core.Transaction{
			Title: "t", Amount: 1, Type: core.Expense, Description: "d",
			Date: today.AddDays(-back), Category: mine,
		})
		require.NoError(t, err)
		ids[back] = tx.ID
	}
	_, err = store.CreateTransaction(ctx, core.Transaction{
		Title: "other", Amount: 1, Type: core.Income, Description: "d",
		Date: today, Category: theirs,
	})
	require.NoError(t, err)

	return NewEngine(store, core.FixedClock(now)), ids, mine, theirs
}

func idsOf(txs []core.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestWindowBoundaries(t *testing.T) {
	e, ids, _, _ := seed(t)
	ctx := context.Background()

	tests := []struct {
		window Window
		want   []int64
	}{
		{Daily, []int64{ids[0]}},
		{Weekly, []int64{ids[0], ids[1], ids[7]}},
		{Monthly, []int64{ids[0], ids[1], ids[7], ids[8], ids[30]}},
	}
	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			txs, err := e.Report(ctx, 1, tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, idsOf(txs))
		})
	}
}

func TestReportEmptyIsNotNil(t *testing.T) {
	e, _, _, _ := seed(t)
	txs, err := e.Report(context.Background(), 99, Daily)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)

	_, err = e.Report(context.Background(), 0, Daily)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestByCategory(t *testing.T) {
	e, ids, mine, theirs := seed(t)
	ctx := context.Background()

	txs, err := e.ByCategory(ctx, 1, mine.ID)
	require.NoError(t, err)
	assert.Len(t, txs, len(ids))

	_, err = e.ByCategory(ctx, 1, theirs.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = e.ByCategory(ctx, 1, 404)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("weekly")
	require.NoError(t, err)
	assert.Equal(t, Weekly, w)

	_, err = ParseWindow("yearly")
	assert.ErrorIs(t, err, core.ErrNotFound)

	from, to := Monthly.Range(core.NewDate(2024, time.March, 31))
	assert.Equal(t, "2024-03-01", from.String())
	assert.Equal(t, "2024-03-31", to.String())
}

type countingReporter struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (c *countingReporter) Report(context.Context, core.UserID, Window) ([]core.Transaction, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return []core.Transaction{{ID: 1}}, nil
}

func (c *countingReporter) ByCategory(context.Context, core.UserID, int64) ([]core.Transaction, error) {
	c.calls.Add(1)
	return []core.Transaction{{ID: 2}}, nil
}

func newCached(next Reporter) *Cached {
	today := func() core.Date { return core.DateOf(now) }
	return NewCached(next, today, cache.NewLRUCache[[]core.Transaction](16, time.Minute), nil)
}

func TestCachedServesRepeatsAndInvalidatesPerOwner(t *testing.T) {
	ctx := context.Background()
	next := &countingReporter{}
	c := newCached(next)

	for range 3 {
		txs, err := c.Report(ctx, 1, Daily)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	}
	_, err := c.ByCategory(ctx, 1, 5)
	require.NoError(t, err)
	_, err = c.Report(ctx, 11, Daily)
	require.NoError(t, err)
	assert.EqualValues(t, 3, next.calls.Load())

	require.NoError(t, c.Notify(ctx, core.Change{Kind: core.TransactionCreated, Owner: 1}))
	_, err = c.Report(ctx, 1, Daily)
	require.NoError(t, err)
	_, err = c.Report(ctx, 11, Daily)
	require.NoError(t, err)
	assert.EqualValues(t, 4, next.calls.Load(), "owner 11 stays cached")
}

func TestCachedCollapsesConcurrentMisses(t *testing.T) {
	next := &countingReporter{gate: make(chan struct{})}
	c := newCached(next)

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()
			_, _ = c.Report(context.Background(), 1, Weekly)
		}()
	}
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)
	// let the remaining callers pile onto the in-flight load
	time.Sleep(20 * time.Millisecond)
	close(next.gate)
	wg.Wait()

	assert.EqualValues(t, 1, next.calls.Load())
}

// stagedReporter blocks its first load until released and returns one more
// row on every call, standing in for a store that is written to meanwhile.
type stagedReporter struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *stagedReporter) Report(context.Context, core.UserID, Window) ([]core.Transaction, error) {
	n := s.calls.Add(1)
	if n == 1 {
		<-s.release
	}
	return make([]core.Transaction, n), nil
}

func (s *stagedReporter) ByCategory(context.Context, core.UserID, int64) ([]core.Transaction, error) {
	return nil, nil
}

func TestCachedDropsLoadOverlappingAChange(t *testing.T) {
	ctx := context.Background()
	next := &stagedReporter{release: make(chan struct{})}
	c := newCached(next)

	stale := make(chan []core.Transaction, 1)
	go func() {
		txs, _ := c.Report(ctx, 1, Daily)
		stale <- txs
	}()
	require.Eventually(t, func() bool { return next.calls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Notify(ctx, core.Change{Kind: core.TransactionCreated, Owner: 1}))

	fresh, err := c.Report(ctx, 1, Daily)
	require.NoError(t, err)
	assert.Len(t, fresh, 2, "a caller after the change does not share the older load")

	close(next.release)
	assert.Len(t, <-stale, 1)

	again, err := c.Report(ctx, 1, Daily)
	require.NoError(t, err)
	assert.Len(t, again, 2, "the older load was not cached")
	assert.EqualValues(t, 2, next.calls.Load())
}
