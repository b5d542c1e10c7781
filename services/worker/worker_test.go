package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/pkg/errors"
)

// keepOrder is a shuffle that leaves the sources as configured
func keepOrder(int, func(i, j int)) {}

func TestRunOneUnknownSource(t *testing.T) {
	tracker := NewMockStatus()
	w := NewWorker([]crawler.Crawler{NewMockCrawler("cnbc")}, NewEngine(setupTestStore(t), nil, 1), tracker, nil)

	report, err := w.RunOne(context.Background(), "detik")
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsConfiguration(err))
	assert.Empty(t, tracker.entries, "no status change before validation")
}

func TestRunOneRecordsStatus(t *testing.T) {
	tracker := NewMockStatus()
	mc := NewMockCrawler("kontan", candidate("a", jakarta(10, 0)))
	w := NewWorker([]crawler.Crawler{mc}, NewEngine(setupTestStore(t), nil, 1), tracker, nil)

	report, err := w.RunOne(context.Background(), "kontan")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stored)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "success", tracker.get("scraping:kontan"))
}

func TestRunOneAlreadyRunning(t *testing.T) {
	tracker := NewMockStatus()
	require.NoError(t, tracker.Set(context.Background(), "scraping:kontan", "running"))
	mc := NewMockCrawler("kontan", candidate("a", jakarta(10, 0)))
	w := NewWorker([]crawler.Crawler{mc}, NewEngine(setupTestStore(t), nil, 1), tracker, nil)

	_, err := w.RunOne(context.Background(), "kontan")
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Zero(t, mc.fetchCount())

	report, err := w.WithForce(true).RunOne(context.Background(), "kontan")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stored)
	assert.Equal(t, "success", tracker.get("scraping:kontan"))
}

func TestRunAllIsolatesFailures(t *testing.T) {
	s := setupTestStore(t)
	failing := &failingStore{ArticleStore: s, failing: map[string]bool{"a": true}}
	tracker := NewMockStatus()
	pub := NewMockPublisher()

	a := NewMockCrawler("a", candidate("a1", jakarta(10, 0)))
	b := NewMockCrawler("b", candidate("b1", jakarta(10, 0)), candidate("b2", jakarta(10, 1)))
	w := NewWorker([]crawler.Crawler{a, b}, NewEngine(failing, pub, 1), tracker, pub).WithShuffle(keepOrder)

	reports, err := w.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "a", reports[0].Source)
	assert.Equal(t, StateFailed, reports[0].State)
	assert.True(t, errors.IsStoreUnavailable(reports[0].Err))

	assert.Equal(t, StateDone, reports[1].State)
	assert.Equal(t, 2, reports[1].Stored)

	assert.Equal(t, "failed", tracker.get("scraping:a"))
	assert.Equal(t, "success", tracker.get("scraping:b"))
	assert.Equal(t, "failed", tracker.get("scraping"))
	assert.Equal(t, 1, pub.trimmed)
	assert.Len(t, pub.messages["b"], 2)
}

func TestRunAllUsesShuffledOrder(t *testing.T) {
	a := NewMockCrawler("a")
	b := NewMockCrawler("b")
	c := NewMockCrawler("c")
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	tracker := NewMockStatus()
	w := NewWorker([]crawler.Crawler{a, b, c}, NewEngine(setupTestStore(t), nil, 1), tracker, nil).WithShuffle(reverse)

	reports, err := w.RunAll(context.Background())
	require.NoError(t, err)

	var order []string
	for _, r := range reports {
		order = append(order, r.Source)
	}
	assert.Equal(t, []string{"c", "b", "a"}, order)
	assert.Equal(t, []string{"a", "b", "c"}, w.Sources(), "configured order untouched")
	assert.Equal(t, "success", tracker.get("scraping"))
}

func TestRunAllStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := NewMockCrawler("a", candidate("a1", jakarta(10, 0)))
	a.onFetch = func(string) { cancel() }
	b := NewMockCrawler("b", candidate("b1", jakarta(10, 0)))

	w := NewWorker([]crawler.Crawler{a, b}, NewEngine(setupTestStore(t), nil, 1), nil, nil).WithShuffle(keepOrder)
	reports, err := w.RunAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, reports, 1)
	assert.Zero(t, b.fetchCount())
}
