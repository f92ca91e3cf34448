package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/cube-drafter/internal/cube"
	"github.com/ramonehamilton/cube-drafter/internal/imagecache"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.data = map[string][]byte{}
	return nil
}

func testRecords(size int, prefix string) []cube.Record {
	records := make([]cube.Record, size)
	for i := range records {
		records[i] = cube.Record{
			Name:            fmt.Sprintf("%s %03d", prefix, i),
			Set:             "tst",
			CollectorNumber: fmt.Sprintf("%d", i+1),
			ManaValue:       i % 9,
		}
	}
	return records
}

func newTestApp(t *testing.T, store *memStore, records []cube.Record) *App {
	t.Helper()
	loader := func(context.Context) ([]cube.Record, error) {
		return records, nil
	}
	a := New(store, loader, 8, imagecache.Options{CacheDir: t.TempDir(), MaxEntries: 2})
	require.NoError(t, a.Load(context.Background()))
	return a
}

func TestLoadAndStatus(t *testing.T) {
	a := newTestApp(t, newMemStore(), testRecords(400, "Test Card"))

	status := a.Status()
	assert.Equal(t, 400, status.Cards)
	assert.Len(t, status.Seats, 8)
	assert.False(t, status.Done)
	assert.NotEmpty(t, status.Digest)
}

func TestReloadSameListKeepsDraft(t *testing.T) {
	store := newMemStore()
	records := testRecords(400, "Test Card")
	a := newTestApp(t, store, records)
	ctx := context.Background()

	view, err := a.SeatView(0)
	require.NoError(t, err)
	picked, err := a.Pick(ctx, 0, view.Pack[0].Name, false)
	require.NoError(t, err)

	require.NoError(t, a.Load(ctx))

	view, err = a.SeatView(0)
	require.NoError(t, err)
	require.Len(t, view.Drafted, 1)
	assert.Equal(t, picked.Name, view.Drafted[0].Name)
}

func TestChangedListResetsDraft(t *testing.T) {
	store := newMemStore()
	a := newTestApp(t, store, testRecords(400, "Test Card"))
	ctx := context.Background()

	view, err := a.SeatView(0)
	require.NoError(t, err)
	_, err = a.Pick(ctx, 0, view.Pack[0].Name, false)
	require.NoError(t, err)

	// Same pool size, different names: the digest changes and the
	// persisted draft is discarded.
	b := newTestApp(t, store, testRecords(400, "Other Card"))

	view, err = b.SeatView(0)
	require.NoError(t, err)
	assert.Empty(t, view.Drafted)
	assert.Len(t, view.Pack, 15)
	assert.Equal(t, 1, view.PickNumber)
}

func TestSeatViewShape(t *testing.T) {
	a := newTestApp(t, newMemStore(), testRecords(400, "Test Card"))
	ctx := context.Background()

	view, err := a.SeatView(3)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Seat)
	assert.Len(t, view.Pack, 15)
	assert.Equal(t, 1, view.PackNumber)
	assert.Equal(t, 1, view.PickNumber)
	assert.Empty(t, view.Images)
	assert.False(t, view.Done)

	_, err = a.Pick(ctx, 3, view.Pack[0].Name, false)
	require.NoError(t, err)

	view, err = a.SeatView(3)
	require.NoError(t, err)
	require.Len(t, view.Drafted, 1)
	assert.Contains(t, view.Drafted[0].URL, "scryfall.com/card/tst/")
	assert.Contains(t, view.Images, "deck_image")
}

func TestSeatViewInvalidSeat(t *testing.T) {
	a := newTestApp(t, newMemStore(), testRecords(400, "Test Card"))

	_, err := a.SeatView(99)
	assert.Error(t, err)
}

func TestSeatToShowAdvances(t *testing.T) {
	a := newTestApp(t, newMemStore(), testRecords(400, "Test Card"))
	ctx := context.Background()

	first, err := a.SeatToShow(ctx)
	require.NoError(t, err)
	second, err := a.SeatToShow(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestLoadFailurePropagates(t *testing.T) {
	loader := func(context.Context) ([]cube.Record, error) {
		return nil, fmt.Errorf("feed unavailable")
	}
	a := New(newMemStore(), loader, 8, imagecache.Options{CacheDir: t.TempDir()})

	err := a.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed unavailable")
}
