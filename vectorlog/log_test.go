package vectorlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/vecdb/metric"
	"github.com/hupe1980/vecdb/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T, dimension int, m metric.Type) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.cvec")
	l, err := Create(path, dimension, m, nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestCreateRefusesExistingPath(t *testing.T) {
	_, path := newTestLog(t, 4, metric.Cosine)
	_, err := Create(path, 4, metric.Cosine, nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestOpenMissingFileNotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.cvec"), nil)
	assert.ErrorIs(t, err, ErrDBNotFound)
}

// Scenario 1 from the spec: insert four vectors, search the exact match, expect id=1
// first with score 1.0 and id=4 second with score ~0.9939.
func TestSearchScenario1(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)

	require.NoError(t, l.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, l.Insert(2, []float32{0, 1, 0, 0}))
	require.NoError(t, l.Insert(3, []float32{0, 0, 1, 0}))
	require.NoError(t, l.Insert(4, []float32{0.9, 0.1, 0, 0}))

	results, err := l.Search([]float32{1, 0, 0, 0}, 3, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, uint64(1), results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, uint64(4), results[1].ID)
	assert.InDelta(t, 0.9939, results[1].Score, 1e-3)
}

// Scenario 2: delete id=1, search again, id=4 now first and id=1 absent.
func TestSearchScenario2DeleteThenSearch(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)

	require.NoError(t, l.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, l.Insert(2, []float32{0, 1, 0, 0}))
	require.NoError(t, l.Insert(3, []float32{0, 0, 1, 0}))
	require.NoError(t, l.Insert(4, []float32{0.9, 0.1, 0, 0}))

	require.NoError(t, l.Delete(1))

	results, err := l.Search([]float32{1, 0, 0, 0}, 3, 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), results[0].ID)
	assert.InDelta(t, 0.9939, results[0].Score, 1e-3)
	for _, r := range results {
		assert.NotEqual(t, uint64(1), r.ID)
	}
}

// Scenario 3: at dim=128 with 1000 vectors, searching for a vector already in the store
// returns that same id first with a near-perfect score.
func TestSearchScenario3AtScale(t *testing.T) {
	l, _ := newTestLog(t, 128, metric.Cosine)

	rng := util.NewRNG(42)
	vectors := rng.GenerateRandomVectors(1000, 128)
	for i, vec := range vectors {
		require.NoError(t, l.Insert(uint64(i+1), vec))
	}

	target := uint64(777)
	results, err := l.Search(vectors[target-1], 5, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, target, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-3)
}

// Scenario 4: insert, close, reopen, get returns the same bytes.
func TestCloseReopenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.cvec")

	l, err := Create(path, 4, metric.Cosine, nil)
	require.NoError(t, err)
	require.NoError(t, l.Insert(7, []float32{1, 2, 3, 4}))
	require.NoError(t, l.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	vec, err := reopened.Get(7)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, vec)
}

// Scenario 5: euclidean ordering with five vectors.
func TestSearchScenario5Euclidean(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Euclidean)

	require.NoError(t, l.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, l.Insert(2, []float32{0, 1, 0, 0}))
	require.NoError(t, l.Insert(3, []float32{0, 0, 1, 0}))
	require.NoError(t, l.Insert(4, []float32{0.9, 0.1, 0, 0}))
	require.NoError(t, l.Insert(5, []float32{0.5, 0.5, 0, 0}))

	results, err := l.Search([]float32{1, 0, 0, 0}, 3, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, uint64(1), results[0].ID)
	assert.InDelta(t, 0.0, results[0].Score, 1e-6)
	assert.Equal(t, uint64(4), results[1].ID)
	assert.InDelta(t, -0.141421, results[1].Score, 1e-4)
	assert.Equal(t, uint64(5), results[2].ID)
	assert.InDelta(t, -0.707107, results[2].Score, 1e-4)
}

// Scenario 6: a file whose magic doesn't match is reported as corrupt, no partial state.
func TestOpenCorruptMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cvec")
	require.NoError(t, writeGarbageFile(path))

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestInsertDuplicateIDRejected(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)
	require.NoError(t, l.Insert(1, []float32{1, 0, 0, 0}))

	err := l.Insert(1, []float32{0, 1, 0, 0})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestReinsertAfterDeleteAllowed(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)
	require.NoError(t, l.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, l.Delete(1))

	err := l.Insert(1, []float32{0, 1, 0, 0})
	require.NoError(t, err)

	vec, err := l.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, vec)
}

func TestInsertDimensionMismatchRejected(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)
	err := l.Insert(1, []float32{1, 0, 0})
	assert.Error(t, err)
}

func TestGetAfterDeleteNotFound(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)
	require.NoError(t, l.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, l.Delete(1))

	_, err := l.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetZeroIDRejected(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)
	_, err := l.Get(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSearchOnEmptyStoreReturnsEmpty(t *testing.T) {
	l, _ := newTestLog(t, 4, metric.Cosine)
	results, err := l.Search([]float32{1, 0, 0, 0}, 3, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDropRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.cvec")
	l, err := Create(path, 4, metric.Cosine, nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	require.NoError(t, Drop(path))
	assert.Error(t, Drop(path), "dropping a second time must fail")
}

func TestDoubleCloseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.cvec")
	l, err := Create(path, 4, metric.Cosine, nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Close(), ErrClosed)
}

func writeGarbageFile(path string) error {
	return os.WriteFile(path, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 0o644)
}
