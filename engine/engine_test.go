package engine

import (
	"path/filepath"
	"testing"

	"github.com/hupe1980/vecdb/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Name:      "test",
		Path:      filepath.Join(t.TempDir(), "store.cvec"),
		Dimension: 4,
		Metric:    metric.Cosine,
	}
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Dimension = 0
	_, err := Create(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateRejectsDimensionAboveMax(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Dimension = MaxDimension + 1
	_, err := Create(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateOpenInsertSearchClose(t *testing.T) {
	cfg := newTestConfig(t)
	e, err := Create(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, e.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, e.Insert(2, []float32{0, 1, 0, 0}))

	results, err := e.Search([]float32{1, 0, 0, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(1), results[0].ID)

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.LiveCount)
	assert.Equal(t, 4, stats.Dimension)

	require.NoError(t, e.Close())

	reopened, err := Open(cfg.Path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	vec, err := reopened.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec)
}

func TestDeleteThenGetNotFound(t *testing.T) {
	cfg := newTestConfig(t)
	e, err := Create(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, e.Delete(1))

	_, err = e.Get(1)
	assert.ErrorIs(t, err, ErrVectorNotFound)
	assert.Equal(t, CodeVectorNotFound, AsCode(err))
}

func TestInsertDuplicateID(t *testing.T) {
	cfg := newTestConfig(t)
	e, err := Create(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Insert(1, []float32{1, 0, 0, 0}))
	err = e.Insert(1, []float32{0, 1, 0, 0})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, CodeInvalidArgs, AsCode(err))
}

func TestOpenMissingDB(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.cvec"), nil)
	assert.ErrorIs(t, err, ErrDBNotFound)
	assert.Equal(t, CodeDBNotFound, AsCode(err))
}

func TestDimensionMismatchCode(t *testing.T) {
	cfg := newTestConfig(t)
	e, err := Create(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	err = e.Insert(1, []float32{1, 2, 3})
	assert.Equal(t, CodeDimensionMismatch, AsCode(err))
}

func TestRepairClearsStaleFlag(t *testing.T) {
	cfg := newTestConfig(t)
	e, err := Create(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Insert(1, []float32{1, 0, 0, 0}))
	require.NoError(t, e.Repair())
	assert.False(t, e.log.HNSWStale())
}

// Concurrent writers inserting disjoint id ranges; final live-count equals the total
// inserted and every id is retrievable.
func TestConcurrentWritersDisjointRanges(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Dimension = 8
	e, err := Create(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	const writers = 4
	const perWriter = 25

	var g errgroup.Group
	for w := 0; w < writers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWriter; i++ {
				id := uint64(w*perWriter + i + 1)
				vec := make([]float32, 8)
				vec[0] = float32(id)
				if err := e.Insert(id, vec); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, stats.LiveCount)

	for id := uint64(1); id <= writers*perWriter; id++ {
		vec, err := e.Get(id)
		require.NoError(t, err)
		assert.Equal(t, float32(id), vec[0])
	}
}

// Concurrent readers searching while writers insert never observe a partial vector.
func TestConcurrentReadersDuringWrites(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Dimension = 8
	e, err := Create(cfg, nil)
	require.NoError(t, err)
	defer e.Close()

	for i := uint64(1); i <= 10; i++ {
		vec := make([]float32, 8)
		vec[0] = float32(i)
		require.NoError(t, e.Insert(i, vec))
	}

	var g errgroup.Group
	g.Go(func() error {
		for i := uint64(11); i <= 30; i++ {
			vec := make([]float32, 8)
			vec[0] = float32(i)
			if err := e.Insert(i, vec); err != nil {
				return err
			}
		}
		return nil
	})
	for r := 0; r < 4; r++ {
		g.Go(func() error {
			for i := 0; i < 10; i++ {
				results, err := e.Search([]float32{1, 0, 0, 0, 0, 0, 0, 0}, 3, 0)
				if err != nil {
					return err
				}
				for _, res := range results {
					vec, err := e.Get(res.ID)
					if err != nil {
						return err
					}
					assert.Len(t, vec, 8)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
