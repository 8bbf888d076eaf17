package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaqa/internal/models"
)

func snap(market string, year, month int, dim string, score float64) models.Snapshot {
	return models.Snapshot{
		Market: market, Year: year, Month: month,
		Dimension: dim, Score: score,
		CreatedAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

// runStoreContract exercises the behavior every backend has to share.
func runStoreContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, snap("FR", 2025, 5, models.SnapshotCompliance, 80)))
	require.NoError(t, st.Upsert(ctx, snap("FR", 2025, 5, models.SnapshotCompliance, 82))) // pisa el 80
	require.NoError(t, st.Upsert(ctx, snap("FR", 2025, 6, models.SnapshotCompliance, 85.5)))
	require.NoError(t, st.Upsert(ctx, snap("FR", 2025, 6, models.DimensionModel, 91)))
	require.NoError(t, st.Upsert(ctx, snap("BE", 2025, 6, models.SnapshotCompliance, 99)))

	snaps, err := st.Query(ctx, Filter{Market: "FR", Dimension: models.SnapshotCompliance}, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 6, snaps[0].Month, "newest first")
	assert.Equal(t, 85.5, snaps[0].Score)
	assert.Equal(t, 82.0, snaps[1].Score, "upsert must overwrite, not append")

	snaps, err = st.Query(ctx, Filter{Year: 2025, Month: 6, Dimension: models.SnapshotCompliance}, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "BE", snaps[0].Market, "same period sorts by market")

	trend, err := st.Trend(ctx, "FR", models.SnapshotCompliance, 1)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, 85.5, trend[0].Score)

	none, err := st.Query(ctx, Filter{Market: "XX"}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, st.Clear(ctx))
	all, err := st.Query(ctx, Filter{}, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStoreContract(t *testing.T) {
	st := NewMemoryStore()
	defer st.Close()
	runStoreContract(t, st)
}

func TestBadgerStoreContract(t *testing.T) {
	st, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer st.Close()
	runStoreContract(t, st)
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	st, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	require.NoError(t, st.Upsert(context.Background(), snap("FR", 2025, 6, models.DimensionModel, 77)))
	require.NoError(t, st.Close())

	st2, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	defer st2.Close()

	snaps, err := st2.Query(context.Background(), Filter{Market: "FR"}, 0)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 77.0, snaps[0].Score)
}

func TestOpenBadgerRequiresPath(t *testing.T) {
	_, err := OpenBadger("", nil)
	assert.Error(t, err)
}
