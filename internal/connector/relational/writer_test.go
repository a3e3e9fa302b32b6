package relational

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/model"
)

func makeRecords(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		r := model.NewRecord()
		r.Set("id", model.IntValue(int64(i)))
		out[i] = r
	}
	return out
}

func TestSplitIntoChunksRespectsBoundParamCeiling(t *testing.T) {
	records := makeRecords(200000)
	numCols := 10
	chunks := splitIntoChunks(records, numCols, maxBoundParams)

	require.NotEmpty(t, chunks)
	total := 0
	for _, c := range chunks {
		require.LessOrEqual(t, len(c)*numCols, maxBoundParams)
		total += len(c)
	}
	require.Equal(t, len(records), total)
}

func TestSplitIntoChunksSingleChunkWhenSmall(t *testing.T) {
	records := makeRecords(10)
	chunks := splitIntoChunks(records, 3, maxBoundParams)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0], 10)
}

func TestSplitIntoChunksEmptyInput(t *testing.T) {
	require.Nil(t, splitIntoChunks(nil, 3, maxBoundParams))
}

func TestSplitIntoChunksAtLeastOneRowWhenColsExceedCeiling(t *testing.T) {
	// A table wider than maxBoundParams columns must still chunk to 1
	// row per statement rather than dividing to zero.
	records := makeRecords(3)
	chunks := splitIntoChunks(records, maxBoundParams+500, maxBoundParams)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		require.Len(t, c, 1)
	}
}
