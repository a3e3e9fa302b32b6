package factory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/connector/relational"
	"github.com/replicator/replicator/internal/connector/search"
	"github.com/replicator/replicator/internal/store"
)

func TestNewReaderDispatchesByKind(t *testing.T) {
	r, err := NewReader(ReaderConfig{Kind: store.KindRelational, Relational: relational.Config{Database: "d", Table: "t"}})
	require.NoError(t, err)
	require.IsType(t, &relational.Reader{}, r)

	r, err = NewReader(ReaderConfig{Kind: store.KindSearch, Search: search.Config{Index: "idx"}})
	require.NoError(t, err)
	require.IsType(t, &search.Reader{}, r)
}

func TestNewReaderRejectsUnknownKind(t *testing.T) {
	_, err := NewReader(ReaderConfig{Kind: "bogus"})
	require.Error(t, err)
}

func TestNewWriterDispatchesByKind(t *testing.T) {
	w, err := NewWriter(WriterConfig{Kind: store.KindRelational, Strategy: store.TargetDrop})
	require.NoError(t, err)
	require.IsType(t, &relational.Writer{}, w)

	w, err = NewWriter(WriterConfig{Kind: store.KindSearch})
	require.NoError(t, err)
	require.IsType(t, &search.Writer{}, w)
}

func TestNewWriterRejectsUnknownKind(t *testing.T) {
	_, err := NewWriter(WriterConfig{Kind: "bogus"})
	require.Error(t, err)
}
