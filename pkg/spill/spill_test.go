package spill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestNoopStoreNeverSpills(t *testing.T) {
	var s NoopStore
	ref, spilled, err := s.Spill(context.Background(), "job1", "node1", 1, value.String("small"))
	require.NoError(t, err)
	require.False(t, spilled)
	require.Equal(t, Reference{}, ref)
}

func TestNoopStoreFetchErrors(t *testing.T) {
	var s NoopStore
	_, err := s.Fetch(context.Background(), Reference{URL: "https://example.blob.core.windows.net/c/x.json"})
	require.Error(t, err)
}

func TestNewBlobStoreRejectsEmptyConnectionString(t *testing.T) {
	_, err := NewBlobStore("", "container", 0, nil)
	require.Error(t, err)
}

func TestNewBlobStoreRejectsEmptyContainer(t *testing.T) {
	_, err := NewBlobStore("AccountName=a;AccountKey=a2V5", "", 0, nil)
	require.Error(t, err)
}
