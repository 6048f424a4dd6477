package reportstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telemetra/fleetquery/internal/config"
)

func TestLocalStore_SaveAndOpenRoundTrip(t *testing.T) {
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "evaluation/2026-08-31.json", []byte(`{"total_queries":3}`)))

	data, err := store.Open(ctx, "evaluation/2026-08-31.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"total_queries":3}`, string(data))
}

func TestLocalStore_RejectsTraversalKeys(t *testing.T) {
	store, err := createLocalStore(map[string]interface{}{"dir": t.TempDir()})
	require.NoError(t, err)

	require.Error(t, store.Save(context.Background(), "../escape.json", []byte("x")))
	_, err = store.Open(context.Background(), "../escape.json")
	require.Error(t, err)
}

func TestLocalStore_RequiresDir(t *testing.T) {
	_, err := createLocalStore(map[string]interface{}{})
	require.Error(t, err)
}

func TestNew_UnknownTypeRejected(t *testing.T) {
	_, err := New(config.ReportStoreConfig{Type: "gopher"})
	require.Error(t, err)
}
