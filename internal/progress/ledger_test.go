package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechedu-quiz-service/internal/kvstore"
)

func TestRecordResultKeepsBestScore(t *testing.T) {
	ledger := NewLedger(kvstore.New(kvstore.NewMemoryBackend()), nil)

	scores := []int{40, 80, 60, 80, 20}
	for _, s := range scores {
		ledger.RecordResult("turning", s)
	}

	entry, ok := ledger.Get("turning")
	require.True(t, ok)
	assert.True(t, entry.Completed)
	require.NotNil(t, entry.BestScore)
	assert.Equal(t, 80, *entry.BestScore)
}

func TestRecordResultPersistsAcrossReload(t *testing.T) {
	store := kvstore.New(kvstore.NewMemoryBackend())
	ledger := NewLedger(store, []string{"turning", "milling"})
	ledger.RecordResult("turning", 60)

	reloaded := NewLedger(store, []string{"turning", "milling"})
	reloaded.Load()

	entry, ok := reloaded.Get("turning")
	require.True(t, ok)
	require.NotNil(t, entry.BestScore)
	assert.Equal(t, 60, *entry.BestScore)

	milling, ok := reloaded.Get("milling")
	require.True(t, ok)
	assert.False(t, milling.Completed)
	assert.Nil(t, milling.BestScore)
}

func TestLoadMalformedFallsBackToKnownSet(t *testing.T) {
	store := kvstore.New(kvstore.NewMemoryBackend())
	store.TrySet(StorageKey, "{not json")

	ledger := NewLedger(store, []string{"gears"})
	ledger.Load()

	snap := ledger.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, 0, snap.CompletedCount())
}

func TestLoadKeepsUnknownIDsAndAddsKnownOnes(t *testing.T) {
	store := kvstore.New(kvstore.NewMemoryBackend())
	store.TrySet(StorageKey, `{"legacy":{"completed":true,"bestScore":140}}`)

	ledger := NewLedger(store, []string{"gears"})
	ledger.Load()

	legacy, ok := ledger.Get("legacy")
	require.True(t, ok)
	require.NotNil(t, legacy.BestScore)
	assert.Equal(t, 100, *legacy.BestScore)
	_, ok = ledger.Get("gears")
	assert.True(t, ok)
	assert.Equal(t, 1, ledger.CompletedCount())
}

func TestSnapshotIsDetached(t *testing.T) {
	ledger := NewLedger(kvstore.New(kvstore.NewMemoryBackend()), nil)
	ledger.RecordResult("milling", 50)

	snap := ledger.Snapshot()
	*snap["milling"].BestScore = 0

	entry, _ := ledger.Get("milling")
	assert.Equal(t, 50, *entry.BestScore)
}
