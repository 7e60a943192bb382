package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewardstore/internal/ledger"
)

func TestVacuum(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a.com", "b.com", "c.com"} {
		require.NoError(t, s.PutActivity(ctx, testActivity(id, 10, ledger.March, 2020, 1)))
	}
	require.NoError(t, s.DeletePublisher(ctx, "b.com"))

	require.NoError(t, s.Vacuum(ctx))

	ps, err := s.ListPublishers(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestVacuum_RefusedInsideTransaction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var vacuumErr error
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		vacuumErr = s.Vacuum(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, vacuumErr, ErrTransactionOpen)

	assert.NoError(t, s.Vacuum(ctx), "vacuum works once the transaction ends")
}

func TestTrimMemory_CriticalDropsStatements(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutPublisher(ctx, testPublisher("a.com")))
	require.NotZero(t, s.cachedStatements())

	s.TrimMemory(true)
	s.trims.Wait()
	assert.Zero(t, s.cachedStatements())

	// Statements are prepared again on demand.
	p, err := s.GetPublisher(ctx, "a.com")
	require.NoError(t, err)
	assert.Equal(t, "a.com", p.ID)
}

func TestTrimMemory_NonCriticalKeepsStatements(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutPublisher(ctx, testPublisher("a.com")))
	n := s.cachedStatements()

	s.TrimMemory(false)
	s.trims.Wait()
	assert.Equal(t, n, s.cachedStatements())
}

func TestTrimMemory_ConcurrentWithReads(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutPublisher(ctx, testPublisher("a.com")))
	for i := 0; i < 20; i++ {
		s.TrimMemory(i%2 == 0)
		_, err := s.GetPublisher(ctx, "a.com")
		require.NoError(t, err)
	}
}

func TestTrimMemory_CloseWaits(t *testing.T) {
	s := New(t.TempDir()+"/test.db", WithLogger(discardLogger()))
	_, err := s.Open(context.Background())
	require.NoError(t, err)

	s.TrimMemory(true)
	require.NoError(t, s.Close())

	s.TrimMemory(true) // no-op on a closed handle
}

func TestDiagnostics(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutActivity(ctx, testActivity("a.com", 10, ledger.March, 2020, 1)))
	require.NoError(t, s.PutRecurringDonation(ctx, ledger.RecurringDonation{PublisherID: "b.com", Amount: 1}))

	d, err := s.Diagnostics(ctx)
	require.NoError(t, err)

	assert.Equal(t, s.Path(), d.Path)
	assert.Equal(t, s.Meta().StoreID, d.StoreID)
	assert.Equal(t, CurrentVersion(), d.Version)
	assert.Equal(t, CurrentVersion(), d.TargetVersion)
	assert.Equal(t, 1, d.CompatibleVersion)
	assert.Equal(t, "wal", d.JournalMode)
	assert.Positive(t, d.SizeBytes)
	assert.Equal(t, map[string]int64{
		tablePublisherInfo:      2,
		tableActivityInfo:       1,
		tableContributionInfo:   0,
		tableMediaPublisherInfo: 0,
		tableRecurringDonation:  1,
	}, d.RowCounts)
}
