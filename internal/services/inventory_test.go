package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/pkg/metrics"
)

func newInventoryFixture(t *testing.T, sessionEpoch func() uint64, accounts ...models.RawAssetAccount) (*InventoryService, *stubChain) {
	t.Helper()

	chain := &stubChain{accounts: accounts}
	inv := NewInventoryService(chain, burnTestConfig(), metrics.NewMetricsCollector(), sessionEpoch)
	t.Cleanup(inv.Stop)
	return inv, chain
}

func TestInventoryRefresh(t *testing.T) {
	owner := solana.NewWallet().PublicKey()

	t.Run("FiltersZeroBalances", func(t *testing.T) {
		inv, _ := newInventoryFixture(t, nil,
			tokenAccount(1.5, 9),
			tokenAccount(0, 6),
			tokenAccount(1, 0),
		)

		records, err := inv.Refresh(context.Background(), owner, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, rec := range records {
			assert.Greater(t, rec.Quantity, 0.0)
		}
	})

	t.Run("ClassifiesKinds", func(t *testing.T) {
		inv, _ := newInventoryFixture(t, nil,
			tokenAccount(1.5, 9),
			tokenAccount(1, 0),
		)

		records, err := inv.Refresh(context.Background(), owner, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, models.AssetKindFungible, records[0].Kind)
		assert.Equal(t, models.AssetKindNonFungible, records[1].Kind)
	})

	t.Run("PreservesChainOrder", func(t *testing.T) {
		accounts := []models.RawAssetAccount{
			tokenAccount(3, 6),
			tokenAccount(1, 6),
			tokenAccount(2, 6),
		}
		inv, _ := newInventoryFixture(t, nil, accounts...)

		records, err := inv.Refresh(context.Background(), owner, 0)
		require.NoError(t, err)
		require.Len(t, records, 3)
		for i, rec := range records {
			assert.Equal(t, accounts[i].AccountID, rec.AccountID)
		}
	})

	t.Run("DeduplicatesByAccountID", func(t *testing.T) {
		dup := tokenAccount(2, 6)
		inv, _ := newInventoryFixture(t, nil, dup, dup)

		records, err := inv.Refresh(context.Background(), owner, 0)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("PlaceholderMetadata", func(t *testing.T) {
		acc := tokenAccount(1.5, 9)
		inv, _ := newInventoryFixture(t, nil, acc)

		records, err := inv.Refresh(context.Background(), owner, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)

		assert.Equal(t, models.UnknownLabel, records[0].DisplayLabel)
		assert.Equal(t, fmt.Sprintf(tokenListImageURL, acc.Info.Mint), records[0].ImageURL)
	})

	t.Run("ListingErrorKeepsOldInventory", func(t *testing.T) {
		inv, chain := newInventoryFixture(t, nil, tokenAccount(1.5, 9))

		_, err := inv.Refresh(context.Background(), owner, 0)
		require.NoError(t, err)
		require.Len(t, inv.Snapshot(), 1)

		chain.mu.Lock()
		chain.accounts = nil
		chain.mu.Unlock()

		// Simulate a listing failure via an owner the stub cannot serve
		inv.chain = &failingChain{}
		_, err = inv.Refresh(context.Background(), owner, 0)
		require.Error(t, err)

		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, models.ErrorCodeFetchError, appErr.Code)

		// The previous snapshot survives a failed listing
		assert.Len(t, inv.Snapshot(), 1)
	})
}

// failingChain always fails the listing call
type failingChain struct {
	stubChain
}

func (f *failingChain) ListAssetAccounts(_ context.Context, _ solana.PublicKey) ([]models.RawAssetAccount, error) {
	return nil, fmt.Errorf("rpc unavailable")
}

// disconnectingChain tears the session down while a listing is in flight
type disconnectingChain struct {
	stubChain
	onList func()
}

func (c *disconnectingChain) ListAssetAccounts(ctx context.Context, owner solana.PublicKey) ([]models.RawAssetAccount, error) {
	if c.onList != nil {
		c.onList()
	}
	return c.stubChain.ListAssetAccounts(ctx, owner)
}

func TestInventoryEpochGuards(t *testing.T) {
	owner := solana.NewWallet().PublicKey()

	t.Run("StaleSessionDiscarded", func(t *testing.T) {
		var current uint64 = 5
		inv, _ := newInventoryFixture(t, func() uint64 { return current }, tokenAccount(1.5, 9))

		// Listing issued under epoch 4, session moved on to 5
		_, err := inv.Refresh(context.Background(), owner, 4)
		require.Error(t, err)

		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, models.ErrorCodeSessionLost, appErr.Code)
		assert.Empty(t, inv.Snapshot())
	})

	t.Run("SupersededListingDiscarded", func(t *testing.T) {
		inv, chain := newInventoryFixture(t, nil, tokenAccount(1.5, 9), tokenAccount(1, 0))

		// Newer listing lands first
		_, err := inv.Refresh(context.Background(), owner, 3)
		require.NoError(t, err)
		require.Len(t, inv.Snapshot(), 2)

		chain.mu.Lock()
		chain.accounts = chain.accounts[:1]
		chain.mu.Unlock()

		// Older listing completes afterwards; the newer snapshot wins
		records, err := inv.Refresh(context.Background(), owner, 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Len(t, inv.Snapshot(), 2)
	})

	t.Run("DisconnectWhileListingInFlight", func(t *testing.T) {
		var epoch atomic.Uint64
		epoch.Store(1)

		inv, _ := newInventoryFixture(t, epoch.Load)

		chain := &disconnectingChain{}
		chain.stubChain.accounts = []models.RawAssetAccount{tokenAccount(1.5, 9)}
		chain.onList = func() {
			// Session torn down before the stale result comes back
			epoch.Add(1)
			inv.Clear()
		}
		inv.chain = chain

		_, err := inv.Refresh(context.Background(), owner, 1)
		require.Error(t, err)

		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, models.ErrorCodeSessionLost, appErr.Code)
		assert.Empty(t, inv.Snapshot())
	})

	t.Run("ClearSerializesWithCommit", func(t *testing.T) {
		inCommit := make(chan struct{})
		releaseCommit := make(chan struct{})
		var once sync.Once
		epochFn := func() uint64 {
			once.Do(func() {
				close(inCommit)
				<-releaseCommit
			})
			return 1
		}

		inv, _ := newInventoryFixture(t, epochFn, tokenAccount(1.5, 9))

		done := make(chan error, 1)
		go func() {
			_, err := inv.Refresh(context.Background(), owner, 1)
			done <- err
		}()

		// Refresh holds the inventory lock at the session check; a clear
		// arriving now must wait for the commit and then wipe the records
		<-inCommit
		cleared := make(chan struct{})
		go func() {
			inv.Clear()
			close(cleared)
		}()
		close(releaseCommit)

		require.NoError(t, <-done)
		<-cleared
		assert.Empty(t, inv.Snapshot())
	})
}

func TestInventoryMutations(t *testing.T) {
	owner := solana.NewWallet().PublicKey()

	first := tokenAccount(1.5, 9)
	second := tokenAccount(1, 0)
	inv, _ := newInventoryFixture(t, nil, first, second)

	_, err := inv.Refresh(context.Background(), owner, 0)
	require.NoError(t, err)

	t.Run("FindKnownAsset", func(t *testing.T) {
		rec, found := inv.Find(first.AccountID)
		require.True(t, found)
		assert.Equal(t, first.Info.Mint, rec.AssetID)
	})

	t.Run("FindUnknownAsset", func(t *testing.T) {
		_, found := inv.Find(solana.NewWallet().PublicKey().String())
		assert.False(t, found)
	})

	t.Run("RemoveExactlyOne", func(t *testing.T) {
		assert.True(t, inv.Remove(first.AccountID))
		assert.Len(t, inv.Snapshot(), 1)

		// Removing again is a no-op
		assert.False(t, inv.Remove(first.AccountID))
		assert.Len(t, inv.Snapshot(), 1)
	})

	t.Run("SnapshotIsACopy", func(t *testing.T) {
		snapshot := inv.Snapshot()
		require.Len(t, snapshot, 1)
		snapshot[0].DisplayLabel = "mutated"

		fresh := inv.Snapshot()
		assert.NotEqual(t, "mutated", fresh[0].DisplayLabel)
	})

	t.Run("ClearDiscardsEverything", func(t *testing.T) {
		inv.Clear()
		assert.Empty(t, inv.Snapshot())
	})
}
