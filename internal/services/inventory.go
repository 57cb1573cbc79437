package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/chris2590/meme-blazer/internal/config"
	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/pkg/cache"
	"github.com/chris2590/meme-blazer/pkg/logger"
	"github.com/chris2590/meme-blazer/pkg/metrics"
	"github.com/chris2590/meme-blazer/pkg/mutex"
)

// tokenListImageURL is the best-effort logo location used when no richer
// metadata source is available (same CDN the original token list uses)
const tokenListImageURL = "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/%s/logo.png"

// tokenMetadata is the cached per-mint presentational metadata
type tokenMetadata struct {
	Label    string
	ImageURL string
}

// InventoryService normalizes raw chain results into the uniform inventory
// of burnable items and owns the inventory as the workflow's only shared
// mutable state. The inventory is replaced by a completed listing and
// mutated one record at a time by confirmed burns; no other writers exist.
type InventoryService struct {
	chain        ChainClientInterface
	config       *config.Config
	metaCache    *cache.Cache
	metaMutex    *mutex.KeyedMutex
	metrics      *metrics.MetricsCollector
	sessionEpoch func() uint64

	mu      sync.RWMutex
	records []models.AssetRecord
	// epoch of the listing the current snapshot was built for;
	// older listings that complete out of order are discarded
	epoch uint64
}

// NewInventoryService creates a new inventory service. sessionEpoch reports
// the current session epoch so completed listings for a since-changed
// session can be discarded.
func NewInventoryService(chain ChainClientInterface, cfg *config.Config, collector *metrics.MetricsCollector, sessionEpoch func() uint64) *InventoryService {
	return &InventoryService{
		chain:        chain,
		config:       cfg,
		metaCache:    cache.New(cfg.Cache.TTL),
		metaMutex:    mutex.New(cfg.Cache.CleanupInterval),
		metrics:      collector,
		sessionEpoch: sessionEpoch,
	}
}

// Refresh lists all asset accounts owned by the identity and rebuilds the
// inventory. Zero-balance accounts are excluded, order is preserved as the
// chain client returned it, and metadata failures never fail the listing.
// The result is applied last-write-wins: a listing issued for a stale
// session epoch is discarded.
func (s *InventoryService) Refresh(ctx context.Context, owner solana.PublicKey, epoch uint64) ([]models.AssetRecord, error) {
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"owner":     owner.String(),
		"component": "inventory_service",
	})

	start := time.Now()
	raw, err := s.chain.ListAssetAccounts(ctx, owner)
	if err != nil {
		log.Error("Asset listing failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, models.NewFetchError(err)
	}

	records := make([]models.AssetRecord, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, acc := range raw {
		amount := acc.Info.TokenAmount

		// Zero-balance accounts never appear in the inventory
		if amount.UIAmount <= 0 {
			continue
		}

		// AccountID is the inventory's primary key
		if _, dup := seen[acc.AccountID]; dup {
			continue
		}
		seen[acc.AccountID] = struct{}{}

		kind := models.AssetKindFungible
		if amount.Decimals == 0 && amount.Amount == "1" {
			kind = models.AssetKindNonFungible
		}

		meta := s.resolveMetadata(acc.Info.Mint)

		records = append(records, models.AssetRecord{
			AccountID:    acc.AccountID,
			AssetID:      acc.Info.Mint,
			Kind:         kind,
			Quantity:     amount.UIAmount,
			Precision:    amount.Decimals,
			DisplayLabel: meta.Label,
			ImageURL:     meta.ImageURL,
		})
	}

	// Guard the commit: discard listings that completed after the session
	// changed or after a newer listing already landed. The session check
	// sits under the same lock as the mutation, so a disconnect's Clear
	// hook runs either before the check or after the commit, never in
	// between.
	s.mu.Lock()
	if s.sessionEpoch != nil {
		if current := s.sessionEpoch(); epoch != current {
			s.mu.Unlock()
			log.Warn("Discarding stale asset listing",
				zap.Uint64("listing_epoch", epoch),
				zap.Uint64("session_epoch", current),
			)
			return nil, models.NewSessionLostError()
		}
	}
	if epoch < s.epoch {
		s.mu.Unlock()
		log.Debug("Discarding superseded asset listing", zap.Uint64("listing_epoch", epoch))
		return s.Snapshot(), nil
	}
	s.records = records
	s.epoch = epoch
	s.mu.Unlock()

	log.Info("Inventory refreshed",
		zap.Int("asset_count", len(records)),
		zap.Duration("duration", time.Since(start)),
	)

	return s.Snapshot(), nil
}

// resolveMetadata returns best-effort presentational metadata for a mint.
// It never fails: unresolved metadata yields the placeholder label and the
// token-list logo location. Results are cached per mint, and a per-mint
// mutex prevents duplicate concurrent resolution.
func (s *InventoryService) resolveMetadata(mint string) tokenMetadata {
	if cached, found := s.metaCache.Get(mint); found {
		s.metrics.RecordCacheHit()
		return cached.(tokenMetadata)
	}
	s.metrics.RecordCacheMiss()

	lockStart := time.Now()
	mintMutex := s.metaMutex.GetMutex(mint)
	mintMutex.Lock()
	defer mintMutex.Unlock()

	if time.Since(lockStart) > time.Millisecond {
		s.metrics.RecordMutexWait()
	}

	// Double-check after acquiring the mutex
	if cached, found := s.metaCache.Get(mint); found {
		s.metrics.RecordCacheHit()
		return cached.(tokenMetadata)
	}

	meta := tokenMetadata{
		Label:    models.UnknownLabel,
		ImageURL: fmt.Sprintf(tokenListImageURL, mint),
	}
	s.metaCache.Set(mint, meta)

	return meta
}

// Snapshot returns a copy of the current inventory
func (s *InventoryService) Snapshot() []models.AssetRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AssetRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Find returns the inventory record with the given account ID
func (s *InventoryService) Find(accountID string) (models.AssetRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.AccountID == accountID {
			return rec, true
		}
	}
	return models.AssetRecord{}, false
}

// Remove deletes exactly one record by account ID. Called only on a
// confirmed burn or close.
func (s *InventoryService) Remove(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.AccountID == accountID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// Clear discards the inventory (wallet disconnected)
func (s *InventoryService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// Stop shuts down the metadata cache and mutex cleanup goroutines
func (s *InventoryService) Stop() {
	s.metaCache.Stop()
	s.metaMutex.Stop()
}
