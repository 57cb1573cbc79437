package services

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/chris2590/meme-blazer/internal/models"
)

// AuthServiceInterface defines the interface for authentication services
type AuthServiceInterface interface {
	ValidateAPIKey(key string) (*models.APIKey, error)
}

// WalletSession supplies the connected wallet's identity and its
// signing capability. Consumed by the orchestrator, never implemented
// in terms of a wallet protocol here.
type WalletSession interface {
	Identity() solana.PublicKey
	// SignTransaction requests a signature for the assembled transaction.
	// Implementations report user rejection as an error; the orchestrator
	// maps it to SIGNATURE_DENIED.
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// ChainClientInterface defines the chain operations the workflow consumes
type ChainClientInterface interface {
	// ListAssetAccounts returns all token accounts owned by the identity,
	// in the order the RPC node returned them
	ListAssetAccounts(ctx context.Context, owner solana.PublicKey) ([]models.RawAssetAccount, error)
	// LatestBlockhash returns the freshness token required to authorize
	// a transaction before it expires
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// SubmitTransaction hands a signed transaction to the network
	SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// AwaitConfirmation blocks until the transaction reaches the
	// configured commitment level, the context expires, or the bounded
	// wait elapses
	AwaitConfirmation(ctx context.Context, sig solana.Signature) error
}

// InventoryServiceInterface defines inventory listing operations
type InventoryServiceInterface interface {
	Refresh(ctx context.Context, owner solana.PublicKey, epoch uint64) ([]models.AssetRecord, error)
	Snapshot() []models.AssetRecord
	Remove(accountID string) bool
	Find(accountID string) (models.AssetRecord, bool)
	Clear()
}

// BurnServiceInterface defines the burn orchestrator's user-invocable surface
type BurnServiceInterface interface {
	Select(accountID string, action models.BurnAction) error
	Confirm() error
	Cancel() error
	Status() models.BurnStatusResponse
}
