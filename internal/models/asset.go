package models

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
)

// AssetKind classifies a burnable holding
type AssetKind string

const (
	AssetKindFungible    AssetKind = "FUNGIBLE"
	AssetKindNonFungible AssetKind = "NON_FUNGIBLE"
)

// UnknownLabel is the placeholder used when token metadata cannot be resolved
const UnknownLabel = "Unknown"

// AssetRecord represents one burnable unit held by the connected wallet.
// AccountID is the primary key; the inventory never contains two records
// with the same AccountID.
type AssetRecord struct {
	// AccountID is the token account address holding the asset
	AccountID string `json:"account_id"`
	// AssetID is the mint address of the underlying asset class
	AssetID string    `json:"asset_id"`
	Kind    AssetKind `json:"kind"`
	// Quantity in human-readable units, already adjusted for Precision
	Quantity float64 `json:"quantity"`
	// Precision is the number of fractional digits the chain represents
	// internally; needed to convert Quantity back to base units
	Precision uint8 `json:"precision"`
	// Best-effort presentational metadata; placeholder values when unresolved
	DisplayLabel string `json:"display_label"`
	ImageURL     string `json:"image_url"`
}

// BurnAction selects the effect of a burn request
type BurnAction string

const (
	// ActionBurn destroys the asset's recorded quantity
	ActionBurn BurnAction = "BURN"
	// ActionCloseAccount deallocates the holding account and returns
	// its rent deposit to the owner
	ActionCloseAccount BurnAction = "CLOSE_ACCOUNT"
)

// Valid reports whether the action is one of the known kinds
func (a BurnAction) Valid() bool {
	return a == ActionBurn || a == ActionCloseAccount
}

// BurnRequest is the ephemeral record of one user-initiated action.
// Created on select, destroyed when the workflow reaches a terminal state.
type BurnRequest struct {
	Target         AssetRecord `json:"target"`
	Action         BurnAction  `json:"action"`
	FeeBasisPoints int         `json:"fee_basis_points"`
}

// BurnState is the burn workflow's single tagged status value
type BurnState string

const (
	BurnStateIdle                 BurnState = "IDLE"
	BurnStateConfirming           BurnState = "CONFIRMING"
	BurnStateSubmitting           BurnState = "SUBMITTING"
	BurnStateAwaitingConfirmation BurnState = "AWAITING_CONFIRMATION"
	BurnStateSucceeded            BurnState = "SUCCEEDED"
	BurnStateFailed               BurnState = "FAILED"
)

// InFlight reports whether a transaction is currently being processed
func (s BurnState) InFlight() bool {
	return s == BurnStateSubmitting || s == BurnStateAwaitingConfirmation
}

// TokenAmount mirrors the jsonParsed tokenAmount shape returned by
// getTokenAccountsByOwner
type TokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       uint8   `json:"decimals"`
	UIAmount       float64 `json:"uiAmount"`
	UIAmountString string  `json:"uiAmountString"`
}

// ParsedTokenInfo is the info section of a jsonParsed SPL token account
type ParsedTokenInfo struct {
	Mint        string      `json:"mint"`
	Owner       string      `json:"owner"`
	TokenAmount TokenAmount `json:"tokenAmount"`
}

// ParsedTokenAccountData is the full jsonParsed account data envelope
type ParsedTokenAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string          `json:"type"`
		Info ParsedTokenInfo `json:"info"`
	} `json:"parsed"`
}

// RawAssetAccount is one token account as returned by the chain client,
// before classification and filtering
type RawAssetAccount struct {
	AccountID string
	Info      ParsedTokenInfo
}

// DecodeParsedTokenAccount unmarshals a jsonParsed account data payload
func DecodeParsedTokenAccount(raw json.RawMessage) (*ParsedTokenAccountData, error) {
	var data ParsedTokenAccountData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SessionInfo describes the currently connected wallet session
type SessionInfo struct {
	Identity     string `json:"identity"`
	ReferralCode string `json:"referral_code"`
}

// InventoryResponse is the inventory snapshot exposed to the presentation layer
type InventoryResponse struct {
	Identity string        `json:"identity"`
	Assets   []AssetRecord `json:"assets"`
}

// BurnStatusResponse is the orchestrator state exposed to the presentation layer
type BurnStatusResponse struct {
	State         BurnState    `json:"state"`
	StatusMessage string       `json:"status_message,omitempty"`
	ErrorCode     ErrorCode    `json:"error_code,omitempty"`
	Request       *BurnRequest `json:"request,omitempty"`
	Signature     string       `json:"signature,omitempty"`
	// Celebrate is an informational cue for the presentation layer,
	// set only on a confirmed burn
	Celebrate bool `json:"celebrate,omitempty"`
}

// SelectBurnRequest is the presentation layer's select(asset, action) payload
type SelectBurnRequest struct {
	AccountID string     `json:"account_id"`
	Action    BurnAction `json:"action"`
}

// ConnectRequest establishes a wallet session from a base58 private key.
// A production deployment would plug a real wallet adapter in instead;
// the keypair session exists so the workflow can run end to end.
type ConnectRequest struct {
	PrivateKey string `json:"private_key"`
}

// FeeWalletPubkey parses a configured fee wallet address
func FeeWalletPubkey(address string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(address)
}
