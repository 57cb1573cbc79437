package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chris2590/meme-blazer/internal/config"
	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/pkg/logger"
	"github.com/chris2590/meme-blazer/pkg/metrics"
)

// BurnService drives the burn workflow state machine:
//
//	IDLE -> CONFIRMING -> SUBMITTING -> AWAITING_CONFIRMATION -> SUCCEEDED | FAILED
//
// Terminal states return to IDLE after the configured display delay. At
// most one burn request is in flight at a time; a second confirm while one
// is active is rejected as a no-op. The inventory is mutated only on the
// confirmed transition.
type BurnService struct {
	chain     ChainClientInterface
	sessions  *SessionService
	inventory InventoryServiceInterface
	config    *config.Config
	metrics   *metrics.MetricsCollector
	feeWallet solana.PublicKey

	mu        sync.Mutex
	state     models.BurnState
	request   *models.BurnRequest
	statusMsg string
	errCode   models.ErrorCode
	signature solana.Signature
	// seq increments on every select and terminal transition so a
	// delayed reset never clobbers a later workflow
	seq uint64
}

// NewBurnService creates the burn orchestrator
func NewBurnService(chain ChainClientInterface, sessions *SessionService, inventory InventoryServiceInterface, cfg *config.Config, collector *metrics.MetricsCollector) (*BurnService, error) {
	feeWallet, err := models.FeeWalletPubkey(cfg.Burn.FeeWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid fee wallet address %q: %w", cfg.Burn.FeeWallet, err)
	}

	return &BurnService{
		chain:     chain,
		sessions:  sessions,
		inventory: inventory,
		config:    cfg,
		metrics:   collector,
		feeWallet: feeWallet,
		state:     models.BurnStateIdle,
	}, nil
}

// Select records a burn request for the given inventory asset and moves the
// workflow to CONFIRMING. No network activity happens yet. Rejected when no
// wallet is connected, when the asset is unknown, or when the workflow is
// not idle.
func (b *BurnService) Select(accountID string, action models.BurnAction) error {
	if _, ok := b.sessions.Current(); !ok {
		return models.NewAppError(models.ErrorCodeNoSession, "No wallet connected")
	}

	if !action.Valid() {
		return models.NewAppErrorWithDetails(models.ErrorCodeInvalidAction,
			"Unknown burn action", string(action))
	}

	target, found := b.inventory.Find(accountID)
	if !found {
		return models.NewAppErrorWithDetails(models.ErrorCodeUnknownAsset,
			"Asset not found in inventory", accountID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != models.BurnStateIdle {
		if b.state.InFlight() {
			return models.NewAppError(models.ErrorCodeBurnInFlight, "A burn is already in progress")
		}
		if b.state == models.BurnStateConfirming {
			return models.NewPreconditionError("a burn request is already pending")
		}
		return models.NewPreconditionError("previous result is still displayed")
	}

	b.state = models.BurnStateConfirming
	b.request = &models.BurnRequest{
		Target:         target,
		Action:         action,
		FeeBasisPoints: b.config.Burn.FeeBasisPoints,
	}
	b.statusMsg = ""
	b.errCode = ""
	b.signature = solana.Signature{}
	b.seq++

	logger.GetLogger().Info("Burn request selected",
		zap.String("account_id", accountID),
		zap.String("action", string(action)),
		zap.String("kind", string(target.Kind)),
	)

	return nil
}

// Cancel discards the pending burn request with no side effects
func (b *BurnService) Cancel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != models.BurnStateConfirming {
		if b.state.InFlight() {
			return models.NewAppError(models.ErrorCodeBurnInFlight, "A burn is already in progress")
		}
		return models.NewPreconditionError("no burn request to cancel")
	}

	b.state = models.BurnStateIdle
	b.request = nil
	b.statusMsg = ""
	b.seq++

	return nil
}

// Confirm begins the burn protocol for the pending request. The workflow
// proceeds asynchronously; callers observe progress through Status. A
// confirm while another request is in flight is rejected as a no-op.
func (b *BurnService) Confirm() error {
	session, ok := b.sessions.Current()
	if !ok {
		return models.NewAppError(models.ErrorCodeNoSession, "No wallet connected")
	}
	epoch := b.sessions.Epoch()

	b.mu.Lock()

	if b.state.InFlight() {
		b.mu.Unlock()
		b.metrics.RecordBurnRejected()
		return models.NewAppError(models.ErrorCodeBurnInFlight, "A burn is already in progress")
	}
	if b.state != models.BurnStateConfirming || b.request == nil {
		b.mu.Unlock()
		return models.NewPreconditionError("no burn request to confirm")
	}

	req := *b.request
	b.state = models.BurnStateSubmitting
	b.statusMsg = b.preparingMessage(req)
	seq := b.seq
	b.mu.Unlock()

	b.metrics.RecordBurnStarted()

	go b.run(req, session, epoch, seq)

	return nil
}

// Status returns a snapshot of the orchestrator state for the presentation
// layer
func (b *BurnService) Status() models.BurnStatusResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	resp := models.BurnStatusResponse{
		State:         b.state,
		StatusMessage: b.statusMsg,
		ErrorCode:     b.errCode,
		Request:       b.request,
		Celebrate:     b.state == models.BurnStateSucceeded,
	}
	if !b.signature.IsZero() {
		resp.Signature = b.signature.String()
	}
	return resp
}

// HandleSessionLost fails any in-flight or pending request with
// SESSION_LOST. Registered as a disconnect hook; the session epoch has
// already been bumped, so late completions from the old session are
// discarded by their epoch guard.
func (b *BurnService) HandleSessionLost() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == models.BurnStateIdle {
		return
	}

	logger.GetLogger().Warn("Session lost with burn in progress",
		zap.String("state", string(b.state)),
	)

	appErr := models.NewSessionLostError()
	b.state = models.BurnStateFailed
	b.errCode = appErr.Code
	b.statusMsg = appErr.Message
	b.request = nil
	b.seq++
	b.metrics.RecordBurnFailed()

	b.scheduleResetLocked(b.seq)
}

// run executes signature request, submission and confirmation for one burn
// request. Every state mutation is guarded by the session epoch captured at
// confirm time.
func (b *BurnService) run(req models.BurnRequest, session WalletSession, epoch uint64, seq uint64) {
	ctx := context.Background()
	owner := session.Identity()

	log := logger.GetLogger().WithFields(map[string]interface{}{
		"account_id": req.Target.AccountID,
		"action":     string(req.Action),
		"component":  "burn_service",
	})

	instructions, err := b.buildInstructions(req, owner)
	if err != nil {
		b.fail(epoch, seq, models.NewAppErrorWithCause(models.ErrorCodeInternalError,
			"Failed to build transaction", err))
		return
	}

	// The freshness token and fee payer are set immediately before the
	// signature request to minimize the expiry race
	blockhash, err := b.chain.LatestBlockhash(ctx)
	if err != nil {
		b.fail(epoch, seq, models.NewSubmissionError(err))
		return
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(owner))
	if err != nil {
		b.fail(epoch, seq, models.NewAppErrorWithCause(models.ErrorCodeInternalError,
			"Failed to assemble transaction", err))
		return
	}

	if !b.setStatus(epoch, seq, "Please approve in your wallet...") {
		return
	}

	signed, err := session.SignTransaction(ctx, tx)
	if err != nil {
		log.Warn("Signature request denied", zap.Error(err))
		b.fail(epoch, seq, models.NewSignatureDeniedError(err))
		return
	}

	sig, err := b.chain.SubmitTransaction(ctx, signed)
	if err != nil {
		log.Error("Transaction submission failed", zap.Error(err))
		b.fail(epoch, seq, models.NewSubmissionError(err))
		return
	}

	if !b.transitionToAwaiting(epoch, seq, sig, req) {
		return
	}

	log.Info("Transaction submitted, awaiting confirmation",
		zap.String("signature", sig.String()),
	)

	if err := b.chain.AwaitConfirmation(ctx, sig); err != nil {
		if errors.Is(err, ErrConfirmationTimeout) {
			b.fail(epoch, seq, models.NewConfirmationTimeoutError(err))
		} else {
			b.fail(epoch, seq, models.NewSubmissionError(err))
		}
		return
	}

	b.succeed(epoch, seq, req, log)
}

// buildInstructions assembles the two-instruction transaction for the
// request: the destroy or close-account instruction plus the fixed fee
// transfer to the operator wallet.
func (b *BurnService) buildInstructions(req models.BurnRequest, owner solana.PublicKey) ([]solana.Instruction, error) {
	account, err := solana.PublicKeyFromBase58(req.Target.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid asset account: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(req.Target.AssetID)
	if err != nil {
		return nil, fmt.Errorf("invalid mint: %w", err)
	}

	feeTransfer := system.NewTransferInstruction(
		b.feeLamports(req.FeeBasisPoints),
		owner,
		b.feeWallet,
	).Build()

	switch req.Action {
	case models.ActionBurn:
		amount := baseUnits(req.Target.Quantity, req.Target.Precision)
		burn := token.NewBurnInstruction(
			amount,
			account,
			mint,
			owner,
			[]solana.PublicKey{},
		).Build()
		return []solana.Instruction{burn, feeTransfer}, nil

	case models.ActionCloseAccount:
		// Rent deposit is returned to the owner
		closeAccount := token.NewCloseAccountInstruction(
			account,
			owner,
			owner,
			[]solana.PublicKey{},
		).Build()
		return []solana.Instruction{closeAccount, feeTransfer}, nil

	default:
		return nil, fmt.Errorf("unknown burn action %q", req.Action)
	}
}

// feeLamports computes the operator fee: feeBasisPoints of the fixed 1 SOL
// reference amount, not of the burned asset's value (the asset has no
// transferable value at burn time)
func (b *BurnService) feeLamports(basisPoints int) uint64 {
	fee := decimal.NewFromInt(int64(solana.LAMPORTS_PER_SOL)).
		Mul(decimal.NewFromInt(int64(basisPoints))).
		Div(decimal.NewFromInt(10000)).
		Floor()
	return uint64(fee.IntPart())
}

// baseUnits converts a human-readable quantity back to the integer
// base-unit amount the burn instruction requires
func baseUnits(quantity float64, precision uint8) uint64 {
	return uint64(decimal.NewFromFloat(quantity).
		Shift(int32(precision)).
		Round(0).
		IntPart())
}

// setStatus updates the status message if the workflow still belongs to the
// current session and request. Returns false when the completion is stale.
func (b *BurnService) setStatus(epoch, seq uint64, msg string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sessions.Epoch() != epoch || b.seq != seq {
		return false
	}
	b.statusMsg = msg
	return true
}

// transitionToAwaiting moves SUBMITTING -> AWAITING_CONFIRMATION after the
// transaction was handed to the chain client
func (b *BurnService) transitionToAwaiting(epoch, seq uint64, sig solana.Signature, req models.BurnRequest) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sessions.Epoch() != epoch || b.seq != seq {
		return false
	}

	b.state = models.BurnStateAwaitingConfirmation
	b.signature = sig
	b.statusMsg = b.burningMessage(req)
	return true
}

// succeed applies the confirmed transition: exactly one inventory record is
// removed, the celebratory cue is raised, and the workflow returns to IDLE
// after the display delay
func (b *BurnService) succeed(epoch, seq uint64, req models.BurnRequest, log *logger.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sessions.Epoch() != epoch || b.seq != seq {
		log.Warn("Discarding confirmation for a stale session",
			zap.Uint64("request_epoch", epoch),
		)
		return
	}

	b.inventory.Remove(req.Target.AccountID)
	b.metrics.RecordBurnConfirmed()

	b.state = models.BurnStateSucceeded
	b.statusMsg = b.successMessage(req)
	b.errCode = ""
	b.request = nil
	b.seq++

	log.Info("Burn confirmed",
		zap.String("signature", b.signature.String()),
	)

	b.scheduleResetLocked(b.seq)
}

// fail moves the workflow to FAILED with a non-empty status message. The
// inventory is left unchanged; outside the confirmed transition no
// mutation is permitted.
func (b *BurnService) fail(epoch, seq uint64, appErr *models.AppError) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sessions.Epoch() != epoch || b.seq != seq {
		// Session changed mid-flight; HandleSessionLost already reported it
		return
	}

	msg := appErr.Message
	if appErr.Cause != nil {
		// Surface the underlying error message verbatim
		msg = fmt.Sprintf("Error: %v", appErr.Cause)
	}

	b.state = models.BurnStateFailed
	b.errCode = appErr.Code
	b.statusMsg = msg
	b.request = nil
	b.seq++
	b.metrics.RecordBurnFailed()

	logger.GetLogger().Warn("Burn failed",
		zap.String("error_code", string(appErr.Code)),
		zap.String("status", msg),
	)

	b.scheduleResetLocked(b.seq)
}

// scheduleResetLocked arms the return to IDLE after the terminal message
// has been displayed. Caller must hold b.mu.
func (b *BurnService) scheduleResetLocked(seq uint64) {
	time.AfterFunc(b.config.Burn.ResultDisplayDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		// A newer workflow owns the state now
		if b.seq != seq {
			return
		}
		if b.state != models.BurnStateSucceeded && b.state != models.BurnStateFailed {
			return
		}

		b.state = models.BurnStateIdle
		b.statusMsg = ""
		b.errCode = ""
		b.signature = solana.Signature{}
	})
}

func (b *BurnService) preparingMessage(req models.BurnRequest) string {
	if req.Action == models.ActionCloseAccount {
		return "Preparing to close account..."
	}
	if req.Target.Kind == models.AssetKindNonFungible {
		return "Preparing to burn NFT..."
	}
	return "Preparing to burn tokens..."
}

func (b *BurnService) burningMessage(req models.BurnRequest) string {
	if req.Action == models.ActionCloseAccount {
		return "Closing account..."
	}
	if req.Target.Kind == models.AssetKindNonFungible {
		return "Burning NFT..."
	}
	return "Burning tokens..."
}

func (b *BurnService) successMessage(req models.BurnRequest) string {
	if req.Action == models.ActionCloseAccount {
		return "Account closed and rent reclaimed!"
	}
	if req.Target.Kind == models.AssetKindNonFungible {
		return "NFT burned successfully!"
	}
	return "Tokens burned successfully!"
}
