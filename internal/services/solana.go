package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/chris2590/meme-blazer/internal/config"
	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/pkg/logger"
	"github.com/chris2590/meme-blazer/pkg/metrics"
)

// ErrConfirmationTimeout is returned when a submitted transaction did not
// reach the confirmation level within the bounded wait. The outcome is
// ambiguous: the transaction may still land.
var ErrConfirmationTimeout = errors.New("confirmation timed out")

// ErrTransactionFailed is returned when the cluster reports the transaction
// as failed.
var ErrTransactionFailed = errors.New("transaction failed on chain")

// SolanaClient wraps the Solana RPC client with configuration
type SolanaClient struct {
	client  *rpc.Client
	config  *config.Config
	metrics *metrics.MetricsCollector
}

// NewSolanaClient creates a new Solana RPC client. The client is constructed
// once and shared; it is not rebuilt per operation.
func NewSolanaClient(cfg *config.Config, collector *metrics.MetricsCollector) *SolanaClient {
	return &SolanaClient{
		client:  rpc.New(cfg.RPC.Endpoint),
		config:  cfg,
		metrics: collector,
	}
}

// ListAssetAccounts fetches all SPL token accounts owned by the identity in
// one round trip, with retry logic on transient RPC failures. Order is
// preserved as returned by the node.
func (s *SolanaClient) ListAssetAccounts(ctx context.Context, owner solana.PublicKey) ([]models.RawAssetAccount, error) {
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"owner":     owner.String(),
		"component": "solana_client",
	})

	var lastErr error
	for attempt := 0; attempt <= s.config.RPC.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.RPC.Timeout)

		start := time.Now()
		out, err := s.client.GetTokenAccountsByOwner(
			attemptCtx,
			owner,
			&rpc.GetTokenAccountsConfig{
				ProgramId: solana.TokenProgramID.ToPointer(),
			},
			&rpc.GetTokenAccountsOpts{
				Commitment: rpc.CommitmentConfirmed,
				Encoding:   solana.EncodingJSONParsed,
			},
		)
		s.metrics.RecordRPCCall(time.Since(start), err == nil)
		cancel()

		if err == nil {
			accounts := make([]models.RawAssetAccount, 0, len(out.Value))
			for _, acc := range out.Value {
				if acc == nil || acc.Account.Data == nil {
					continue
				}
				parsed, perr := models.DecodeParsedTokenAccount(acc.Account.Data.GetRawJSON())
				if perr != nil {
					log.Warn("Skipping undecodable token account",
						zap.String("account", acc.Pubkey.String()),
						zap.Error(perr),
					)
					continue
				}
				accounts = append(accounts, models.RawAssetAccount{
					AccountID: acc.Pubkey.String(),
					Info:      parsed.Parsed.Info,
				})
			}
			return accounts, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < s.config.RPC.MaxRetries {
			time.Sleep(s.config.RPC.RetryDelay * time.Duration(attempt+1))
		}
	}

	return nil, fmt.Errorf("failed to list token accounts after %d attempts: %w",
		s.config.RPC.MaxRetries+1, lastErr)
}

// LatestBlockhash fetches the freshness token used to authorize a
// transaction. Callers should fetch it as close to signing as possible.
func (s *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RPC.Timeout)
	defer cancel()

	start := time.Now()
	out, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	s.metrics.RecordRPCCall(time.Since(start), err == nil)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	return out.Value.Blockhash, nil
}

// SubmitTransaction hands a signed transaction to the cluster
func (s *SolanaClient) SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.RPC.Timeout)
	defer cancel()

	start := time.Now()
	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	s.metrics.RecordRPCCall(time.Since(start), err == nil)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig, nil
}

// AwaitConfirmation polls signature statuses until the transaction is
// confirmed, fails, or the bounded wait elapses. It never waits
// indefinitely: ErrConfirmationTimeout is surfaced on expiry so callers can
// distinguish the ambiguous outcome from a submission failure.
func (s *SolanaClient) AwaitConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := time.NewTimer(s.config.Burn.ConfirmationTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(s.config.Burn.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrConfirmationTimeout
		case <-ticker.C:
			start := time.Now()
			out, err := s.client.GetSignatureStatuses(ctx, true, sig)
			s.metrics.RecordRPCCall(time.Since(start), err == nil)
			if err != nil {
				// Transient status-poll failures are retried until
				// the deadline fires
				continue
			}
			if len(out.Value) == 0 || out.Value[0] == nil {
				continue
			}

			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}
	}
}

// IsHealthy checks if the RPC endpoint is responsive
func (s *SolanaClient) IsHealthy() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return fmt.Errorf("RPC health check failed: %w", err)
	}

	return nil
}
