package services

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/pkg/logger"
)

// KeypairSession is a WalletSession backed by a locally held keypair. It
// exists so the workflow can run end to end without a browser wallet
// adapter; nothing else in the orchestrator depends on it.
type KeypairSession struct {
	key solana.PrivateKey
}

// NewKeypairSession creates a session from a base58-encoded private key
func NewKeypairSession(base58Key string) (*KeypairSession, error) {
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, models.NewAppErrorWithCause(models.ErrorCodeInvalidKey, "Invalid private key", err)
	}
	return &KeypairSession{key: key}, nil
}

// Identity returns the session's public identity
func (k *KeypairSession) Identity() solana.PublicKey {
	return k.key.PublicKey()
}

// SignTransaction signs the transaction with the session keypair
func (k *KeypairSession) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	_, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(k.key.PublicKey()) {
			return &k.key
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SessionService owns the at-most-one active wallet session. The session
// epoch increments on every connect and disconnect; async completions
// compare their captured epoch against the current one and discard stale
// results.
type SessionService struct {
	mu           sync.RWMutex
	session      WalletSession
	referralCode string
	epoch        uint64
	onDisconnect []func()
}

// NewSessionService creates a new session service with no active session
func NewSessionService() *SessionService {
	return &SessionService{}
}

// OnDisconnect registers a hook invoked after a session is torn down.
// Hooks are registered once at wiring time.
func (s *SessionService) OnDisconnect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = append(s.onDisconnect, fn)
}

// Connect establishes the active session and derives its referral code.
// Connecting while a session exists is rejected; the caller must
// disconnect first.
func (s *SessionService) Connect(ws WalletSession) (*models.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return nil, models.NewPreconditionError("a wallet is already connected")
	}

	code, err := DeriveReferralCode(ws.Identity())
	if err != nil {
		return nil, err
	}

	s.session = ws
	s.referralCode = code
	s.epoch++

	logger.GetLogger().Info("Wallet connected",
		zap.String("identity", ws.Identity().String()),
		zap.Uint64("session_epoch", s.epoch),
	)

	return &models.SessionInfo{
		Identity:     ws.Identity().String(),
		ReferralCode: code,
	}, nil
}

// Disconnect tears down the active session. The epoch bump invalidates
// every in-flight completion issued under the old session; registered
// hooks then fail the in-flight burn and clear the inventory.
func (s *SessionService) Disconnect() error {
	s.mu.Lock()

	if s.session == nil {
		s.mu.Unlock()
		return models.NewAppError(models.ErrorCodeNoSession, "No wallet connected")
	}

	identity := s.session.Identity().String()
	s.session = nil
	s.referralCode = ""
	s.epoch++
	hooks := s.onDisconnect
	s.mu.Unlock()

	logger.GetLogger().Info("Wallet disconnected", zap.String("identity", identity))

	for _, fn := range hooks {
		fn()
	}

	return nil
}

// Current returns the active session, if any
func (s *SessionService) Current() (WalletSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.session != nil
}

// Epoch returns the current session epoch
func (s *SessionService) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Info returns the connected identity and its referral code
func (s *SessionService) Info() (*models.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, models.NewAppError(models.ErrorCodeNoSession, "No wallet connected")
	}

	return &models.SessionInfo{
		Identity:     s.session.Identity().String(),
		ReferralCode: s.referralCode,
	}, nil
}
