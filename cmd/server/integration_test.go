package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris2590/meme-blazer/internal/config"
	"github.com/chris2590/meme-blazer/internal/handlers"
	"github.com/chris2590/meme-blazer/internal/middleware"
	"github.com/chris2590/meme-blazer/internal/models"
	"github.com/chris2590/meme-blazer/internal/services"
	"github.com/chris2590/meme-blazer/pkg/logger"
	"github.com/chris2590/meme-blazer/pkg/metrics"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	validKeys map[string]*models.APIKey
	mu        sync.RWMutex
	callCount int64
}

// NewMockAuthService creates a new mock authentication service
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		validKeys: make(map[string]*models.APIKey),
	}
}

// AddValidKey adds a valid API key for testing
func (m *MockAuthService) AddValidKey(key string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validKeys[key] = &models.APIKey{
		Key:       key,
		Name:      fmt.Sprintf("Test Key %s", key),
		Active:    active,
		CreatedAt: time.Now(),
	}
}

// ValidateAPIKey validates an API key (mock implementation)
func (m *MockAuthService) ValidateAPIKey(key string) (*models.APIKey, error) {
	atomic.AddInt64(&m.callCount, 1)

	m.mu.RLock()
	defer m.mu.RUnlock()

	apiKey, exists := m.validKeys[key]
	if !exists {
		return nil, services.ErrInvalidAPIKey
	}

	if !apiKey.Active {
		return nil, services.ErrInactiveAPIKey
	}

	return apiKey, nil
}

// GetCallCount returns the number of validation calls made
func (m *MockAuthService) GetCallCount() int64 {
	return atomic.LoadInt64(&m.callCount)
}

// MockChainClient implements ChainClientInterface for testing
type MockChainClient struct {
	mu       sync.Mutex
	accounts []models.RawAssetAccount

	listErr   error
	submitErr error
	// confirmGate, when set, blocks AwaitConfirmation until closed so a
	// test can act while the workflow sits in AWAITING_CONFIRMATION
	confirmGate chan struct{}
	confirmErr  error

	listCalls    int64
	submitCalls  int64
	confirmCalls int64
}

// NewMockChainClient creates a new mock chain client
func NewMockChainClient() *MockChainClient {
	return &MockChainClient{}
}

// SetAccounts sets the token accounts the mock returns for any owner
func (m *MockChainClient) SetAccounts(accounts []models.RawAssetAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = accounts
}

// SetSubmitError configures submission to fail
func (m *MockChainClient) SetSubmitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitErr = err
}

// HoldConfirmation makes AwaitConfirmation block until the returned
// function is called
func (m *MockChainClient) HoldConfirmation() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.confirmGate = gate
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

func (m *MockChainClient) ListAssetAccounts(_ context.Context, _ solana.PublicKey) ([]models.RawAssetAccount, error) {
	atomic.AddInt64(&m.listCalls, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.RawAssetAccount, len(m.accounts))
	copy(out, m.accounts)
	return out, nil
}

func (m *MockChainClient) LatestBlockhash(_ context.Context) (solana.Hash, error) {
	return solana.Hash(solana.NewWallet().PublicKey()), nil
}

func (m *MockChainClient) SubmitTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	atomic.AddInt64(&m.submitCalls, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitErr != nil {
		return solana.Signature{}, m.submitErr
	}
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, fmt.Errorf("unsigned transaction")
	}
	return tx.Signatures[0], nil
}

func (m *MockChainClient) AwaitConfirmation(_ context.Context, _ solana.Signature) error {
	atomic.AddInt64(&m.confirmCalls, 1)

	m.mu.Lock()
	gate := m.confirmGate
	confirmErr := m.confirmErr
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return confirmErr
}

// testConfig returns a config with short delays suitable for tests
func testConfig() *config.Config {
	return &config.Config{
		Burn: config.BurnConfig{
			FeeWallet:           "GcuxAvTz9SsEaWf9hLfjbrDGpeu7DUxXKEpgpCMWstDb",
			FeeBasisPoints:      100,
			ConfirmationTimeout: 5 * time.Second,
			ConfirmPollInterval: 10 * time.Millisecond,
			ResultDisplayDelay:  100 * time.Millisecond,
		},
		Cache: config.CacheConfig{
			TTL:             time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

// testHarness bundles the wired services behind a live gin engine
type testHarness struct {
	engine    *gin.Engine
	auth      *MockAuthService
	chain     *MockChainClient
	sessions  *services.SessionService
	inventory *services.InventoryService
	burner    *services.BurnService
	wallet    *solana.Wallet
}

// setupTestServer wires real services against mock auth and chain clients
func setupTestServer(t *testing.T) *testHarness {
	t.Helper()

	require.NoError(t, logger.Initialize(&logger.Config{
		Level:       "error",
		Environment: "test",
		OutputPaths: []string{"stdout"},
	}))

	cfg := testConfig()
	collector := metrics.NewMetricsCollector()

	mockAuth := NewMockAuthService()
	mockAuth.AddValidKey("test-api-key", true)
	mockAuth.AddValidKey("inactive-key", false)

	mockChain := NewMockChainClient()

	sessions := services.NewSessionService()
	inventory := services.NewInventoryService(mockChain, cfg, collector, sessions.Epoch)
	t.Cleanup(inventory.Stop)

	burner, err := services.NewBurnService(mockChain, sessions, inventory, cfg, collector)
	require.NoError(t, err)

	sessions.OnDisconnect(burner.HandleSessionLost)
	sessions.OnDisconnect(inventory.Clear)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api")
	api.Use(middleware.AuthMiddleware(mockAuth))

	healthHandler := handlers.NewHealthHandler(nil)
	router := handlers.NewRouter(sessions, inventory, burner, healthHandler)
	router.SetupAPIRoutes(api)

	return &testHarness{
		engine:    engine,
		auth:      mockAuth,
		chain:     mockChain,
		sessions:  sessions,
		inventory: inventory,
		burner:    burner,
		wallet:    solana.NewWallet(),
	}
}

// do performs an authenticated request against the harness
func (h *testHarness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-api-key")

	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

// connect establishes a keypair session over HTTP
func (h *testHarness) connect(t *testing.T) models.SessionInfo {
	t.Helper()

	w := h.do(t, "POST", "/api/session/connect", models.ConnectRequest{
		PrivateKey: h.wallet.PrivateKey.String(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var info models.SessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	return info
}

// waitForState polls burn status until the workflow reaches want
func (h *testHarness) waitForState(t *testing.T, want models.BurnState) models.BurnStatusResponse {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status := h.burner.Status()
		if status.State == want {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	status := h.burner.Status()
	t.Fatalf("workflow never reached %s, stuck in %s (%s)", want, status.State, status.StatusMessage)
	return status
}

// sampleAccounts returns one fungible token account and one NFT account
func sampleAccounts() []models.RawAssetAccount {
	tokenMint := solana.NewWallet().PublicKey().String()
	nftMint := solana.NewWallet().PublicKey().String()

	return []models.RawAssetAccount{
		{
			AccountID: solana.NewWallet().PublicKey().String(),
			Info: models.ParsedTokenInfo{
				Mint: tokenMint,
				TokenAmount: models.TokenAmount{
					Amount:   "1500000000",
					Decimals: 9,
					UIAmount: 1.5,
				},
			},
		},
		{
			AccountID: solana.NewWallet().PublicKey().String(),
			Info: models.ParsedTokenInfo{
				Mint: nftMint,
				TokenAmount: models.TokenAmount{
					Amount:   "1",
					Decimals: 0,
					UIAmount: 1,
				},
			},
		},
		{
			// Zero-balance account, must never appear in the inventory
			AccountID: solana.NewWallet().PublicKey().String(),
			Info: models.ParsedTokenInfo{
				Mint: solana.NewWallet().PublicKey().String(),
				TokenAmount: models.TokenAmount{
					Amount:   "0",
					Decimals: 6,
					UIAmount: 0,
				},
			},
		},
	}
}

func TestBurnWorkflowLifecycle(t *testing.T) {
	h := setupTestServer(t)
	h.chain.SetAccounts(sampleAccounts())

	info := h.connect(t)
	assert.Equal(t, h.wallet.PublicKey().String(), info.Identity)
	assert.Len(t, info.ReferralCode, 8)

	// Listing excludes the zero-balance account and classifies the NFT
	w := h.do(t, "GET", "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var inv models.InventoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
	require.Len(t, inv.Assets, 2)
	assert.Equal(t, models.AssetKindFungible, inv.Assets[0].Kind)
	assert.Equal(t, models.AssetKindNonFungible, inv.Assets[1].Kind)
	assert.Equal(t, models.UnknownLabel, inv.Assets[0].DisplayLabel)
	assert.Contains(t, inv.Assets[0].ImageURL, inv.Assets[0].AssetID)

	target := inv.Assets[0]

	t.Run("SelectMovesToConfirming", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			AccountID: target.AccountID,
			Action:    models.ActionBurn,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var status models.BurnStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, models.BurnStateConfirming, status.State)
		require.NotNil(t, status.Request)
		assert.Equal(t, target.AccountID, status.Request.Target.AccountID)
		assert.Equal(t, 100, status.Request.FeeBasisPoints)
	})

	t.Run("ConfirmRunsToSuccess", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/confirm", nil)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		status := h.waitForState(t, models.BurnStateSucceeded)
		assert.Equal(t, "Tokens burned successfully!", status.StatusMessage)
		assert.True(t, status.Celebrate)
		assert.NotEmpty(t, status.Signature)

		// Exactly the burned record is gone
		snapshot := h.inventory.Snapshot()
		require.Len(t, snapshot, 1)
		assert.Equal(t, models.AssetKindNonFungible, snapshot[0].Kind)
	})

	t.Run("ReturnsToIdleAfterDisplayDelay", func(t *testing.T) {
		status := h.waitForState(t, models.BurnStateIdle)
		assert.Empty(t, status.StatusMessage)
		assert.Empty(t, status.Signature)
		assert.False(t, status.Celebrate)
	})

	t.Run("CloseAccountSucceeds", func(t *testing.T) {
		snapshot := h.inventory.Snapshot()
		require.Len(t, snapshot, 1)

		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			AccountID: snapshot[0].AccountID,
			Action:    models.ActionCloseAccount,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = h.do(t, "POST", "/api/burn/confirm", nil)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		status := h.waitForState(t, models.BurnStateSucceeded)
		assert.Equal(t, "Account closed and rent reclaimed!", status.StatusMessage)
		assert.Empty(t, h.inventory.Snapshot())
	})
}

func TestBurnSelectValidation(t *testing.T) {
	h := setupTestServer(t)
	h.chain.SetAccounts(sampleAccounts())

	t.Run("NoSession", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			AccountID: "whatever",
			Action:    models.ActionBurn,
		})
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrorCodeNoSession, resp.Error.Code)
	})

	h.connect(t)
	w := h.do(t, "GET", "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("UnknownAsset", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			AccountID: solana.NewWallet().PublicKey().String(),
			Action:    models.ActionBurn,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrorCodeUnknownAsset, resp.Error.Code)
	})

	t.Run("InvalidAction", func(t *testing.T) {
		target := h.inventory.Snapshot()[0]
		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			AccountID: target.AccountID,
			Action:    "SHRED",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MissingAccountID", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			Action: models.ActionBurn,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CancelWithoutPendingRequest", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/cancel", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("CancelDiscardsPendingRequest", func(t *testing.T) {
		target := h.inventory.Snapshot()[0]
		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			AccountID: target.AccountID,
			Action:    models.ActionBurn,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = h.do(t, "POST", "/api/burn/cancel", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var status models.BurnStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, models.BurnStateIdle, status.State)

		// Inventory untouched
		assert.Len(t, h.inventory.Snapshot(), 2)
	})
}

func TestSubmissionFailureLeavesInventory(t *testing.T) {
	h := setupTestServer(t)
	h.chain.SetAccounts(sampleAccounts())
	h.connect(t)

	w := h.do(t, "GET", "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	target := h.inventory.Snapshot()[0]

	h.chain.SetSubmitError(fmt.Errorf("node rejected transaction"))

	w = h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
		AccountID: target.AccountID,
		Action:    models.ActionBurn,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, "POST", "/api/burn/confirm", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	status := h.waitForState(t, models.BurnStateFailed)
	assert.Equal(t, models.ErrorCodeSubmissionError, status.ErrorCode)
	assert.Equal(t, "Error: node rejected transaction", status.StatusMessage)

	// Failure must not mutate the inventory
	assert.Len(t, h.inventory.Snapshot(), 2)

	// Workflow resets to IDLE and a retry works after the error clears
	h.waitForState(t, models.BurnStateIdle)
	h.chain.SetSubmitError(nil)

	w = h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
		AccountID: target.AccountID,
		Action:    models.ActionBurn,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, "POST", "/api/burn/confirm", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	h.waitForState(t, models.BurnStateSucceeded)
	assert.Len(t, h.inventory.Snapshot(), 1)
}

func TestBurnMutualExclusion(t *testing.T) {
	h := setupTestServer(t)
	h.chain.SetAccounts(sampleAccounts())
	h.connect(t)

	w := h.do(t, "GET", "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)

	snapshot := h.inventory.Snapshot()
	require.Len(t, snapshot, 2)

	release := h.chain.HoldConfirmation()
	defer release()

	w = h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
		AccountID: snapshot[0].AccountID,
		Action:    models.ActionBurn,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, "POST", "/api/burn/confirm", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	h.waitForState(t, models.BurnStateAwaitingConfirmation)

	t.Run("SecondSelectRejected", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
			AccountID: snapshot[1].AccountID,
			Action:    models.ActionBurn,
		})
		assert.Equal(t, http.StatusConflict, w.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrorCodeBurnInFlight, resp.Error.Code)
	})

	t.Run("SecondConfirmRejected", func(t *testing.T) {
		w := h.do(t, "POST", "/api/burn/confirm", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("FirstBurnStillCompletes", func(t *testing.T) {
		release()
		status := h.waitForState(t, models.BurnStateSucceeded)
		assert.True(t, status.Celebrate)
		assert.Len(t, h.inventory.Snapshot(), 1)
	})
}

func TestDisconnectDuringBurn(t *testing.T) {
	h := setupTestServer(t)
	h.chain.SetAccounts(sampleAccounts())
	h.connect(t)

	w := h.do(t, "GET", "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	target := h.inventory.Snapshot()[0]

	release := h.chain.HoldConfirmation()
	defer release()

	w = h.do(t, "POST", "/api/burn/select", models.SelectBurnRequest{
		AccountID: target.AccountID,
		Action:    models.ActionBurn,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, "POST", "/api/burn/confirm", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	h.waitForState(t, models.BurnStateAwaitingConfirmation)

	// Disconnect while the transaction is awaiting confirmation
	w = h.do(t, "POST", "/api/session/disconnect", nil)
	require.Equal(t, http.StatusOK, w.Code)

	status := h.burner.Status()
	assert.Equal(t, models.BurnStateFailed, status.State)
	assert.Equal(t, models.ErrorCodeSessionLost, status.ErrorCode)

	// Inventory is cleared and the referral endpoint requires a session
	assert.Empty(t, h.inventory.Snapshot())
	w = h.do(t, "GET", "/api/referral", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The stale confirmation must not resurrect the old workflow
	release()
	time.Sleep(50 * time.Millisecond)
	status = h.burner.Status()
	assert.NotEqual(t, models.BurnStateSucceeded, status.State)
}

func TestSessionEndpoints(t *testing.T) {
	h := setupTestServer(t)

	t.Run("InvalidPrivateKey", func(t *testing.T) {
		w := h.do(t, "POST", "/api/session/connect", models.ConnectRequest{
			PrivateKey: "not-a-key",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrorCodeInvalidKey, resp.Error.Code)
	})

	t.Run("ReferralRequiresSession", func(t *testing.T) {
		w := h.do(t, "GET", "/api/referral", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("InventoryRequiresSession", func(t *testing.T) {
		w := h.do(t, "GET", "/api/inventory", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("ConnectTwiceRejected", func(t *testing.T) {
		h.connect(t)

		w := h.do(t, "POST", "/api/session/connect", models.ConnectRequest{
			PrivateKey: solana.NewWallet().PrivateKey.String(),
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("ReferralStableAcrossReconnect", func(t *testing.T) {
		w := h.do(t, "GET", "/api/referral", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var first map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
		assert.Len(t, first["referral_code"], 8)
		assert.Contains(t, first["referral_link"], first["referral_code"])

		w = h.do(t, "POST", "/api/session/disconnect", nil)
		require.Equal(t, http.StatusOK, w.Code)

		h.connect(t)
		w = h.do(t, "GET", "/api/referral", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var second map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
		assert.Equal(t, first["referral_code"], second["referral_code"])
	})
}

func TestAuthenticationScenarios(t *testing.T) {
	h := setupTestServer(t)

	request := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/burn/status", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		h.engine.ServeHTTP(w, req)
		return w
	}

	t.Run("ValidAPIKey", func(t *testing.T) {
		w := request("test-api-key")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("BearerTokenFormat", func(t *testing.T) {
		w := request("Bearer test-api-key")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		w := request("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrorCodeMissingAPIKey, resp.Error.Code)
	})

	t.Run("InvalidAPIKey", func(t *testing.T) {
		w := request("wrong-key")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("InactiveAPIKey", func(t *testing.T) {
		w := request("inactive-key")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AuthenticationCallCount", func(t *testing.T) {
		before := h.auth.GetCallCount()
		request("test-api-key")
		assert.Equal(t, before+1, h.auth.GetCallCount())
	})
}
