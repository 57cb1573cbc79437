package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chris2590/meme-blazer/internal/config"
)

// HealthStatus represents the health status of a service
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a health check result
type HealthCheck struct {
	Service      string        `json:"service"`
	Status       HealthStatus  `json:"status"`
	Message      string        `json:"message,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Timestamp    time.Time     `json:"timestamp"`
}

// HealthService checks the service's two external dependencies: the
// MongoDB API-key store and the Solana RPC endpoint
type HealthService struct {
	client *mongo.Client
	db     *mongo.Database
	chain  *SolanaClient
	config *config.MongoDBConfig
}

// NewHealthService creates a new health service
func NewHealthService(cfg *config.MongoDBConfig, chain *SolanaClient) (*HealthService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &HealthService{
		client: client,
		db:     client.Database(cfg.Database),
		chain:  chain,
		config: cfg,
	}, nil
}

// CheckDatabase performs a health check of the MongoDB connection
func (hs *HealthService) CheckDatabase() *HealthCheck {
	start := time.Now()

	healthCheck := &HealthCheck{
		Service:   "mongodb",
		Timestamp: start,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := hs.client.Ping(ctx, nil); err != nil {
		healthCheck.Status = HealthStatusUnhealthy
		healthCheck.Message = fmt.Sprintf("ping failed: %v", err)
		healthCheck.ResponseTime = time.Since(start)
		return healthCheck
	}

	// Verify the API-key collection is reachable
	collection := hs.db.Collection(hs.config.APIKeyCollection)
	if _, err := collection.CountDocuments(ctx, bson.M{}); err != nil {
		healthCheck.Status = HealthStatusDegraded
		healthCheck.Message = fmt.Sprintf("collection access failed: %v", err)
		healthCheck.ResponseTime = time.Since(start)
		return healthCheck
	}

	healthCheck.Status = HealthStatusHealthy
	healthCheck.Message = "all checks passed"
	healthCheck.ResponseTime = time.Since(start)

	return healthCheck
}

// CheckRPC performs a health check of the Solana RPC endpoint
func (hs *HealthService) CheckRPC() *HealthCheck {
	start := time.Now()

	healthCheck := &HealthCheck{
		Service:   "solana_rpc",
		Timestamp: start,
	}

	if err := hs.chain.IsHealthy(); err != nil {
		healthCheck.Status = HealthStatusUnhealthy
		healthCheck.Message = err.Error()
	} else {
		healthCheck.Status = HealthStatusHealthy
		healthCheck.Message = "endpoint responsive"
	}

	healthCheck.ResponseTime = time.Since(start)
	return healthCheck
}

// GetDetailedHealth returns health information for all dependencies
func (hs *HealthService) GetDetailedHealth() map[string]*HealthCheck {
	return map[string]*HealthCheck{
		"mongodb":    hs.CheckDatabase(),
		"solana_rpc": hs.CheckRPC(),
	}
}

// Close closes the database connection
func (hs *HealthService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return hs.client.Disconnect(ctx)
}
