package milvus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// MilvusClientFactory defines the signature for creating a Milvus client
type MilvusClientFactory func(ctx context.Context, conf client.Config) (client.Client, error)

// milvusNewClient is a variable to allow mocking in tests
var milvusNewClient MilvusClientFactory = client.NewClient

var (
	ErrConnectionFailed = errors.New(errors.ErrCodeSearchError, "milvus connection failed")
	ErrUnhealthy        = errors.New(errors.ErrCodeServiceUnavailable, "milvus unhealthy")
)

// Client manages the Milvus connection of the reference library.
type Client struct {
	milvusClient client.Client
	config       config.MilvusConfig
	logger       logging.Logger
	healthy      atomic.Bool
	mu           sync.RWMutex
}

// NewClient dials Milvus and verifies the connection.
func NewClient(cfg config.MilvusConfig, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = applyDefaults(cfg)

	mc, err := connect(context.Background(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "failed to create milvus client")
	}

	c := NewClientWithMilvus(mc, cfg, logger)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := c.CheckHealth(ctx); err != nil {
		_ = c.Close()
		return nil, ErrConnectionFailed
	}

	logger.Info("Milvus client connected", logging.String("address", cfg.Addr), logging.String("collection", cfg.Collection))
	return c, nil
}

// NewClientWithMilvus wraps an existing SDK client.
func NewClientWithMilvus(mc client.Client, cfg config.MilvusConfig, logger logging.Logger) *Client {
	return &Client{milvusClient: mc, config: applyDefaults(cfg), logger: logger}
}

func applyDefaults(cfg config.MilvusConfig) config.MilvusConfig {
	if cfg.DBName == "" {
		cfg.DBName = "default"
	}
	if cfg.Collection == "" {
		cfg.Collection = "simmap_references"
	}
	if cfg.Dim == 0 {
		cfg.Dim = 2048
	}
	if cfg.NList == 0 {
		cfg.NList = 128
	}
	if cfg.NProbe == 0 {
		cfg.NProbe = 16
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return cfg
}

func connect(ctx context.Context, cfg config.MilvusConfig) (client.Client, error) {
	milvusCfg := client.Config{
		Address:  cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                60 * time.Second,
				Timeout:             20 * time.Second,
				PermitWithoutStream: true,
			}),
		},
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	return milvusNewClient(connectCtx, milvusCfg)
}

// CheckHealth checks the connection to Milvus.
func (c *Client) CheckHealth(ctx context.Context) error {
	c.mu.RLock()
	mc := c.milvusClient
	c.mu.RUnlock()
	if mc == nil {
		return ErrConnectionFailed
	}

	state, err := mc.CheckHealth(ctx)
	if err != nil || (state != nil && !state.IsHealthy) {
		c.healthy.Store(false)
		c.logger.Warn("Milvus health check failed", logging.Err(err))
		return ErrUnhealthy
	}
	c.healthy.Store(true)
	return nil
}

func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// GetMilvusClient returns the underlying Milvus client.
func (c *Client) GetMilvusClient() client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.milvusClient
}

func (c *Client) Config() config.MilvusConfig {
	return c.config
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.milvusClient == nil {
		return nil
	}
	err := c.milvusClient.Close()
	c.milvusClient = nil
	c.logger.Info("Milvus client closed")
	return err
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg config.MilvusConfig) error {
	if cfg.Addr == "" {
		return errors.New(errors.ErrCodeValidation, "milvus addr is required")
	}
	if cfg.Dim < 0 || cfg.Dim%8 != 0 {
		return errors.New(errors.ErrCodeValidation, "milvus dim must be a positive multiple of 8")
	}
	if cfg.ConnectTimeout < 0 {
		return errors.New(errors.ErrCodeValidation, "ConnectTimeout must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
