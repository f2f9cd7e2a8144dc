package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"

	"github.com/foliodesk/foliodesk/internal/config"
	"github.com/foliodesk/foliodesk/internal/logger"
)

const (
	sandboxEndpoint = "sandbox-invest-public-api.tinkoff.ru:443"
	liveEndpoint    = "invest-public-api.tinkoff.ru:443"
)

// Client wraps the broker SDK for the handful of operations the dashboard
// proxies: holdings, order placement and market data.
type Client struct {
	Client *investgo.Client
	Config *config.Config
	Logger *logger.Logger

	instrumentCache sync.Map // instrumentUID <-> ticker
}

func NewClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Client, error) {
	endpoint := liveEndpoint
	if cfg.IsSandbox() {
		endpoint = sandboxEndpoint
	}

	investCfg := investgo.Config{
		EndPoint:  endpoint,
		Token:     cfg.Broker.Token,
		AccountId: cfg.Broker.AccountID,
		AppName:   "foliodesk",
	}

	client, err := investgo.NewClient(ctx, investCfg, log)
	if err != nil {
		return nil, fmt.Errorf("create investgo client: %w", err)
	}

	c := &Client{
		Client: client,
		Config: cfg,
		Logger: log,
	}

	if cfg.IsSandbox() && cfg.Broker.AccountID == "" {
		if err := c.setupSandbox(); err != nil {
			return nil, fmt.Errorf("setup sandbox: %w", err)
		}
	}

	return c, nil
}

func (c *Client) setupSandbox() error {
	sandbox := c.Client.NewSandboxServiceClient()

	// Top up sandbox account with 1,000,000 RUB
	_, err := sandbox.SandboxPayIn(&investgo.SandboxPayInRequest{
		AccountId: c.Client.Config.AccountId,
		Currency:  "RUB",
		Unit:      1000000,
		Nano:      0,
	})
	if err != nil {
		return fmt.Errorf("sandbox pay in: %w", err)
	}

	c.Logger.Info("sandbox account funded", "account_id", c.Client.Config.AccountId)
	return nil
}

func (c *Client) AccountID() string {
	return c.Client.Config.AccountId
}

func (c *Client) Stop() error {
	return c.Client.Stop()
}
