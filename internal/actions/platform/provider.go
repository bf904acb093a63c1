// Package platform implements the generic platform action provider: faucet
// funding plus market data lookups served through the signed platform API.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"github.com/ggonzalez94/onchain-agent/internal/actions"
	"github.com/ggonzalez94/onchain-agent/internal/cache"
	"github.com/ggonzalez94/onchain-agent/internal/registry"
)

const (
	priceTTL = 60 * time.Second
	gasTTL   = 15 * time.Second
)

// Provider exposes the platform API as agent tools. The cache is optional;
// when nil every lookup goes to the network.
type Provider struct {
	client  *Client
	cache   *cache.Store
	network registry.Network
	// Faucet funds land on this address.
	walletAddress string
	verbose       bool
}

func New(client *Client, cacheStore *cache.Store, network registry.Network, walletAddress string, verbose bool) *Provider {
	return &Provider{
		client:        client,
		cache:         cacheStore,
		network:       network,
		walletAddress: walletAddress,
		verbose:       verbose,
	}
}

func (p *Provider) Name() string { return "platform" }

func (p *Provider) Tools() []actions.Tool {
	return []actions.Tool{
		&faucetTool{p},
		&tokenPriceTool{p},
		&gasPriceTool{p},
	}
}

type faucetResponse struct {
	TxHash string `json:"tx_hash"`
	Amount string `json:"amount"`
}

type faucetTool struct{ p *Provider }

func (t *faucetTool) Name() string { return "request_faucet_funds" }

func (t *faucetTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        "request_faucet_funds",
			Description: openai.String("Request test funds from the faucet for the agent wallet. Only available on test networks."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (t *faucetTool) Execute(ctx context.Context, argText string) (string, error) {
	if !t.p.network.Testnet {
		return "", fmt.Errorf("faucet is only available on test networks, not %s", t.p.network.ID)
	}
	body, err := json.Marshal(map[string]string{
		"address":    t.p.walletAddress,
		"network_id": t.p.network.ID,
	})
	if err != nil {
		return "", fmt.Errorf("encode faucet request: %w", err)
	}
	var resp faucetResponse
	if err := t.p.client.post(ctx, "/v1/faucet", body, &resp); err != nil {
		return "", fmt.Errorf("request faucet funds: %w", err)
	}
	return actions.MarshalResponse(t.Name(), resp, nil), nil
}

type priceResponse struct {
	Symbol   string  `json:"symbol"`
	PriceUSD float64 `json:"price_usd"`
}

type tokenPriceTool struct{ p *Provider }

func (t *tokenPriceTool) Name() string { return "get_token_price" }

func (t *tokenPriceTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        "get_token_price",
			Description: openai.String("Get the current USD price of a token by symbol, e.g. ETH or USDC."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"symbol": map[string]any{"type": "string"},
				},
				"required": []string{"symbol"},
			},
		},
	}
}

func (t *tokenPriceTool) Execute(ctx context.Context, argText string) (string, error) {
	var args struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal([]byte(argText), &args); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}
	symbol := strings.ToUpper(strings.TrimSpace(args.Symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}

	key := "price:" + symbol
	if payload, ok := t.p.cached(key); ok {
		return actions.MarshalResponse(t.Name(), json.RawMessage(payload), nil), nil
	}

	var resp priceResponse
	if err := t.p.client.get(ctx, "/v1/prices/"+symbol, &resp); err != nil {
		return "", fmt.Errorf("fetch token price: %w", err)
	}
	t.p.remember(key, resp, priceTTL)
	return actions.MarshalResponse(t.Name(), resp, nil), nil
}

type gasResponse struct {
	NetworkID   string  `json:"network_id"`
	GasPriceGwei float64 `json:"gas_price_gwei"`
}

type gasPriceTool struct{ p *Provider }

func (t *gasPriceTool) Name() string { return "get_gas_price" }

func (t *gasPriceTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        "get_gas_price",
			Description: openai.String("Get the current gas price in gwei for the configured network."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (t *gasPriceTool) Execute(ctx context.Context, argText string) (string, error) {
	key := "gas:" + t.p.network.ID
	if payload, ok := t.p.cached(key); ok {
		return actions.MarshalResponse(t.Name(), json.RawMessage(payload), nil), nil
	}
	var resp gasResponse
	if err := t.p.client.get(ctx, "/v1/networks/"+t.p.network.ID+"/gas", &resp); err != nil {
		return "", fmt.Errorf("fetch gas price: %w", err)
	}
	t.p.remember(key, resp, gasTTL)
	return actions.MarshalResponse(t.Name(), resp, nil), nil
}

func (p *Provider) cached(key string) ([]byte, bool) {
	if p.cache == nil {
		return nil, false
	}
	result, err := p.cache.Get(key)
	if err != nil || !result.Hit || result.Stale {
		return nil, false
	}
	if p.verbose {
		log.Printf("[verbose] cache hit: %s (age %s)", key, result.Age.Round(time.Second))
	}
	return result.Value, true
}

func (p *Provider) remember(key string, value any, ttl time.Duration) {
	if p.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := p.cache.Set(key, payload, ttl); err != nil && p.verbose {
		log.Printf("[verbose] cache write failed: %s: %v", key, err)
	}
}
