// Package walletkit implements the wallet action provider: tools operating on
// the agent's own EVM account.
package walletkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/openai/openai-go"

	"github.com/ggonzalez94/onchain-agent/internal/actions"
	"github.com/ggonzalez94/onchain-agent/internal/wallet"
)

type Provider struct {
	wallet *wallet.Provider
}

func New(w *wallet.Provider) *Provider {
	return &Provider{wallet: w}
}

func (p *Provider) Name() string { return "wallet" }

func (p *Provider) Tools() []actions.Tool {
	return []actions.Tool{
		&detailsTool{p},
		&balanceTool{p},
		&transferTool{p},
	}
}

type detailsTool struct{ p *Provider }

func (t *detailsTool) Name() string { return "get_wallet_details" }

func (t *detailsTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        "get_wallet_details",
			Description: openai.String("Get the agent wallet address and the network it operates on."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (t *detailsTool) Execute(ctx context.Context, argText string) (string, error) {
	network := t.p.wallet.Network()
	data := struct {
		Address      string `json:"address"`
		NetworkID    string `json:"network_id"`
		ChainID      int64  `json:"chain_id"`
		NativeSymbol string `json:"native_symbol"`
		Testnet      bool   `json:"testnet"`
	}{
		Address:      t.p.wallet.Address().Hex(),
		NetworkID:    network.ID,
		ChainID:      network.ChainID,
		NativeSymbol: network.NativeSymbol,
		Testnet:      network.Testnet,
	}
	return actions.MarshalResponse(t.Name(), data, nil), nil
}

type balanceTool struct{ p *Provider }

func (t *balanceTool) Name() string { return "get_balance" }

func (t *balanceTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        "get_balance",
			Description: openai.String("Get the native token balance of the agent wallet."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (t *balanceTool) Execute(ctx context.Context, argText string) (string, error) {
	balance, err := t.p.wallet.Balance(ctx)
	if err != nil {
		return "", err
	}
	data := struct {
		Address string `json:"address"`
		Balance string `json:"balance"`
		Symbol  string `json:"symbol"`
	}{
		Address: t.p.wallet.Address().Hex(),
		Balance: wallet.FormatEther(balance),
		Symbol:  t.p.wallet.Network().NativeSymbol,
	}
	return actions.MarshalResponse(t.Name(), data, nil), nil
}

type transferTool struct{ p *Provider }

func (t *transferTool) Name() string { return "native_transfer" }

func (t *transferTool) Definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        "native_transfer",
			Description: openai.String("Transfer native tokens from the agent wallet to another address. Amount is in whole units, e.g. 0.01 for 0.01 ETH."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"to":     map[string]any{"type": "string"},
					"amount": map[string]any{"type": "string"},
				},
				"required": []string{"to", "amount"},
			},
		},
	}
}

func (t *transferTool) Execute(ctx context.Context, argText string) (string, error) {
	var args struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal([]byte(argText), &args); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}
	if !common.IsHexAddress(strings.TrimSpace(args.To)) {
		return "", fmt.Errorf("invalid destination address %q", args.To)
	}
	amountWei, err := wallet.ParseEther(args.Amount)
	if err != nil {
		return "", fmt.Errorf("parse amount: %w", err)
	}

	txHash, err := t.p.wallet.TransferNative(ctx, common.HexToAddress(args.To), amountWei)
	if err != nil {
		return "", err
	}
	data := struct {
		TxHash string `json:"tx_hash"`
		To     string `json:"to"`
		Amount string `json:"amount"`
		Symbol string `json:"symbol"`
	}{
		TxHash: txHash,
		To:     common.HexToAddress(args.To).Hex(),
		Amount: args.Amount,
		Symbol: t.p.wallet.Network().NativeSymbol,
	}
	return actions.MarshalResponse(t.Name(), data, nil), nil
}
