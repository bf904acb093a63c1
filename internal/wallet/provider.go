package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ggonzalez94/onchain-agent/internal/registry"
)

// Provider manages one EVM account: its key, its network binding, and the
// chain operations the wallet action tools need.
type Provider struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	network    registry.Network
	rpcURL     string

	pollInterval time.Duration
	stepTimeout  time.Duration
}

type ProviderConfig struct {
	NetworkID string
	// RPCOverride takes precedence over the registry default endpoint.
	RPCOverride string
	// Snapshot restores a previously exported wallet; nil generates a key.
	Snapshot *Snapshot
}

func NewProvider(cfg ProviderConfig) (*Provider, error) {
	network, err := registry.Lookup(cfg.NetworkID)
	if err != nil {
		return nil, err
	}

	var pk *ecdsa.PrivateKey
	if cfg.Snapshot != nil {
		pk, err = parseHexKey(cfg.Snapshot.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("restore wallet from snapshot: %w", err)
		}
	} else {
		pk, err = crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generate wallet key: %w", err)
		}
	}

	pub, ok := pk.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid ECDSA public key")
	}

	return &Provider{
		privateKey:   pk,
		address:      crypto.PubkeyToAddress(*pub),
		network:      network,
		rpcURL:       registry.ResolveRPCURL(cfg.RPCOverride, network),
		pollInterval: 2 * time.Second,
		stepTimeout:  2 * time.Minute,
	}, nil
}

func (p *Provider) Address() common.Address { return p.address }

func (p *Provider) Network() registry.Network { return p.network }

// Export serializes the current wallet state for persistence.
func (p *Provider) Export() Snapshot {
	return Snapshot{
		NetworkID:  p.network.ID,
		Address:    p.address.Hex(),
		PrivateKey: fmt.Sprintf("%x", crypto.FromECDSA(p.privateKey)),
	}
}

// Balance returns the native balance in wei.
func (p *Provider) Balance(ctx context.Context) (*big.Int, error) {
	client, err := ethclient.DialContext(ctx, p.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()
	balance, err := client.BalanceAt(ctx, p.address, nil)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// TransferNative sends a plain value transfer and waits for the receipt.
// Returns the transaction hash once the transaction is confirmed.
func (p *Provider) TransferNative(ctx context.Context, to common.Address, amountWei *big.Int) (string, error) {
	if amountWei == nil || amountWei.Sign() <= 0 {
		return "", fmt.Errorf("transfer amount must be positive")
	}
	client, err := ethclient.DialContext(ctx, p.rpcURL)
	if err != nil {
		return "", fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("read chain id: %w", err)
	}
	if chainID.Int64() != p.network.ChainID {
		return "", fmt.Errorf("rpc chain mismatch: expected %d, got %d", p.network.ChainID, chainID.Int64())
	}

	msg := ethereum.CallMsg{From: p.address, To: &to, Value: amountWei}
	gasLimit, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		tipCap = big.NewInt(2_000_000_000) // 2 gwei fallback
	}
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("fetch latest header: %w", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(1_000_000_000)
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	nonce, err := client.PendingNonceAt(ctx, p.address)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     amountWei,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), p.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("broadcast transaction: %w", err)
	}

	if err := p.waitMined(ctx, client, signed.Hash()); err != nil {
		return signed.Hash().Hex(), err
	}
	return signed.Hash().Hex(), nil
}

func (p *Provider) waitMined(ctx context.Context, client *ethclient.Client, hash common.Hash) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.stepTimeout)
	defer cancel()
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		// Transient polling failures are retried until the timeout fires.
		receipt, err := client.TransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				return nil
			}
			return fmt.Errorf("transaction reverted on-chain")
		}
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("timed out waiting for receipt: %w", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// ParseEther converts a decimal ether amount into wei.
func ParseEther(v string) (*big.Int, error) {
	clean := strings.TrimSpace(v)
	if clean == "" {
		return nil, fmt.Errorf("empty amount")
	}
	rat, ok := new(big.Rat).SetString(clean)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", v)
	}
	if rat.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative")
	}
	scale := new(big.Rat).SetInt(big.NewInt(1_000_000_000_000_000_000))
	rat.Mul(rat, scale)
	if !rat.IsInt() {
		return nil, fmt.Errorf("amount must resolve to an integer wei value")
	}
	return new(big.Int).Set(rat.Num()), nil
}

// FormatEther renders a wei amount as a decimal ether string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	rat := new(big.Rat).SetFrac(wei, big.NewInt(1_000_000_000_000_000_000))
	out := rat.FloatString(18)
	out = strings.TrimRight(out, "0")
	out = strings.TrimRight(out, ".")
	if out == "" || out == "-" {
		return "0"
	}
	return out
}

func parseHexKey(raw string) (*ecdsa.PrivateKey, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "0x")
	if clean == "" {
		return nil, fmt.Errorf("empty private key")
	}
	pk, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return pk, nil
}
