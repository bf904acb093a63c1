package registry

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultNetworkID is used when NETWORK_ID is unset.
const DefaultNetworkID = "base-sepolia"

// Network describes one supported EVM network.
type Network struct {
	ID           string
	ChainID      int64
	RPCURL       string
	NativeSymbol string
	Testnet      bool
}

// Canonical default endpoints by network id. These values are used whenever
// the configuration does not pass an RPC override.
var networksByID = map[string]Network{
	"base-mainnet": {
		ID:           "base-mainnet",
		ChainID:      8453,
		RPCURL:       "https://mainnet.base.org",
		NativeSymbol: "ETH",
	},
	"base-sepolia": {
		ID:           "base-sepolia",
		ChainID:      84532,
		RPCURL:       "https://sepolia.base.org",
		NativeSymbol: "ETH",
		Testnet:      true,
	},
	"ethereum-mainnet": {
		ID:           "ethereum-mainnet",
		ChainID:      1,
		RPCURL:       "https://eth.llamarpc.com",
		NativeSymbol: "ETH",
	},
	"ethereum-sepolia": {
		ID:           "ethereum-sepolia",
		ChainID:      11155111,
		RPCURL:       "https://rpc.sepolia.org",
		NativeSymbol: "ETH",
		Testnet:      true,
	},
	"arbitrum-mainnet": {
		ID:           "arbitrum-mainnet",
		ChainID:      42161,
		RPCURL:       "https://arb1.arbitrum.io/rpc",
		NativeSymbol: "ETH",
	},
	"polygon-mainnet": {
		ID:           "polygon-mainnet",
		ChainID:      137,
		RPCURL:       "https://polygon-rpc.com",
		NativeSymbol: "POL",
	},
}

func Lookup(networkID string) (Network, error) {
	id := strings.ToLower(strings.TrimSpace(networkID))
	if id == "" {
		id = DefaultNetworkID
	}
	network, ok := networksByID[id]
	if !ok {
		return Network{}, fmt.Errorf("unsupported network id %q (known: %s)", networkID, strings.Join(IDs(), ", "))
	}
	return network, nil
}

// ResolveRPCURL prefers an explicit override over the registry default.
func ResolveRPCURL(override string, network Network) string {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override)
	}
	return network.RPCURL
}

func IDs() []string {
	ids := make([]string, 0, len(networksByID))
	for id := range networksByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
