package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ggonzalez94/onchain-agent/internal/actions"
	"github.com/ggonzalez94/onchain-agent/internal/cache"
	"github.com/ggonzalez94/onchain-agent/internal/httpx"
	"github.com/ggonzalez94/onchain-agent/internal/registry"
)

func testNetwork(t *testing.T, id string) registry.Network {
	t.Helper()
	network, err := registry.Lookup(id)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	return network
}

func findTool(t *testing.T, p *Provider, name string) actions.Tool {
	t.Helper()
	for _, tool := range p.Tools() {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func TestTokenPriceFetchesAndCaches(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/v1/prices/ETH" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("X-Signature") == "" || r.Header.Get("X-Timestamp") == "" {
			t.Errorf("missing request signature headers")
		}
		_, _ = w.Write([]byte(`{"symbol":"ETH","price_usd":3123.45}`))
	}))
	defer server.Close()

	tmp := t.TempDir()
	cacheStore, err := cache.Open(filepath.Join(tmp, "cache.db"), filepath.Join(tmp, "cache.lock"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cacheStore.Close()

	client := NewClient(httpx.New(2*time.Second, 0), server.URL, "key", "secret")
	provider := New(client, cacheStore, testNetwork(t, "base-sepolia"), "0xabc", false)

	tool := findTool(t, provider, "get_token_price")
	out, err := tool.Execute(context.Background(), `{"symbol":"eth"}`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "3123.45") {
		t.Fatalf("unexpected output: %s", out)
	}

	// Second lookup within TTL must be served from the cache.
	if _, err := tool.Execute(context.Background(), `{"symbol":"ETH"}`); err != nil {
		t.Fatalf("cached Execute failed: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}
}

func TestTokenPriceRequiresSymbol(t *testing.T) {
	client := NewClient(httpx.New(time.Second, 0), "http://127.0.0.1:0", "key", "secret")
	provider := New(client, nil, testNetwork(t, "base-sepolia"), "0xabc", false)
	tool := findTool(t, provider, "get_token_price")
	if _, err := tool.Execute(context.Background(), `{}`); err == nil {
		t.Fatal("expected error for missing symbol")
	}
	if _, err := tool.Execute(context.Background(), `not json`); err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestFaucetPostsWalletAddress(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/faucet" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"tx_hash":"0xdeadbeef","amount":"0.01"}`))
	}))
	defer server.Close()

	client := NewClient(httpx.New(2*time.Second, 0), server.URL, "key", "secret")
	provider := New(client, nil, testNetwork(t, "base-sepolia"), "0xWallet", false)

	tool := findTool(t, provider, "request_faucet_funds")
	out, err := tool.Execute(context.Background(), `{}`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if body["address"] != "0xWallet" || body["network_id"] != "base-sepolia" {
		t.Fatalf("unexpected faucet payload: %v", body)
	}
	if !strings.Contains(out, "0xdeadbeef") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestFaucetRefusesMainnet(t *testing.T) {
	client := NewClient(httpx.New(time.Second, 0), "http://127.0.0.1:0", "key", "secret")
	provider := New(client, nil, testNetwork(t, "base-mainnet"), "0xabc", false)
	tool := findTool(t, provider, "request_faucet_funds")
	_, err := tool.Execute(context.Background(), `{}`)
	if err == nil || !strings.Contains(err.Error(), "test networks") {
		t.Fatalf("expected testnet-only error, got %v", err)
	}
}

func TestGasPriceUsesNetworkPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/networks/base-sepolia/gas" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"network_id":"base-sepolia","gas_price_gwei":0.05}`))
	}))
	defer server.Close()

	client := NewClient(httpx.New(2*time.Second, 0), server.URL, "key", "secret")
	provider := New(client, nil, testNetwork(t, "base-sepolia"), "0xabc", false)

	tool := findTool(t, provider, "get_gas_price")
	out, err := tool.Execute(context.Background(), `{}`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, "0.05") {
		t.Fatalf("unexpected output: %s", out)
	}
}
