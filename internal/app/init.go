package app

import (
	"errors"
	"fmt"

	"github.com/ggonzalez94/onchain-agent/internal/actions"
	"github.com/ggonzalez94/onchain-agent/internal/actions/platform"
	"github.com/ggonzalez94/onchain-agent/internal/actions/walletkit"
	"github.com/ggonzalez94/onchain-agent/internal/agent"
	"github.com/ggonzalez94/onchain-agent/internal/agent/checkpoint"
	"github.com/ggonzalez94/onchain-agent/internal/cache"
	"github.com/ggonzalez94/onchain-agent/internal/config"
	clierr "github.com/ggonzalez94/onchain-agent/internal/errors"
	"github.com/ggonzalez94/onchain-agent/internal/httpx"
	"github.com/ggonzalez94/onchain-agent/internal/llm"
	"github.com/ggonzalez94/onchain-agent/internal/registry"
	"github.com/ggonzalez94/onchain-agent/internal/wallet"
)

// All conversation turns run on one fixed thread.
const threadID = "onchain-agent-session"

const systemPrompt = "You are a helpful agent that can interact onchain using your wallet tools. " +
	"You can check wallet details and balances, transfer native tokens, request faucet funds on test networks, " +
	"and look up token prices and gas costs. You are also happy to play games with the user, onchain or off. " +
	"Before your first onchain action, check the wallet details to see what network you are on. " +
	"If you need funds, request them from the faucet when on a test network, otherwise ask the user. " +
	"If asked to do something beyond your tools, say you cannot and suggest what the user could do instead. " +
	"Be concise and helpful."

// session is everything a run mode needs after initialization.
type session struct {
	agent  *agent.Agent
	wallet *wallet.Provider
	store  *wallet.Store
}

// initSession performs the startup sequence: validate credentials, load the
// prior wallet snapshot (tolerating read failures), construct the model,
// wallet provider, toolkit, and agent, then persist the refreshed snapshot.
func (s *runtimeState) initSession() (*session, error) {
	if err := s.settings.Validate(); err != nil {
		return nil, err
	}
	if s.settings.NetworkDefaulted {
		_, _ = fmt.Fprintf(s.runner.stderr, "Warning: %s not set, defaulting to %s\n",
			config.EnvNetworkID, registry.DefaultNetworkID)
	}

	model := llm.NewOpenAI(s.settings.OpenAIAPIKey, s.settings.Model)

	store := wallet.NewStore(s.settings.WalletFile)
	snapshot, err := store.Load()
	if err != nil {
		// A broken snapshot only costs the prior wallet; start fresh.
		_, _ = fmt.Fprintf(s.runner.stderr, "Warning: could not read wallet snapshot: %v\n", err)
		snapshot = nil
	}

	walletProvider, err := wallet.NewProvider(wallet.ProviderConfig{
		NetworkID:   s.settings.NetworkID,
		RPCOverride: s.settings.RPCURL,
		Snapshot:    snapshot,
	})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeFatal, "configure wallet provider", err)
	}

	if s.settings.CacheEnabled && s.cache == nil {
		cacheStore, err := cache.Open(s.settings.CachePath, s.settings.CacheLockPath)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeFatal, "open lookup cache", err)
		}
		s.cache = cacheStore
	}

	httpClient := httpx.New(s.settings.Timeout, s.settings.Retries)
	platformClient := platform.NewClient(httpClient, "", s.settings.APIKey, s.settings.APISecret)
	platformProvider := platform.New(platformClient, s.cache, walletProvider.Network(),
		walletProvider.Address().Hex(), s.settings.Verbose)
	walletActions := walletkit.New(walletProvider)

	toolkit, err := actions.NewToolkit(platformProvider, walletActions)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeFatal, "build toolkit", err)
	}

	chatAgent, err := agent.New(agent.Config{
		Model:        model,
		Toolkit:      toolkit,
		Checkpoints:  checkpoint.NewMemoryStore(),
		SystemPrompt: systemPrompt,
		Verbose:      s.settings.Verbose,
	})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeFatal, "build agent", err)
	}

	// Refresh the snapshot on every startup so a freshly generated wallet
	// survives the first crash.
	if err := store.Save(walletProvider.Export()); err != nil {
		return nil, clierr.Wrap(clierr.CodeFatal, "persist wallet snapshot", err)
	}

	return &session{agent: chatAgent, wallet: walletProvider, store: store}, nil
}

func asMissingEnv(err error) (*config.MissingEnvError, bool) {
	var missing *config.MissingEnvError
	if errors.As(err, &missing) {
		return missing, true
	}
	return nil, false
}
