package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ggonzalez94/onchain-agent/internal/registry"
)

// Required credential environment variables. Validate reports every missing
// one, not just the first.
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvAPIKey       = "AGENT_API_KEY"
	EnvAPISecret    = "AGENT_API_SECRET"

	EnvNetworkID = "NETWORK_ID"
)

// Optional overrides.
const (
	EnvModel         = "AGENT_MODEL"
	EnvWalletFile    = "AGENT_WALLET_FILE"
	EnvRPCURL        = "AGENT_RPC_URL"
	EnvTimeout       = "AGENT_TIMEOUT"
	EnvRetries       = "AGENT_RETRIES"
	EnvNoCache       = "AGENT_NO_CACHE"
	EnvCachePath     = "AGENT_CACHE_PATH"
	EnvCacheLockPath = "AGENT_CACHE_LOCK_PATH"
)

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultWalletFile = "wallet_data.txt"
)

type GlobalFlags struct {
	ConfigPath string
	Model      string
	NetworkID  string
	RPCURL     string
	WalletFile string
	Timeout    string
	Retries    int
	NoCache    bool
	Verbose    bool
}

// Register binds the global flags to the given flag set. Retries defaults to
// -1 so an unset flag is distinguishable from an explicit 0.
func (f *GlobalFlags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&f.Model, "model", "", "Chat model id")
	fs.StringVar(&f.NetworkID, "network", "", "Network id (default base-sepolia)")
	fs.StringVar(&f.RPCURL, "rpc-url", "", "RPC endpoint override")
	fs.StringVar(&f.WalletFile, "wallet-file", "", "Wallet snapshot file path")
	fs.StringVar(&f.Timeout, "timeout", "", "Platform request timeout")
	fs.IntVar(&f.Retries, "retries", -1, "Retries per platform request")
	fs.BoolVar(&f.NoCache, "no-cache", false, "Disable the lookup cache")
	fs.BoolVar(&f.Verbose, "verbose", false, "Verbose logging")
}

// Settings is the explicit configuration object populated once at startup and
// passed to every dependent component. Components never read the process
// environment themselves.
type Settings struct {
	OpenAIAPIKey string
	APIKey       string
	APISecret    string

	NetworkID string
	// NetworkDefaulted is true when NETWORK_ID was absent everywhere and the
	// default test network was substituted; callers emit a warning for it.
	NetworkDefaulted bool

	Model      string
	RPCURL     string
	WalletFile string

	Timeout time.Duration
	Retries int

	CacheEnabled  bool
	CachePath     string
	CacheLockPath string

	Verbose bool
}

type fileConfig struct {
	Model      string `yaml:"model"`
	NetworkID  string `yaml:"network_id"`
	RPCURL     string `yaml:"rpc_url"`
	WalletFile string `yaml:"wallet_file"`
	Timeout    string `yaml:"timeout"`
	Retries    *int   `yaml:"retries"`
	Cache      struct {
		Enabled  *bool  `yaml:"enabled"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
}

func Load(flags GlobalFlags) (Settings, error) {
	// A local .env file is a convenience for development; absence is fine.
	_ = godotenv.Load()

	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if strings.TrimSpace(settings.NetworkID) == "" {
		settings.NetworkID = registry.DefaultNetworkID
		settings.NetworkDefaulted = true
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}

	return settings, nil
}

// MissingEnvError lists every required credential variable that is unset.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Names, ", "))
}

// ExportLines renders one placeholder assignment per missing variable, in the
// form echoed to stderr before the process terminates.
func (e *MissingEnvError) ExportLines() []string {
	lines := make([]string, 0, len(e.Names))
	for _, name := range e.Names {
		lines = append(lines, fmt.Sprintf("export %s=<your %s>", name, strings.ToLower(name)))
	}
	return lines
}

// Validate checks the three required credentials and collects all missing
// names before failing.
func (s Settings) Validate() error {
	var missing []string
	if strings.TrimSpace(s.OpenAIAPIKey) == "" {
		missing = append(missing, EnvOpenAIAPIKey)
	}
	if strings.TrimSpace(s.APIKey) == "" {
		missing = append(missing, EnvAPIKey)
	}
	if strings.TrimSpace(s.APISecret) == "" {
		missing = append(missing, EnvAPISecret)
	}
	if len(missing) > 0 {
		return &MissingEnvError{Names: missing}
	}
	return nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Model:         DefaultModel,
		WalletFile:    DefaultWalletFile,
		Timeout:       10 * time.Second,
		Retries:       2,
		CacheEnabled:  true,
		CachePath:     cachePath,
		CacheLockPath: lockPath,
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "onchain-agent", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "onchain-agent")
	return filepath.Join(dir, "cache.db"), filepath.Join(dir, "cache.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Model != "" {
		settings.Model = cfg.Model
	}
	if cfg.NetworkID != "" {
		settings.NetworkID = cfg.NetworkID
	}
	if cfg.RPCURL != "" {
		settings.RPCURL = cfg.RPCURL
	}
	if cfg.WalletFile != "" {
		settings.WalletFile = cfg.WalletFile
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}

	return nil
}

func applyEnv(settings *Settings) {
	settings.OpenAIAPIKey = strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey))
	settings.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	settings.APISecret = strings.TrimSpace(os.Getenv(EnvAPISecret))

	if v := strings.TrimSpace(os.Getenv(EnvNetworkID)); v != "" {
		settings.NetworkID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvModel)); v != "" {
		settings.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWalletFile)); v != "" {
		settings.WalletFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRPCURL)); v != "" {
		settings.RPCURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv(EnvRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv(EnvNoCache); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		settings.CachePath = v
	}
	if v := os.Getenv(EnvCacheLockPath); v != "" {
		settings.CacheLockPath = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.Model != "" {
		settings.Model = flags.Model
	}
	if flags.NetworkID != "" {
		settings.NetworkID = flags.NetworkID
	}
	if flags.RPCURL != "" {
		settings.RPCURL = flags.RPCURL
	}
	if flags.WalletFile != "" {
		settings.WalletFile = flags.WalletFile
	}
	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	settings.Verbose = flags.Verbose
	return nil
}
