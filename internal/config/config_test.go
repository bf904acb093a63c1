package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/ggonzalez94/onchain-agent/internal/registry"
)

func clearCredentials(t *testing.T) {
	t.Helper()
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPISecret, "")
	t.Setenv(EnvNetworkID, "")
}

func TestValidateCollectsAllMissingNames(t *testing.T) {
	clearCredentials(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	err = settings.Validate()
	if err == nil {
		t.Fatal("expected validation error with all credentials missing")
	}
	missing, ok := err.(*MissingEnvError)
	if !ok {
		t.Fatalf("expected MissingEnvError, got %T", err)
	}
	want := []string{EnvOpenAIAPIKey, EnvAPIKey, EnvAPISecret}
	if len(missing.Names) != len(want) {
		t.Fatalf("expected %d missing names, got %v", len(want), missing.Names)
	}
	for i, name := range want {
		if missing.Names[i] != name {
			t.Fatalf("missing[%d] = %s, want %s", i, missing.Names[i], name)
		}
	}
	for _, line := range missing.ExportLines() {
		if !strings.HasPrefix(line, "export ") {
			t.Fatalf("export line %q missing placeholder prefix", line)
		}
	}
}

func TestValidateReportsOnlyAbsentNames(t *testing.T) {
	clearCredentials(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	missing, ok := settings.Validate().(*MissingEnvError)
	if !ok {
		t.Fatal("expected MissingEnvError")
	}
	if len(missing.Names) != 2 {
		t.Fatalf("expected 2 missing names, got %v", missing.Names)
	}
}

func TestValidatePassesWithAllCredentials(t *testing.T) {
	clearCredentials(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	t.Setenv(EnvAPIKey, "key")
	t.Setenv(EnvAPISecret, "secret")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := settings.Validate(); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}
}

func TestNetworkDefaultsWithWarningFlag(t *testing.T) {
	clearCredentials(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.NetworkID != registry.DefaultNetworkID {
		t.Fatalf("expected default network, got %s", settings.NetworkID)
	}
	if !settings.NetworkDefaulted {
		t.Fatal("expected NetworkDefaulted to be set")
	}

	t.Setenv(EnvNetworkID, "base-mainnet")
	settings, err = Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.NetworkID != "base-mainnet" || settings.NetworkDefaulted {
		t.Fatalf("expected explicit network without default flag, got %s defaulted=%v",
			settings.NetworkID, settings.NetworkDefaulted)
	}
}

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	clearCredentials(t)
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("model: from-file\ntimeout: 3s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvModel, "from-env")
	flags := GlobalFlags{ConfigPath: configPath, Model: "from-flag", Retries: -1}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Model != "from-flag" {
		t.Fatalf("expected flag to win, got model=%s", settings.Model)
	}
	if settings.Timeout != 3*time.Second {
		t.Fatalf("expected timeout from file, got %s", settings.Timeout)
	}
}

func TestLoadRejectsBadFlagTimeout(t *testing.T) {
	clearCredentials(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	if _, err := Load(GlobalFlags{Timeout: "not-a-duration", Retries: -1}); err == nil {
		t.Fatal("expected error for invalid --timeout")
	}
}

func TestGlobalFlagsRegisterBindsAllFlags(t *testing.T) {
	var flags GlobalFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Register(fs)

	err := fs.Parse([]string{"--network", "base-mainnet", "--retries", "5", "--no-cache", "--timeout", "30s"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if flags.NetworkID != "base-mainnet" || flags.Retries != 5 || !flags.NoCache || flags.Timeout != "30s" {
		t.Fatalf("unexpected flag values: %+v", flags)
	}

	var unset GlobalFlags
	unset.Register(pflag.NewFlagSet("defaults", pflag.ContinueOnError))
	if unset.Retries != -1 {
		t.Fatalf("expected retries sentinel -1, got %d", unset.Retries)
	}
}

func TestNoCacheEnvDisablesCache(t *testing.T) {
	clearCredentials(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(EnvNoCache, "true")

	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.CacheEnabled {
		t.Fatal("expected cache disabled via env")
	}
}
