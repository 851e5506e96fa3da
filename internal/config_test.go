package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.Index.PruneStale {
		t.Error("prune_stale should default to true")
	}
	if cfg.Embedder.Provider != "hash" {
		t.Errorf("provider = %q, want hash", cfg.Embedder.Provider)
	}
}

func TestIndexConfig_OverlapMustBeBelowChunkSize(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Index.ChunkSize = 100
	cfg.Index.ChunkOverlap = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("overlap equal to chunk size should fail")
	}
	cfg.Index.ChunkOverlap = 99
	if err := cfg.Validate(); err != nil {
		t.Fatalf("overlap below chunk size should pass: %v", err)
	}
}

func TestIndexConfig_RequiresDataDir(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Index.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty data_dir should fail")
	}
}

func TestEmbedderConfig(t *testing.T) {
	cfg := EmbedderConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty provider should default to hash: %v", err)
	}
	if cfg.Provider != "hash" {
		t.Errorf("provider = %q", cfg.Provider)
	}

	cfg = EmbedderConfig{Provider: "openai"}
	if err := cfg.Validate(); err == nil {
		t.Error("openai without api_key should fail")
	}
	cfg.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("openai with api_key should pass: %v", err)
	}

	cfg = EmbedderConfig{Provider: "word2vec"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestSearchConfig_TopKBounds(t *testing.T) {
	for _, k := range []int{0, 201} {
		cfg := SearchConfig{TopK: k}
		if err := cfg.Validate(); err == nil {
			t.Errorf("top_k %d should fail", k)
		}
	}
}

func TestScanConfig_Policy(t *testing.T) {
	cfg := ScanConfig{HiddenPrefix: "_", IgnoredDirs: []string{"build"}, SystemPrefixes: []string{"/srv"}}
	p := cfg.Policy()
	if p.HiddenPrefix != "_" || p.IgnoredDirs[0] != "build" || p.SystemPrefixes[0] != "/srv" {
		t.Errorf("policy = %+v", p)
	}
	bad := ScanConfig{IgnoredDirs: []string{""}}
	if err := bad.Validate(); err == nil {
		t.Error("empty ignored dir should fail")
	}
}
