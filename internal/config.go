package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docfind/internal/chunker"
	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/embedding"
	"github.com/starford/docfind/internal/extract"
	"github.com/starford/docfind/internal/index"
	"github.com/starford/docfind/internal/scanner"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Index    IndexConfig       `yaml:"index"`
	Scan     ScanConfig        `yaml:"scan"`
	Embedder EmbedderConfig    `yaml:"embedder"`
	Search   SearchConfig      `yaml:"search"`
	Watch    WatchConfig       `yaml:"watch"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Index, &c.Scan, &c.Embedder, &c.Search, &c.Watch, &c.Auth} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// IndexConfig holds vector store and ingestion settings.
type IndexConfig struct {
	DataDir      string        `yaml:"data_dir"`
	BatchSize    int           `yaml:"batch_size"`
	ChunkSize    int           `yaml:"chunk_size"`
	ChunkOverlap int           `yaml:"chunk_overlap"`
	Workers      int           `yaml:"workers"`
	PruneStale   bool          `yaml:"prune_stale"`
	ReleaseWait  time.Duration `yaml:"release_wait"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.ChunkSize, validation.Required, validation.Min(10)),
		validation.Field(&c.ChunkOverlap, validation.Min(0), validation.Max(c.ChunkSize-1)),
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
		validation.Field(&c.ReleaseWait, validation.Min(time.Duration(0))),
	)
}

// ScanConfig holds the directory skip policy.
type ScanConfig struct {
	HiddenPrefix   string   `yaml:"hidden_prefix"`
	IgnoredDirs    []string `yaml:"ignored_dirs"`
	SystemPrefixes []string `yaml:"system_prefixes"`
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HiddenPrefix, validation.Length(0, 8)),
		validation.Field(&c.IgnoredDirs, validation.Each(validation.Required)),
		validation.Field(&c.SystemPrefixes, validation.Each(validation.Required)),
	)
}

// Policy returns the skip policy described by the configuration.
func (c *ScanConfig) Policy() scanner.SkipPolicy {
	return scanner.SkipPolicy{
		HiddenPrefix:   c.HiddenPrefix,
		IgnoredDirs:    c.IgnoredDirs,
		SystemPrefixes: c.SystemPrefixes,
	}
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Dimensions        int           `yaml:"dimensions"`
	QueryPrefix       string        `yaml:"query_prefix"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Validate validates the embedder configuration.
func (c *EmbedderConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = embedding.ProviderHash
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(embedding.ProviderHash, embedding.ProviderOllama, embedding.ProviderOpenAI)),
		validation.Field(&c.APIKey, validation.When(c.Provider == embedding.ProviderOpenAI, validation.Required)),
		validation.Field(&c.Dimensions, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
	)
}

// Embedding converts the section into provider settings.
func (c *EmbedderConfig) Embedding() embedding.Config {
	return embedding.Config{
		Provider:          c.Provider,
		Model:             c.Model,
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		Dimensions:        c.Dimensions,
		QueryPrefix:       c.QueryPrefix,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	TopK          int  `yaml:"top_k"`
	DistinctFiles bool `yaml:"distinct_files"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TopK, validation.Required, validation.Min(1), validation.Max(200)),
	)
}

// WatchConfig lists directories the server keeps up to date.
type WatchConfig struct {
	Paths    []string      `yaml:"paths"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Paths, validation.Each(validation.Required)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	policy := scanner.DefaultSkipPolicy()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Index: IndexConfig{
			DataDir:      "./docfind_data",
			BatchSize:    docservice.DefaultBatchSize,
			ChunkSize:    chunker.DefaultChunkSize,
			ChunkOverlap: chunker.DefaultChunkOverlap,
			Workers:      extract.DefaultWorkers(),
			PruneStale:   true,
			ReleaseWait:  index.DefaultReleaseWait,
		},
		Scan: ScanConfig{
			HiddenPrefix:   policy.HiddenPrefix,
			IgnoredDirs:    policy.IgnoredDirs,
			SystemPrefixes: policy.SystemPrefixes,
		},
		Embedder: EmbedderConfig{
			Provider:    embedding.ProviderHash,
			QueryPrefix: embedding.DefaultQueryPrefix,
		},
		Search: SearchConfig{
			TopK: docservice.DefaultTopK,
		},
		Watch: WatchConfig{
			Debounce: docservice.DefaultDebounce,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
